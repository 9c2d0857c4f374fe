package claudekit

import (
	"encoding/json"
	"fmt"
	"strings"
)

const defaultMaxBufferSize = 1024 * 1024

// frameDecoder assembles complete JSON objects out of the CLI's stream-json
// output. The underlying reader may hand us several newline-separated objects
// in one chunk, a single object split across many chunks, or any mix of the
// two. Serialized JSON never contains a raw newline byte (newlines inside
// string values arrive escaped), so a raw newline is always a message
// separator or a reader artifact, never part of a value.
//
// The strategy is a speculative parse: accumulate fragments and retry a full
// json.Unmarshal after each one. A failed parse just means the object is not
// complete yet. Only a buffer past maxSize is an error; no partial object is
// ever emitted.
type frameDecoder struct {
	buf     strings.Builder
	maxSize int
}

func newFrameDecoder(maxSize int) *frameDecoder {
	if maxSize <= 0 {
		maxSize = defaultMaxBufferSize
	}
	return &frameDecoder{maxSize: maxSize}
}

// feed consumes one physical chunk and returns every complete object it
// finished, in stream order. A non-nil error means the accumulation buffer
// overflowed; the buffer is discarded and the decoder is unusable for the
// remainder of the stream.
func (d *frameDecoder) feed(chunk string) ([]map[string]any, error) {
	var out []map[string]any

	for _, fragment := range strings.Split(chunk, "\n") {
		// Trim and noise-filter only between objects. Mid-object, leading or
		// trailing whitespace on a fragment can be significant: a chunk
		// boundary may fall on a space inside a string value.
		if d.buf.Len() == 0 {
			fragment = strings.TrimSpace(fragment)
			if fragment == "" {
				continue
			}
			// Wrapper scripts occasionally print informational text to
			// stdout ahead of the JSON payloads; skip anything before the
			// opening brace.
			brace := strings.IndexByte(fragment, '{')
			if brace < 0 {
				continue
			}
			fragment = fragment[brace:]
		} else if fragment == "" {
			continue
		}

		d.buf.WriteString(fragment)

		if d.buf.Len() > d.maxSize {
			raw := d.buf.String()
			d.buf.Reset()
			return out, &DecodeError{
				SDKError: SDKError{
					Message: fmt.Sprintf("JSON message exceeded maximum buffer size of %d bytes", d.maxSize),
					Cause:   fmt.Errorf("buffered %d bytes without a complete object", len(raw)),
				},
				Raw: raw,
			}
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(d.buf.String()), &obj); err != nil {
			// Incomplete object, keep accumulating.
			continue
		}
		d.buf.Reset()
		out = append(out, obj)
	}

	return out, nil
}

// buffered reports how many bytes are waiting on a completing parse.
func (d *frameDecoder) buffered() int {
	return d.buf.Len()
}
