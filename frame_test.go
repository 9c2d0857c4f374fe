package claudekit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameDecoderSingleObjectPerChunk(t *testing.T) {
	d := newFrameDecoder(0)

	out, err := d.feed(`{"type":"assistant","n":1}` + "\n")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "assistant", out[0]["type"])
	assert.Zero(t, d.buffered())
}

func TestFrameDecoderMultipleObjectsInOneChunk(t *testing.T) {
	d := newFrameDecoder(0)

	chunk := `{"n":1}` + "\n" + `{"n":2}` + "\n" + `{"n":3}` + "\n"
	out, err := d.feed(chunk)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, obj := range out {
		assert.Equal(t, float64(i+1), obj["n"])
	}
}

func TestFrameDecoderObjectSplitAcrossChunks(t *testing.T) {
	d := newFrameDecoder(0)

	line := `{"type":"result","result":"hello world","num_turns":2}`
	var out []map[string]any
	// Feed one byte at a time. The object must stay buffered until it is
	// complete, then be emitted exactly once.
	for i, b := range []byte(line) {
		framed, err := d.feed(string(b))
		require.NoError(t, err)
		if i < len(line)-1 {
			require.Empty(t, framed, "no partial object may be emitted")
		}
		out = append(out, framed...)
	}
	require.Len(t, out, 1)
	assert.Equal(t, "hello world", out[0]["result"])
	assert.Zero(t, d.buffered())
}

func TestFrameDecoderArbitraryRechunking(t *testing.T) {
	objects := []map[string]any{
		{"type": "system", "subtype": "init"},
		{"type": "assistant", "message": map[string]any{"content": []any{map[string]any{"type": "text", "text": "line1\nline2"}}}},
		{"type": "result", "is_error": false},
	}
	var stream strings.Builder
	for _, obj := range objects {
		data, err := json.Marshal(obj)
		require.NoError(t, err)
		stream.Write(data)
		stream.WriteByte('\n')
	}

	for _, size := range []int{1, 3, 7, 64, 4096} {
		t.Run(fmt.Sprintf("chunk_%d", size), func(t *testing.T) {
			d := newFrameDecoder(0)
			raw := stream.String()
			var out []map[string]any
			for i := 0; i < len(raw); i += size {
				end := i + size
				if end > len(raw) {
					end = len(raw)
				}
				framed, err := d.feed(raw[i:end])
				require.NoError(t, err)
				out = append(out, framed...)
			}
			require.Len(t, out, len(objects))
			assert.Equal(t, "system", out[0]["type"])
			assert.Equal(t, "assistant", out[1]["type"])
			assert.Equal(t, "result", out[2]["type"])
		})
	}
}

func TestFrameDecoderSkipsNoiseLines(t *testing.T) {
	d := newFrameDecoder(0)

	out, err := d.feed("npm warn something\nDebugger attached.\n" + `{"type":"result"}` + "\n")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "result", out[0]["type"])
}

func TestFrameDecoderTrimsNoisePrefix(t *testing.T) {
	d := newFrameDecoder(0)

	out, err := d.feed(`[wrapper] {"type":"system","subtype":"init"}` + "\n")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "system", out[0]["type"])
}

func TestFrameDecoderBufferOverflow(t *testing.T) {
	d := newFrameDecoder(64)

	// An unterminated object bigger than the limit.
	_, err := d.feed(`{"data":"` + strings.Repeat("x", 100))
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Contains(t, decodeErr.Message, "maximum buffer size")
	assert.NotEmpty(t, decodeErr.Raw)
	// The buffer is discarded, not retained.
	assert.Zero(t, d.buffered())
}

func TestFrameDecoderObjectsBeforeOverflowStillEmitted(t *testing.T) {
	d := newFrameDecoder(64)

	chunk := `{"n":1}` + "\n" + `{"data":"` + strings.Repeat("x", 100)
	out, err := d.feed(chunk)
	require.Error(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, float64(1), out[0]["n"])
}

func TestFrameDecoderEmbeddedEscapedNewlines(t *testing.T) {
	d := newFrameDecoder(0)

	out, err := d.feed(`{"text":"first\nsecond"}` + "\n")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "first\nsecond", out[0]["text"])
}
