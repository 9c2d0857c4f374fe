// Package claudekit drives the Claude Code CLI as a subprocess, exposing
// one-shot queries, streaming input, bidirectional clients, lifecycle hooks,
// tool permission callbacks, and in-process MCP tool servers over the CLI's
// stream-json control protocol.
//
// Quick start:
//
//	msgs, errs := claudekit.Query(ctx, "What is 2+2?",
//	    claudekit.WithModel("claude-sonnet-4-5"),
//	)
//	for msg := range msgs {
//	    if m, ok := msg.(*claudekit.AssistantMessage); ok {
//	        for _, block := range m.Content {
//	            if tb, ok := block.(*claudekit.TextBlock); ok {
//	                fmt.Println(tb.Text)
//	            }
//	        }
//	    }
//	}
//	if err := <-errs; err != nil {
//	    log.Fatal(err)
//	}
package claudekit

import "context"

// Query runs a one-shot prompt. The CLI is invoked in --print mode with the
// prompt inline and its stdin closed immediately; hooks and permission
// callbacks need a streaming session and are rejected here.
//
// The returned message channel closes after the final result message. The
// error channel yields at most one error; drain messages before reading it.
func Query(ctx context.Context, prompt string, opts ...Option) (<-chan Message, <-chan error) {
	return run(ctx, &prompt, nil, opts...)
}

// QueryStream runs a session fed by a channel of prepared messages. Input is
// half-closed when the channel closes, deferred past the first result when
// hooks or in-process tool servers are active.
func QueryStream(ctx context.Context, input <-chan map[string]any, opts ...Option) (<-chan Message, <-chan error) {
	return run(ctx, nil, input, opts...)
}

func run(ctx context.Context, prompt *string, input <-chan map[string]any, opts ...Option) (<-chan Message, <-chan error) {
	msgs := make(chan Message, defaultMessageBuffer)
	errs := make(chan error, 1)

	go func() {
		defer close(msgs)
		defer close(errs)

		options := applyOptions(opts)

		if options.CanUseTool != nil {
			if prompt != nil {
				errs <- &SDKError{Message: "CanUseTool requires streaming input; use QueryStream instead of Query"}
				return
			}
			if options.PermissionPromptToolName != "" {
				errs <- &SDKError{Message: "CanUseTool cannot be combined with PermissionPromptToolName"}
				return
			}
			options.PermissionPromptToolName = "stdio"
		}
		if prompt != nil && len(options.Hooks) > 0 {
			errs <- &SDKError{Message: "hooks require streaming input; use QueryStream instead of Query"}
			return
		}

		transport := newCLITransport(options, prompt)
		if err := transport.Connect(ctx); err != nil {
			errs <- err
			return
		}

		session := newEngine(transport, engineConfigFrom(options))
		if err := session.start(ctx); err != nil {
			_ = transport.Close()
			errs <- err
			return
		}
		defer func() { _ = session.close() }()

		// The initialize handshake only exists on streaming sessions; in
		// --print mode the CLI never issues control requests.
		if prompt == nil {
			if _, err := session.initialize(ctx); err != nil {
				errs <- err
				return
			}
			session.startInputStream(ctx, input)
		}

		for raw := range session.receive() {
			if rawType, _ := raw["type"].(string); rawType == "error" {
				text, _ := raw["error"].(string)
				if text == "" {
					text = "unknown transport error"
				}
				errs <- &SDKError{Message: text}
				return
			}
			msg, err := parseMessage(raw)
			if err != nil {
				errs <- err
				return
			}
			select {
			case msgs <- msg:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if err := session.terminalErr(); err != nil {
			errs <- err
		}
	}()

	return msgs, errs
}
