package claudekit

import (
	"context"
	"sync"
)

// Client is a bidirectional, stateful session with the claude CLI: send
// prompts at any time, receive streamed messages, and issue control commands
// like Interrupt or SetModel mid-conversation.
type Client struct {
	options *Options

	// newTransport builds the session transport; swapped out in tests.
	newTransport func(opts *Options) Transport

	mu        sync.Mutex
	transport Transport
	session   *engine
	closed    bool
}

// NewClient builds a client; Connect starts the CLI process.
func NewClient(opts ...Option) *Client {
	return &Client{
		options: applyOptions(opts),
		newTransport: func(o *Options) Transport {
			return newCLITransport(o, nil)
		},
	}
}

// Connect spawns the CLI in streaming mode, starts the read loop, and runs
// the initialize handshake.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return connectionError("client is closed", nil)
	}
	if c.session != nil {
		return nil
	}

	opts := *c.options
	if opts.CanUseTool != nil {
		if opts.PermissionPromptToolName != "" {
			return &SDKError{Message: "CanUseTool cannot be combined with PermissionPromptToolName"}
		}
		opts.PermissionPromptToolName = "stdio"
	}

	transport := c.newTransport(&opts)
	if err := transport.Connect(ctx); err != nil {
		return err
	}

	session := newEngine(transport, engineConfigFrom(&opts))
	if err := session.start(ctx); err != nil {
		_ = transport.Close()
		return err
	}
	if _, err := session.initialize(ctx); err != nil {
		_ = session.close()
		return err
	}

	c.transport = transport
	c.session = session
	return nil
}

// Query sends a prompt on the default session.
func (c *Client) Query(ctx context.Context, prompt string) error {
	return c.QueryWithSession(ctx, prompt, "default")
}

// QueryWithSession sends a prompt under an explicit session ID.
func (c *Client) QueryWithSession(ctx context.Context, prompt, sessionID string) error {
	session, err := c.connected()
	if err != nil {
		return err
	}
	if sessionID == "" {
		sessionID = "default"
	}
	return session.writeMessage(ctx, map[string]any{
		"type":               "user",
		"message":            map[string]any{"role": "user", "content": prompt},
		"parent_tool_use_id": nil,
		"session_id":         sessionID,
	})
}

// QueryStream forwards a sequence of prepared messages until the channel
// closes or ctx is cancelled. Messages without a session_id get
// defaultSessionID. The input side stays open for further queries.
func (c *Client) QueryStream(ctx context.Context, messages <-chan map[string]any, defaultSessionID string) error {
	session, err := c.connected()
	if err != nil {
		return err
	}
	if defaultSessionID == "" {
		defaultSessionID = "default"
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if msg == nil {
				continue
			}
			if _, exists := msg["session_id"]; !exists {
				msg["session_id"] = defaultSessionID
			}
			if err := session.writeMessage(ctx, msg); err != nil {
				return err
			}
		}
	}
}

// ReceiveMessages yields every message from the CLI until the session ends.
func (c *Client) ReceiveMessages(ctx context.Context) <-chan Message {
	msgs, _ := c.ReceiveMessagesWithErrors(ctx)
	return msgs
}

// ReceiveMessagesWithErrors additionally yields the terminal error, if any.
// Drain the message channel before reading the error channel.
func (c *Client) ReceiveMessagesWithErrors(ctx context.Context) (<-chan Message, <-chan error) {
	return c.receive(ctx, false)
}

// ReceiveResponse yields messages up to and including the next result
// message, then stops.
func (c *Client) ReceiveResponse(ctx context.Context) <-chan Message {
	msgs, _ := c.ReceiveResponseWithErrors(ctx)
	return msgs
}

// ReceiveResponseWithErrors is ReceiveResponse with a terminal error channel.
func (c *Client) ReceiveResponseWithErrors(ctx context.Context) (<-chan Message, <-chan error) {
	return c.receive(ctx, true)
}

func (c *Client) receive(ctx context.Context, untilResult bool) (<-chan Message, <-chan error) {
	msgs := make(chan Message, defaultMessageBuffer)
	errs := make(chan error, 1)

	go func() {
		defer close(msgs)
		defer close(errs)

		session, err := c.connected()
		if err != nil {
			errs <- err
			return
		}

		for raw := range session.receive() {
			if rawType, _ := raw["type"].(string); rawType == "error" {
				text, _ := raw["error"].(string)
				if text == "" {
					text = "unknown stream error"
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
			if untilResult {
				if _, ok := msg.(*ResultMessage); ok {
					return
				}
			}
		}
		if err := session.terminalErr(); err != nil {
			errs <- err
		}
	}()

	return msgs, errs
}

// Interrupt stops the current turn.
func (c *Client) Interrupt(ctx context.Context) error {
	session, err := c.connected()
	if err != nil {
		return err
	}
	return session.interrupt(ctx)
}

// SetPermissionMode switches the permission mode mid-conversation.
func (c *Client) SetPermissionMode(ctx context.Context, mode PermissionMode) error {
	session, err := c.connected()
	if err != nil {
		return err
	}
	return session.setPermissionMode(ctx, string(mode))
}

// SetModel switches the model mid-conversation.
func (c *Client) SetModel(ctx context.Context, model string) error {
	return c.setModel(ctx, model)
}

// ResetModel restores the CLI's default model.
func (c *Client) ResetModel(ctx context.Context) error {
	return c.setModel(ctx, nil)
}

func (c *Client) setModel(ctx context.Context, model any) error {
	session, err := c.connected()
	if err != nil {
		return err
	}
	return session.setModel(ctx, model)
}

// RewindFiles restores checkpointed files to their state at a given user
// message. Requires EnableFileCheckpointing.
func (c *Client) RewindFiles(ctx context.Context, userMessageID string) error {
	session, err := c.connected()
	if err != nil {
		return err
	}
	return session.rewindFiles(ctx, userMessageID)
}

// MCPServerStatus reports the CLI's view of configured MCP servers.
func (c *Client) MCPServerStatus(ctx context.Context) (map[string]any, error) {
	session, err := c.connected()
	if err != nil {
		return nil, err
	}
	return session.mcpStatus(ctx)
}

// Close ends the session and releases the CLI process. Closing twice is a
// no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var err error
	if c.session != nil {
		err = c.session.close()
		c.session = nil
	}
	c.transport = nil
	return err
}

func (c *Client) connected() (*engine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, connectionError("not connected: call Connect first", nil)
	}
	return c.session, nil
}
