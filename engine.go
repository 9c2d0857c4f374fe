package claudekit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultControlTimeout = 60 * time.Second
	defaultMessageBuffer  = 100
)

// engineConfig is the slice of Options the control engine needs.
type engineConfig struct {
	canUseTool  CanUseToolFunc
	hooks       map[HookEvent][]HookMatcher
	toolServers map[string]*ToolServer
	agents      map[string]AgentDefinition
	initTimeout time.Duration
	buffer      int
}

func engineConfigFrom(opts *Options) engineConfig {
	return engineConfig{
		canUseTool:  opts.CanUseTool,
		hooks:       opts.Hooks,
		toolServers: opts.sdkServers(),
		agents:      opts.Agents,
		buffer:      opts.MessageBuffer,
	}
}

// pendingCall is a single-resolution slot for one outstanding control
// request. Whichever of succeed/fail runs first wins; later calls are no-ops,
// so a late response after a timeout is dropped harmlessly.
type pendingCall struct {
	subtype string
	done    chan struct{}
	once    sync.Once
	result  map[string]any
	err     error
}

func (p *pendingCall) succeed(result map[string]any) {
	p.once.Do(func() {
		p.result = result
		close(p.done)
	})
}

func (p *pendingCall) fail(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// engine is the protocol state machine multiplexed over one Transport. It
// routes every framed object into one of three paths: resolving a pending
// correlation, dispatching a CLI-initiated control request, or delivering an
// ordinary message to the caller.
//
// The engine exclusively owns the pending-correlation map and the hook and
// tool registries. The registries are immutable once initialize has run, so
// concurrently dispatched handlers read them without locks.
type engine struct {
	transport Transport

	canUseTool  CanUseToolFunc
	hooks       map[HookEvent][]HookMatcher
	toolServers map[string]*ToolServer
	agents      map[string]AgentDefinition

	pending   sync.Map // request_id -> *pendingCall
	callbacks map[string]HookCallback

	// msgs is the bounded delivery channel: a full channel blocks the read
	// loop rather than dropping, so a slow consumer throttles stdout drain.
	msgs chan map[string]any

	group   *errgroup.Group
	cancel  context.CancelFunc
	started atomic.Bool
	closed  atomic.Bool

	firstResultOnce sync.Once
	firstResult     chan struct{}

	initTimeout  time.Duration
	closeTimeout time.Duration
	initResult   map[string]any

	errMu   sync.Mutex
	termErr error
}

func newEngine(transport Transport, cfg engineConfig) *engine {
	if cfg.initTimeout <= 0 {
		cfg.initTimeout = defaultControlTimeout
	}
	if cfg.buffer <= 0 {
		cfg.buffer = defaultMessageBuffer
	}
	return &engine{
		transport:    transport,
		canUseTool:   cfg.canUseTool,
		hooks:        cfg.hooks,
		toolServers:  cfg.toolServers,
		agents:       cfg.agents,
		callbacks:    make(map[string]HookCallback),
		msgs:         make(chan map[string]any, cfg.buffer),
		firstResult:  make(chan struct{}),
		initTimeout:  cfg.initTimeout,
		closeTimeout: streamCloseTimeout(),
	}
}

// start launches the background read loop. Calling it again is a no-op.
func (e *engine) start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.group, runCtx = errgroup.WithContext(runCtx)
	e.group.Go(func() error { return e.readLoop(runCtx) })
	return nil
}

func (e *engine) readLoop(ctx context.Context) error {
	defer close(e.msgs)

	msgCh := e.transport.Messages()
	errCh := e.transport.Errors()

	for {
		select {
		case <-ctx.Done():
			if e.closed.Load() {
				return nil
			}
			err := ctx.Err()
			e.fatal(ctx, err)
			return err

		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				e.fatal(ctx, err)
				return err
			}

		case msg, ok := <-msgCh:
			if !ok {
				// The transport signals its terminal error before closing
				// channels, so a buffered error may still be waiting.
				select {
				case err, open := <-errCh:
					if open && err != nil {
						e.fatal(ctx, err)
						return err
					}
				default:
				}
				return nil
			}
			if e.closed.Load() {
				return nil
			}
			if err := e.route(ctx, msg); err != nil {
				return err
			}
		}
	}
}

// route handles one framed object from the transport.
func (e *engine) route(ctx context.Context, msg map[string]any) error {
	switch msgType, _ := msg["type"].(string); msgType {
	case controlTypeResponse:
		e.resolveResponse(msg)
		return nil

	case controlTypeRequest:
		// Inbound requests run concurrently; each writes back exactly one
		// response and can never take down the read loop.
		go e.handleControlRequest(ctx, msg)
		return nil

	case controlTypeCancelRequest:
		// Received and parsed but deliberately not acted on: no cancellation
		// semantics are defined for in-flight dispatches yet.
		return nil

	default:
		if msgType == "result" {
			e.firstResultOnce.Do(func() { close(e.firstResult) })
		}
		select {
		case e.msgs <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// resolveResponse completes the pending correlation named by the envelope.
// Unmatched request ids belong to abandoned or timed-out requests and are
// dropped.
func (e *engine) resolveResponse(msg map[string]any) {
	body, _ := msg["response"].(map[string]any)
	if body == nil {
		return
	}
	requestID, _ := body["request_id"].(string)
	if requestID == "" {
		return
	}
	val, ok := e.pending.Load(requestID)
	if !ok {
		return
	}
	call := val.(*pendingCall)

	if subtype, _ := body["subtype"].(string); subtype == "error" {
		errMsg, _ := body["error"].(string)
		call.fail(protocolError(call.subtype, "control request failed: "+errMsg, nil))
		return
	}
	call.succeed(body)
}

// fatal fails every outstanding correlation immediately and pushes one error
// sentinel so the consuming iterator surfaces a clear failure instead of
// hanging out its timeouts.
func (e *engine) fatal(ctx context.Context, err error) {
	e.recordErr(err)
	e.failAllPending(err)
	select {
	case e.msgs <- map[string]any{"type": "error", "error": err.Error()}:
	case <-ctx.Done():
	}
}

func (e *engine) handleControlRequest(ctx context.Context, msg map[string]any) {
	requestID, _ := msg["request_id"].(string)
	request, _ := msg["request"].(map[string]any)
	if requestID == "" || request == nil {
		return
	}

	payload, err := e.dispatch(ctx, request)

	var resp *controlResponse
	if err != nil {
		resp = errorResponse(requestID, err)
	} else {
		resp = successResponse(requestID, payload)
	}
	_ = e.writeJSON(ctx, resp)
}

// dispatch runs one inbound control request. Callback errors and panics are
// both converted into an error return for this one request.
func (e *engine) dispatch(ctx context.Context, request map[string]any) (payload map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panicked: %v", r)
		}
	}()

	switch subtype, _ := request["subtype"].(string); subtype {
	case controlCanUseTool:
		return e.dispatchCanUseTool(ctx, request)
	case controlHookCallback:
		return e.dispatchHookCallback(ctx, request)
	case controlMcpMessage:
		return e.dispatchMcpMessage(ctx, request)
	default:
		return nil, fmt.Errorf("unsupported control request subtype: %q", subtype)
	}
}

func (e *engine) dispatchCanUseTool(ctx context.Context, request map[string]any) (map[string]any, error) {
	if e.canUseTool == nil {
		return nil, errors.New("canUseTool callback is not registered")
	}

	var req struct {
		ToolName    string             `json:"tool_name"`
		Input       map[string]any     `json:"input"`
		Suggestions []PermissionUpdate `json:"permission_suggestions"`
	}
	if err := decodeInto(request, &req); err != nil {
		return nil, err
	}
	if req.Input == nil {
		req.Input = map[string]any{}
	}

	result, err := e.canUseTool(ctx, req.ToolName, req.Input, ToolPermissionContext{Suggestions: req.Suggestions})
	if err != nil {
		return nil, err
	}

	switch r := result.(type) {
	case *PermissionAllow:
		payload := map[string]any{"behavior": "allow"}
		if r.UpdatedInput != nil {
			payload["updatedInput"] = r.UpdatedInput
		} else {
			payload["updatedInput"] = req.Input
		}
		if len(r.UpdatedPermissions) > 0 {
			updates := make([]map[string]any, len(r.UpdatedPermissions))
			for i := range r.UpdatedPermissions {
				updates[i] = r.UpdatedPermissions[i].wire()
			}
			payload["updatedPermissions"] = updates
		}
		return payload, nil

	case *PermissionDeny:
		payload := map[string]any{"behavior": "deny", "message": r.Message}
		if r.Interrupt {
			payload["interrupt"] = true
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("unexpected permission result type: %T", result)
	}
}

func (e *engine) dispatchHookCallback(ctx context.Context, request map[string]any) (map[string]any, error) {
	callbackID, _ := request["callback_id"].(string)
	callback, ok := e.callbacks[callbackID]
	if !ok {
		return nil, fmt.Errorf("no hook callback registered for id %q", callbackID)
	}

	var input HookInput
	if raw, ok := request["input"].(map[string]any); ok {
		if err := decodeInto(raw, &input); err != nil {
			return nil, err
		}
	}
	toolUseID, _ := request["tool_use_id"].(string)

	output, err := callback(ctx, input, toolUseID, HookContext{})
	if err != nil {
		return nil, err
	}
	if output == nil {
		return map[string]any{}, nil
	}

	var wire map[string]any
	if err := decodeInto(output, &wire); err != nil {
		return nil, err
	}
	if wire == nil {
		wire = map[string]any{}
	}
	return wire, nil
}

func (e *engine) dispatchMcpMessage(ctx context.Context, request map[string]any) (map[string]any, error) {
	serverName, _ := request["server_name"].(string)
	message, _ := request["message"].(map[string]any)
	if serverName == "" || message == nil {
		return nil, errors.New("mcp_message request missing server_name or message")
	}

	server, ok := e.toolServers[serverName]
	if !ok {
		return map[string]any{
			"mcp_response": rpcError(message["id"], rpcMethodNotFound, fmt.Sprintf("server %q not found", serverName)),
		}, nil
	}

	return map[string]any{"mcp_response": server.handle(ctx, message)}, nil
}

// sendControl issues one outgoing control request and blocks until its
// correlated response, the timeout, or ctx cancellation. The pending entry is
// removed on every exit path so late responses cannot leak.
func (e *engine) sendControl(ctx context.Context, subtype string, fields map[string]any, timeout time.Duration) (map[string]any, error) {
	if err := e.terminalErr(); err != nil {
		return nil, err
	}

	requestID := "req_" + uuid.NewString()
	call := &pendingCall{subtype: subtype, done: make(chan struct{})}
	e.pending.Store(requestID, call)
	defer e.pending.Delete(requestID)

	request := map[string]any{"subtype": subtype}
	for k, v := range fields {
		request[k] = v
	}
	envelope := &controlRequest{
		Type:      controlTypeRequest,
		RequestID: requestID,
		Request:   request,
	}
	if err := e.writeJSON(ctx, envelope); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-call.done:
		if call.err != nil {
			return nil, call.err
		}
		payload, _ := call.result["response"].(map[string]any)
		if payload == nil {
			payload = map[string]any{}
		}
		return payload, nil
	case <-timer.C:
		return nil, protocolError(subtype, fmt.Sprintf("control request timed out: %s", subtype), nil)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// initialize announces the session to the CLI: every hook matcher is
// enumerated as generated callback ids, and the result is cached as the
// session's initialization state. Spawning in-process tool servers can be
// slow, so this blocks on the dedicated, longer timeout.
func (e *engine) initialize(ctx context.Context) (map[string]any, error) {
	hooksConfig := map[string]any{}
	nextCallback := 0
	for event, matchers := range e.hooks {
		if len(matchers) == 0 {
			continue
		}
		configs := make([]map[string]any, 0, len(matchers))
		for _, matcher := range matchers {
			ids := make([]string, len(matcher.Hooks))
			for i, callback := range matcher.Hooks {
				id := fmt.Sprintf("hook_%d", nextCallback)
				nextCallback++
				e.callbacks[id] = callback
				ids[i] = id
			}
			mc := map[string]any{
				"matcher":         matcher.Matcher,
				"hookCallbackIds": ids,
			}
			if matcher.Timeout != nil {
				mc["timeout"] = *matcher.Timeout
			}
			configs = append(configs, mc)
		}
		hooksConfig[string(event)] = configs
	}

	fields := map[string]any{"hooks": hooksConfig}
	if len(e.agents) > 0 {
		agents := make(map[string]map[string]any, len(e.agents))
		for name, agent := range e.agents {
			a := map[string]any{
				"description": agent.Description,
				"prompt":      agent.Prompt,
			}
			if len(agent.Tools) > 0 {
				a["tools"] = agent.Tools
			}
			if agent.Model != "" {
				a["model"] = agent.Model
			}
			agents[name] = a
		}
		fields["agents"] = agents
	}

	result, err := e.sendControl(ctx, controlInitialize, fields, e.initTimeout)
	if err != nil {
		return nil, err
	}
	e.initResult = result
	return result, nil
}

func (e *engine) interrupt(ctx context.Context) error {
	_, err := e.sendControl(ctx, controlInterrupt, nil, defaultControlTimeout)
	return err
}

func (e *engine) setPermissionMode(ctx context.Context, mode string) error {
	_, err := e.sendControl(ctx, controlSetPermissionMode, map[string]any{"mode": mode}, defaultControlTimeout)
	return err
}

// setModel accepts nil to reset the CLI to its default model.
func (e *engine) setModel(ctx context.Context, model any) error {
	_, err := e.sendControl(ctx, controlSetModel, map[string]any{"model": model}, defaultControlTimeout)
	return err
}

func (e *engine) rewindFiles(ctx context.Context, userMessageID string) error {
	_, err := e.sendControl(ctx, controlRewindFiles, map[string]any{"user_message_id": userMessageID}, defaultControlTimeout)
	return err
}

func (e *engine) mcpStatus(ctx context.Context) (map[string]any, error) {
	return e.sendControl(ctx, controlMcpStatus, nil, defaultControlTimeout)
}

// receive exposes the ordinary-message stream. The channel closes when the
// session ends; an object with type "error" is the terminal error sentinel.
func (e *engine) receive() <-chan map[string]any {
	return e.msgs
}

// writeMessage sends one outbound conversation message.
func (e *engine) writeMessage(ctx context.Context, msg map[string]any) error {
	return e.writeJSON(ctx, msg)
}

// startInputStream forwards messages to the CLI under the engine's
// supervision; the task is joined during close and its failure becomes the
// session's terminal error.
func (e *engine) startInputStream(ctx context.Context, messages <-chan map[string]any) {
	e.group.Go(func() error { return e.streamInput(ctx, messages) })
}

func (e *engine) streamInput(ctx context.Context, messages <-chan map[string]any) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				e.awaitStreamClose(ctx)
				return e.transport.EndInput()
			}
			if e.closed.Load() {
				return nil
			}
			if err := e.writeJSON(ctx, msg); err != nil {
				return err
			}
		}
	}
}

// awaitStreamClose delays the stdin half-close when hooks or in-process tool
// servers are registered: the CLI may still need to issue control requests
// that only the SDK can answer, and closing input early can race that
// exchange. Without hooks or tool servers input closes immediately.
func (e *engine) awaitStreamClose(ctx context.Context) {
	if len(e.hooks) == 0 && len(e.toolServers) == 0 {
		return
	}
	logger().Debug("waiting for first result before closing stdin",
		"hooks", len(e.hooks), "tool_servers", len(e.toolServers))
	select {
	case <-e.firstResult:
	case <-time.After(e.closeTimeout):
	case <-ctx.Done():
	}
}

// close tears the session down: outstanding correlations are failed, the
// supervised tasks are cancelled and joined, and the transport is released.
// close reports the session's terminal error, if any.
func (e *engine) close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.failAllPending(connectionError("session closed", nil))

	if e.cancel != nil {
		e.cancel()
	}
	var groupErr error
	if e.group != nil {
		groupErr = e.group.Wait()
	}
	closeErr := e.transport.Close()

	if err := e.terminalErr(); err != nil {
		return err
	}
	if groupErr != nil && !errors.Is(groupErr, context.Canceled) {
		return groupErr
	}
	return closeErr
}

func (e *engine) writeJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return e.transport.Write(ctx, string(data)+"\n")
}

func (e *engine) failAllPending(err error) {
	e.pending.Range(func(_, value any) bool {
		value.(*pendingCall).fail(err)
		return true
	})
}

func (e *engine) recordErr(err error) {
	if err == nil {
		return
	}
	e.errMu.Lock()
	defer e.errMu.Unlock()
	if e.termErr == nil {
		e.termErr = err
	}
}

func (e *engine) terminalErr() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.termErr
}

// decodeInto round-trips src through JSON into dst, converting between the
// raw map shapes on the wire and the typed structs in the API.
func decodeInto(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
