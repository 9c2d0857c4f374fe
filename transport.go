package claudekit

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Transport is the byte-level contract with the CLI process: write one line,
// receive framed JSON objects, half-close input, tear down. All methods are
// safe to call during teardown; a Write after Close or EndInput fails with a
// ConnectionError instead of corrupting the stream.
type Transport interface {
	Connect(ctx context.Context) error
	Write(ctx context.Context, line string) error

	// Messages yields framed objects in stream order and closes when the
	// stream ends. Errors yields at most one terminal error.
	Messages() <-chan map[string]any
	Errors() <-chan error

	EndInput() error
	Close() error
	Ready() bool
}

const closeWaitTimeout = 5 * time.Second

// cliTransport runs the claude CLI as a child process and frames its stdout
// into JSON objects. A non-nil prompt selects one-shot --print mode, in which
// stdin is closed right after spawn.
type cliTransport struct {
	opts    *Options
	prompt  *string
	cliPath string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	msgs     chan map[string]any
	errs     chan error
	readDone chan struct{}
	cancel   context.CancelFunc

	// writeMu serializes stdin writes against each other and against
	// EndInput/Close, so a write can never land on a torn-down stream.
	writeMu sync.Mutex
	ready   atomic.Bool

	exitMu  sync.Mutex
	exitErr error
}

func newCLITransport(opts *Options, prompt *string) *cliTransport {
	cliPath := opts.CLIPath
	if cliPath == "" {
		cliPath = findCLI()
	}
	return &cliTransport{
		opts:     opts,
		prompt:   prompt,
		cliPath:  cliPath,
		msgs:     make(chan map[string]any, 100),
		errs:     make(chan error, 1),
		readDone: make(chan struct{}),
	}
}

func (t *cliTransport) Connect(ctx context.Context) error {
	if t.cmd != nil {
		return nil
	}

	checkCLIVersion(ctx, t.cliPath)

	t.cmd = exec.CommandContext(ctx, t.cliPath, buildArgs(t.opts, t.prompt)...)
	if err := setProcessUser(t.cmd, t.opts.User); err != nil {
		return connectionError("failed to configure process user", err)
	}
	t.cmd.Env = t.childEnv()
	if t.opts.Cwd != "" {
		t.cmd.Dir = t.opts.Cwd
		t.cmd.Env = append(t.cmd.Env, "PWD="+t.opts.Cwd)
	}

	var err error
	if t.stdin, err = t.cmd.StdinPipe(); err != nil {
		return connectionError("failed to create stdin pipe", err)
	}
	if t.stdout, err = t.cmd.StdoutPipe(); err != nil {
		return connectionError("failed to create stdout pipe", err)
	}
	if t.opts.Stderr != nil {
		if t.stderr, err = t.cmd.StderrPipe(); err != nil {
			return connectionError("failed to create stderr pipe", err)
		}
	} else if runtime.GOOS != "windows" {
		devNull, _ := os.Open(os.DevNull)
		t.cmd.Stderr = devNull
	}

	if err := t.cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || os.IsNotExist(err) {
			return &NotFoundError{
				ConnectionError: *connectionError("claude CLI not found at: "+t.cliPath, err),
				CLIPath:         t.cliPath,
			}
		}
		return connectionError("failed to start claude CLI", err)
	}

	// One-shot mode sends nothing on stdin; close it so the CLI does not
	// wait for input.
	if t.prompt != nil {
		_ = t.stdin.Close()
		t.stdin = nil
	}

	var readCtx context.Context
	readCtx, t.cancel = context.WithCancel(context.Background())

	if t.stderr != nil {
		go t.forwardStderr()
	}
	go t.readLoop(readCtx)

	t.ready.Store(true)
	return nil
}

// childEnv builds the child's environment from the host environment plus the
// per-session additions. The host process env is never mutated.
func (t *cliTransport) childEnv() []string {
	env := os.Environ()
	for k, v := range t.opts.Env {
		env = append(env, k+"="+v)
	}
	env = append(env,
		envEntrypoint+"=sdk-go",
		envSDKVersion+"="+Version,
	)
	if t.opts.EnableFileCheckpointing {
		env = append(env, "CLAUDE_CODE_ENABLE_SDK_FILE_CHECKPOINTING=true")
	}
	return env
}

func (t *cliTransport) forwardStderr() {
	scanner := bufio.NewScanner(t.stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			t.opts.Stderr(line)
		}
	}
}

// readLoop drains stdout through the frame decoder until EOF, then reaps the
// process. It owns the msgs and errs channels.
func (t *cliTransport) readLoop(ctx context.Context) {
	defer close(t.readDone)
	defer close(t.msgs)
	defer close(t.errs)

	decoder := newFrameDecoder(t.opts.MaxBufferSize)
	reader := bufio.NewReaderSize(t.stdout, 32*1024)
	chunk := make([]byte, 32*1024)

	for {
		n, readErr := reader.Read(chunk)
		if n > 0 {
			framed, decodeErr := decoder.feed(string(chunk[:n]))
			for _, msg := range framed {
				select {
				case t.msgs <- msg:
				case <-ctx.Done():
					return
				}
			}
			if decodeErr != nil {
				t.recordExit(decodeErr)
				t.signalError(decodeErr)
				return
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) && ctx.Err() == nil {
				err := &DecodeError{
					SDKError: SDKError{Message: "failed reading JSON stream from CLI", Cause: readErr},
				}
				t.recordExit(err)
				t.signalError(err)
				return
			}
			break
		}
	}

	// Stream ended; a non-zero exit now becomes a ProcessError. When the
	// exit code cannot be determined it is reported as -1.
	if err := t.cmd.Wait(); err != nil && ctx.Err() == nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		t.recordExit(newProcessError("claude CLI exited with error", code, ""))
	}
	if err := t.lastError(); err != nil {
		t.signalError(err)
	}
}

func (t *cliTransport) Write(ctx context.Context, line string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if !t.ready.Load() || t.stdin == nil {
		return connectionError("transport is not ready for writing", nil)
	}
	if exitErr := t.lastError(); exitErr != nil {
		return connectionError("cannot write to process that exited with error", exitErr)
	}

	if _, err := io.WriteString(t.stdin, line); err != nil {
		t.ready.Store(false)
		return connectionError("failed to write to process stdin", err)
	}
	return nil
}

func (t *cliTransport) Messages() <-chan map[string]any { return t.msgs }

func (t *cliTransport) Errors() <-chan error { return t.errs }

func (t *cliTransport) EndInput() error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.stdin == nil {
		return nil
	}
	err := t.stdin.Close()
	t.stdin = nil
	return err
}

func (t *cliTransport) Ready() bool {
	return t.ready.Load()
}

// Close tears the session down: stdin first so the CLI can exit on its own,
// then a kill and a bounded wait for the read loop to reap the process.
// Secondary failures during cleanup are swallowed; the first error wins.
func (t *cliTransport) Close() error {
	t.writeMu.Lock()
	t.ready.Store(false)
	var firstErr error
	if t.stdin != nil {
		firstErr = t.stdin.Close()
		t.stdin = nil
	}
	t.writeMu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	if t.cmd != nil && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
		select {
		case <-t.readDone:
		case <-time.After(closeWaitTimeout):
		}
	}

	return firstErr
}

func (t *cliTransport) recordExit(err error) {
	if err == nil {
		return
	}
	t.exitMu.Lock()
	defer t.exitMu.Unlock()
	if t.exitErr == nil {
		t.exitErr = err
	}
}

func (t *cliTransport) lastError() error {
	t.exitMu.Lock()
	defer t.exitMu.Unlock()
	return t.exitErr
}

func (t *cliTransport) signalError(err error) {
	select {
	case t.errs <- err:
	default:
	}
}
