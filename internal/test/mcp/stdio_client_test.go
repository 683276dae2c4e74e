//go:build integration

package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"testing"
	"time"
)

// stdioClient speaks newline-delimited JSON-RPC to a server process.
type stdioClient struct {
	reader *bufio.Reader
	writer io.WriteCloser
	mu     sync.Mutex
	cmd    *exec.Cmd
}

func startServer(t *testing.T, env ...string) *stdioClient {
	t.Helper()

	cmd := exec.Command("go", "run", "./cmd/mcp")
	cmd.Dir = repoRoot(t)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.Fatalf("stdin pipe: %v", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	return &stdioClient{reader: bufio.NewReader(stdout), writer: stdin, cmd: cmd}
}

// interrupt sends SIGINT to the process group and waits for exit.
func (c *stdioClient) interrupt(timeout time.Duration) error {
	group := -c.cmd.Process.Pid
	_ = syscall.Kill(group, syscall.SIGINT)

	done := make(chan error, 1)
	go func() {
		done <- c.cmd.Wait()
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		_ = syscall.Kill(group, syscall.SIGKILL)
		<-done
		return fmt.Errorf("server did not exit within %s", timeout)
	}
}

func (c *stdioClient) send(message map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if _, err := c.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// call sends a request and waits for the response with the same id.
func (c *stdioClient) call(t *testing.T, id int, method string, params any) map[string]any {
	t.Helper()
	if err := c.send(map[string]any{"jsonrpc": "2.0", "id": id, "method": method, "params": params}); err != nil {
		t.Fatalf("%s: %v", method, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	for {
		msg, err := c.read(ctx)
		if err != nil {
			t.Fatalf("%s: read response: %v", method, err)
		}
		if got, ok := msg["id"]; ok && fmt.Sprint(got) == fmt.Sprint(id) {
			if rpcErr, ok := msg["error"]; ok {
				t.Fatalf("%s: JSON-RPC error %v", method, rpcErr)
			}
			result, ok := msg["result"].(map[string]any)
			if !ok {
				t.Fatalf("%s: response has no result: %v", method, msg)
			}
			return result
		}
	}
}

func (c *stdioClient) read(ctx context.Context) (map[string]any, error) {
	type line struct {
		msg map[string]any
		err error
	}
	lines := make(chan line, 1)
	go func() {
		for {
			data, err := c.reader.ReadBytes('\n')
			if err != nil {
				lines <- line{err: fmt.Errorf("read line: %w", err)}
				return
			}
			data = bytes.TrimSpace(data)
			if len(data) == 0 {
				continue
			}
			var msg map[string]any
			err = json.Unmarshal(data, &msg)
			lines <- line{msg: msg, err: err}
			return
		}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case l := <-lines:
		return l.msg, l.err
	}
}

func repoRoot(t *testing.T) string {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to resolve runtime caller")
	}
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found")
		}
		dir = parent
	}
}
