package single

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
)

// Handler runs one forwarded invocation and returns its exit code. Whatever
// it writes to stdout and stderr is streamed back to the secondary line by
// line.
type Handler func(ctx context.Context, inv Invocation, stdout, stderr io.Writer) int

// Server is the primary's side of the instance socket.
type Server struct {
	socketPath string
	handler    Handler

	mu sync.Mutex
	ln net.Listener
}

// NewServer creates a Server. Nothing is bound until Listen.
func NewServer(socketPath string, handler Handler) *Server {
	return &Server{socketPath: socketPath, handler: handler}
}

// Listen cleans any stale socket file and binds the instance socket. Kept
// separate from Serve so callers learn about bind failures synchronously.
func (s *Server) Listen() error {
	if err := cleanStaleSocket(s.socketPath); err != nil {
		return err
	}
	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen unix %s: %w", s.socketPath, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Serve accepts forwarded invocations until ctx is canceled. Each
// connection carries one invocation; replies stream back on the same
// connection. The socket file is unlinked when the listener closes.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return fmt.Errorf("serve: Listen was not called")
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

// Close shuts the listener down outside of Serve's context cancellation.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

// handleConn reads one invocation off the connection, runs the handler with
// its output teed into reply messages, and finishes with a Done reply
// carrying the exit code.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	scanner := bufio.NewScanner(conn)
	var encMu sync.Mutex
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Type != MsgInvocation || msg.Invocation == nil {
			continue
		}

		stdout := &replyWriter{mu: &encMu, enc: enc, stream: "stdout"}
		stderr := &replyWriter{mu: &encMu, enc: enc, stream: "stderr"}
		code := s.handler(ctx, *msg.Invocation, stdout, stderr)
		stdout.flush()
		stderr.flush()

		encMu.Lock()
		_ = enc.Encode(Message{Type: MsgReply, Reply: &Reply{Done: true, Exit: code}})
		encMu.Unlock()
		return
	}
}

// replyWriter turns a byte stream into per-line Reply messages. A trailing
// fragment without a newline is sent by flush.
type replyWriter struct {
	mu     *sync.Mutex
	enc    *json.Encoder
	stream string
	buf    bytes.Buffer
}

func (w *replyWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		data := w.buf.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		line := string(data[:i])
		w.buf.Next(i + 1)
		if err := w.send(line); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

func (w *replyWriter) flush() {
	if w.buf.Len() == 0 {
		return
	}
	_ = w.send(w.buf.String())
	w.buf.Reset()
}

func (w *replyWriter) send(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(Message{Type: MsgReply, Reply: &Reply{Stream: w.stream, Line: line}})
}
