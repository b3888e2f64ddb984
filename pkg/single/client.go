package single

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
)

// Forward ships inv to the primary listening at socketPath, streams the
// primary's output to stdout and stderr, and returns the exit code the
// primary reported for the invocation.
func Forward(ctx context.Context, socketPath string, inv Invocation, stdout, stderr io.Writer) (int, error) {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return 0, fmt.Errorf("dial primary %s: %w", socketPath, err)
	}
	defer func() { _ = conn.Close() }()

	enc := json.NewEncoder(conn)
	if err := enc.Encode(Message{Type: MsgInvocation, Invocation: &inv}); err != nil {
		return 0, fmt.Errorf("send invocation: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Type != MsgReply || msg.Reply == nil {
			continue
		}
		if msg.Reply.Done {
			return msg.Reply.Exit, nil
		}
		w := stdout
		if msg.Reply.Stream == "stderr" {
			w = stderr
		}
		fmt.Fprintln(w, msg.Reply.Line)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read reply: %w", err)
	}
	return 0, fmt.Errorf("primary closed the connection mid-invocation")
}
