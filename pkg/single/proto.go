package single

import (
	"os"

	"github.com/google/uuid"
)

// Message types exchanged over the instance socket.
const (
	MsgInvocation = "invocation"
	MsgReply      = "reply"
)

// Message is the line-delimited JSON envelope on the wire. Exactly one
// payload pointer is set, matching Type.
type Message struct {
	Type       string      `json:"type"`
	Invocation *Invocation `json:"invocation,omitempty"`
	Reply      *Reply      `json:"reply,omitempty"`
}

// Invocation is a secondary instance's command line, shipped to the primary.
// Dir is the secondary's working directory so relative paths in Args resolve
// where the user typed them.
type Invocation struct {
	ID   string   `json:"id"`
	Args []string `json:"args"`
	Dir  string   `json:"dir,omitempty"`
}

// Reply is one unit of the primary's response: output lines first, then a
// final Done reply carrying the exit code.
type Reply struct {
	Stream string `json:"stream,omitempty"` // "stdout" or "stderr"
	Line   string `json:"line,omitempty"`
	Done   bool   `json:"done,omitempty"`
	Exit   int    `json:"exit,omitempty"`
}

// NewInvocation builds an Invocation for the current process: fresh ID for
// log correlation, current working directory captured.
func NewInvocation(args []string) Invocation {
	dir, _ := os.Getwd()
	return Invocation{
		ID:   uuid.NewString(),
		Args: args,
		Dir:  dir,
	}
}
