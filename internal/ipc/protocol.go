// Package ipc lets the capsync CLI query a running daemon. Each connection
// carries one newline-delimited JSON request and one response.
package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// CommandStatus asks the daemon for its state and counters.
const CommandStatus = "status"

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeMessage(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// readMessage decodes one line into v. kind names the message in errors.
func readMessage(r *bufio.Reader, v any, kind string) error {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("read %s: %w", kind, err)
	}
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}
