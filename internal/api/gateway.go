package api

import (
	"context"
	"iter"
)

// Gateway opens chat sessions against a remote model
type Gateway interface {
	// Open starts a session primed with the system instruction.
	Open(ctx context.Context, systemInstruction string) (Session, error)
	// Name identifies the backend in logs and the UI.
	Name() string
}

// Session is one conversation with the remote model.
//
// Send returns a lazy sequence of non-empty text fragments. Nothing is sent
// until the sequence is ranged over. A failure is yielded as ("", err) and
// ends the sequence. Sessions keep their own history, so Send must not be
// called again before the previous sequence has finished.
type Session interface {
	Send(ctx context.Context, text string) iter.Seq2[string, error]
}

// Collect drains a fragment sequence into a single string
func Collect(seq iter.Seq2[string, error]) (string, error) {
	var out []byte
	for frag, err := range seq {
		if err != nil {
			return string(out), err
		}
		out = append(out, frag...)
	}
	return string(out), nil
}
