package api

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"strings"
	"sync"
	"time"
)

// ScriptedTurn is one canned reply
type ScriptedTurn struct {
	Fragments []string `json:"fragments"`
	// Error, when set, fails the turn after the fragments were sent.
	Error string `json:"error,omitempty"`
}

// Script drives a ScriptedGateway
type Script struct {
	Turns     []ScriptedTurn `json:"turns"`
	OpenError string         `json:"open_error,omitempty"`
	DelayMs   int            `json:"delay_ms,omitempty"`
}

// LoadScript reads a replay script from disk.
// The file may be plain JSON or JSON inside a markdown code fence.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("failed to read script: %w", err)
	}
	script, err := ParseJSONResponse[Script](string(data))
	if err != nil {
		return Script{}, fmt.Errorf("failed to parse script %s: %w", path, err)
	}
	if len(script.Turns) == 0 && script.OpenError == "" {
		return Script{}, fmt.Errorf("script %s has no turns", path)
	}
	return script, nil
}

// DemoScript returns the canned lesson used by --demo
func DemoScript() Script {
	return Script{
		DelayMs: 40,
		Turns: []ScriptedTurn{
			{Fragments: []string{
				"## Welcome!\n\n",
				"I'm your tutor for this demo lesson. ",
				"No network is involved: every reply is scripted.\n\n",
				"Our **first topic** is about getting comfortable with this screen. ",
				"Type a message and press *Enter* to answer.\n\n",
				"What would you like to learn today?",
			}},
			{Fragments: []string{
				"That's a great answer! ",
				"Notice how my reply appears one character at a time, ",
				"even though it arrives in larger pieces.\n\n",
				"- Press `Esc` to go back to the course list\n",
				"- Press `Ctrl+Y` to copy my last reply\n\n",
				"Shall we keep going?",
			}},
			{Fragments: []string{
				"Excellent. In a real lesson I would now move to the next topic ",
				"and ask you a question about it.\n\n",
				"Thanks for trying the demo!",
			}},
		},
	}
}

// ScriptedGateway replays canned turns without any network access.
// Once the script runs out the last turn repeats.
type ScriptedGateway struct {
	script Script
	delay  time.Duration

	mu      sync.Mutex
	next    int
	opened  int
	sent    []string
	systems []string
}

// NewScriptedGateway creates a gateway replaying script
func NewScriptedGateway(script Script) *ScriptedGateway {
	return &ScriptedGateway{
		script: script,
		delay:  time.Duration(script.DelayMs) * time.Millisecond,
	}
}

// Name implements Gateway
func (g *ScriptedGateway) Name() string {
	return "scripted"
}

// Open implements Gateway
func (g *ScriptedGateway) Open(ctx context.Context, systemInstruction string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.opened++
	g.systems = append(g.systems, systemInstruction)

	if g.script.OpenError != "" {
		return nil, errors.New(g.script.OpenError)
	}
	return &scriptedSession{gateway: g}, nil
}

// OpenCount returns how many sessions were opened
func (g *ScriptedGateway) OpenCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opened
}

// Sent returns every message passed to Send, in order
func (g *ScriptedGateway) Sent() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.sent...)
}

// SystemInstructions returns the instruction of every opened session
func (g *ScriptedGateway) SystemInstructions() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.systems...)
}

func (g *ScriptedGateway) nextTurn(text string) ScriptedTurn {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, text)

	if len(g.script.Turns) == 0 {
		return ScriptedTurn{}
	}
	i := g.next
	if i >= len(g.script.Turns) {
		i = len(g.script.Turns) - 1
	}
	g.next++
	return g.script.Turns[i]
}

type scriptedSession struct {
	gateway *ScriptedGateway
}

// Send implements Session
func (s *scriptedSession) Send(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		turn := s.gateway.nextTurn(text)

		for _, frag := range turn.Fragments {
			if s.gateway.delay > 0 {
				timer := time.NewTimer(s.gateway.delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					yield("", ctx.Err())
					return
				case <-timer.C:
				}
			} else if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}

			if frag == "" {
				continue
			}
			if !yield(frag, nil) {
				return
			}
		}

		if turn.Error != "" {
			yield("", errors.New(turn.Error))
		}
	}
}

// DescribeScript summarizes a script for logs
func DescribeScript(script Script) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d turns", len(script.Turns))
	if script.DelayMs > 0 {
		fmt.Fprintf(&b, ", %dms delay", script.DelayMs)
	}
	if script.OpenError != "" {
		b.WriteString(", open fails")
	}
	return b.String()
}
