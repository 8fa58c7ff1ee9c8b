package models

import "time"

// Role identifies who produced a transcript message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a render-ready snapshot of one transcript entry.
//
// Only assistant messages carry streaming state; for user and system
// messages Displayed and Target are always equal and both flags are false.
type Message struct {
	ID        string
	Role      Role
	CreatedAt time.Time

	Displayed string
	Target    string
	Receiving bool
	Revealing bool
}

// Text returns the text currently visible for the message
func (m Message) Text() string {
	return m.Displayed
}

// Active reports whether the message is still streaming or animating
func (m Message) Active() bool {
	return m.Role == RoleAssistant && (m.Receiving || m.Revealing)
}

// Empty reports whether nothing has arrived for the message yet
func (m Message) Empty() bool {
	return m.Displayed == "" && m.Target == ""
}
