package intake

import "github.com/nerrad567/re-shadow-harness/internal/shadow/protocol"

// ReceiveOption narrows what Receive accepts.
type ReceiveOption func(*filter)

type filter struct {
	action            protocol.Action
	includeConnection bool
}

// OnlyAction accepts only messages for action a.
func OnlyAction(a protocol.Action) ReceiveOption {
	return func(f *filter) {
		f.action = a
	}
}

// IncludeConnection stops Receive from discarding connection-status reports.
func IncludeConnection() ReceiveOption {
	return func(f *filter) {
		f.includeConnection = true
	}
}

func (f filter) accepts(msg protocol.Message) bool {
	if f.action != 0 && msg.Action != f.action {
		return false
	}
	if !f.includeConnection && msg.IsConnectionEvent() {
		return false
	}
	return true
}
