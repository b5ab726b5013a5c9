package protocol

import (
	"fmt"
	"time"

	"github.com/nerrad567/re-shadow-harness/internal/shadow/codec"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/packet"
)

// Action is the shadow operation a message belongs to.
type Action uint8

// Shadow actions.
const (
	ActionGet Action = iota + 1
	ActionDesiredUpdate
	ActionReportedUpdate
	ActionDelete
)

// actionTokens maps each action to its topic segment.
var actionTokens = map[Action]string{
	ActionGet:            "get",
	ActionDesiredUpdate:  "desired-update",
	ActionReportedUpdate: "reported-update",
	ActionDelete:         "delete",
}

// Actions returns every action in declaration order.
func Actions() []Action {
	return []Action{ActionGet, ActionDesiredUpdate, ActionReportedUpdate, ActionDelete}
}

// Token returns the topic segment for the action.
func (a Action) Token() string {
	if tok, ok := actionTokens[a]; ok {
		return tok
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// String returns the upper-case action name used in logs.
func (a Action) String() string {
	switch a {
	case ActionGet:
		return "GET"
	case ActionDesiredUpdate:
		return "DESIRED_UPDATE"
	case ActionReportedUpdate:
		return "REPORTED_UPDATE"
	case ActionDelete:
		return "DELETE"
	default:
		return a.Token()
	}
}

// ParseAction resolves a topic segment to an Action.
func ParseAction(token string) (Action, error) {
	for a, tok := range actionTokens {
		if tok == token {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, token)
}

// Response marks a reply as accepted or rejected. Requests carry ResponseNone.
type Response uint8

// Shadow responses.
const (
	ResponseNone Response = iota
	ResponseAccepted
	ResponseRejected
)

// responseTokens maps each response to its topic segment.
var responseTokens = map[Response]string{
	ResponseAccepted: "accepted",
	ResponseRejected: "rejected",
}

// Responses returns every response value, ResponseNone first.
func Responses() []Response {
	return []Response{ResponseNone, ResponseAccepted, ResponseRejected}
}

// Token returns the topic segment for the response, empty for ResponseNone.
func (r Response) Token() string {
	return responseTokens[r]
}

// String returns the upper-case response name used in logs.
func (r Response) String() string {
	switch r {
	case ResponseNone:
		return "NONE"
	case ResponseAccepted:
		return "ACCEPTED"
	case ResponseRejected:
		return "REJECTED"
	default:
		return fmt.Sprintf("response(%d)", uint8(r))
	}
}

// ParseResponse resolves a topic segment to a Response.
func ParseResponse(token string) (Response, error) {
	for r, tok := range responseTokens {
		if tok == token {
			return r, nil
		}
	}
	return ResponseNone, fmt.Errorf("%w: %q", ErrUnknownResponse, token)
}

// Message is one shadow exchange between the device and the harness.
type Message struct {
	Action   Action
	Response Response
	State    codec.State
}

// PacketType returns the packet type carried by the message state.
func (m Message) PacketType() (packet.Type, error) {
	return packet.TypeOf(m.State)
}

// IsConnectionEvent reports whether the message is a reported-update
// carrying a connection-status packet. The device sends these as
// periodic pings; they are rarely what a test waits for.
func (m Message) IsConnectionEvent() bool {
	return m.Action == ActionReportedUpdate && packet.IsConnection(m.State)
}

// String formats the message for logs.
func (m Message) String() string {
	return fmt.Sprintf("Message{%s/%s, %v}", m.Action, m.Response, m.State)
}

// Direction tells whether a frame was sent or received.
type Direction uint8

// Frame directions.
const (
	Inbound Direction = iota + 1
	Outbound
)

// String returns "inbound" or "outbound".
func (d Direction) String() string {
	switch d {
	case Inbound:
		return "inbound"
	case Outbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// Frame is the wire-level record of one publish or delivery.
//
// Err is set when the frame was rejected (inbound frames that failed to
// parse or decode, outbound frames that failed to encode or publish). In
// that case Message may be partially filled.
type Frame struct {
	Direction Direction
	Topic     string
	Payload   []byte
	Message   Message
	Err       error
	At        time.Time
}
