package protocol

import (
	"fmt"
	"strings"
)

// Topic layout constants.
const (
	// topicPrefix is the root of every RE thing topic.
	topicPrefix = "re/things"

	// topicShadow is the segment following the device identity.
	topicShadow = "shadow"

	// maxTopicSegments is action plus optional response.
	maxTopicSegments = 2
)

// Topics builds and parses the shadow topics of one device.
//
// Topic grammar:
//
//	re/things/{device}/shadow/{action}[/{response}]
//
// Example:
//
//	topics := protocol.NewTopics("AA:BB:CC:DD:EE:FF")
//	topics.For(protocol.ActionGet, protocol.ResponseRejected)
//	// Returns: "re/things/AA:BB:CC:DD:EE:FF/shadow/get/rejected"
type Topics struct {
	base string
}

// NewTopics returns the topic builder scoped to deviceID.
func NewTopics(deviceID string) Topics {
	return Topics{base: fmt.Sprintf("%s/%s/%s", topicPrefix, deviceID, topicShadow)}
}

// Base returns the shadow topic root.
//
// Example: re/things/AA:BB:CC:DD:EE:FF/shadow
func (t Topics) Base() string {
	return t.base
}

// Filter returns the subscription pattern matching every shadow sub-topic.
//
// Pattern: re/things/AA:BB:CC:DD:EE:FF/shadow/#
func (t Topics) Filter() string {
	return t.base + "/#"
}

// For returns the topic for an action and optional response.
// ResponseNone omits the response segment.
//
// Example: re/things/AA:BB:CC:DD:EE:FF/shadow/reported-update
func (t Topics) For(action Action, response Response) string {
	topic := t.base + "/" + action.Token()
	if response != ResponseNone {
		topic += "/" + response.Token()
	}
	return topic
}

// Parse splits a shadow topic back into its action and response.
//
// Returns:
//   - Action: The action segment
//   - Response: The response segment, or ResponseNone when absent
//   - error: ErrForeignTopic if the topic is outside this device's shadow,
//     ErrMalformedTopic for an empty or over-long remainder,
//     ErrUnknownAction / ErrUnknownResponse for unrecognised tokens
func (t Topics) Parse(topic string) (Action, Response, error) {
	rest, ok := strings.CutPrefix(topic, t.base+"/")
	if !ok {
		return 0, ResponseNone, fmt.Errorf("%w: %q", ErrForeignTopic, topic)
	}

	parts := strings.Split(rest, "/")
	if parts[0] == "" || len(parts) > maxTopicSegments {
		return 0, ResponseNone, fmt.Errorf("%w: %q", ErrMalformedTopic, topic)
	}

	action, err := ParseAction(parts[0])
	if err != nil {
		return 0, ResponseNone, err
	}

	response := ResponseNone
	if len(parts) == maxTopicSegments {
		response, err = ParseResponse(parts[1])
		if err != nil {
			return 0, ResponseNone, err
		}
	}

	return action, response, nil
}
