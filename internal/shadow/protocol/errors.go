package protocol

import "errors"

// Domain errors for shadow topic routing.
var (
	// ErrForeignTopic is returned when a topic is outside the device's shadow.
	ErrForeignTopic = errors.New("protocol: topic outside device shadow")

	// ErrMalformedTopic is returned when a shadow topic has no action
	// segment or too many segments.
	ErrMalformedTopic = errors.New("protocol: malformed shadow topic")

	// ErrUnknownAction is returned when the action segment is not recognised.
	ErrUnknownAction = errors.New("protocol: unknown action")

	// ErrUnknownResponse is returned when the response segment is not recognised.
	ErrUnknownResponse = errors.New("protocol: unknown response")

	// ErrPublishFailed is returned when a message cannot be encoded or sent.
	ErrPublishFailed = errors.New("protocol: publish failed")

	// ErrSubscribeFailed is returned when the shadow subscription cannot be set up.
	ErrSubscribeFailed = errors.New("protocol: subscribe failed")
)
