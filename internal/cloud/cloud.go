package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/re-shadow-harness/internal/shadow/codec"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/intake"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/packet"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/protocol"
)

// Journal observes every frame. *journal.Recorder satisfies it.
type Journal interface {
	Observe(frame protocol.Frame)
}

// Telemetry records reported states. *telemetry.Recorder satisfies it.
type Telemetry interface {
	RecordState(deviceID string, state codec.State) error
}

// Logger is the logging surface used by the cloud and its protocol.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Options configures a Cloud. Journal, Telemetry and Logger are optional.
type Options struct {
	DeviceID  string
	Transport protocol.Transport
	Journal   Journal
	Telemetry Telemetry
	Logger    Logger
}

// Cloud publishes to and receives from one device shadow.
//
// Thread Safety: safe for concurrent use. Inbound messages arrive on the
// transport goroutine and are queued until Receive.
type Cloud struct {
	deviceID  string
	proto     *protocol.Protocol
	inbox     *intake.Inbox
	journal   Journal
	telemetry Telemetry
	logger    Logger
}

// New builds the inbox and protocol and subscribes to the device shadow.
//
// Returns:
//   - *Cloud: Subscribed and queueing inbound messages
//   - error: protocol.ErrSubscribeFailed if the subscription fails
func New(opts Options) (*Cloud, error) {
	c := &Cloud{
		deviceID:  opts.DeviceID,
		inbox:     intake.NewInbox(),
		journal:   opts.Journal,
		telemetry: opts.Telemetry,
		logger:    opts.Logger,
	}

	proto, err := protocol.New(protocol.Options{
		DeviceID:  opts.DeviceID,
		Transport: opts.Transport,
		Deliver:   c.inbox.Push,
		Tap:       c.observe,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	c.proto = proto

	return c, nil
}

// DeviceID returns the device the cloud is bound to.
func (c *Cloud) DeviceID() string {
	return c.deviceID
}

// Topics returns the device's shadow topics.
func (c *Cloud) Topics() protocol.Topics {
	return c.proto.Topics()
}

// Publish sends a message to the device.
func (c *Cloud) Publish(msg protocol.Message) error {
	return c.proto.Publish(msg)
}

// Receive waits up to timeout for the next message accepted by opts.
// See intake.Inbox.Receive.
func (c *Cloud) Receive(ctx context.Context, timeout time.Duration, opts ...intake.ReceiveOption) (protocol.Message, error) {
	msg, err := c.inbox.Receive(ctx, timeout, opts...)
	if err != nil {
		return protocol.Message{}, err
	}
	c.debug("shadow message received", "action", msg.Action.String(), "response", msg.Response.String())
	return msg, nil
}

// Flush discards queued messages and returns how many were dropped.
// Tests call it before each step so stale replies are not mistaken for
// fresh ones.
func (c *Cloud) Flush() int {
	n := c.inbox.Flush()
	if n > 0 {
		c.debug("flushed queued shadow messages", "count", n)
	}
	return n
}

// Pending returns the number of queued messages.
func (c *Cloud) Pending() int {
	return c.inbox.Len()
}

// observe is the protocol tap.
func (c *Cloud) observe(frame protocol.Frame) {
	if c.journal != nil {
		c.journal.Observe(frame)
	}

	if c.telemetry == nil || frame.Direction != protocol.Inbound || frame.Err != nil {
		return
	}
	t, err := packet.TypeOf(frame.Message.State)
	if err != nil || !t.IsReported() {
		return
	}
	if err := c.telemetry.RecordState(c.deviceID, frame.Message.State); err != nil && c.logger != nil {
		c.logger.Warn("telemetry record failed", "type", t.String(), "error", err)
	}
}

func (c *Cloud) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

// NewMessage builds a message whose state is a zero-filled packet of type
// t with a fresh client token, the current timestamp and the given version.
//
// Returns:
//   - protocol.Message: Ready for Publish once body fields are set
//   - error: packet.ErrUnknownType if t is not registered
func NewMessage(action protocol.Action, response protocol.Response, t packet.Type, version uint32) (protocol.Message, error) {
	state, err := packet.NewState(t, packet.Header{
		ClientToken: RequestID(),
		Timestamp:   uint32(time.Now().Unix()), //nolint:gosec // u32 on the wire until 2106
		Version:     version,
	})
	if err != nil {
		return protocol.Message{}, fmt.Errorf("building %s message: %w", action, err)
	}
	return protocol.Message{Action: action, Response: response, State: state}, nil
}
