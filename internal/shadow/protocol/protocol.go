package protocol

import (
	"fmt"
	"time"

	"github.com/nerrad567/re-shadow-harness/internal/shadow/packet"
)

// Transport is the publish/subscribe surface the protocol runs over.
// *mqtt.Client satisfies it through cloud.MQTTTransport.
type Transport interface {
	Publish(topic string, payload []byte) error
	Subscribe(filter string, handler func(topic string, payload []byte)) error
}

// Logger is the logging surface used by the protocol.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Options configures a Protocol.
type Options struct {
	// DeviceID scopes every topic, typically the MAC-derived thing name.
	DeviceID string

	// Transport carries the encoded packets.
	Transport Transport

	// Deliver receives every inbound message that parsed and decoded.
	// It is called on the transport's goroutine and must not block.
	Deliver func(Message)

	// Tap, if set, observes every frame in both directions, including
	// frames that were dropped or failed to publish.
	Tap func(Frame)

	// Logger receives drop and publish diagnostics. Nil disables logging.
	Logger Logger
}

// Protocol maps shadow messages to topics and packets for one device.
type Protocol struct {
	topics    Topics
	transport Transport
	deliver   func(Message)
	tap       func(Frame)
	logger    Logger
	now       func() time.Time
}

// New creates a Protocol and subscribes once to the device's shadow filter.
//
// Returns:
//   - *Protocol: Ready to publish; inbound messages flow to opts.Deliver
//   - error: ErrSubscribeFailed if the subscription cannot be made
func New(opts Options) (*Protocol, error) {
	if opts.DeviceID == "" {
		return nil, fmt.Errorf("%w: device id is required", ErrSubscribeFailed)
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("%w: transport is required", ErrSubscribeFailed)
	}

	p := &Protocol{
		topics:    NewTopics(opts.DeviceID),
		transport: opts.Transport,
		deliver:   opts.Deliver,
		tap:       opts.Tap,
		logger:    opts.Logger,
		now:       time.Now,
	}

	if err := p.transport.Subscribe(p.topics.Filter(), p.handleInbound); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, p.topics.Filter(), err)
	}

	return p, nil
}

// Topics returns the topic builder for this device.
func (p *Protocol) Topics() Topics {
	return p.topics
}

// Publish encodes msg.State and sends it on the topic for its action and
// response.
func (p *Protocol) Publish(msg Message) error {
	topic := p.topics.For(msg.Action, msg.Response)
	frame := Frame{Direction: Outbound, Topic: topic, Message: msg, At: p.now()}

	payload, err := packet.EncodeState(msg.State)
	if err != nil {
		frame.Err = err
		p.observe(frame)
		return fmt.Errorf("%w: encoding %s: %w", ErrPublishFailed, msg.Action, err)
	}
	frame.Payload = payload

	if err := p.transport.Publish(topic, payload); err != nil {
		frame.Err = err
		p.observe(frame)
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}

	p.observe(frame)
	p.debug("shadow message published", "topic", topic, "bytes", len(payload))
	return nil
}

// handleInbound is the transport callback for the shadow filter.
// Failures are logged and dropped; the device keeps sending regardless.
func (p *Protocol) handleInbound(topic string, payload []byte) {
	frame := Frame{Direction: Inbound, Topic: topic, Payload: payload, At: p.now()}

	action, response, err := p.topics.Parse(topic)
	if err != nil {
		p.drop(frame, err)
		return
	}
	frame.Message.Action = action
	frame.Message.Response = response

	state, err := packet.DecodeState(payload)
	if err != nil {
		p.drop(frame, err)
		return
	}
	frame.Message.State = state

	p.observe(frame)
	if p.deliver != nil {
		p.deliver(frame.Message)
	}
}

func (p *Protocol) drop(frame Frame, err error) {
	frame.Err = err
	p.observe(frame)
	if p.logger != nil {
		p.logger.Warn("dropping shadow message",
			"topic", frame.Topic,
			"bytes", len(frame.Payload),
			"error", err,
		)
	}
}

func (p *Protocol) observe(frame Frame) {
	if p.tap != nil {
		p.tap(frame)
	}
}

func (p *Protocol) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
