package cloud

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/re-shadow-harness/internal/infrastructure/mqtt"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/codec"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/intake"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/packet"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/protocol"
)

const testDevice = "AA:BB:CC:DD:EE:FF"

type fakeTransport struct {
	mu        sync.Mutex
	published []string
	handler   func(topic string, payload []byte)
}

func (f *fakeTransport) Publish(topic string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, topic)
	return nil
}

func (f *fakeTransport) Subscribe(_ string, handler func(topic string, payload []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
	return nil
}

// deviceSends simulates the device publishing state on the given suffix.
func (f *fakeTransport) deviceSends(t *testing.T, suffix string, state codec.State) {
	t.Helper()
	payload, err := packet.EncodeState(state)
	if err != nil {
		t.Fatalf("EncodeState() error = %v", err)
	}
	f.handler("re/things/"+testDevice+"/shadow/"+suffix, payload)
}

type fakeJournal struct {
	mu     sync.Mutex
	frames []protocol.Frame
}

func (j *fakeJournal) Observe(frame protocol.Frame) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.frames = append(j.frames, frame)
}

type fakeTelemetry struct {
	mu      sync.Mutex
	devices []string
	types   []packet.Type
	err     error
}

func (f *fakeTelemetry) RecordState(deviceID string, state codec.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, _ := packet.TypeOf(state) //nolint:errcheck // only reported states reach here
	f.devices = append(f.devices, deviceID)
	f.types = append(f.types, t)
	return f.err
}

type fakeLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *fakeLogger) Debug(string, ...any) {}

func (l *fakeLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func newState(t *testing.T, typ packet.Type) codec.State {
	t.Helper()
	state, err := packet.NewState(typ, packet.Header{ClientToken: 5, Timestamp: 1700000000})
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	return state
}

func newTestCloud(t *testing.T) (*Cloud, *fakeTransport, *fakeJournal, *fakeTelemetry) {
	t.Helper()
	tr := &fakeTransport{}
	j := &fakeJournal{}
	tel := &fakeTelemetry{}
	c, err := New(Options{
		DeviceID:  testDevice,
		Transport: tr,
		Journal:   j,
		Telemetry: tel,
		Logger:    &fakeLogger{},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, tr, j, tel
}

func TestNew_RequiresTransport(t *testing.T) {
	_, err := New(Options{DeviceID: testDevice})
	if !errors.Is(err, protocol.ErrSubscribeFailed) {
		t.Errorf("New() error = %v, want ErrSubscribeFailed", err)
	}
}

func TestNew_OptionalCollaborators(t *testing.T) {
	tr := &fakeTransport{}
	c, err := New(Options{DeviceID: testDevice, Transport: tr})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tr.deviceSends(t, "reported-update", newState(t, packet.TypeReportedV1))
	if _, err := c.Receive(context.Background(), time.Second); err != nil {
		t.Errorf("Receive() error = %v", err)
	}
	if c.DeviceID() != testDevice {
		t.Errorf("DeviceID() = %q", c.DeviceID())
	}
	if c.Topics().Base() != "re/things/"+testDevice+"/shadow" {
		t.Errorf("Topics().Base() = %q", c.Topics().Base())
	}
}

func TestReceive_ReportedStateFlowsEverywhere(t *testing.T) {
	c, tr, j, tel := newTestCloud(t)

	tr.deviceSends(t, "reported-update", newState(t, packet.TypeReportedV2))

	msg, err := c.Receive(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if msg.Action != protocol.ActionReportedUpdate || msg.Response != protocol.ResponseNone {
		t.Errorf("got %s/%s, want REPORTED_UPDATE/NONE", msg.Action, msg.Response)
	}

	if len(j.frames) != 1 || j.frames[0].Direction != protocol.Inbound {
		t.Errorf("journal frames = %+v, want one inbound", j.frames)
	}
	if len(tel.types) != 1 || tel.types[0] != packet.TypeReportedV2 || tel.devices[0] != testDevice {
		t.Errorf("telemetry = %v/%v, want one reported-v2 for %s", tel.devices, tel.types, testDevice)
	}
}

func TestReceive_NonReportedSkipsTelemetry(t *testing.T) {
	c, tr, j, tel := newTestCloud(t)

	tr.deviceSends(t, "get", newState(t, packet.TypeHeader))
	tr.deviceSends(t, "reported-update", newState(t, packet.TypeConnection))

	msg, err := c.Receive(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if msg.Action != protocol.ActionGet {
		t.Errorf("Action = %s, want GET", msg.Action)
	}

	// The connection ping is journaled but skipped by Receive.
	if _, err := c.Receive(context.Background(), 50*time.Millisecond); !errors.Is(err, intake.ErrTimeout) {
		t.Errorf("second Receive() error = %v, want ErrTimeout", err)
	}
	if len(j.frames) != 2 {
		t.Errorf("journal frames = %d, want 2", len(j.frames))
	}
	if len(tel.types) != 0 {
		t.Errorf("telemetry recorded %v, want nothing", tel.types)
	}
}

func TestReceive_IncludeConnection(t *testing.T) {
	c, tr, _, _ := newTestCloud(t)

	tr.deviceSends(t, "reported-update", newState(t, packet.TypeConnection))

	msg, err := c.Receive(context.Background(), time.Second, intake.IncludeConnection())
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if !msg.IsConnectionEvent() {
		t.Errorf("got %v, want the connection event", msg)
	}
}

func TestInbound_DroppedFrameIsJournaledOnly(t *testing.T) {
	c, tr, j, tel := newTestCloud(t)

	tr.handler("re/things/"+testDevice+"/shadow/reported-update", []byte{0x00, 0x01})

	if c.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", c.Pending())
	}
	if len(j.frames) != 1 || j.frames[0].Err == nil {
		t.Errorf("journal frames = %+v, want one failed frame", j.frames)
	}
	if len(tel.types) != 0 {
		t.Errorf("telemetry recorded %v, want nothing", tel.types)
	}
}

func TestTelemetryFailureIsLogged(t *testing.T) {
	tr := &fakeTransport{}
	logger := &fakeLogger{}
	c, err := New(Options{
		DeviceID:  testDevice,
		Transport: tr,
		Telemetry: &fakeTelemetry{err: errors.New("store down")},
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tr.deviceSends(t, "reported-update", newState(t, packet.TypeReportedV1))

	if c.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", c.Pending())
	}
	if len(logger.warns) != 1 {
		t.Errorf("warnings = %v, want one", logger.warns)
	}
}

func TestPublish(t *testing.T) {
	c, tr, j, _ := newTestCloud(t)

	msg, err := NewMessage(protocol.ActionGet, protocol.ResponseRejected, packet.TypeHeader, 0)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	if err := c.Publish(msg); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	want := "re/things/" + testDevice + "/shadow/get/rejected"
	if len(tr.published) != 1 || tr.published[0] != want {
		t.Errorf("published = %v, want [%s]", tr.published, want)
	}
	if len(j.frames) != 1 || j.frames[0].Direction != protocol.Outbound {
		t.Errorf("journal frames = %+v, want one outbound", j.frames)
	}
}

func TestFlush(t *testing.T) {
	c, tr, _, _ := newTestCloud(t)

	for i := 0; i < 3; i++ {
		tr.deviceSends(t, "desired-update", newState(t, packet.TypeDesiredV1))
	}
	if got := c.Flush(); got != 3 {
		t.Errorf("Flush() = %d, want 3", got)
	}
	if got := c.Flush(); got != 0 {
		t.Errorf("second Flush() = %d, want 0", got)
	}
}

func TestNewMessage(t *testing.T) {
	before := uint32(time.Now().Unix()) //nolint:gosec // test clock

	msg, err := NewMessage(protocol.ActionDesiredUpdate, protocol.ResponseNone, packet.TypeDesiredV2, 7)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}

	typ, err := msg.PacketType()
	if err != nil || typ != packet.TypeDesiredV2 {
		t.Errorf("PacketType() = %v, %v, want desired-v2", typ, err)
	}
	h := packet.ParseHeader(msg.State)
	if h.Version != 7 {
		t.Errorf("Version = %d, want 7", h.Version)
	}
	if h.Timestamp < before {
		t.Errorf("Timestamp = %d, want >= %d", h.Timestamp, before)
	}

	if _, err := NewMessage(protocol.ActionGet, protocol.ResponseNone, packet.Type(99), 0); !errors.Is(err, packet.ErrUnknownType) {
		t.Errorf("NewMessage(unknown) error = %v, want ErrUnknownType", err)
	}
}

func TestIDs(t *testing.T) {
	env := NewEnvID()
	if len(env) != 16 {
		t.Errorf("len(NewEnvID()) = %d, want 16", len(env))
	}

	// Distinct with overwhelming probability.
	seen := make(map[uint32]bool)
	for i := 0; i < 16; i++ {
		seen[RequestID()] = true
	}
	if len(seen) < 15 {
		t.Errorf("RequestID() produced %d distinct values out of 16", len(seen))
	}
}

func TestMQTTTransport_NotConnected(t *testing.T) {
	tr := NewMQTTTransport(&mqtt.Client{})

	if err := tr.Publish("re/things/x/shadow/get", []byte{1}); !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := tr.Subscribe("re/things/x/shadow/#", func(string, []byte) {}); !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
}
