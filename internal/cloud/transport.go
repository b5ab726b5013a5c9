package cloud

import (
	"github.com/nerrad567/re-shadow-harness/internal/infrastructure/mqtt"
)

// MQTTTransport adapts the infrastructure MQTT client to
// protocol.Transport. The difference is the handler signature and the
// QoS, which comes from the client's configuration. Shadow packets are
// never retained.
type MQTTTransport struct {
	client *mqtt.Client
}

// NewMQTTTransport wraps a connected MQTT client.
func NewMQTTTransport(client *mqtt.Client) *MQTTTransport {
	return &MQTTTransport{client: client}
}

// Publish implements protocol.Transport.
func (t *MQTTTransport) Publish(topic string, payload []byte) error {
	return t.client.Publish(topic, payload, t.client.QoS(), false)
}

// Subscribe implements protocol.Transport.
func (t *MQTTTransport) Subscribe(filter string, handler func(topic string, payload []byte)) error {
	return t.client.Subscribe(filter, t.client.QoS(), func(topic string, payload []byte) error {
		handler(topic, payload)
		return nil
	})
}
