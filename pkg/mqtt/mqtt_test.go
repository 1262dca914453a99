package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serebryakov7/obd-logger/common"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	payload []byte
}

// fakeClient переопределяет только то, что использует Publisher
type fakeClient struct {
	mqtt.Client
	connected bool
	err       error
	messages  []published
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Disconnect(uint) { c.connected = false }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic: topic, payload: payload.([]byte)})
	return &fakeToken{err: c.err}
}

func TestPublishRow(t *testing.T) {
	client := &fakeClient{connected: true}
	p := NewPublisher(MQTTConfig{Broker: DefaultBroker}, "s1")
	p.client = client

	err := p.PublishRow(1000,
		[]string{"TIME", "SPEED", "RPM"},
		[]string{"1000", "50 kph", ""})
	require.NoError(t, err)

	require.Len(t, client.messages, 1)
	assert.Equal(t, DefaultTopic, client.messages[0].topic)

	var msg common.RowMessage
	require.NoError(t, json.Unmarshal(client.messages[0].payload, &msg))
	assert.Equal(t, "s1", msg.Session)
	assert.EqualValues(t, 1000, msg.Time)
	assert.Equal(t, map[string]string{"SPEED": "50 kph"}, msg.Fields)
}

func TestPublishRowErrors(t *testing.T) {
	client := &fakeClient{connected: false}
	p := NewPublisher(MQTTConfig{Topic: "t"}, "s1")
	p.client = client
	assert.Error(t, p.PublishRow(1, []string{"TIME"}, []string{"1"}))
	assert.Empty(t, client.messages)

	client.connected = true
	client.err = errors.New("not authorized")
	assert.Error(t, p.PublishRow(1, []string{"TIME"}, []string{"1"}))
	assert.Equal(t, "t", client.messages[0].topic)

	p.Disconnect()
	assert.False(t, client.connected)
}

func TestNewPublisherDefaults(t *testing.T) {
	p := NewPublisher(MQTTConfig{Broker: DefaultBroker}, "abc")
	assert.Equal(t, "obd-logger-abc", p.config.ClientID)
	assert.Equal(t, DefaultTopic, p.config.Topic)
	assert.Error(t, p.PublishRow(1, nil, nil))
}
