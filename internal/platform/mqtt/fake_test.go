package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// fakeToken completes immediately, or never when hang is set.
type fakeToken struct {
	err  error
	hang bool
	done chan struct{}
}

func newToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func hangingToken() *fakeToken {
	return &fakeToken{hang: true, done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool                     { return !t.hang }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.hang }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records calls. Methods it does not override panic via the nil
// embedded interface.
type fakeClient struct {
	paho.Client

	mu           sync.Mutex
	handlers     map[string]paho.MessageHandler
	subscribes   []string
	unsubscribes []string
	published    []published
	connected    bool

	subscribeErr error
	publishErr   error
	hangPublish  bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]paho.MessageHandler), connected: true}
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Disconnect(uint) { c.connected = false }

func (c *fakeClient) Subscribe(topic string, _ byte, handler paho.MessageHandler) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribes = append(c.subscribes, topic)
	if c.subscribeErr != nil {
		return newToken(c.subscribeErr)
	}
	c.handlers[topic] = handler
	return newToken(nil)
}

func (c *fakeClient) Unsubscribe(topics ...string) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		c.unsubscribes = append(c.unsubscribes, topic)
		delete(c.handlers, topic)
	}
	return newToken(nil)
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hangPublish {
		return hangingToken()
	}
	body, _ := payload.([]byte)
	c.published = append(c.published, published{topic: topic, qos: qos, retained: retained, payload: body})
	return newToken(c.publishErr)
}

// deliver invokes the registered handler for topic, as the broker would.
func (c *fakeClient) deliver(topic string, payload string) bool {
	c.mu.Lock()
	h, ok := c.handlers[topic]
	c.mu.Unlock()
	if !ok {
		return false
	}
	h(c, &fakeMessage{topic: topic, payload: []byte(payload)})
	return true
}

// dropSession forgets every subscription, as a broker does when a clean
// session disconnects.
func (c *fakeClient) dropSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = make(map[string]paho.MessageHandler)
}

func (c *fakeClient) subscribed(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.handlers[topic]
	return ok
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}
