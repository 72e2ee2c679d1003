package detect

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/totally-not-vj/tempo-traffic-control/internal/traffic"
)

// EdgeSource receives raw counts published over MQTT by the vision pipeline
// running on the camera edge box. It holds only the latest message; Counts
// returns ErrNoFrame once that message is older than the staleness window,
// so a stalled detector degrades to transient failures instead of freezing
// the last reading in place.
type EdgeSource struct {
	client     paho.Client
	staleAfter time.Duration
	now        func() time.Time

	mu     sync.Mutex
	last   traffic.Counts
	lastAt time.Time
}

// NewEdgeSource connects to the broker and subscribes to topic. The
// subscription is re-established on every reconnect.
func NewEdgeSource(broker, topic string, staleAfter time.Duration) (*EdgeSource, error) {
	s := &EdgeSource{
		staleAfter: staleAfter,
		now:        time.Now,
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("trafficd-detect").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c paho.Client) {
			token := c.Subscribe(topic, 0, s.handleMessage)
			if token.Wait() && token.Error() != nil {
				log.Printf("detect: subscribe %s: %v", topic, token.Error())
			}
		})

	s.client = paho.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("detect: broker connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("detect: connect to broker: %w", err)
	}

	return s, nil
}

// wireCounts is the detector's message format. Pointer fields distinguish
// a missing direction from an explicit zero.
type wireCounts struct {
	North *int `json:"north"`
	South *int `json:"south"`
	East  *int `json:"east"`
	West  *int `json:"west"`
}

func (w wireCounts) counts() (traffic.Counts, error) {
	fields := []struct {
		name string
		val  *int
	}{
		{"north", w.North},
		{"south", w.South},
		{"east", w.East},
		{"west", w.West},
	}

	var c traffic.Counts
	for _, f := range fields {
		if f.val == nil {
			return traffic.Counts{}, fmt.Errorf("missing direction %q", f.name)
		}
		if *f.val < 0 {
			return traffic.Counts{}, fmt.Errorf("negative count %d for %q", *f.val, f.name)
		}
		c.Set(traffic.Direction(f.name), *f.val)
	}
	return c, nil
}

func (s *EdgeSource) handleMessage(_ paho.Client, msg paho.Message) {
	var w wireCounts
	if err := json.Unmarshal(msg.Payload(), &w); err != nil {
		log.Printf("detect: bad counts payload: %v", err)
		return
	}
	c, err := w.counts()
	if err != nil {
		log.Printf("detect: bad counts payload: %v", err)
		return
	}

	s.mu.Lock()
	s.last = c
	s.lastAt = s.now()
	s.mu.Unlock()
}

// Counts returns the latest received counts, or ErrNoFrame when nothing
// fresh has arrived within the staleness window.
func (s *EdgeSource) Counts() (traffic.Counts, error) {
	s.mu.Lock()
	last, at := s.last, s.lastAt
	s.mu.Unlock()

	if at.IsZero() || s.now().Sub(at) > s.staleAfter {
		return traffic.Counts{}, ErrNoFrame
	}
	return last, nil
}

// Close disconnects from the broker.
func (s *EdgeSource) Close() error {
	s.client.Disconnect(250)
	return nil
}
