package session

import (
	"fmt"
	"sync"

	"github.com/semonara/semonara/internal/device"
	log "github.com/sirupsen/logrus"
)

type EventType string

const (
	EventConnected EventType = "connected"
	EventExpiring  EventType = "session-expiring"
	EventRevoked   EventType = "session-revoked"
	EventExtended  EventType = "session-extended"
)

// Action is a link the client can follow in response to an event.
type Action struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Event is one lifecycle notification pushed to a device.
type Event struct {
	Type      EventType         `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Reason    string            `json:"reason,omitempty"`
	Device    *device.Info      `json:"device,omitempty"`
	Remaining int64             `json:"remaining_seconds,omitempty"`
	Actions   map[string]Action `json:"actions,omitempty"`
	NewToken  string            `json:"new_token,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// Sink is a writable push channel owned by the transport collaborator.
// Write must not block indefinitely; the registered close handler fires
// when the transport goes away.
type Sink interface {
	Write(Event) error
	OnClose(func())
}

// channelRegistry tracks at most one sink per device fingerprint. It has
// its own lock so that delivery never runs inside the manager's critical
// section.
type channelRegistry struct {
	mu    sync.RWMutex
	sinks map[string]Sink
}

func newChannelRegistry() *channelRegistry {
	return &channelRegistry{sinks: make(map[string]Sink)}
}

// Register stores the sink for a device, replacing any previous one, and
// deregisters it automatically when the sink closes.
func (c *channelRegistry) Register(fingerprint string, sink Sink) {
	c.mu.Lock()
	c.sinks[fingerprint] = sink
	c.mu.Unlock()
	sink.OnClose(func() {
		c.mu.Lock()
		if c.sinks[fingerprint] == sink {
			delete(c.sinks, fingerprint)
		}
		c.mu.Unlock()
		log.Debugf("push channel closed: %s", fingerprint)
	})
	log.Debugf("push channel registered: %s", fingerprint)
}

func (c *channelRegistry) Remove(fingerprint string) {
	c.mu.Lock()
	delete(c.sinks, fingerprint)
	c.mu.Unlock()
}

// Send delivers an event to the device's sink if one is registered.
// Delivery is best-effort: a missing or dead sink is not an error and a
// failed write drops the sink.
func (c *channelRegistry) Send(fingerprint string, ev Event) {
	c.mu.RLock()
	sink, ok := c.sinks[fingerprint]
	c.mu.RUnlock()
	if !ok {
		return
	}
	if err := sink.Write(ev); err != nil {
		log.Debugf("push delivery failed for %s: %v", fingerprint, err)
		c.mu.Lock()
		if c.sinks[fingerprint] == sink {
			delete(c.sinks, fingerprint)
		}
		c.mu.Unlock()
	}
}

func (c *channelRegistry) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sinks)
}

// NewConnectedEvent is the initial event a freshly registered channel
// receives.
func NewConnectedEvent(info device.Info) Event {
	return Event{
		Type:      EventConnected,
		Title:     "Connected",
		Message:   fmt.Sprintf("event stream established for %s device", info.Type),
		Device:    &info,
		Timestamp: nowMilli(),
	}
}

func newExpiringEvent(info device.Info, graceSeconds int64) Event {
	return Event{
		Type:      EventExpiring,
		Title:     "Session expiring",
		Message:   fmt.Sprintf("the session on your %s device has expired", info.Type),
		Device:    &info,
		Remaining: graceSeconds,
		Actions: map[string]Action{
			"extend": {Label: "Extend session", URL: "/api/auth/extend"},
			"logout": {Label: "Log out", URL: "/api/auth/logout"},
		},
		Timestamp: nowMilli(),
	}
}

func newRevokedEvent(info device.Info, reason string) Event {
	return Event{
		Type:      EventRevoked,
		Title:     "Session ended",
		Message:   fmt.Sprintf("the session on your %s device was ended (%s)", info.Type, reason),
		Reason:    reason,
		Device:    &info,
		Timestamp: nowMilli(),
	}
}

func newExtendedEvent(info device.Info, newToken string) Event {
	return Event{
		Type:      EventExtended,
		Title:     "Session extended",
		Message:   fmt.Sprintf("the session on your %s device was extended", info.Type),
		Device:    &info,
		NewToken:  newToken,
		Timestamp: nowMilli(),
	}
}
