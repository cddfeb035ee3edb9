package handles

import (
	"io"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/semonara/semonara/internal/session"
	"github.com/semonara/semonara/server/common"
)

// sinkBuffer bounds how many undelivered events a slow client may queue
// before further events are dropped.
const sinkBuffer = 8

var errSinkClosed = errors.New("sink closed")

// sseSink adapts one streaming response into a session.Sink. Writes are
// non-blocking: a full buffer drops the event, a closed sink reports an
// error so the registry lets go of it.
type sseSink struct {
	events    chan session.Event
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	onClose []func()
}

func newSSESink() *sseSink {
	return &sseSink{
		events: make(chan session.Event, sinkBuffer),
		done:   make(chan struct{}),
	}
}

func (s *sseSink) Write(ev session.Event) error {
	select {
	case <-s.done:
		return errSinkClosed
	case s.events <- ev:
		return nil
	default:
		// Slow client; dropping is the contract.
		return nil
	}
}

func (s *sseSink) OnClose(fn func()) {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		fn()
		return
	default:
	}
	s.onClose = append(s.onClose, fn)
	s.mu.Unlock()
}

func (s *sseSink) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		fns := s.onClose
		s.onClose = nil
		s.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	})
}

// Events is the long-lived push stream for one device. The session
// manager writes lifecycle events into the registered sink; this
// handler owns the transport and pumps them out as SSE frames.
func (h *AuthAPI) Events(c *gin.Context) {
	tokenStr := common.GetToken(c)
	if tokenStr == "" {
		common.ErrorStrResp(c, "token required", 401)
		return
	}
	if _, err := h.Mgr.Verify(tokenStr); err != nil {
		common.ErrorStrResp(c, "invalid token", 403)
		return
	}

	sink := newSSESink()
	info, err := h.Mgr.RegisterChannel(tokenStr, sink)
	if err != nil {
		common.ErrorStrResp(c, "invalid token", 403)
		return
	}
	defer sink.close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// Initial confirmation so the client knows the channel is live.
	_ = sink.Write(session.NewConnectedEvent(info))

	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-sink.events:
			c.SSEvent("message", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
