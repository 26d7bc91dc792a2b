// Package observer answers the host's tag-render event stream. The host
// owns a websocket to the service and reports every tag it renders; the
// service replies with a mount or skip decision so the host knows where to
// attach the send popover.
package observer

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/notelink/slack-bridge/internal/notes"
	"github.com/notelink/slack-bridge/internal/resolve"
	"github.com/notelink/slack-bridge/internal/settings"
	"github.com/notelink/slack-bridge/pkg/logger"
)

// Event is one rendered tag reported by the host.
type Event struct {
	Tag       string `json:"tag"`
	BlockUID  string `json:"block_uid"`
	ElementID string `json:"element_id"`
}

// Decision tells the host whether to mount the send popover on an element.
type Decision struct {
	ElementID string `json:"element_id"`
	Mount     bool   `json:"mount"`
	Tag       string `json:"tag"`
	BlockUID  string `json:"block_uid"`
}

// Observer serves the websocket event stream.
type Observer struct {
	store    notes.Store
	log      logger.Logger
	upgrader websocket.Upgrader
}

// Option configures an Observer.
type Option func(*Observer)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(o *Observer) { o.log = log }
}

// NewObserver creates an Observer backed by the given host store.
func NewObserver(store notes.Store, opts ...Option) *Observer {
	o := &Observer{
		store: store,
		log:   logger.NewNopLogger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The host API validates its own origin; the bridge accepts
			// whatever the host forwards.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ServeHTTP upgrades the connection and answers event batches until the host
// disconnects. Reconnects are the host's concern.
func (o *Observer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := o.upgrader.Upgrade(w, r, nil)
	if err != nil {
		o.log.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	log := o.log.WithFields(logger.ClientIPField(r.RemoteAddr))
	log.Debug("observer session started")

	for {
		var events []Event
		if err := conn.ReadJSON(&events); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("observer session ended", logger.ErrorField(err))
			} else {
				log.Debug("observer session closed")
			}
			return
		}

		decisions, err := o.Decide(r.Context(), events)
		if err != nil {
			log.Error("eligibility check failed", logger.ErrorField(err))
			// Reply with skips so the host is never left waiting.
			decisions = skipAll(events)
		}
		if err := conn.WriteJSON(decisions); err != nil {
			log.Warn("observer write failed", logger.ErrorField(err))
			return
		}
	}
}

// Decide evaluates one batch of events. Settings are re-read per batch so
// alias and format edits take effect on the next render.
func (o *Observer) Decide(ctx context.Context, events []Event) ([]Decision, error) {
	cfg, err := settings.Load(ctx, o.store)
	if err != nil {
		return nil, err
	}

	decisions := make([]Decision, 0, len(events))
	for _, ev := range events {
		q := resolve.Query{
			Tag:           ev.Tag,
			UserFormat:    cfg.UserFormat,
			ChannelFormat: cfg.ChannelFormat,
			Aliases:       cfg.Aliases,
		}
		decisions = append(decisions, Decision{
			ElementID: ev.ElementID,
			Mount:     q.Eligible(),
			Tag:       ev.Tag,
			BlockUID:  ev.BlockUID,
		})
	}
	return decisions, nil
}

func skipAll(events []Event) []Decision {
	decisions := make([]Decision, 0, len(events))
	for _, ev := range events {
		decisions = append(decisions, Decision{ElementID: ev.ElementID, Tag: ev.Tag, BlockUID: ev.BlockUID})
	}
	return decisions
}
