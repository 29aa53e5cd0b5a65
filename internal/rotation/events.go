package rotation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/imobflow/leadrotor/pkg/logger"
)

// QueueChangedChannel carries queue-change notifications so panels can react
// to state changes instead of polling.
const QueueChangedChannel = "lr:events:queue-changed"

// QueueChangedEvent is the payload published on every rotation state change.
type QueueChangedEvent struct {
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// EventNotifier publishes queue-change events over redis pub/sub. Publish
// failures are logged, never propagated: event delivery is best-effort and
// must not fail the state change that triggered it.
type EventNotifier struct {
	logg *logger.Logger
	pub  publisher
	now  func() time.Time
}

// NewEventNotifier builds a redis-backed notifier.
func NewEventNotifier(logg *logger.Logger, pub publisher) *EventNotifier {
	return &EventNotifier{logg: logg, pub: pub, now: time.Now}
}

func (n *EventNotifier) QueueChanged(ctx context.Context, reason string) {
	if n == nil || n.pub == nil {
		return
	}
	payload, err := json.Marshal(QueueChangedEvent{
		Reason:     reason,
		OccurredAt: n.now().UTC(),
	})
	if err != nil {
		n.logg.Error(ctx, "marshal queue-changed event", err)
		return
	}
	if err := n.pub.Publish(ctx, QueueChangedChannel, payload); err != nil {
		n.logg.Error(n.logg.WithField(ctx, "reason", reason), "publish queue-changed event", err)
	}
}
