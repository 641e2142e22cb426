// Package notify emits pipeline outcomes to the audit event log and the
// team chat webhook.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yobot/leadflow/internal/model"
	"github.com/yobot/leadflow/pkg/slack"
)

// EventSink appends audit events to the records store.
type EventSink interface {
	AppendEvent(ctx context.Context, ev model.Event) error
}

// Notifier delivers event summaries to both sinks. Each sink is attempted
// independently; a failure in one never blocks the other, and neither
// surfaces to the caller.
type Notifier struct {
	events EventSink
	chat   slack.Client // nil when no webhook is configured
}

// New creates a Notifier. chat may be nil, which skips chat delivery.
func New(events EventSink, chat slack.Client) *Notifier {
	return &Notifier{events: events, chat: chat}
}

// Notify records the event and posts a human-readable summary to chat.
func (n *Notifier) Notify(ctx context.Context, ev model.Event) {
	g, gctx := errgroup.WithContext(ctx)

	if n.events != nil {
		g.Go(func() error {
			if err := n.events.AppendEvent(gctx, ev); err != nil {
				zap.L().Warn("notify: event log write failed",
					zap.String("subject", ev.Subject),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	if n.chat != nil {
		g.Go(func() error {
			if err := n.chat.PostMessage(gctx, formatMessage(ev)); err != nil {
				zap.L().Warn("notify: chat post failed",
					zap.String("subject", ev.Subject),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	_ = g.Wait()
}

// formatMessage renders the chat summary line for an event.
func formatMessage(ev model.Event) string {
	icon := "✅"
	switch ev.Status {
	case model.EventStatusPartial:
		icon = "⚠️"
	case model.EventStatusError:
		icon = "❌"
	}
	msg := fmt.Sprintf("%s *%s* [%s] %s: %s", icon, ev.Type, ev.Source, ev.Subject, ev.Status)
	if ev.Detail != "" {
		msg += "\n" + ev.Detail
	}
	return msg
}
