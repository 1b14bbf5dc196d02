package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/infrastructure/notify"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

const notifierName = "Notifier"

type notifierSink interface {
	Send(ctx context.Context, text string, blocks ...notify.Block) error
}

// NotifierService bridges the event bus to the outbound webhook (§6.4):
// the coordinator's finished weekly decision and any error/warning
// notification raised elsewhere in the system get forwarded as a chat
// message. It never returns an error from HandleEvent - a dropped
// notification degrades visibility, not correctness, so a failure here
// must not trip the agent's retry/error-containment machinery.
type NotifierService struct {
	sink   notifierSink
	logger *logging.Logger
}

func NewNotifierService(sink notifierSink, logger *logging.Logger) *NotifierService {
	if logger == nil {
		logger = logging.Default()
	}
	return &NotifierService{sink: sink, logger: logger.With("component", "NotifierService")}
}

func (n *NotifierService) Name() string { return notifierName }

func (n *NotifierService) SubscribedKinds() []event.Kind {
	return []event.Kind{
		event.KindTeamSelected,
		event.KindNotificationInfo,
		event.KindNotificationWarning,
		event.KindNotificationError,
	}
}

func (n *NotifierService) HandleEvent(ctx context.Context, e event.Event) error {
	text, blocks := n.render(e)
	if text == "" {
		return nil
	}
	if err := n.sink.Send(ctx, text, blocks...); err != nil {
		n.logger.WarnContext(ctx, "notifier send failed", "kind", e.Kind, "error", err)
	}
	return nil
}

func (n *NotifierService) render(e event.Event) (string, []notify.Block) {
	switch e.Kind {
	case event.KindTeamSelected:
		sel := e.AsTeamSelected()
		text := sel.Announcement
		if text == "" {
			text = fmt.Sprintf("Gameweek %d squad locked in. Captain: %s.", sel.Gameweek, sel.CaptainID)
		}
		return text, []notify.Block{{
			"type": "section",
			"text": text,
			"fields": map[string]string{
				"gameweek":   fmt.Sprintf("%d", sel.Gameweek),
				"captain":    sel.CaptainID,
				"chip_used":  sel.ChipUsed,
			},
		}}
	case event.KindNotificationInfo, event.KindNotificationWarning, event.KindNotificationError:
		notif := e.AsNotification()
		if notif.Message == "" {
			return "", nil
		}
		return fmt.Sprintf("[%s] %s", notif.Level, notif.Message), nil
	default:
		return "", nil
	}
}
