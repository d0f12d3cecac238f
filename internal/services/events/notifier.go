package events

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// TaskEventPayload carries task lifecycle details to subscribers
type TaskEventPayload struct {
	Task    *models.ScrapeTask
	Message string
}

// Notifier delivers best-effort owner notifications for task lifecycle
// events. Delivery failure never affects task state; the event bus
// already logged the handler error.
type Notifier struct {
	logger arbor.ILogger
}

// NewNotifier creates a notifier and subscribes it to task events
func NewNotifier(eventService interfaces.EventService, logger arbor.ILogger) (*Notifier, error) {
	n := &Notifier{logger: logger}

	for _, eventType := range []interfaces.EventType{
		interfaces.EventTaskSubmitted,
		interfaces.EventTaskCompleted,
		interfaces.EventTaskFailed,
	} {
		if err := eventService.Subscribe(eventType, n.handleTaskEvent); err != nil {
			return nil, err
		}
	}

	return n, nil
}

func (n *Notifier) handleTaskEvent(ctx context.Context, event interfaces.Event) error {
	payload, ok := event.Payload.(TaskEventPayload)
	if !ok || payload.Task == nil {
		n.logger.Warn().
			Str("event_type", string(event.Type)).
			Msg("Task event with unexpected payload")
		return nil
	}

	task := payload.Task

	switch event.Type {
	case interfaces.EventTaskFailed:
		n.logger.Warn().
			Str("task_id", task.ID).
			Str("owner", task.Owner).
			Str("error", task.Error).
			Msg("Notifying owner: scrape task failed")
	case interfaces.EventTaskCompleted:
		n.logger.Info().
			Str("task_id", task.ID).
			Str("owner", task.Owner).
			Int("result_count", task.ResultCount).
			Int("quality_count", task.QualityCount).
			Msg("Notifying owner: scrape task completed")
	default:
		n.logger.Info().
			Str("task_id", task.ID).
			Str("owner", task.Owner).
			Str("event_type", string(event.Type)).
			Msg("Task event")
	}

	return nil
}
