package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/services/events"
)

// Service orchestrates scrape tasks through their provider lifecycle.
// Completion can arrive through the poll sweep or the webhook handler;
// CompleteTask is idempotent so both paths observing the same finish
// stay safe.
type Service struct {
	client    interfaces.ScraperClient
	tasks     interfaces.TaskStorage
	events    interfaces.EventService
	processor interfaces.HarvestProcessor
	config    *common.ScraperConfig
	logger    arbor.ILogger

	// pollMu keeps the poll sweep single-threaded
	pollMu sync.Mutex
}

// NewService creates the task orchestrator
func NewService(client interfaces.ScraperClient, tasks interfaces.TaskStorage, eventService interfaces.EventService, processor interfaces.HarvestProcessor, config *common.ScraperConfig, logger arbor.ILogger) *Service {
	return &Service{
		client:    client,
		tasks:     tasks,
		events:    eventService,
		processor: processor,
		config:    config,
		logger:    logger,
	}
}

// Submit creates a task and sends it to the provider. A provider error
// marks the task failed and propagates to the caller; submission is
// never retried automatically because a duplicate scrape request risks
// duplicate billing.
func (s *Service) Submit(ctx context.Context, owner string, params models.SearchParams) (*models.ScrapeTask, error) {
	task := models.NewScrapeTask(common.NewTaskID(), owner, "job_search", params)

	if err := s.tasks.SaveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	requestID, err := s.client.Submit(ctx, params)
	if err != nil {
		task.MarkFailed(err.Error())
		if saveErr := s.tasks.SaveTask(ctx, task); saveErr != nil {
			s.logger.Error().Err(saveErr).Str("task_id", task.ID).Msg("Failed to persist failed task")
		}
		s.publishTaskEventSync(ctx, interfaces.EventTaskFailed, task, "submission failed")
		return task, fmt.Errorf("scrape submission failed: %w", err)
	}

	if err := task.MarkSubmitted(requestID); err != nil {
		return nil, err
	}
	if err := s.tasks.SaveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist submitted task: %w", err)
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("request_id", requestID).
		Str("query", params.Query).
		Msg("Scrape task submitted")

	s.publishTaskEvent(ctx, interfaces.EventTaskSubmitted, task, "submitted to provider")

	return task, nil
}

// Poll checks one task against the provider. A still-running task
// returns nil and stays untouched. Transport errors are treated as
// "not ready yet" since the next sweep retries anyway. A provider-
// reported failure marks the task failed.
func (s *Service) Poll(ctx context.Context, task *models.ScrapeTask) (*models.ResultBundle, error) {
	if task.RequestID == "" {
		return nil, fmt.Errorf("task %s has no request id", task.ID)
	}

	status, err := s.client.Status(ctx, task.RequestID)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Str("task_id", task.ID).
			Msg("Status poll failed, will retry next sweep")
		return nil, nil
	}

	switch status.Status {
	case interfaces.ScrapeStatusRunning:
		return nil, nil

	case interfaces.ScrapeStatusSuccess:
		return &models.ResultBundle{
			RequestID: task.RequestID,
			Postings:  status.Postings,
		}, nil

	case interfaces.ScrapeStatusFailed:
		s.failTask(ctx, task, fmt.Sprintf("provider reported failure: %s", status.Error))
		return nil, nil

	default:
		s.logger.Warn().
			Str("task_id", task.ID).
			Str("status", string(status.Status)).
			Msg("Unknown provider status, treating as still running")
		return nil, nil
	}
}

// PollPending performs one sweep over all submitted tasks. Sweeps are
// single-threaded; a second invocation while one is in flight returns
// immediately.
func (s *Service) PollPending(ctx context.Context) error {
	if !s.pollMu.TryLock() {
		s.logger.Debug().Msg("Poll sweep already running, skipping")
		return nil
	}
	defer s.pollMu.Unlock()

	active, err := s.tasks.ListActiveTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active tasks: %w", err)
	}

	for _, task := range active {
		if task.Status != models.TaskStatusSubmitted {
			continue
		}

		bundle, err := s.Poll(ctx, task)
		if err != nil {
			s.logger.Warn().Err(err).Str("task_id", task.ID).Msg("Poll failed")
			continue
		}
		if bundle == nil {
			continue
		}

		if err := s.CompleteTask(ctx, task, bundle); err != nil {
			s.logger.Error().Err(err).Str("task_id", task.ID).Msg("Task completion failed")
		}
	}

	return nil
}

// HandleWebhook processes a provider completion callback. Unknown or
// already-terminal request ids are harmless late notifications, not
// errors. The inline payload saves a poll round-trip.
func (s *Service) HandleWebhook(ctx context.Context, payload *interfaces.WebhookPayload) error {
	task, err := s.tasks.GetTaskByRequestID(ctx, payload.RequestID)
	if err != nil {
		s.logger.Debug().
			Str("request_id", payload.RequestID).
			Msg("Webhook for unknown or finished request id, ignoring")
		return nil
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("request_id", payload.RequestID).
		Str("status", string(payload.Status)).
		Msg("Webhook received")

	switch payload.Status {
	case interfaces.ScrapeStatusFailed:
		s.failTask(ctx, task, fmt.Sprintf("provider reported failure: %s", payload.Error))
		return nil

	case interfaces.ScrapeStatusSuccess:
		bundle := &models.ResultBundle{
			RequestID: payload.RequestID,
			Postings:  payload.Postings,
		}
		return s.CompleteTask(ctx, task, bundle)

	default:
		// Not a completion notification; the poll sweep will catch up
		return nil
	}
}

// CompleteTask runs the harvest pipeline for a finished task and
// retires it. Idempotent: if the task is already terminal the call is
// a no-op, which keeps the poll and webhook paths from double
// processing the same completion.
func (s *Service) CompleteTask(ctx context.Context, task *models.ScrapeTask, bundle *models.ResultBundle) error {
	// Re-read the stored task so the terminal check sees the latest state
	current, err := s.tasks.GetTask(ctx, task.ID)
	if err != nil {
		return fmt.Errorf("failed to load task %s: %w", task.ID, err)
	}
	if current.IsTerminal() {
		s.logger.Debug().
			Str("task_id", current.ID).
			Str("status", string(current.Status)).
			Msg("Task already terminal, skipping completion")
		return nil
	}

	if err := current.TransitionTo(models.TaskStatusProcessing); err != nil {
		return err
	}
	if err := s.tasks.SaveTask(ctx, current); err != nil {
		return fmt.Errorf("failed to persist processing task: %w", err)
	}

	if err := current.TransitionTo(models.TaskStatusRetrieved); err != nil {
		return err
	}
	current.ResultCount = len(bundle.Postings)
	if err := s.tasks.SaveTask(ctx, current); err != nil {
		return fmt.Errorf("failed to persist retrieved task: %w", err)
	}

	summary, err := s.processor.Process(ctx, current, bundle.Postings)
	if err != nil {
		s.failTask(ctx, current, fmt.Sprintf("harvest processing failed: %v", err))
		return err
	}

	current.MarkProcessed(summary.ResultCount, summary.QualityCount)
	if err := s.tasks.SaveTask(ctx, current); err != nil {
		return fmt.Errorf("failed to persist processed task: %w", err)
	}

	s.logger.Info().
		Str("task_id", current.ID).
		Int("result_count", summary.ResultCount).
		Int("survivors", summary.Survivors).
		Int("quality_count", summary.QualityCount).
		Msg("Scrape task processed")

	s.publishTaskEvent(ctx, interfaces.EventTaskCompleted, current, "harvest complete")

	return nil
}

// SweepTimeouts fails any non-terminal task whose submission is older
// than the configured threshold, bounding leakage from provider-side
// stalls.
func (s *Service) SweepTimeouts(ctx context.Context) error {
	timeout := s.config.TaskTimeout
	if timeout <= 0 {
		timeout = time.Hour
	}
	cutoff := time.Now().Add(-timeout)

	stale, err := s.tasks.ListTasksSubmittedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list stale tasks: %w", err)
	}

	for _, task := range stale {
		s.logger.Warn().
			Str("task_id", task.ID).
			Str("submitted_at", task.SubmittedAt.Format(time.RFC3339)).
			Msg("Task timed out")
		s.failTask(ctx, task, fmt.Sprintf("timed out after %s waiting for provider", timeout))
	}

	return nil
}

// failTask marks a task failed, persists it and notifies the owner.
// The failure event is delivered synchronously so the owner
// notification lands before the failing path returns; a notification
// error is logged but never rolls the failure back.
func (s *Service) failTask(ctx context.Context, task *models.ScrapeTask, reason string) {
	task.MarkFailed(reason)
	if err := s.tasks.SaveTask(ctx, task); err != nil {
		s.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to persist failed task")
	}
	s.publishTaskEventSync(ctx, interfaces.EventTaskFailed, task, reason)
}

func (s *Service) publishTaskEvent(ctx context.Context, eventType interfaces.EventType, task *models.ScrapeTask, message string) {
	if s.events == nil {
		return
	}
	event := interfaces.Event{
		Type:    eventType,
		Payload: events.TaskEventPayload{Task: task, Message: message},
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to publish task event")
	}
}

func (s *Service) publishTaskEventSync(ctx context.Context, eventType interfaces.EventType, task *models.ScrapeTask, message string) {
	if s.events == nil {
		return
	}
	event := interfaces.Event{
		Type:    eventType,
		Payload: events.TaskEventPayload{Task: task, Message: message},
	}
	if err := s.events.PublishSync(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to deliver task event")
	}
}
