package notify

import (
	"context"

	"fitserver/internal/domain"
	"fitserver/internal/events"
	"fitserver/internal/infra"
	"fitserver/internal/metrics"
)

// Publisher delivers a resolved event to the messaging collaborator (push
// service, socket broadcast). The pipeline only produces the event and the
// localized strings.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// Dispatcher resolves localized notification content for terminal job
// outcomes and hands it to the publisher. Delivery is best-effort and
// fire-and-forget: a publish failure is logged and never re-fails the job.
type Dispatcher struct {
	publisher   Publisher
	defaultLang string
	logger      infra.Logger
}

func NewDispatcher(publisher Publisher, defaultLang string, logger infra.Logger) *Dispatcher {
	if defaultLang == "" {
		defaultLang = "en"
	}
	return &Dispatcher{publisher: publisher, defaultLang: defaultLang, logger: logger}
}

// Complete notifies the user of a successfully generated artifact.
func (d *Dispatcher) Complete(ctx context.Context, userID, jobID string, category domain.Category, artifactRef, locale string) {
	d.dispatch(ctx, events.Event{
		UserID:      userID,
		JobID:       jobID,
		Category:    category,
		Outcome:     events.OutcomeCompleted,
		ArtifactRef: artifactRef,
	}, locale)
}

// Error notifies the user of a terminally failed job. The summary is the
// localized template body; raw provider errors never reach the user.
func (d *Dispatcher) Error(ctx context.Context, userID, jobID string, category domain.Category, errorSummary, locale string) {
	d.dispatch(ctx, events.Event{
		UserID:       userID,
		JobID:        jobID,
		Category:     category,
		Outcome:      events.OutcomeFailed,
		ErrorSummary: errorSummary,
	}, locale)
}

func (d *Dispatcher) dispatch(ctx context.Context, ev events.Event, locale string) {
	lang := resolveLanguage(locale, d.defaultLang)
	msg := resolveMessage(ev.Category, ev.Outcome, lang)
	ev.Language = lang
	ev.Title = msg.Title
	ev.Body = msg.Body

	delivery := "ok"
	if err := d.publisher.Publish(ctx, ev); err != nil {
		delivery = "dropped"
		d.logger.Warn().Err(err).
			Str("job_id", ev.JobID).
			Str("user_id", ev.UserID).
			Str("outcome", string(ev.Outcome)).
			Msg("notify: delivery failed")
	}
	metrics.Notifications.WithLabelValues(string(ev.Category), string(ev.Outcome), delivery).Inc()
}
