// Package workflow sequences the per-object validation run: mark the object
// in progress, validate its metadata, record the outcome tag and notify the
// matching downstream channel. One event is processed start to finish by one
// goroutine; there is no retry or rollback on partial failure, so a hard
// failure after step one can leave the in-progress tag behind.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stagehq/upload-validator/internal/domain"
	"github.com/stagehq/upload-validator/internal/notify"
	"github.com/stagehq/upload-validator/internal/storage"
	"github.com/stagehq/upload-validator/internal/validate"
)

// Recorder persists an audit row for a finished run. Recording is best
// effort and never fails the workflow.
type Recorder interface {
	Record(ctx context.Context, run *domain.ValidationRun) error
}

// Config names the two outcome destinations.
type Config struct {
	SuccessQueue string
	FailureQueue string
}

// Workflow holds the long-lived collaborators shared across events.
type Workflow struct {
	store    storage.TagStore
	notifier notify.Notifier
	recorder Recorder
	cfg      Config
}

// New wires a workflow around shared store and notifier handles. recorder may
// be nil when auditing is disabled.
func New(store storage.TagStore, notifier notify.Notifier, recorder Recorder, cfg Config) *Workflow {
	return &Workflow{
		store:    store,
		notifier: notifier,
		recorder: recorder,
		cfg:      cfg,
	}
}

// Run processes one object-created event to completion. Both the valid and
// the quarantine branch return a Response; only missing input fields or
// remote-call failures return an error.
func (w *Workflow) Run(ctx context.Context, requestID string, event domain.ObjectCreated) (*domain.Response, error) {
	started := time.Now()

	if w.cfg.SuccessQueue == "" {
		return nil, fmt.Errorf("%w: missing SUCCESS_QUEUE environment variable", domain.ErrMissingField)
	}
	if w.cfg.FailureQueue == "" {
		return nil, fmt.Errorf("%w: missing FAILURE_QUEUE environment variable", domain.ErrMissingField)
	}

	ref, err := event.Reference()
	if err != nil {
		return nil, err
	}

	// Stamp the in-progress marker first so the state of the object is
	// observable from outside the bucket while validation runs. Full
	// overwrite: any prior tag state is discarded.
	if err := w.stamp(ctx, ref, domain.TagValidating); err != nil {
		return nil, err
	}

	valid, message := validate.Check(event)

	if valid {
		log.Info().Str("object", ref.String()).Msg(message)
	} else {
		log.Info().Str("object", ref.String()).Msgf("File is invalid: %s", message)
	}

	// Stamp the finished marker, then merge the outcome tag on top of it.
	// The merge has to re-read current tags so the finished marker just
	// written survives alongside the outcome.
	if err := w.stamp(ctx, ref, domain.TagValidated); err != nil {
		return nil, err
	}

	outcomeTag := domain.TagValid
	if !valid {
		outcomeTag = domain.TagQuarantine
	}
	if err := w.appendTag(ctx, ref, outcomeTag); err != nil {
		return nil, err
	}

	queue := w.cfg.SuccessQueue
	body := domain.SuccessMessage(requestID, message)
	if !valid {
		queue = w.cfg.FailureQueue
		body = domain.FailureMessage(requestID, message)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("could not encode notification for %s: %w", ref, err)
	}
	if err := w.notifier.Send(ctx, queue, payload, domain.MessageGroup); err != nil {
		return nil, err
	}

	w.record(ctx, requestID, ref, valid, message, time.Since(started))

	return &domain.Response{ReqID: requestID, Message: message}, nil
}

// stamp overwrites the object's tags with a single {name: true} marker.
func (w *Workflow) stamp(ctx context.Context, ref domain.ObjectReference, name string) error {
	if err := w.store.WriteTags(ctx, ref, domain.Single(name, true)); err != nil {
		return fmt.Errorf("could not add tag %s: %w", name, err)
	}
	return nil
}

// appendTag fetches the current tags and upserts {name: true} on top of them.
func (w *Workflow) appendTag(ctx context.Context, ref domain.ObjectReference, name string) error {
	current, err := w.store.ReadTags(ctx, ref)
	if err != nil {
		return err
	}
	if err := w.store.WriteTags(ctx, ref, domain.Upsert(current, name, true)); err != nil {
		return fmt.Errorf("could not add tag %s: %w", name, err)
	}
	return nil
}

func (w *Workflow) record(ctx context.Context, requestID string, ref domain.ObjectReference, valid bool, message string, elapsed time.Duration) {
	if w.recorder == nil {
		return
	}
	run := &domain.ValidationRun{
		RequestID:  requestID,
		Bucket:     ref.Bucket,
		ObjectKey:  ref.Key,
		VersionID:  ref.VersionID,
		Valid:      valid,
		Message:    message,
		DurationMS: elapsed.Milliseconds(),
	}
	if err := w.recorder.Record(ctx, run); err != nil {
		log.Warn().Err(err).Str("object", ref.String()).Msg("failed to record validation run")
	}
}
