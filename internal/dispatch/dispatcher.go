// Package dispatch turns storage upload events into processing requests.
//
// A Dispatcher holds only immutable configuration, so one instance serves
// concurrent invocations. Each event results in at most one outbound request;
// retrying a failed event is left to the platform that delivered it.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ai-teammate/exercise-video-trigger/internal/event"
	"github.com/ai-teammate/exercise-video-trigger/internal/notify"
)

// ErrDispatch marks a failure to deliver a processing request.
var ErrDispatch = errors.New("dispatch failed")

// DefaultTimeout bounds the outbound request when Params.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// Outcome reports which branch an event took.
type Outcome int

const (
	// OutcomeFiltered means the object is not a primary exercise video.
	OutcomeFiltered Outcome = iota
	// OutcomeDispatched means the processing service accepted the request.
	OutcomeDispatched
	// OutcomeFailed means the processing request failed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFiltered:
		return "filtered"
	case OutcomeDispatched:
		return "dispatched"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Notifier is the interface the dispatcher uses to reach the processing
// service. It is satisfied by *notify.Notifier and allows tests to inject a
// stub.
type Notifier interface {
	Notify(ctx context.Context, req notify.Request) (notify.Response, error)
}

// Params groups the dependencies of a Dispatcher.
type Params struct {
	Notifier Notifier
	Policy   event.Policy
	Timeout  time.Duration
	Logger   *zap.Logger
	Tracer   trace.Tracer
	// NewID generates correlation ids; uuid.NewString when nil.
	NewID func() string
}

// Dispatcher filters object paths and notifies the processing service.
type Dispatcher struct {
	notifier Notifier
	policy   event.Policy
	timeout  time.Duration
	logger   *zap.Logger
	tracer   trace.Tracer
	newID    func() string
}

// New constructs a Dispatcher.
func New(p Params) *Dispatcher {
	d := &Dispatcher{
		notifier: p.Notifier,
		policy:   p.Policy,
		timeout:  p.Timeout,
		logger:   p.Logger,
		tracer:   p.Tracer,
		newID:    p.NewID,
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.tracer == nil {
		d.tracer = otel.Tracer("github.com/ai-teammate/exercise-video-trigger/internal/dispatch")
	}
	if d.newID == nil {
		d.newID = uuid.NewString
	}
	return d
}

// HandleStorageEvent processes the finalized object at objectPath. Paths that
// are not primary exercise videos are logged and ignored. A failed processing
// request is logged and returned so the invoking platform sees the event as
// undelivered.
func (d *Dispatcher) HandleStorageEvent(ctx context.Context, objectPath string) error {
	_, err := d.Handle(ctx, objectPath)
	return err
}

// Handle is HandleStorageEvent that also reports the outcome.
func (d *Dispatcher) Handle(ctx context.Context, objectPath string) (Outcome, error) {
	ctx, span := d.tracer.Start(ctx, "dispatch.HandleStorageEvent",
		trace.WithAttributes(attribute.String("object.path", objectPath)))
	defer span.End()

	folderID, ok := d.policy.Match(objectPath)
	if !ok {
		d.logger.Info("not a target video file", zap.String("object_path", objectPath))
		span.SetAttributes(attribute.String("dispatch.outcome", OutcomeFiltered.String()))
		return OutcomeFiltered, nil
	}

	requestID := d.newID()
	log := d.logger.With(
		zap.String("folder_id", folderID),
		zap.String("request_id", requestID),
	)
	span.SetAttributes(
		attribute.String("folder_id", folderID),
		attribute.String("request_id", requestID),
	)
	log.Info("new video detected", zap.String("object_path", objectPath))

	ctx, cancel := context.WithTimeout(notify.WithRequestID(ctx, requestID), d.timeout)
	defer cancel()

	resp, err := d.notifier.Notify(ctx, notify.Request{FolderID: folderID})
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		var nerr *notify.Error
		if errors.As(err, &nerr) {
			fields = append(fields,
				zap.String("url", nerr.URL),
				zap.String("method", nerr.Method),
				zap.String("data", nerr.Body),
				zap.Bool("timeout", nerr.Timeout()),
			)
			if nerr.StatusCode != 0 {
				fields = append(fields, zap.Int("status", nerr.StatusCode))
			}
		}
		log.Error("processing request failed", fields...)

		span.RecordError(err)
		span.SetStatus(codes.Error, "processing request failed")
		span.SetAttributes(attribute.String("dispatch.outcome", OutcomeFailed.String()))
		return OutcomeFailed, fmt.Errorf("%w: folder %s: %w", ErrDispatch, folderID, err)
	}

	log.Info("processing initiated",
		zap.Int("status", resp.StatusCode),
		zap.ByteString("response", resp.Body),
	)
	span.SetAttributes(attribute.String("dispatch.outcome", OutcomeDispatched.String()))
	return OutcomeDispatched, nil
}
