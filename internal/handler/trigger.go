// Package handler provides the HTTP and CloudEvent entry points of the
// trigger service.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	cloudevents "github.com/cloudevents/sdk-go/v2/event"
	"go.uber.org/zap"

	"github.com/ai-teammate/exercise-video-trigger/internal/event"
)

// MaxEventBytes bounds the Eventarc push body. Storage object metadata is a
// few kilobytes at most.
const MaxEventBytes = 1 << 20

// EventDispatcher is the interface the handlers depend on to process an
// uploaded object. It is satisfied by *dispatch.Dispatcher and allows tests
// to inject a mock.
type EventDispatcher interface {
	HandleStorageEvent(ctx context.Context, objectPath string) error
}

// NewTriggerHandler returns an http.HandlerFunc for Eventarc pushes that:
//  1. Parses the StorageObject from the request body.
//  2. Hands its object path to the dispatcher.
//
// Undecodable payloads are answered with 400 and oversized ones with 413, so
// Eventarc drops them. A failed
// dispatch is answered with 500 so Eventarc redelivers the event; filtered and
// dispatched events both get 204.
func NewTriggerHandler(d EventDispatcher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		obj, err := event.Parse(http.MaxBytesReader(w, r.Body, MaxEventBytes))
		if err != nil {
			logger.Warn("trigger: parse event",
				zap.Error(err),
				zap.String("ce_id", r.Header.Get("Ce-Id")),
			)
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if err := d.HandleStorageEvent(r.Context(), obj.Name); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// NewCloudEventFunc adapts d to the functions framework CloudEvent signature.
// Events of any type other than object finalization are ignored.
func NewCloudEventFunc(d EventDispatcher, logger *zap.Logger) func(context.Context, cloudevents.Event) error {
	return func(ctx context.Context, e cloudevents.Event) error {
		if e.Type() != event.FinalizedType {
			logger.Info("ignoring cloud event", zap.String("type", e.Type()), zap.String("id", e.ID()))
			return nil
		}

		obj, err := event.Unmarshal(e.Data())
		if err != nil {
			logger.Warn("cloud event: parse data", zap.Error(err), zap.String("id", e.ID()))
			return fmt.Errorf("cloud event %s: %w", e.ID(), err)
		}

		return d.HandleStorageEvent(ctx, obj.Name)
	}
}
