package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2/event"
	"go.uber.org/zap"

	"github.com/ai-teammate/exercise-video-trigger/internal/event"
	"github.com/ai-teammate/exercise-video-trigger/internal/handler"
)

// ── mockDispatcher ────────────────────────────────────────────────────────────

type mockDispatcher struct {
	err      error
	received string
	called   bool
}

func (m *mockDispatcher) HandleStorageEvent(_ context.Context, objectPath string) error {
	m.called = true
	m.received = objectPath
	return m.err
}

// ── helpers ───────────────────────────────────────────────────────────────────

func validBody() string {
	return `{"bucket":"fitness-uploads","name":"exercise_videos/abc123/video.mp4"}`
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// ── NewTriggerHandler ─────────────────────────────────────────────────────────

func TestTriggerHandler_OversizedBody(t *testing.T) {
	d := &mockDispatcher{}
	body := `{"bucket":"fitness-uploads","name":"` + strings.Repeat("a", handler.MaxEventBytes) + `"}`
	rec := post(handler.NewTriggerHandler(d, zap.NewNop()), body)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
	if d.called {
		t.Error("dispatcher must not be called for an oversized body")
	}
}

func TestTriggerHandler_Success(t *testing.T) {
	d := &mockDispatcher{}
	rec := post(handler.NewTriggerHandler(d, zap.NewNop()), validBody())

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if !d.called {
		t.Error("expected dispatcher to be called")
	}
}

func TestTriggerHandler_PassesObjectPath(t *testing.T) {
	d := &mockDispatcher{}
	post(handler.NewTriggerHandler(d, zap.NewNop()), validBody())

	if d.received != "exercise_videos/abc123/video.mp4" {
		t.Errorf("unexpected object path: %q", d.received)
	}
}

func TestTriggerHandler_FilteredPathStill204(t *testing.T) {
	// Filtering happens inside the dispatcher, which reports nil.
	d := &mockDispatcher{}
	body := `{"bucket":"fitness-uploads","name":"exercise_videos/abc123/pose_video.mp4"}`
	rec := post(handler.NewTriggerHandler(d, zap.NewNop()), body)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestTriggerHandler_InvalidJSON_Returns400(t *testing.T) {
	d := &mockDispatcher{}
	rec := post(handler.NewTriggerHandler(d, zap.NewNop()), "not-json")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if d.called {
		t.Error("dispatcher must not be called on bad request")
	}
}

func TestTriggerHandler_MissingName_Returns400(t *testing.T) {
	d := &mockDispatcher{}
	rec := post(handler.NewTriggerHandler(d, zap.NewNop()), `{"bucket":"fitness-uploads"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestTriggerHandler_EmptyBody_Returns400(t *testing.T) {
	d := &mockDispatcher{}
	rec := post(handler.NewTriggerHandler(d, zap.NewNop()), "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty body, got %d", rec.Code)
	}
}

func TestTriggerHandler_DispatchError_Returns500(t *testing.T) {
	d := &mockDispatcher{err: errors.New("processing service returned 500")}
	rec := post(handler.NewTriggerHandler(d, zap.NewNop()), validBody())

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

// ── NewCloudEventFunc ─────────────────────────────────────────────────────────

func newCloudEvent(t *testing.T, typ string, data any) cloudevents.Event {
	t.Helper()
	e := cloudevents.New()
	e.SetID("evt-1")
	e.SetSource("//storage.googleapis.com/projects/_/buckets/fitness-uploads")
	e.SetType(typ)
	if data != nil {
		if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
			t.Fatalf("set data: %v", err)
		}
	}
	return e
}

func TestCloudEventFunc_Dispatches(t *testing.T) {
	d := &mockDispatcher{}
	fn := handler.NewCloudEventFunc(d, zap.NewNop())

	e := newCloudEvent(t, event.FinalizedType, event.StorageObject{
		Bucket: "fitness-uploads",
		Name:   "exercise_videos/abc123/video.mp4",
	})
	if err := fn(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.received != "exercise_videos/abc123/video.mp4" {
		t.Errorf("unexpected object path: %q", d.received)
	}
}

func TestCloudEventFunc_PropagatesDispatchError(t *testing.T) {
	dispatchErr := errors.New("boom")
	d := &mockDispatcher{err: dispatchErr}
	fn := handler.NewCloudEventFunc(d, zap.NewNop())

	e := newCloudEvent(t, event.FinalizedType, event.StorageObject{Bucket: "b", Name: "exercise_videos/a/video.mp4"})
	if err := fn(context.Background(), e); !errors.Is(err, dispatchErr) {
		t.Errorf("expected dispatch error, got %v", err)
	}
}

func TestCloudEventFunc_IgnoresOtherTypes(t *testing.T) {
	d := &mockDispatcher{}
	fn := handler.NewCloudEventFunc(d, zap.NewNop())

	e := newCloudEvent(t, "google.cloud.storage.object.v1.deleted", event.StorageObject{Bucket: "b", Name: "exercise_videos/a/video.mp4"})
	if err := fn(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.called {
		t.Error("dispatcher must not be called for non-finalized events")
	}
}

func TestCloudEventFunc_InvalidData(t *testing.T) {
	d := &mockDispatcher{}
	fn := handler.NewCloudEventFunc(d, zap.NewNop())

	e := newCloudEvent(t, event.FinalizedType, map[string]string{"bucket": "b"})
	if err := fn(context.Background(), e); err == nil {
		t.Fatal("expected error for missing name")
	}
	if d.called {
		t.Error("dispatcher must not be called for invalid data")
	}
}
