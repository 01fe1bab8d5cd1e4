// Package trigger is the Cloud Functions (2nd gen) entry point. Deploy with
// --entry-point=TriggerVideoProcessing and an object-finalized trigger on the
// upload bucket.
package trigger

import (
	"context"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2/event"
	"go.uber.org/zap"

	"github.com/ai-teammate/exercise-video-trigger/internal/app"
	"github.com/ai-teammate/exercise-video-trigger/internal/config"
	"github.com/ai-teammate/exercise-video-trigger/internal/handler"
)

func init() {
	functions.CloudEvent("TriggerVideoProcessing", triggerVideoProcessing)
}

var (
	setupOnce sync.Once
	trigger   *app.App
	eventFunc func(context.Context, cloudevents.Event) error
	setupErr  error
)

// triggerVideoProcessing builds the dispatcher on first use so a missing
// SERVICE_URL surfaces as a failed invocation rather than a crash at import.
func triggerVideoProcessing(ctx context.Context, e cloudevents.Event) error {
	setupOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			setupErr = err
			return
		}
		a, err := app.New(context.Background(), cfg)
		if err != nil {
			setupErr = err
			return
		}
		trigger = a
		eventFunc = handler.NewCloudEventFunc(a.Dispatcher, a.Logger)
	})
	if setupErr != nil {
		return setupErr
	}

	err := eventFunc(ctx, e)
	if ferr := trigger.Flush(context.Background()); ferr != nil {
		trigger.Logger.Warn("flush telemetry", zap.Error(ferr))
	}
	return err
}
