// Package app assembles the trigger from its configuration. Both the Cloud
// Run service and the Cloud Functions entry point build through New so they
// dispatch identically.
package app

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/idtoken"

	"github.com/ai-teammate/exercise-video-trigger/internal/config"
	"github.com/ai-teammate/exercise-video-trigger/internal/dispatch"
	"github.com/ai-teammate/exercise-video-trigger/internal/handler"
	"github.com/ai-teammate/exercise-video-trigger/internal/logger"
	"github.com/ai-teammate/exercise-video-trigger/internal/notify"
	"github.com/ai-teammate/exercise-video-trigger/internal/storage"
	"github.com/ai-teammate/exercise-video-trigger/internal/tracing"
)

// App holds the assembled components.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Dispatcher *dispatch.Dispatcher

	closers []func(context.Context) error
}

// New builds the logger, tracing and dispatcher described by cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logr, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	traceShutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	client, err := notify.NewHTTPClient(ctx, notify.ClientConfig{
		Timeout:  cfg.Service.Timeout,
		Audience: cfg.ServiceAudience(),
	})
	if err != nil {
		return nil, fmt.Errorf("init http client: %w", err)
	}

	a := &App{
		Config: cfg,
		Logger: logr,
		Dispatcher: dispatch.New(dispatch.Params{
			Notifier: notify.New(cfg.Service.URL, client),
			Policy:   cfg.Policy(),
			Timeout:  cfg.Service.Timeout,
			Logger:   logr,
		}),
	}
	a.closers = append(a.closers, traceShutdown)
	return a, nil
}

// RouterParams builds the HTTP dependencies: the bucket prober for /health
// when UPLOAD_BUCKET is set, and the ID-token validator when PUSH_AUDIENCE is
// set.
func (a *App) RouterParams(ctx context.Context) (handler.RouterParams, error) {
	p := handler.RouterParams{
		Dispatcher: a.Dispatcher,
		Audience:   a.Config.Push.Audience,
		Logger:     a.Logger,
	}

	if bucket := a.Config.Storage.Bucket; bucket != "" {
		prober, err := a.newProber(ctx, bucket)
		if err != nil {
			return handler.RouterParams{}, err
		}
		p.Prober = prober
	}

	if p.Audience != "" {
		v, err := idtoken.NewValidator(ctx)
		if err != nil {
			return handler.RouterParams{}, fmt.Errorf("id token validator: %w", err)
		}
		p.Validator = v
	}
	return p, nil
}

func (a *App) newProber(ctx context.Context, bucket string) (*storage.BucketProber, error) {
	if projectID := a.Config.Storage.FirebaseProjectID; projectID != "" {
		prober, err := storage.NewFirebaseBucketProber(ctx, projectID, bucket)
		if err != nil {
			return nil, fmt.Errorf("init bucket prober: %w", err)
		}
		return prober, nil
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	return storage.NewBucketProber(client, bucket), nil
}

// Flush exports buffered spans and syncs the logger without releasing
// anything. The functions entry point calls it after every invocation since
// an idle instance may be frozen before the batch processor runs.
func (a *App) Flush(ctx context.Context) error {
	err := tracing.ForceFlush(ctx)
	_ = a.Logger.Sync()
	return err
}

// Close releases clients and flushes tracing and logs.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = a.Logger.Sync()
	return firstErr
}
