// Command trigger is the Cloud Run service that receives Eventarc
// object-finalized pushes for the upload bucket and asks the processing
// service to analyse each new exercise video.
//
// Required environment variables:
//
//	SERVICE_URL  base URL of the processing service (e.g. https://processor-abc.a.run.app)
//
// See internal/config for the optional settings.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ai-teammate/exercise-video-trigger/internal/app"
	"github.com/ai-teammate/exercise-video-trigger/internal/config"
	"github.com/ai-teammate/exercise-video-trigger/internal/handler"
)

func main() {
	if err := run(); err != nil {
		log.Printf("trigger error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background()) //nolint:errcheck

	params, err := a.RouterParams(ctx)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
		// Leave room for the outbound call before the push is answered.
		WriteTimeout: cfg.Service.Timeout + 10*time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("http server shutdown failed", zap.Error(err))
		}
	}()

	a.Logger.Info("trigger listening",
		zap.String("addr", server.Addr),
		zap.String("service_url", cfg.Service.URL),
		zap.String("prefix", cfg.Video.Prefix),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
