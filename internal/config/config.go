// Package config loads the trigger configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ai-teammate/exercise-video-trigger/internal/event"
)

// Config captures the full runtime configuration of the trigger.
type Config struct {
	App     AppConfig
	Service ServiceConfig
	Video   VideoConfig
	Storage StorageConfig
	Push    PushConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Name     string `env:"APP_NAME" envDefault:"exercise-video-trigger"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// ServiceConfig describes the processing service. URL has no safe default
// and must be supplied at deployment time.
type ServiceConfig struct {
	URL      string        `env:"SERVICE_URL,required,notEmpty"`
	Timeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	Auth     bool          `env:"SERVICE_AUTH" envDefault:"false"`
	Audience string        `env:"SERVICE_AUDIENCE"`
}

type VideoConfig struct {
	Prefix   string `env:"VIDEO_PREFIX" envDefault:"exercise_videos"`
	Filename string `env:"VIDEO_FILENAME" envDefault:"video.mp4"`
	Exclude  string `env:"VIDEO_EXCLUDE" envDefault:"pose_video"`
}

type StorageConfig struct {
	Bucket            string `env:"UPLOAD_BUCKET"`
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
}

// PushConfig enables ID-token validation of inbound pushes when Audience is
// set.
type PushConfig struct {
	Audience string `env:"PUSH_AUDIENCE"`
}

type TracingConfig struct {
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1.0"`
}

// Load reads an optional .env file, parses environment variables into Config
// and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Policy returns the object-path filter described by the video settings.
func (c *Config) Policy() event.Policy {
	return event.Policy{
		Prefix:   c.Video.Prefix,
		Filename: c.Video.Filename,
		Exclude:  c.Video.Exclude,
	}
}

// ServiceAudience returns the ID-token audience for outbound calls, or ""
// when service authentication is disabled.
func (c *Config) ServiceAudience() string {
	if !c.Service.Auth {
		return ""
	}
	if c.Service.Audience != "" {
		return c.Service.Audience
	}
	return c.Service.URL
}

func (c *Config) validate() error {
	u, err := url.Parse(c.Service.URL)
	if err != nil {
		return fmt.Errorf("SERVICE_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SERVICE_URL must be an absolute http(s) URL, got %q", c.Service.URL)
	}
	if c.Service.Timeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.Video.Prefix == "" || c.Video.Filename == "" {
		return errors.New("VIDEO_PREFIX and VIDEO_FILENAME must not be empty")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_RATIO must be within [0,1], got %v", c.Tracing.SampleRatio)
	}
	return nil
}
