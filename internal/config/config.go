// Package config loads runtime settings from REMEDIZ_* environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/progression"
)

// Config holds every environment-driven setting. Cobra flags override the
// catalog, level and database fields.
type Config struct {
	// DBPath is the SQLite file. Empty means the XDG default.
	DBPath string `env:"DB"`

	Catalog CatalogConfig `envPrefix:"CATALOG_"`
	Notify  NotifyConfig  `envPrefix:"NOTIFY_"`
	Log     LogConfig     `envPrefix:"LOG_"`
	Quiz    QuizConfig    `envPrefix:"QUIZ_"`
	Learner LearnerConfig `envPrefix:"LEARNER_"`
}

// CatalogConfig selects where videos come from. File wins over URL.
type CatalogConfig struct {
	File    string        `env:"FILE"`
	URL     string        `env:"URL"`
	Token   string        `env:"TOKEN"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	RetryAttempts int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryWait     time.Duration `env:"RETRY_WAIT"     envDefault:"500ms"`
	RetryMaxWait  time.Duration `env:"RETRY_MAX_WAIT" envDefault:"5s"`

	// CacheKeep is how many cached catalog payloads survive a prune.
	CacheKeep int `env:"CACHE_KEEP" envDefault:"20"`
}

// NotifyConfig configures telemetry delivery.
type NotifyConfig struct {
	URL         string        `env:"URL"`
	Token       string        `env:"TOKEN"`
	Timeout     time.Duration `env:"TIMEOUT"     envDefault:"5s"`
	Concurrency int           `env:"CONCURRENCY" envDefault:"4"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Mode string `env:"MODE" envDefault:"development"`
	File string `env:"FILE"`
}

// QuizConfig mirrors progression.Config.
type QuizConfig struct {
	QuestionTicks int           `env:"QUESTION_TICKS" envDefault:"600"`
	Tick          time.Duration `env:"TICK"           envDefault:"1s"`
	CorrectDelay  time.Duration `env:"CORRECT_DELAY"  envDefault:"1200ms"`
	WrongDelay    time.Duration `env:"WRONG_DELAY"    envDefault:"1800ms"`
	AdvanceDelay  time.Duration `env:"ADVANCE_DELAY"  envDefault:"1s"`
}

// LearnerConfig pre-selects the learner so the selection screen can be
// skipped.
type LearnerConfig struct {
	Level   string `env:"LEVEL"`
	Subject string `env:"SUBJECT"`
}

// Load parses the environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: "REMEDIZ_"})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the program cannot run with.
func (c Config) Validate() error {
	if c.Quiz.QuestionTicks < 1 {
		return fmt.Errorf("REMEDIZ_QUIZ_QUESTION_TICKS must be positive, got %d", c.Quiz.QuestionTicks)
	}
	if c.Quiz.Tick <= 0 {
		return fmt.Errorf("REMEDIZ_QUIZ_TICK must be positive, got %s", c.Quiz.Tick)
	}
	if c.Notify.Concurrency < 1 {
		return fmt.Errorf("REMEDIZ_NOTIFY_CONCURRENCY must be positive, got %d", c.Notify.Concurrency)
	}
	return nil
}

// Progression converts the quiz settings for the state machine.
func (c Config) Progression() progression.Config {
	return progression.Config{
		QuestionTicks: c.Quiz.QuestionTicks,
		Tick:          c.Quiz.Tick,
		CorrectDelay:  c.Quiz.CorrectDelay,
		WrongDelay:    c.Quiz.WrongDelay,
		AdvanceDelay:  c.Quiz.AdvanceDelay,
	}
}

// Retry converts the fetch retry settings.
func (c Config) Retry() catalog.RetryConfig {
	r := catalog.DefaultRetryConfig()
	r.MaxAttempts = c.Catalog.RetryAttempts
	r.InitialWait = c.Catalog.RetryWait
	r.MaxWait = c.Catalog.RetryMaxWait
	return r
}
