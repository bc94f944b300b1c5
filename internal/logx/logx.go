// Package logx wires github.com/rs/zerolog into the process-wide logger,
// console-writer in development and structured JSON in production.
package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Env selects the output format.
type Env string

const (
	EnvDev  Env = "dev"
	EnvProd Env = "prod"
)

// Setup installs the process-wide zerolog logger for the given
// environment and level, returning the configured logger for callers
// that want an explicit handle instead of the global log.Logger.
func Setup(env Env, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var logger zerolog.Logger
	if env == EnvProd {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}

	log.Logger = logger
	return logger
}

// ForComponent returns a child logger tagged with the owning component
// name, used by analyzers/orchestrator/risk to keep log lines
// attributable without threading a *zerolog.Logger through every call.
func ForComponent(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
