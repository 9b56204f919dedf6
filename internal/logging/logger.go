package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. The dev environment gets a
// human readable console writer, everything else JSON with timestamps.
func Init(service, env string) {
	log.Logger = New(os.Stdout, service, env)
}

func New(out io.Writer, service, env string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "dev" || env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).With().
			Timestamp().
			Str("service", service).
			Logger()
	}

	return zerolog.New(out).
		With().
		Timestamp().
		Str("service", service).
		Str("env", env).
		Logger()
}
