// Package logging configures the process-wide zerolog logger.
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init builds the process logger and installs it as zerolog's global logger
// (the one package zerolog/log writes through). Pretty-prints via a console
// writer when pretty is set, emits newline-delimited JSON otherwise (the
// shape a log collector expects).
func Init(level string, pretty bool) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(level))
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var out zerolog.Logger
	if pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	} else {
		out = zerolog.New(os.Stdout)
	}
	out = out.With().Timestamp().Str("service", "gateway").Logger()
	zerolog.DefaultContextLogger = &out
	log.Logger = out
	return out
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
