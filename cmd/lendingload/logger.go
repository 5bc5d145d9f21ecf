package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
)

// zerologAdapter adapts a zerolog.Logger to the lending.Logger contract.
// Keys and values arrive as alternating args, same shape as log/slog.
type zerologAdapter struct {
	log zerolog.Logger
}

func newLogger(verbose bool) lending.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	return &zerologAdapter{log: log}
}

func (l *zerologAdapter) Debug(msg string, args ...any) {
	l.withFields(l.log.Debug(), args).Msg(msg)
}

func (l *zerologAdapter) Info(msg string, args ...any) {
	l.withFields(l.log.Info(), args).Msg(msg)
}

func (l *zerologAdapter) Warn(msg string, args ...any) {
	l.withFields(l.log.Warn(), args).Msg(msg)
}

func (l *zerologAdapter) Error(msg string, args ...any) {
	l.withFields(l.log.Error(), args).Msg(msg)
}

func (l *zerologAdapter) withFields(event *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}

		event = event.Interface(key, args[i+1])
	}

	return event
}
