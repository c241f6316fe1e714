// Package alerts is the seam between the controllers and whatever surface
// presents user-facing notices. Display widgets live outside this module; the
// shipped implementation writes structured log lines.
package alerts

import "github.com/rs/zerolog"

// Sink receives user-facing alerts raised by the controllers.
type Sink interface {
	Success(title, body string)
	Info(title, body string)
	Error(title, body string)
}

// LogSink writes alerts to the structured log.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink builds a log-backed alert sink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "alerts").Logger()}
}

func (s *LogSink) Success(title, body string) {
	s.logger.Info().Str("level", "success").Str("title", title).Str("body", body).Msg("alert")
}

func (s *LogSink) Info(title, body string) {
	s.logger.Info().Str("level", "info").Str("title", title).Str("body", body).Msg("alert")
}

func (s *LogSink) Error(title, body string) {
	s.logger.Warn().Str("level", "error").Str("title", title).Str("body", body).Msg("alert")
}
