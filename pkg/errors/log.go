package errors

import (
	"os"

	"github.com/rs/zerolog"
)

// LogHandler is an ErrorHandler that writes structured log events.
type LogHandler struct {
	// Logger receives the log events. Defaults to a stderr console logger.
	Logger zerolog.Logger
	// Verbose enables stack traces in the output.
	Verbose bool
}

// NewLogHandler returns a LogHandler writing human-readable output to stderr.
func NewLogHandler() *LogHandler {
	return &LogHandler{
		Logger: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger(),
	}
}

// HandleError logs a FrameworkError.
func (h *LogHandler) HandleError(err *FrameworkError) {
	if err == nil {
		return
	}
	ev := h.Logger.Error().
		Str("op", err.Op).
		Str("kind", err.Kind.String()).
		Err(err.Err)
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("framework error")
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	ev := h.Logger.Error().
		Str("op", err.Op).
		Any("value", err.Value)
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("recovered panic")
}

// HandleRenderError logs a RenderError.
func (h *LogHandler) HandleRenderError(err *RenderError) {
	if err == nil {
		return
	}
	ev := h.Logger.Error().
		Str("phase", err.Phase).
		Str("node", err.Node).
		Any("value", err.Recovered)
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("render object failed")
}

// HandleBuildError logs a BuildError.
func (h *LogHandler) HandleBuildError(err *BuildError) {
	if err == nil {
		return
	}
	ev := h.Logger.Error().
		Str("widget", err.Widget).
		Str("element", err.Element)
	if err.Recovered != nil {
		ev = ev.Any("value", err.Recovered)
	}
	if err.Err != nil {
		ev = ev.Err(err.Err)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("widget build failed")
}
