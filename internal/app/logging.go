package app

import (
	"os"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// Log formats accepted by ConfigureLogging.
const (
	LogFormatAuto   = "auto"
	LogFormatPretty = "pretty"
	LogFormatJSON   = "json"
)

type jsonSwitcher interface {
	SetJSON(enable bool)
}

// ConfigureLogging switches the logger between pretty and JSON output.
// In auto mode JSON is used when stderr is not a terminal.
func ConfigureLogging(log ports.Logger, format string) error {
	var useJSON bool
	switch format {
	case LogFormatAuto, "":
		useJSON = !term.IsTerminal(int(os.Stderr.Fd()))
	case LogFormatPretty:
		useJSON = false
	case LogFormatJSON:
		useJSON = true
	default:
		return zerr.With(domain.ErrInvalidLogFormat, "format", format)
	}

	if s, ok := log.(jsonSwitcher); ok {
		s.SetJSON(useJSON)
	}
	return nil
}
