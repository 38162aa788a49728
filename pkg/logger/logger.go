package logger

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Verbose bool
	Quiet   bool
	NoColor bool
}

// Init points the global zerolog logger at a console writer on stderr.
func Init(opts Options) {
	noColor := opts.NoColor || !isatty.IsTerminal(os.Stderr.Fd())
	log.Logger = New(colorable.NewColorableStderr(), noColor)
	zerolog.SetGlobalLevel(Level(opts))
}

func New(out io.Writer, noColor bool) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()
}

func Level(opts Options) zerolog.Level {
	switch {
	case opts.Verbose:
		return zerolog.DebugLevel
	case opts.Quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
