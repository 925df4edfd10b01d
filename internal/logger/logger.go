package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the process-wide logger. format is "json" or "console".
func Init(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	log = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	log.Info().Str("level", lvl.String()).Msg("logger initialized")
}

// SetOutput redirects log output, used by tests.
func SetOutput(w io.Writer) {
	log = log.Output(w)
}

func Debug(msg string, fields map[string]any) {
	log.Debug().Fields(fields).Msg(msg)
}

func Info(msg string, fields map[string]any) {
	log.Info().Fields(fields).Msg(msg)
}

func Warn(msg string, fields map[string]any) {
	log.Warn().Fields(fields).Msg(msg)
}

func Error(msg string, fields map[string]any) {
	log.Error().Fields(fields).Msg(msg)
}

func Fatal(msg string, fields map[string]any) {
	log.Fatal().Fields(fields).Msg(msg)
}
