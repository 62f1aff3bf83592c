package logging

import (
	"io"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aquare11e/torrent-intake-bot/internal/config"
)

// Load configures the global zerolog logger: colored console output plus an
// optional rotating log file.
func Load(cfg *config.Log) {
	if cfg == nil {
		cfg = &config.Log{}
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: colorable.NewColorableStdout(), TimeFormat: "2006-01-02 15:04:05"},
	}

	if cfg.Path != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		})
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
