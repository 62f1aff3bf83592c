package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aquare11e/torrent-intake-bot/internal/config"
)

func TestLoadWritesFile(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "bot.log")
	Load(&config.Log{Path: path, Debug: true})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	require.Equal(zerolog.DebugLevel, zerolog.GlobalLevel())

	l := Component("test")
	l.Info().Msg("hello from test")

	data, err := os.ReadFile(path)
	require.NoError(err)
	require.Contains(string(data), "hello from test")
	require.Contains(string(data), `"component":"test"`)
}

func TestLoadNil(t *testing.T) {
	Load(nil)
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
