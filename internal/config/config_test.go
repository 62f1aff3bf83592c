package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDestinations(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "destinations.yaml")
	err := os.WriteFile(path, []byte(`
destinations:
  - key: movies
    label: "🎬 Movies"
    save_path: /data/movies
    category: Movies
  - key: music
    save_path: /data/music
`), 0o600)
	require.NoError(err)

	ds, err := LoadDestinations(path)
	require.NoError(err)
	require.Len(ds, 2)
	require.Equal("/data/movies", ds[0].SavePath)
	require.Equal("Movies", ds[0].Category)
	require.Equal("", ds[1].Category)

	r := AddDefaults(&Root{Destinations: ds})
	require.Equal("music", r.Destinations[1].Label)
}

func TestLoadDestinationsMissingFile(t *testing.T) {
	_, err := LoadDestinations(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestAddDefaults(t *testing.T) {
	require := require.New(t)

	r := AddDefaults(&Root{})
	require.Equal(DaemonQBittorrent, r.Daemon.Kind)
	require.Equal(defaultDaemonTimeout, r.Daemon.Timeout)
	require.Equal(StoreMemory, r.Intake.Store)
	require.NotEmpty(r.Intake.StagingDir)
	require.EqualValues(defaultMaxFileSize, r.Intake.MaxFileSize)
	require.NotNil(r.Log)
	require.NotNil(r.Redis)
}

func TestValidate(t *testing.T) {
	base := func() *Root {
		return AddDefaults(&Root{
			Telegram:     &Telegram{Token: "token"},
			Destinations: DefaultDestinations("/movies", "/tv"),
		})
	}

	require.NoError(t, base().Validate())

	r := base()
	r.Telegram.Token = ""
	require.Error(t, r.Validate())

	r = base()
	r.Daemon.Kind = "deluge"
	require.Error(t, r.Validate())

	r = base()
	r.Intake.Store = StoreRedis
	require.Error(t, r.Validate())
	r.Redis.URL = "localhost:6379"
	require.NoError(t, r.Validate())

	// missing daemon credentials are not a startup error
	r = base()
	r.Daemon.URL = ""
	require.NoError(t, r.Validate())
}

func TestValidateDestinations(t *testing.T) {
	require.ErrorIs(t, ValidateDestinations(nil), ErrNoDestinations)

	err := ValidateDestinations([]*Destination{
		{Key: "a", SavePath: "/a"},
		{Key: "a", SavePath: "/b"},
	})
	require.ErrorIs(t, err, ErrDuplicateDestination)

	require.Error(t, ValidateDestinations([]*Destination{{Key: "a"}}))
	require.Error(t, ValidateDestinations(DefaultDestinations("", "/tv")))
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"alice", "bob"}, SplitList(" alice, ,bob,"))
	require.Nil(t, SplitList(""))
}
