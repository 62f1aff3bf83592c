package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultDaemonTimeout = 15 * time.Second
	defaultMaxFileSize   = 10 << 20
	defaultSendRate      = 20
)

var (
	ErrNoDestinations       = errors.New("no destinations configured")
	ErrDuplicateDestination = errors.New("duplicate destination key")
)

// DefaultDestinations builds the two stock destinations from the movies and
// tv shows folders.
func DefaultDestinations(moviesFolder, tvShowsFolder string) []*Destination {
	return []*Destination{
		{Key: "movies", Label: "🎬 Movies", SavePath: moviesFolder, Category: "Movies"},
		{Key: "tvshows", Label: "📺 TV Shows", SavePath: tvShowsFolder, Category: "TV Shows"},
	}
}

type destinationsFile struct {
	Destinations []*Destination `yaml:"destinations"`
}

// LoadDestinations reads a YAML document with a top level destinations list.
func LoadDestinations(path string) ([]*Destination, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading destinations file %s: %w", path, err)
	}

	var f destinationsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing destinations file %s: %w", path, err)
	}

	return f.Destinations, nil
}

func AddDefaults(r *Root) *Root {
	if r.Telegram == nil {
		r.Telegram = &Telegram{}
	}

	if r.Telegram.SendRate == 0 {
		r.Telegram.SendRate = defaultSendRate
	}

	if r.Daemon == nil {
		r.Daemon = &Daemon{}
	}

	if r.Daemon.Kind == "" {
		r.Daemon.Kind = DaemonQBittorrent
	}

	if r.Daemon.Timeout == 0 {
		r.Daemon.Timeout = defaultDaemonTimeout
	}

	if r.Intake == nil {
		r.Intake = &Intake{}
	}

	if r.Intake.Store == "" {
		r.Intake.Store = StoreMemory
	}

	if r.Intake.StagingDir == "" {
		r.Intake.StagingDir = filepath.Join(os.TempDir(), "torrent-intake")
	}

	if r.Intake.MaxFileSize == 0 {
		r.Intake.MaxFileSize = defaultMaxFileSize
	}

	if r.Redis == nil {
		r.Redis = &Redis{}
	}

	if r.Log == nil {
		r.Log = &Log{}
	}

	for _, d := range r.Destinations {
		if d.Label == "" {
			d.Label = d.Key
		}
	}

	return r
}

// Validate checks what the bot needs to start. Daemon credentials are not
// checked here; a daemon that cannot be reached only fails its own calls.
func (r *Root) Validate() error {
	if r.Telegram == nil || r.Telegram.Token == "" {
		return errors.New("telegram token is not set")
	}

	switch r.Daemon.Kind {
	case DaemonQBittorrent, DaemonTransmission, DaemonRemote:
	default:
		return fmt.Errorf("unknown daemon kind %q", r.Daemon.Kind)
	}

	switch r.Intake.Store {
	case StoreMemory:
	case StoreRedis:
		if r.Redis.URL == "" {
			return errors.New("redis url is required for the redis pending store")
		}
	default:
		return fmt.Errorf("unknown pending store %q", r.Intake.Store)
	}

	return ValidateDestinations(r.Destinations)
}

func ValidateDestinations(ds []*Destination) error {
	if len(ds) == 0 {
		return ErrNoDestinations
	}

	seen := make(map[string]bool, len(ds))
	for _, d := range ds {
		key := strings.TrimSpace(d.Key)
		if key == "" {
			return errors.New("destination key is empty")
		}
		if d.SavePath == "" {
			return fmt.Errorf("destination %q has no save path", key)
		}
		if seen[key] {
			return fmt.Errorf("%w: %s", ErrDuplicateDestination, key)
		}
		seen[key] = true
	}

	return nil
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
