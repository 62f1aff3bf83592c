package config

import "time"

const (
	DaemonQBittorrent  = "qbittorrent"
	DaemonTransmission = "transmission"
	DaemonRemote       = "remote"

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Root is the assembled configuration for the bot binary.
type Root struct {
	Telegram *Telegram `yaml:"telegram"`
	Daemon   *Daemon   `yaml:"daemon"`
	Intake   *Intake   `yaml:"intake"`
	Redis    *Redis    `yaml:"redis"`
	Log      *Log      `yaml:"log"`

	Destinations []*Destination `yaml:"destinations"`
}

type Telegram struct {
	Token        string   `yaml:"token"`
	AllowedUsers []string `yaml:"allowed_users"`
	// SendRate is the number of outgoing messages allowed per second.
	SendRate float64 `yaml:"send_rate"`
}

type Daemon struct {
	Kind     string        `yaml:"kind"`
	URL      string        `yaml:"url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Intake struct {
	Store       string        `yaml:"store"`
	PendingTTL  time.Duration `yaml:"pending_ttl"`
	StagingDir  string        `yaml:"staging_dir"`
	MaxFileSize int64         `yaml:"max_file_size"`
}

type Redis struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Log struct {
	Debug      bool   `yaml:"debug"`
	MaxBackups int    `yaml:"max_backups"`
	MaxSize    int    `yaml:"max_size"`
	MaxAge     int    `yaml:"max_age"`
	Path       string `yaml:"path"`
}

// Destination is one place a torrent can be saved to. Key identifies it in
// selection tokens, Category is the label handed to the daemon and may be empty.
type Destination struct {
	Key      string `yaml:"key"`
	Label    string `yaml:"label"`
	SavePath string `yaml:"save_path"`
	Category string `yaml:"category"`
}
