// Package daemon talks to the torrent download daemon. Every failure is logged
// here and surfaces to callers only as a false or missing result.
package daemon

import (
	"context"
	"fmt"
	"time"
)

const DefaultTimeout = 15 * time.Second

// Lifecycle states as reported by qBittorrent. Other backends map onto these.
const (
	StateDownloading  = "downloading"
	StateUploading    = "uploading"
	StateStalledDL    = "stalledDL"
	StateStalledUP    = "stalledUP"
	StatePausedDL     = "pausedDL"
	StatePausedUP     = "pausedUP"
	StateQueuedDL     = "queuedDL"
	StateQueuedUP     = "queuedUP"
	StateCheckingDL   = "checkingDL"
	StateCheckingUP   = "checkingUP"
	StateError        = "error"
	StateMissingFiles = "missingFiles"
	StateAllocating   = "allocating"
	StateUnknown      = "unknown"
)

// Job is a read-only snapshot of one torrent known to the daemon.
type Job struct {
	Name         string  `json:"name"`
	Progress     float64 `json:"progress"`
	DownloadRate int64   `json:"dlspeed"`
	UploadRate   int64   `json:"upspeed"`
	Uploaded     int64   `json:"uploaded"`
	Category     string  `json:"category"`
	State        string  `json:"state"`
	AddedOn      int64   `json:"added_on"`
}

// Client is a synchronous facade over a download daemon.
//
// Connect (re)establishes the session and must have returned true before the
// other calls can succeed. It is safe to call repeatedly.
type Client interface {
	Name() string
	Connect(ctx context.Context) bool
	EnqueueMagnet(ctx context.Context, link, savePath, category string) bool
	EnqueueFile(ctx context.Context, metainfo []byte, savePath, category string) bool
	ListJobs(ctx context.Context) ([]Job, bool)
}

type Config struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// NewBackend builds a client that talks to a daemon directly. Kind is
// "qbittorrent" or "transmission".
func NewBackend(kind string, cfg Config) (Client, error) {
	switch kind {
	case "qbittorrent":
		return NewQBittorrent(cfg), nil
	case "transmission":
		return NewTransmission(cfg), nil
	default:
		return nil, fmt.Errorf("unknown daemon backend %q", kind)
	}
}
