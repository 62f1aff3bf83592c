package intake

import (
	"fmt"
	"time"
)

// OwnerID identifies the user a submission belongs to.
type OwnerID int64

type SourceKind int

const (
	SourceMagnet SourceKind = iota + 1
	SourceFile
)

func (k SourceKind) String() string {
	switch k {
	case SourceMagnet:
		return "magnet"
	case SourceFile:
		return "file"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

func parseSourceKind(s string) (SourceKind, error) {
	switch s {
	case "magnet":
		return SourceMagnet, nil
	case "file":
		return SourceFile, nil
	}
	return 0, fmt.Errorf("unknown source kind %q", s)
}

// Submission is a torrent waiting for its destination. Magnet is set for
// SourceMagnet, FilePath (the staged copy) and FileName for SourceFile.
type Submission struct {
	Kind      SourceKind
	Magnet    string
	FilePath  string
	FileName  string
	CreatedAt time.Time
}

func (s Submission) expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.CreatedAt) > ttl
}

type State int

const (
	StateIdle State = iota
	StateAwaitingDestination
)

func (s State) String() string {
	if s == StateAwaitingDestination {
		return "awaiting-destination"
	}
	return "idle"
}
