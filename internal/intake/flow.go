// Package intake implements the two-step torrent submission flow: a user
// submits a magnet link or .torrent file, picks a destination, and the
// torrent is dispatched to the download daemon.
package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/aquare11e/torrent-intake-bot/internal/config"
	"github.com/aquare11e/torrent-intake-bot/internal/daemon"
	"github.com/aquare11e/torrent-intake-bot/internal/logging"
)

var (
	ErrInvalidMagnet    = errors.New("invalid magnet link")
	ErrNotTorrentFile   = errors.New("not a .torrent file")
	ErrFileTooLarge     = errors.New("torrent file too large")
	ErrStaging          = errors.New("failed to stage torrent file")
	ErrStore            = errors.New("pending store failure")
	ErrNoPending        = errors.New("no pending submission")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrConnection       = errors.New("daemon connection failed")
	ErrDispatch         = errors.New("daemon rejected torrent")
)

type ReplyKind int

const (
	ReplyText ReplyKind = iota
	ReplyPrompt
)

// Reply is what the transport shows the user after an event. A prompt asks
// for one of Destinations. Err is nil on success.
type Reply struct {
	Kind         ReplyKind
	Text         string
	Destinations []*config.Destination
	Err          error
}

// FileSource lazily opens the bytes of an uploaded file.
type FileSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

type FileSourceFunc func(ctx context.Context) (io.ReadCloser, error)

func (f FileSourceFunc) Open(ctx context.Context) (io.ReadCloser, error) { return f(ctx) }

type Options struct {
	StagingDir  string
	MaxFileSize int64
	PendingTTL  time.Duration
}

type Flow struct {
	store        Store
	client       daemon.Client
	destinations []*config.Destination
	opts         Options

	log zerolog.Logger
	now func() time.Time
}

func NewFlow(store Store, client daemon.Client, destinations []*config.Destination, opts Options) *Flow {
	if opts.StagingDir == "" {
		opts.StagingDir = os.TempDir()
	}
	return &Flow{
		store:        store,
		client:       client,
		destinations: destinations,
		opts:         opts,
		log:          logging.Component("intake"),
		now:          time.Now,
	}
}

// SelectionToken is the token a transport sends back to pick a destination.
func SelectionToken(d *config.Destination) string {
	return selectionPrefix + d.Key
}

func (f *Flow) Destinations() []*config.Destination {
	return f.destinations
}

func (f *Flow) State(ctx context.Context, owner OwnerID) State {
	sub, err := f.store.Get(ctx, owner)
	if err != nil || sub == nil {
		return StateIdle
	}
	return StateAwaitingDestination
}

func (f *Flow) SubmitText(ctx context.Context, owner OwnerID, text string) Reply {
	if !strings.HasPrefix(text, magnetPrefix) {
		return textReply(msgInvalidMagnet, ErrInvalidMagnet)
	}
	link := strings.TrimRightFunc(text, unicode.IsSpace)

	return f.remember(ctx, owner, Submission{
		Kind:      SourceMagnet,
		Magnet:    link,
		CreatedAt: f.now(),
	})
}

func (f *Flow) SubmitFile(ctx context.Context, owner OwnerID, filename string, src FileSource) Reply {
	if !strings.HasSuffix(filename, torrentSuffix) {
		return textReply(msgNotTorrentFile, ErrNotTorrentFile)
	}

	path, err := f.stageFile(ctx, src)
	if err != nil {
		f.log.Error().Err(err).Int64("owner", int64(owner)).Str("file", filename).Msg("failed to stage torrent file")
		return textReply(msgStagingFailed, fmt.Errorf("%w: %w", ErrStaging, err))
	}

	return f.remember(ctx, owner, Submission{
		Kind:      SourceFile,
		FilePath:  path,
		FileName:  filename,
		CreatedAt: f.now(),
	})
}

// Select resolves a destination token for the owner's pending submission and
// dispatches it. An unknown token leaves the pending submission in place.
func (f *Flow) Select(ctx context.Context, owner OwnerID, token string) Reply {
	dest, ok := f.resolve(token)
	if !ok {
		pending, err := f.store.Get(ctx, owner)
		if err != nil {
			f.log.Error().Err(err).Int64("owner", int64(owner)).Msg("failed to read pending submission")
			return textReply(msgStoreFailed, fmt.Errorf("%w: %w", ErrStore, err))
		}
		if pending == nil {
			return textReply(msgNoPending, ErrNoPending)
		}
		f.log.Warn().Int64("owner", int64(owner)).Str("token", token).Msg("invalid destination selection")
		return textReply(msgInvalidSelection, ErrInvalidSelection)
	}

	sub, err := f.store.TakeAndRemove(ctx, owner)
	if err != nil {
		f.log.Error().Err(err).Int64("owner", int64(owner)).Msg("failed to take pending submission")
		return textReply(msgStoreFailed, fmt.Errorf("%w: %w", ErrStore, err))
	}
	if sub == nil {
		return textReply(msgNoPending, ErrNoPending)
	}

	return f.dispatch(ctx, owner, *sub, dest)
}

func (f *Flow) Cancel(ctx context.Context, owner OwnerID) Reply {
	sub, err := f.store.TakeAndRemove(ctx, owner)
	if err != nil {
		f.log.Error().Err(err).Int64("owner", int64(owner)).Msg("failed to take pending submission")
		return textReply(msgStoreFailed, fmt.Errorf("%w: %w", ErrStore, err))
	}
	if sub == nil {
		return textReply(msgNothingToCancel, ErrNoPending)
	}

	f.discard(*sub)
	return textReply(msgCancelled, nil)
}

func (f *Flow) remember(ctx context.Context, owner OwnerID, sub Submission) Reply {
	prev, err := f.store.Put(ctx, owner, sub)
	if err != nil {
		f.log.Error().Err(err).Int64("owner", int64(owner)).Msg("failed to store pending submission")
		f.discard(sub)
		return textReply(msgStoreFailed, fmt.Errorf("%w: %w", ErrStore, err))
	}
	if prev != nil {
		f.log.Debug().Int64("owner", int64(owner)).Stringer("kind", prev.Kind).Msg("replaced pending submission")
		f.discard(*prev)
	}
	if sub.Kind == SourceFile {
		f.touch(sub.FilePath)
	}

	f.log.Info().Int64("owner", int64(owner)).Stringer("kind", sub.Kind).Msg("awaiting destination")
	return Reply{
		Kind:         ReplyPrompt,
		Text:         msgChooseDestination,
		Destinations: f.destinations,
	}
}

func (f *Flow) dispatch(ctx context.Context, owner OwnerID, sub Submission, dest *config.Destination) Reply {
	if sub.Kind == SourceFile {
		defer f.discard(sub)
	}

	if !f.client.Connect(ctx) {
		return textReply(fmt.Sprintf(msgConnectionFailed, f.client.Name()), ErrConnection)
	}

	var ok bool
	switch sub.Kind {
	case SourceMagnet:
		ok = f.client.EnqueueMagnet(ctx, sub.Magnet, dest.SavePath, dest.Category)
	case SourceFile:
		data, err := os.ReadFile(sub.FilePath)
		if err != nil {
			f.log.Error().Err(err).Str("path", sub.FilePath).Msg("failed to read staged torrent file")
			break
		}
		ok = f.client.EnqueueFile(ctx, data, dest.SavePath, dest.Category)
	}

	if !ok {
		f.log.Warn().Int64("owner", int64(owner)).Str("destination", dest.Key).Msg("dispatch failed")
		return textReply(msgDispatchFailed, ErrDispatch)
	}

	f.log.Info().Int64("owner", int64(owner)).Str("destination", dest.Key).Stringer("kind", sub.Kind).Msg("torrent dispatched")
	return textReply(fmt.Sprintf(msgDispatched, dest.Label, dest.SavePath), nil)
}

func (f *Flow) resolve(token string) (*config.Destination, bool) {
	for _, d := range f.destinations {
		if SelectionToken(d) == token {
			return d, true
		}
	}
	return nil, false
}

func (f *Flow) stageFile(ctx context.Context, src FileSource) (string, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	if err := os.MkdirAll(f.opts.StagingDir, 0o700); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(f.opts.StagingDir, stagedFilePattern)
	if err != nil {
		return "", err
	}

	r := io.Reader(rc)
	if f.opts.MaxFileSize > 0 {
		r = io.LimitReader(rc, f.opts.MaxFileSize+1)
	}

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil && f.opts.MaxFileSize > 0 && n > f.opts.MaxFileSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}

// touch restarts the staged file's age so the janitor does not expire it
// before the entry that references it.
func (f *Flow) touch(path string) {
	now := f.now()
	if err := os.Chtimes(path, now, now); err != nil {
		f.log.Debug().Err(err).Str("path", path).Msg("failed to touch staged torrent file")
	}
}

// discard removes the staged copy of a file submission, if any.
func (f *Flow) discard(sub Submission) {
	if sub.Kind != SourceFile || sub.FilePath == "" {
		return
	}
	if err := os.Remove(sub.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		f.log.Debug().Err(err).Str("path", sub.FilePath).Msg("failed to remove staged torrent file")
	}
}

func textReply(text string, err error) Reply {
	return Reply{Kind: ReplyText, Text: text, Err: err}
}
