package daemon

import (
	"context"
	"encoding/base64"
	"net/url"
	"sync"

	transmissionrpc "github.com/hekmon/transmissionrpc/v3"
	"github.com/rs/zerolog"

	"github.com/aquare11e/torrent-intake-bot/internal/logging"
)

var _ Client = &Transmission{}

type Transmission struct {
	cfg Config
	log zerolog.Logger

	mu     sync.Mutex
	client *transmissionrpc.Client
}

func NewTransmission(cfg Config) *Transmission {
	return &Transmission{
		cfg: cfg,
		log: logging.Component("transmission"),
	}
}

func (t *Transmission) Name() string { return "Transmission" }

func (t *Transmission) Connect(ctx context.Context) bool {
	if t.cfg.URL == "" {
		t.log.Error().Msg("transmission url is not configured")
		t.setClient(nil)
		return false
	}

	endpoint, err := url.Parse(t.cfg.URL)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to parse transmission url")
		t.setClient(nil)
		return false
	}
	if t.cfg.Username != "" {
		endpoint.User = url.UserPassword(t.cfg.Username, t.cfg.Password)
	}

	client, err := transmissionrpc.New(endpoint, nil)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to create transmission client")
		t.setClient(nil)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.timeout())
	defer cancel()

	ok, serverVersion, minVersion, err := client.RPCVersion(ctx)
	if err != nil {
		t.log.Error().Err(err).Str("host", endpoint.Host).Msg("failed to connect to transmission")
		t.setClient(nil)
		return false
	}
	if !ok {
		t.log.Error().Int64("rpc-version", serverVersion).Int64("rpc-version-minimum", minVersion).
			Msg("transmission rpc version is not supported")
		t.setClient(nil)
		return false
	}

	t.setClient(client)
	t.log.Info().Int64("rpc-version", serverVersion).Msg("connected to transmission")
	return true
}

func (t *Transmission) EnqueueMagnet(ctx context.Context, link, savePath, category string) bool {
	return t.add(ctx, transmissionrpc.TorrentAddPayload{Filename: &link}, savePath, category)
}

func (t *Transmission) EnqueueFile(ctx context.Context, metainfo []byte, savePath, category string) bool {
	encoded := base64.StdEncoding.EncodeToString(metainfo)
	return t.add(ctx, transmissionrpc.TorrentAddPayload{MetaInfo: &encoded}, savePath, category)
}

func (t *Transmission) add(ctx context.Context, payload transmissionrpc.TorrentAddPayload, savePath, category string) bool {
	client := t.session()
	if client == nil {
		t.log.Error().Msg("client not connected")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.timeout())
	defer cancel()

	paused := false
	payload.DownloadDir = &savePath
	payload.Paused = &paused

	torrent, err := client.TorrentAdd(ctx, payload)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to add torrent")
		return false
	}

	// transmission has no categories; labels carry them instead
	if category != "" && torrent.ID != nil {
		err := client.TorrentSet(ctx, transmissionrpc.TorrentSetPayload{
			IDs:    []int64{*torrent.ID},
			Labels: []string{category},
		})
		if err != nil {
			t.log.Warn().Err(err).Int64("id", *torrent.ID).Msg("failed to label torrent")
		}
	}

	t.log.Info().Str("save-path", savePath).Str("category", category).Msg("added torrent")
	return true
}

func (t *Transmission) ListJobs(ctx context.Context) ([]Job, bool) {
	client := t.session()
	if client == nil {
		t.log.Error().Msg("client not connected")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.timeout())
	defer cancel()

	torrents, err := client.TorrentGet(ctx, jobFields, nil)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to get torrents info")
		return nil, false
	}

	jobs := make([]Job, 0, len(torrents))
	for _, tr := range torrents {
		jobs = append(jobs, jobFromTransmission(tr))
	}

	return jobs, true
}

func (t *Transmission) session() *transmissionrpc.Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client
}

func (t *Transmission) setClient(c *transmissionrpc.Client) {
	t.mu.Lock()
	t.client = c
	t.mu.Unlock()
}

var jobFields = []string{"id", "name", "status", "error", "percentDone", "rateDownload", "rateUpload", "uploadedEver", "labels", "addedDate"}

func jobFromTransmission(t transmissionrpc.Torrent) Job {
	var j Job
	if t.Name != nil {
		j.Name = *t.Name
	}
	if t.PercentDone != nil {
		j.Progress = *t.PercentDone
	}
	if t.RateDownload != nil {
		j.DownloadRate = *t.RateDownload
	}
	if t.RateUpload != nil {
		j.UploadRate = *t.RateUpload
	}
	if t.UploadedEver != nil {
		j.Uploaded = *t.UploadedEver
	}
	if len(t.Labels) > 0 {
		j.Category = t.Labels[0]
	}
	if t.AddedDate != nil {
		j.AddedOn = t.AddedDate.Unix()
	}

	j.State = StateUnknown
	if t.Status != nil {
		j.State = transmissionState(*t.Status, j.Progress)
	}
	if t.Error != nil && *t.Error != 0 {
		j.State = StateError
	}

	return j
}

func transmissionState(status transmissionrpc.TorrentStatus, progress float64) string {
	switch status {
	case transmissionrpc.TorrentStatusStopped:
		if progress >= 1 {
			return StatePausedUP
		}
		return StatePausedDL
	case transmissionrpc.TorrentStatusCheckWait, transmissionrpc.TorrentStatusCheck:
		if progress >= 1 {
			return StateCheckingUP
		}
		return StateCheckingDL
	case transmissionrpc.TorrentStatusDownloadWait:
		return StateQueuedDL
	case transmissionrpc.TorrentStatusDownload:
		return StateDownloading
	case transmissionrpc.TorrentStatusSeedWait:
		return StateQueuedUP
	case transmissionrpc.TorrentStatusSeed:
		return StateUploading
	case transmissionrpc.TorrentStatusIsolated:
		return StateError
	}
	return StateUnknown
}
