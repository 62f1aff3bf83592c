package daemon

import (
	"context"
	"sync"

	qbittorrent "github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"

	"github.com/aquare11e/torrent-intake-bot/internal/logging"
)

var _ Client = &QBittorrent{}

type QBittorrent struct {
	cfg Config
	log zerolog.Logger

	mu     sync.Mutex
	client *qbittorrent.Client
}

func NewQBittorrent(cfg Config) *QBittorrent {
	return &QBittorrent{
		cfg: cfg,
		log: logging.Component("qbittorrent"),
	}
}

func (q *QBittorrent) Name() string { return "qBittorrent" }

func (q *QBittorrent) Connect(ctx context.Context) bool {
	if q.cfg.URL == "" {
		q.log.Error().Msg("qBittorrent url is not configured")
		q.setClient(nil)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, q.cfg.timeout())
	defer cancel()

	client := qbittorrent.NewClient(qbittorrent.Config{
		Host:     q.cfg.URL,
		Username: q.cfg.Username,
		Password: q.cfg.Password,
	})

	if err := client.LoginCtx(ctx); err != nil {
		q.log.Error().Err(err).Str("url", q.cfg.URL).Msg("failed to login to qBittorrent")
		q.setClient(nil)
		return false
	}

	version, err := client.GetAppVersionCtx(ctx)
	if err != nil {
		q.log.Error().Err(err).Str("url", q.cfg.URL).Msg("failed to connect to qBittorrent")
		q.setClient(nil)
		return false
	}

	q.setClient(client)
	q.log.Info().Str("version", version).Msg("connected to qBittorrent")
	return true
}

func (q *QBittorrent) EnqueueMagnet(ctx context.Context, link, savePath, category string) bool {
	client := q.session()
	if client == nil {
		q.log.Error().Msg("client not connected")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, q.cfg.timeout())
	defer cancel()

	if err := client.AddTorrentFromUrlCtx(ctx, link, addOptions(savePath, category)); err != nil {
		q.log.Error().Err(err).Msg("failed to add magnet link")
		return false
	}

	q.log.Info().Str("save-path", savePath).Str("category", category).Msg("added magnet link")
	return true
}

func (q *QBittorrent) EnqueueFile(ctx context.Context, metainfo []byte, savePath, category string) bool {
	client := q.session()
	if client == nil {
		q.log.Error().Msg("client not connected")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, q.cfg.timeout())
	defer cancel()

	if err := client.AddTorrentFromMemoryCtx(ctx, metainfo, addOptions(savePath, category)); err != nil {
		q.log.Error().Err(err).Msg("failed to add torrent file")
		return false
	}

	q.log.Info().Str("save-path", savePath).Str("category", category).Msg("added torrent file")
	return true
}

func (q *QBittorrent) ListJobs(ctx context.Context) ([]Job, bool) {
	client := q.session()
	if client == nil {
		q.log.Error().Msg("client not connected")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, q.cfg.timeout())
	defer cancel()

	torrents, err := client.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{})
	if err != nil {
		q.log.Error().Err(err).Msg("failed to get torrents info")
		return nil, false
	}

	jobs := make([]Job, 0, len(torrents))
	for _, t := range torrents {
		jobs = append(jobs, Job{
			Name:         t.Name,
			Progress:     t.Progress,
			DownloadRate: t.DlSpeed,
			UploadRate:   t.UpSpeed,
			Uploaded:     t.Uploaded,
			Category:     t.Category,
			State:        string(t.State),
			AddedOn:      t.AddedOn,
		})
	}

	return jobs, true
}

func (q *QBittorrent) session() *qbittorrent.Client {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.client
}

func (q *QBittorrent) setClient(c *qbittorrent.Client) {
	q.mu.Lock()
	q.client = c
	q.mu.Unlock()
}

func addOptions(savePath, category string) map[string]string {
	opts := map[string]string{"savepath": savePath}
	if category != "" {
		opts["category"] = category
	}
	return opts
}
