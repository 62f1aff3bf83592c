package daemonrpc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/aquare11e/torrent-intake-bot/internal/daemon"
	"github.com/aquare11e/torrent-intake-bot/internal/logging"
)

const defaultRemoteName = "daemon service"

var _ daemon.Client = &RemoteClient{}

// RemoteClient is a daemon.Client backed by a daemon-service instance.
type RemoteClient struct {
	conn    grpc.ClientConnInterface
	timeout time.Duration
	log     zerolog.Logger

	mu   sync.Mutex
	name string
}

func NewRemoteClient(conn grpc.ClientConnInterface, timeout time.Duration) *RemoteClient {
	if timeout <= 0 {
		timeout = daemon.DefaultTimeout
	}
	return &RemoteClient{
		conn:    conn,
		timeout: timeout,
		log:     logging.Component("daemon-remote"),
		name:    defaultRemoteName,
	}
}

// Name is the backend name reported by the last successful Connect.
func (c *RemoteClient) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *RemoteClient) Connect(ctx context.Context) bool {
	out := new(ConnectResponse)
	if err := c.invoke(ctx, connectMethod, &ConnectRequest{}, out); err != nil {
		c.log.Error().Err(err).Msg("failed to reach daemon service")
		return false
	}

	if out.Name != "" {
		c.mu.Lock()
		c.name = out.Name
		c.mu.Unlock()
	}

	if !out.Connected {
		c.log.Warn().Str("daemon", out.Name).Msg("daemon service could not connect to daemon")
	}
	return out.Connected
}

func (c *RemoteClient) EnqueueMagnet(ctx context.Context, link, savePath, category string) bool {
	req := &AddMagnetRequest{
		RequestID:  uuid.New().String(),
		MagnetLink: link,
		SavePath:   savePath,
		Category:   category,
	}
	if err := c.invoke(ctx, addMagnetMethod, req, new(AddResponse)); err != nil {
		c.log.Error().Err(err).Str("request-id", req.RequestID).Msg("failed to add torrent by magnet")
		return false
	}
	return true
}

func (c *RemoteClient) EnqueueFile(ctx context.Context, metainfo []byte, savePath, category string) bool {
	req := &AddFileRequest{
		RequestID: uuid.New().String(),
		MetaInfo:  metainfo,
		SavePath:  savePath,
		Category:  category,
	}
	if err := c.invoke(ctx, addFileMethod, req, new(AddResponse)); err != nil {
		c.log.Error().Err(err).Str("request-id", req.RequestID).Msg("failed to add torrent by file")
		return false
	}
	return true
}

func (c *RemoteClient) ListJobs(ctx context.Context) ([]daemon.Job, bool) {
	out := new(ListJobsResponse)
	if err := c.invoke(ctx, listJobsMethod, &ListJobsRequest{}, out); err != nil {
		c.log.Error().Err(err).Msg("failed to list torrents")
		return nil, false
	}
	return out.Jobs, true
}

func (c *RemoteClient) invoke(ctx context.Context, method string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.conn.Invoke(ctx, method, in, out, grpc.CallContentSubtype(CodecName))
}
