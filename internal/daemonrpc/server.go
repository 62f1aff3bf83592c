package daemonrpc

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aquare11e/torrent-intake-bot/internal/daemon"
	"github.com/aquare11e/torrent-intake-bot/internal/logging"
)

var _ DaemonServer = &Server{}

// Server exposes a daemon.Client over gRPC so that one process owns the
// daemon session.
type Server struct {
	client daemon.Client
	log    zerolog.Logger
}

func NewServer(client daemon.Client) *Server {
	return &Server{
		client: client,
		log:    logging.Component("daemon-rpc"),
	}
}

func (s *Server) Connect(ctx context.Context, _ *ConnectRequest) (*ConnectResponse, error) {
	return &ConnectResponse{
		Name:      s.client.Name(),
		Connected: s.client.Connect(ctx),
	}, nil
}

func (s *Server) AddMagnet(ctx context.Context, req *AddMagnetRequest) (*AddResponse, error) {
	if req.MagnetLink == "" {
		return nil, status.Errorf(codes.InvalidArgument, "magnet link is required")
	}

	id := requestID(req.RequestID)
	log := s.log.With().Str("request-id", id).Logger()

	log.Info().Str("save-path", req.SavePath).Str("category", req.Category).Msg("adding torrent by magnet")
	if !s.client.EnqueueMagnet(ctx, req.MagnetLink, req.SavePath, req.Category) {
		log.Warn().Msg("daemon rejected magnet")
		return nil, status.Errorf(codes.Unavailable, "failed to add torrent")
	}

	return &AddResponse{RequestID: id}, nil
}

func (s *Server) AddFile(ctx context.Context, req *AddFileRequest) (*AddResponse, error) {
	if len(req.MetaInfo) == 0 {
		return nil, status.Errorf(codes.InvalidArgument, "metainfo is required")
	}

	id := requestID(req.RequestID)
	log := s.log.With().Str("request-id", id).Logger()

	log.Info().Int("size", len(req.MetaInfo)).Str("save-path", req.SavePath).Str("category", req.Category).Msg("adding torrent by file")
	if !s.client.EnqueueFile(ctx, req.MetaInfo, req.SavePath, req.Category) {
		log.Warn().Msg("daemon rejected torrent file")
		return nil, status.Errorf(codes.Unavailable, "failed to add torrent")
	}

	return &AddResponse{RequestID: id}, nil
}

func (s *Server) ListJobs(ctx context.Context, _ *ListJobsRequest) (*ListJobsResponse, error) {
	jobs, ok := s.client.ListJobs(ctx)
	if !ok {
		return nil, status.Errorf(codes.Unavailable, "failed to list torrents")
	}
	return &ListJobsResponse{Jobs: jobs}, nil
}

func requestID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}
