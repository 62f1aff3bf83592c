package daemonrpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/aquare11e/torrent-intake-bot/internal/daemon"
)

type call struct {
	Source   string
	SavePath string
	Category string
}

type stubDaemon struct {
	mu        sync.Mutex
	connectOK bool
	enqueueOK bool
	jobs      []daemon.Job
	listOK    bool
	magnets   []call
	files     []call
}

func (s *stubDaemon) Name() string { return "Transmission" }

func (s *stubDaemon) Connect(context.Context) bool { return s.connectOK }

func (s *stubDaemon) EnqueueMagnet(_ context.Context, link, savePath, category string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.magnets = append(s.magnets, call{Source: link, SavePath: savePath, Category: category})
	return s.enqueueOK
}

func (s *stubDaemon) EnqueueFile(_ context.Context, metainfo []byte, savePath, category string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, call{Source: string(metainfo), SavePath: savePath, Category: category})
	return s.enqueueOK
}

func (s *stubDaemon) ListJobs(context.Context) ([]daemon.Job, bool) { return s.jobs, s.listOK }

func dial(t *testing.T, backend daemon.Client) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterDaemonServer(srv, NewServer(backend))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRemoteClientRoundTrip(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	backend := &stubDaemon{
		connectOK: true,
		enqueueOK: true,
		listOK:    true,
		jobs:      []daemon.Job{{Name: "ubuntu.iso", Progress: 0.5, State: daemon.StateDownloading, AddedOn: 42}},
	}
	c := NewRemoteClient(dial(t, backend), time.Second)

	require.Equal(defaultRemoteName, c.Name())
	require.True(c.Connect(ctx))
	require.Equal("Transmission", c.Name())

	require.True(c.EnqueueMagnet(ctx, "magnet:?xt=urn:btih:ABC", "/data/movies", "Movies"))
	require.True(c.EnqueueFile(ctx, []byte("d4:infoe"), "/data/tv", ""))

	require.Equal([]call{{Source: "magnet:?xt=urn:btih:ABC", SavePath: "/data/movies", Category: "Movies"}}, backend.magnets)
	require.Equal([]call{{Source: "d4:infoe", SavePath: "/data/tv"}}, backend.files)

	jobs, ok := c.ListJobs(ctx)
	require.True(ok)
	require.Equal(backend.jobs, jobs)
}

func TestRemoteClientBackendFailures(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	c := NewRemoteClient(dial(t, &stubDaemon{}), time.Second)

	require.False(c.Connect(ctx))
	require.Equal("Transmission", c.Name())
	require.False(c.EnqueueMagnet(ctx, "magnet:?xt=urn:btih:ABC", "/data", ""))
	require.False(c.EnqueueFile(ctx, []byte("x"), "/data", ""))

	jobs, ok := c.ListJobs(ctx)
	require.False(ok)
	require.Nil(jobs)
}

func TestRemoteClientUnreachable(t *testing.T) {
	lis := bufconn.Listen(1 << 10)
	require.NoError(t, lis.Close())

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := NewRemoteClient(conn, 200*time.Millisecond)
	require.False(t, c.Connect(context.Background()))
	require.Equal(t, defaultRemoteName, c.Name())
}

func TestServerValidation(t *testing.T) {
	s := NewServer(&stubDaemon{enqueueOK: true})
	ctx := context.Background()

	_, err := s.AddMagnet(ctx, &AddMagnetRequest{})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.AddFile(ctx, &AddFileRequest{})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	resp, err := s.AddMagnet(ctx, &AddMagnetRequest{MagnetLink: "magnet:?xt=urn:btih:ABC"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RequestID)

	resp, err = s.AddMagnet(ctx, &AddMagnetRequest{RequestID: "req-1", MagnetLink: "magnet:?xt=urn:btih:ABC"})
	require.NoError(t, err)
	require.Equal(t, "req-1", resp.RequestID)
}
