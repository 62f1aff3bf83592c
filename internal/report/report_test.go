package report

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aquare11e/torrent-intake-bot/internal/daemon"
)

type stubDaemon struct {
	connectOK bool
	jobs      []daemon.Job
	listOK    bool
}

func (s *stubDaemon) Name() string { return "qBittorrent" }
func (s *stubDaemon) Connect(context.Context) bool { return s.connectOK }
func (s *stubDaemon) EnqueueMagnet(context.Context, string, string, string) bool { return false }
func (s *stubDaemon) EnqueueFile(context.Context, []byte, string, string) bool { return false }
func (s *stubDaemon) ListJobs(context.Context) ([]daemon.Job, bool) { return s.jobs, s.listOK }

func TestLatest(t *testing.T) {
	var jobs []daemon.Job
	for _, ts := range []int64{10, 50, 30, 20, 5, 40} {
		jobs = append(jobs, daemon.Job{AddedOn: ts})
	}

	got := Latest(jobs, 5)

	var stamps []int64
	for _, j := range got {
		stamps = append(stamps, j.AddedOn)
	}
	require.Equal(t, []int64{50, 40, 30, 20, 10}, stamps)
	// input untouched
	require.EqualValues(t, 10, jobs[0].AddedOn)
}

func TestLatestShortList(t *testing.T) {
	got := Latest([]daemon.Job{{AddedOn: 1}, {AddedOn: 3}}, 5)
	require.Len(t, got, 2)
	require.EqualValues(t, 3, got[0].AddedOn)
}

func TestConversions(t *testing.T) {
	require.Equal(t, "2.00 MB/s", FormatRate(2097152))
	require.Equal(t, "0.00 MB/s", FormatRate(0))
	require.Equal(t, "1.50 GB", FormatGigabytes(1610612736))
}

func TestTruncateName(t *testing.T) {
	short := strings.Repeat("a", 40)
	require.Equal(t, short, TruncateName(short))

	long := strings.Repeat("b", 41)
	require.Equal(t, strings.Repeat("b", 40)+"...", TruncateName(long))

	// counts characters, not bytes
	cyrillic := strings.Repeat("ж", 40)
	require.Equal(t, cyrillic, TruncateName(cyrillic))
}

func TestStateGlyph(t *testing.T) {
	require.Equal(t, "⬇️", StateGlyph(daemon.StateDownloading))
	require.Equal(t, "❌", StateGlyph(daemon.StateMissingFiles))
	require.Equal(t, "📦", StateGlyph("moving"))
	require.Equal(t, "📦", StateGlyph(""))
}

func TestBuildConnectionFailure(t *testing.T) {
	r := New(&stubDaemon{connectOK: false})
	require.Equal(t, "❌ Failed to connect to qBittorrent. Please check your configuration.", r.Build(context.Background()))
}

func TestBuildNoJobs(t *testing.T) {
	r := New(&stubDaemon{connectOK: true, listOK: true})
	require.Equal(t, "✅ Connected to qBittorrent\n📊 No active torrents", r.Build(context.Background()))

	r = New(&stubDaemon{connectOK: true, listOK: false})
	require.Contains(t, r.Build(context.Background()), "No active torrents")
}

func TestBuildReport(t *testing.T) {
	require := require.New(t)

	jobs := []daemon.Job{
		{Name: "old", AddedOn: 1},
		{Name: strings.Repeat("x", 45), Progress: 0.4567, DownloadRate: 2097152, UploadRate: 1048576, Uploaded: 1610612736, Category: "Movies", State: daemon.StateDownloading, AddedOn: 100},
		{Name: "b", AddedOn: 2, State: "weird"},
		{Name: "c", AddedOn: 3},
		{Name: "d", AddedOn: 4},
		{Name: "e", AddedOn: 5},
	}
	out := New(&stubDaemon{connectOK: true, listOK: true, jobs: jobs}).Build(context.Background())

	require.Contains(out, "📊 Total torrents: 6")
	require.Contains(out, "1. ⬇️ "+strings.Repeat("x", 40)+"...\n")
	require.Contains(out, "   Progress: 45.7%\n")
	require.Contains(out, "   ⬇️ 2.00 MB/s  ⬆️ 1.00 MB/s\n")
	require.Contains(out, "   📤 Uploaded: 1.50 GB\n")
	require.Contains(out, "   Category: Movies\n")
	require.Contains(out, "   Category: None\n")
	require.Contains(out, "📦 b\n")
	require.NotContains(out, "old")
}

type renamingDaemon struct {
	stubDaemon
	name string
}

func (r *renamingDaemon) Name() string { return r.name }

func (r *renamingDaemon) Connect(ctx context.Context) bool {
	r.name = "Transmission"
	return r.stubDaemon.Connect(ctx)
}

func TestBuildUsesNameLearnedOnConnect(t *testing.T) {
	d := &renamingDaemon{stubDaemon: stubDaemon{connectOK: true, listOK: true}, name: "daemon service"}
	require.Equal(t, "✅ Connected to Transmission\n📊 No active torrents", New(d).Build(context.Background()))
}
