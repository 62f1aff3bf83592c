package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeQbit struct {
	mu       sync.Mutex
	password string
	added    []map[string]string
}

func (f *fakeQbit) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.FormValue("password") != f.password {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "ok", Path: "/"})
		_, _ = w.Write([]byte("Ok."))
	})
	mux.HandleFunc("/api/v2/app/version", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("v4.6.2"))
	})
	mux.HandleFunc("/api/v2/app/webapiVersion", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("2.9.3"))
	})
	mux.HandleFunc("/api/v2/torrents/add", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		f.mu.Lock()
		f.added = append(f.added, map[string]string{
			"urls":     r.FormValue("urls"),
			"savepath": r.FormValue("savepath"),
			"category": r.FormValue("category"),
		})
		f.mu.Unlock()
		_, _ = w.Write([]byte("Ok."))
	})
	mux.HandleFunc("/api/v2/torrents/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"name": "ubuntu.iso", "progress": 0.5, "dlspeed": 2097152, "upspeed": 0, "uploaded": 1610612736, "category": "Movies", "state": "downloading", "added_on": 42},
		})
	})
	return mux
}

func TestQBittorrentNotConfigured(t *testing.T) {
	q := NewQBittorrent(Config{})
	require.False(t, q.Connect(context.Background()))
	require.False(t, q.EnqueueMagnet(context.Background(), "magnet:?xt=urn:btih:ABC", "/movies", "Movies"))
	require.False(t, q.EnqueueFile(context.Background(), []byte("d4:infoe"), "/movies", "Movies"))

	jobs, ok := q.ListJobs(context.Background())
	require.False(t, ok)
	require.Nil(t, jobs)
}

func TestQBittorrentBadCredentials(t *testing.T) {
	fake := &fakeQbit{password: "secret"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	q := NewQBittorrent(Config{URL: srv.URL, Username: "admin", Password: "wrong"})
	require.False(t, q.Connect(context.Background()))
	require.False(t, q.EnqueueMagnet(context.Background(), "magnet:?xt=urn:btih:ABC", "/movies", "Movies"))
}

func TestQBittorrentRoundTrip(t *testing.T) {
	require := require.New(t)

	fake := &fakeQbit{password: "secret"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	q := NewQBittorrent(Config{URL: srv.URL, Username: "admin", Password: "secret"})
	ctx := context.Background()

	require.True(q.Connect(ctx))
	// reconnecting is harmless
	require.True(q.Connect(ctx))

	require.True(q.EnqueueMagnet(ctx, "magnet:?xt=urn:btih:ABC", "/movies", "Movies"))

	fake.mu.Lock()
	require.Len(fake.added, 1)
	require.Equal("magnet:?xt=urn:btih:ABC", fake.added[0]["urls"])
	require.Equal("/movies", fake.added[0]["savepath"])
	require.Equal("Movies", fake.added[0]["category"])
	fake.mu.Unlock()

	jobs, ok := q.ListJobs(ctx)
	require.True(ok)
	require.Len(jobs, 1)
	require.Equal("ubuntu.iso", jobs[0].Name)
	require.EqualValues(2097152, jobs[0].DownloadRate)
	require.EqualValues(1610612736, jobs[0].Uploaded)
	require.Equal(StateDownloading, jobs[0].State)
	require.EqualValues(42, jobs[0].AddedOn)
}

func TestAddOptions(t *testing.T) {
	require.Equal(t, map[string]string{"savepath": "/tv", "category": "TV Shows"}, addOptions("/tv", "TV Shows"))
	require.Equal(t, map[string]string{"savepath": "/tv"}, addOptions("/tv", ""))
}

func TestNewBackend(t *testing.T) {
	c, err := NewBackend("qbittorrent", Config{})
	require.NoError(t, err)
	require.Equal(t, "qBittorrent", c.Name())

	c, err = NewBackend("transmission", Config{})
	require.NoError(t, err)
	require.Equal(t, "Transmission", c.Name())

	_, err = NewBackend("deluge", Config{})
	require.Error(t, err)
}
