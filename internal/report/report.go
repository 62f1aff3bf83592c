// Package report renders the daemon status shown by /status.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aquare11e/torrent-intake-bot/internal/daemon"
)

const (
	maxJobs       = 5
	maxNameLength = 40
	ellipsis      = "..."
	bytesPerMiB   = 1024 * 1024
	bytesPerGiB   = 1024 * 1024 * 1024
	fallbackGlyph = "📦"
	separatorLine = "━━━━━━━━━━━━━━━━━━━━"
)

var stateGlyphs = map[string]string{
	daemon.StateDownloading:  "⬇️",
	daemon.StateUploading:    "⬆️",
	daemon.StateStalledDL:    "⏸️",
	daemon.StateStalledUP:    "⏸️",
	daemon.StatePausedDL:     "⏸️",
	daemon.StatePausedUP:     "⏸️",
	daemon.StateQueuedDL:     "⏳",
	daemon.StateQueuedUP:     "⏳",
	daemon.StateCheckingDL:   "🔍",
	daemon.StateCheckingUP:   "🔍",
	daemon.StateError:        "❌",
	daemon.StateMissingFiles: "❌",
	daemon.StateAllocating:   "💾",
}

type Reporter struct {
	client daemon.Client
}

func New(client daemon.Client) *Reporter {
	return &Reporter{client: client}
}

// Build connects to the daemon and renders its health and most recent jobs.
func (r *Reporter) Build(ctx context.Context) string {
	if !r.client.Connect(ctx) {
		return fmt.Sprintf("❌ Failed to connect to %s. Please check your configuration.", r.client.Name())
	}

	// read after Connect: remote clients learn the backend name from it
	name := r.client.Name()

	jobs, _ := r.client.ListJobs(ctx)
	if len(jobs) == 0 {
		return fmt.Sprintf("✅ Connected to %s\n📊 No active torrents", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Connected to %s\n📊 Total torrents: %d\n\n", name, len(jobs))
	fmt.Fprintf(&b, "📥 Last %d Added Torrents:\n", maxJobs)
	b.WriteString(separatorLine + "\n\n")

	for i, j := range Latest(jobs, maxJobs) {
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, StateGlyph(j.State), TruncateName(j.Name))
		fmt.Fprintf(&b, "   Progress: %.1f%%\n", j.Progress*100)
		fmt.Fprintf(&b, "   ⬇️ %s  ⬆️ %s\n", FormatRate(j.DownloadRate), FormatRate(j.UploadRate))
		fmt.Fprintf(&b, "   📤 Uploaded: %s\n", FormatGigabytes(j.Uploaded))
		fmt.Fprintf(&b, "   Category: %s\n\n", categoryOrNone(j.Category))
	}

	return b.String()
}

// Latest returns up to n jobs, most recently added first. The input is not modified.
func Latest(jobs []daemon.Job, n int) []daemon.Job {
	sorted := make([]daemon.Job, len(jobs))
	copy(sorted, jobs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AddedOn > sorted[j].AddedOn
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func TruncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= maxNameLength {
		return name
	}
	return string(runes[:maxNameLength]) + ellipsis
}

func FormatRate(bytesPerSecond int64) string {
	return fmt.Sprintf("%.2f MB/s", float64(bytesPerSecond)/bytesPerMiB)
}

func FormatGigabytes(bytes int64) string {
	return fmt.Sprintf("%.2f GB", float64(bytes)/bytesPerGiB)
}

func StateGlyph(state string) string {
	if g, ok := stateGlyphs[state]; ok {
		return g
	}
	return fallbackGlyph
}

func categoryOrNone(c string) string {
	if c == "" {
		return "None"
	}
	return c
}
