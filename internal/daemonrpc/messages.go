package daemonrpc

import "github.com/aquare11e/torrent-intake-bot/internal/daemon"

type ConnectRequest struct{}

type ConnectResponse struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

type AddMagnetRequest struct {
	RequestID  string `json:"request_id"`
	MagnetLink string `json:"magnet_link"`
	SavePath   string `json:"save_path"`
	Category   string `json:"category"`
}

// AddFileRequest carries raw metainfo; the JSON codec base64 encodes it.
type AddFileRequest struct {
	RequestID string `json:"request_id"`
	MetaInfo  []byte `json:"metainfo"`
	SavePath  string `json:"save_path"`
	Category  string `json:"category"`
}

type AddResponse struct {
	RequestID string `json:"request_id"`
}

type ListJobsRequest struct{}

type ListJobsResponse struct {
	Jobs []daemon.Job `json:"jobs"`
}
