// Package host is the download pipeline plugins hook into. A Downloader asks registered hooks
// before each download whether to swap the remote file client used for that URL.
package host

import (
	"context"
	"time"
)

// Options are transport settings shared by every remote file client, so that a client
// installed by a plugin behaves like the one it replaces.
type Options struct {
	// Proxy is a proxy URL. Empty means use the environment (HTTP_PROXY etc.).
	Proxy              string
	Timeout            time.Duration
	InsecureSkipVerify bool
	UserAgent          string
}

// RemoteFileClient fetches remote files. Errors wrap one of the transfer error classes.
type RemoteFileClient interface {
	// GetContents returns the body of fileURL. originURL identifies the repository the file was
	// requested for and is informational.
	GetContents(ctx context.Context, originURL, fileURL string, progress bool) ([]byte, error)
	// Copy downloads fileURL into fileName.
	Copy(ctx context.Context, originURL, fileURL, fileName string, progress bool) error
	// LastHeaders returns the status line and headers of the last completed transfer.
	LastHeaders() []string
	Options() Options
}

// PreDownloadEvent is passed to OnBeforeDownload hooks. Hooks may replace the client that will
// serve the download through SetActiveClient.
type PreDownloadEvent struct {
	processedURL string
	originURL    string
	client       RemoteFileClient
}

func NewPreDownloadEvent(processedURL, originURL string, client RemoteFileClient) *PreDownloadEvent {
	return &PreDownloadEvent{
		processedURL: processedURL,
		originURL:    originURL,
		client:       client,
	}
}

func (e *PreDownloadEvent) ProcessedURL() string {
	return e.processedURL
}

func (e *PreDownloadEvent) OriginURL() string {
	return e.originURL
}

func (e *PreDownloadEvent) ActiveClient() RemoteFileClient {
	return e.client
}

func (e *PreDownloadEvent) SetActiveClient(client RemoteFileClient) {
	e.client = client
}

// PostDownloadEvent is passed to OnAfterDownload hooks once a download finished, successfully or
// not.
type PostDownloadEvent struct {
	ProcessedURL string
	Client       RemoteFileClient
	Err          error
}
