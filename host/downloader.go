package host

import (
	"context"
	"fmt"

	"github.com/chriskuehl/s3fetch/logging"
)

// Downloader routes downloads through the dispatcher's hooks and then to whichever client the
// hooks selected. The default client is only ever lent to events, never replaced, so a client
// installed for one URL does not leak into later downloads.
type Downloader struct {
	client     RemoteFileClient
	dispatcher *Dispatcher
	logger     logging.Logger

	last RemoteFileClient
}

func NewDownloader(client RemoteFileClient, dispatcher *Dispatcher, logger logging.Logger) *Downloader {
	return &Downloader{
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (d *Downloader) Client() RemoteFileClient {
	return d.client
}

func (d *Downloader) prepare(ctx context.Context, url, origin string) (RemoteFileClient, error) {
	event := NewPreDownloadEvent(url, origin, d.client)
	if err := d.dispatcher.BeforeDownload(ctx, event); err != nil {
		return nil, err
	}
	client := event.ActiveClient()
	if client == nil {
		return nil, fmt.Errorf("no remote file client for %s", url)
	}
	if client != d.client {
		d.logger.Debug(ctx, "remote file client replaced by hook", "client", fmt.Sprintf("%T", client))
	}
	return client, nil
}

// Get returns the body of url.
func (d *Downloader) Get(ctx context.Context, url, origin string, progress bool) ([]byte, error) {
	ctx = logging.WithTransfer(ctx, url, origin)
	client, err := d.prepare(ctx, url, origin)
	if err != nil {
		return nil, err
	}
	body, err := client.GetContents(ctx, origin, url, progress)
	d.finish(ctx, url, client, err)
	return body, err
}

// Download writes the body of url to path.
func (d *Downloader) Download(ctx context.Context, url, origin, path string, progress bool) error {
	ctx = logging.WithTransfer(ctx, url, origin)
	client, err := d.prepare(ctx, url, origin)
	if err != nil {
		return err
	}
	err = client.Copy(ctx, origin, url, path, progress)
	d.finish(ctx, url, client, err)
	return err
}

func (d *Downloader) finish(ctx context.Context, url string, client RemoteFileClient, err error) {
	d.last = client
	d.dispatcher.AfterDownload(ctx, &PostDownloadEvent{
		ProcessedURL: url,
		Client:       client,
		Err:          err,
	})
}

// LastHeaders returns the headers recorded by the client that served the most recent download.
func (d *Downloader) LastHeaders() []string {
	if d.last == nil {
		return d.client.LastHeaders()
	}
	return d.last.LastHeaders()
}
