package plugin

import (
	"context"

	"github.com/chriskuehl/s3fetch/fetcher"
	"github.com/chriskuehl/s3fetch/host"
	"github.com/chriskuehl/s3fetch/logging"
	"github.com/chriskuehl/s3fetch/transfer"
)

// RemoteFilesystem serves s3:// URLs to the host through a fetcher.
type RemoteFilesystem struct {
	fetcher *fetcher.Fetcher
	options host.Options
}

func NewRemoteFilesystem(f *fetcher.Fetcher, opts host.Options) *RemoteFilesystem {
	return &RemoteFilesystem{
		fetcher: f,
		options: opts,
	}
}

func locate(fileURL string) (fetcher.Locator, error) {
	loc, err := fetcher.ParseLocator(fileURL)
	if err != nil {
		return fetcher.Locator{}, transfer.NewError(transfer.ErrTransfer, fileURL, 0, err)
	}
	return loc, nil
}

func (r *RemoteFilesystem) GetContents(ctx context.Context, originURL, fileURL string, progress bool) ([]byte, error) {
	loc, err := locate(fileURL)
	if err != nil {
		return nil, err
	}
	res, err := r.fetcher.FetchToMemory(logging.WithTransfer(ctx, fileURL, originURL), loc, progress)
	if err != nil {
		return nil, err
	}
	return res.Payload, nil
}

func (r *RemoteFilesystem) Copy(ctx context.Context, originURL, fileURL, fileName string, progress bool) error {
	loc, err := locate(fileURL)
	if err != nil {
		return err
	}
	_, err = r.fetcher.FetchToFile(logging.WithTransfer(ctx, fileURL, originURL), loc, fileName, progress)
	return err
}

func (r *RemoteFilesystem) LastHeaders() []string {
	return r.fetcher.LastHeaders()
}

func (r *RemoteFilesystem) Options() host.Options {
	return r.options
}
