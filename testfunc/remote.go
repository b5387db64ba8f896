package testfunc

import (
	"context"
	"os"
	"sync"

	"github.com/chriskuehl/s3fetch/host"
	"github.com/chriskuehl/s3fetch/transfer"
)

// StubRemoteFileClient serves fixed contents for any URL and records what it was asked for.
type StubRemoteFileClient struct {
	Contents string
	Opts     host.Options
	Err      error

	mu   sync.Mutex
	urls []string
}

func (c *StubRemoteFileClient) record(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls = append(c.urls, url)
}

func (c *StubRemoteFileClient) URLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.urls...)
}

func (c *StubRemoteFileClient) GetContents(ctx context.Context, originURL, fileURL string, progress bool) ([]byte, error) {
	c.record(fileURL)
	if c.Err != nil {
		return nil, c.Err
	}
	return []byte(c.Contents), nil
}

func (c *StubRemoteFileClient) Copy(ctx context.Context, originURL, fileURL, fileName string, progress bool) error {
	c.record(fileURL)
	if c.Err != nil {
		return c.Err
	}
	if err := os.WriteFile(fileName, []byte(c.Contents), 0644); err != nil {
		return transfer.NewError(transfer.ErrIO, fileURL, 0, err)
	}
	return nil
}

func (c *StubRemoteFileClient) LastHeaders() []string {
	return []string{"HTTP 200"}
}

func (c *StubRemoteFileClient) Options() host.Options {
	return c.Opts
}
