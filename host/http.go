package host

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chriskuehl/s3fetch/transfer"
)

// HTTPClient is the generic RemoteFileClient for http and https URLs.
type HTTPClient struct {
	client           *http.Client
	options          Options
	reporter         transfer.ProgressReporter
	progressInterval time.Duration

	last transfer.Metadata
}

// NewTransport returns an http.Transport configured from opts.
func NewTransport(opts Options) (*http.Transport, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		proxy, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parsing proxy URL: %w", err)
		}
		tr.Proxy = http.ProxyURL(proxy)
	}
	if opts.InsecureSkipVerify {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return tr, nil
}

func NewHTTPClient(opts Options, reporter transfer.ProgressReporter, progressInterval time.Duration) (*HTTPClient, error) {
	tr, err := NewTransport(opts)
	if err != nil {
		return nil, err
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: tr,
			Timeout:   opts.Timeout,
		},
		options:          opts,
		reporter:         reporter,
		progressInterval: progressInterval,
	}, nil
}

func (c *HTTPClient) Options() Options {
	return c.options
}

func (c *HTTPClient) LastHeaders() []string {
	return c.last.Lines()
}

func (c *HTTPClient) open(ctx context.Context, fileURL string, progress bool) (*http.Response, *transfer.ProgressReader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, nil, transfer.NewError(transfer.ErrTransfer, fileURL, 0, fmt.Errorf("creating request: %w", err))
	}
	if c.options.UserAgent != "" {
		req.Header.Set("User-Agent", c.options.UserAgent)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, transfer.NewError(transfer.ErrTransfer, fileURL, 0, err)
	}
	if class := transfer.ClassForStatus(resp.StatusCode); class != nil {
		resp.Body.Close()
		return nil, nil, transfer.NewError(class, fileURL, resp.StatusCode, nil)
	}
	var reporter transfer.ProgressReporter
	if progress {
		reporter = c.reporter
	}
	return resp, transfer.NewProgressReader(resp.Body, reporter, resp.ContentLength, c.progressInterval), nil
}

func metadataOf(resp *http.Response) transfer.Metadata {
	return transfer.Metadata{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
	}
}

func (c *HTTPClient) GetContents(ctx context.Context, originURL, fileURL string, progress bool) ([]byte, error) {
	resp, body, err := c.open(ctx, fileURL, progress)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return nil, transfer.NewError(transfer.ErrTransfer, fileURL, resp.StatusCode, err)
	}
	body.Finish()
	c.last = metadataOf(resp)
	return buf.Bytes(), nil
}

func (c *HTTPClient) Copy(ctx context.Context, originURL, fileURL, fileName string, progress bool) error {
	resp, body, err := c.open(ctx, fileURL, progress)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := transfer.WriteFile(fileName, body); err != nil {
		return transfer.NewError(transfer.Classify(err), fileURL, 0, err)
	}
	body.Finish()
	c.last = metadataOf(resp)
	return nil
}
