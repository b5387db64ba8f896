// Package plugin hooks into the host's download pipeline and serves s3:// URLs from S3 instead
// of the generic HTTP client.
package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/chriskuehl/s3fetch/config"
	"github.com/chriskuehl/s3fetch/fetcher"
	"github.com/chriskuehl/s3fetch/host"
	"github.com/chriskuehl/s3fetch/logging"
	"github.com/chriskuehl/s3fetch/metrics"
	"github.com/chriskuehl/s3fetch/transfer"
)

type Plugin struct {
	conf          *config.Config
	logger        logging.Logger
	metrics       *metrics.Collector
	reporter      transfer.ProgressReporter
	clientFactory ClientFactory

	mu      sync.Mutex
	clients map[host.Options]fetcher.S3Client
}

type Option func(*Plugin)

func WithClientFactory(factory ClientFactory) Option {
	return func(p *Plugin) {
		p.clientFactory = factory
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(p *Plugin) {
		p.metrics = c
	}
}

func WithProgressReporter(reporter transfer.ProgressReporter) Option {
	return func(p *Plugin) {
		p.reporter = reporter
	}
}

func New(conf *config.Config, logger logging.Logger, opts ...Option) *Plugin {
	p := &Plugin{
		conf:          conf,
		logger:        logger,
		clientFactory: NewS3Client,
		clients:       make(map[host.Options]fetcher.S3Client),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Hooks returns the callbacks to register with the host's dispatcher.
func (p *Plugin) Hooks() host.Hooks {
	return host.Hooks{
		OnBeforeDownload: p.OnBeforeDownload,
	}
}

// client returns the S3 client for opts, creating it on first use.
func (p *Plugin) client(ctx context.Context, opts host.Options) (fetcher.S3Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[opts]; ok {
		return c, nil
	}
	c, err := p.clientFactory(ctx, p.conf, opts)
	if err != nil {
		return nil, err
	}
	p.clients[opts] = c
	return c, nil
}

// OnBeforeDownload installs a RemoteFilesystem for s3:// URLs. Other URLs are left to whatever
// client the event already holds.
func (p *Plugin) OnBeforeDownload(ctx context.Context, event *host.PreDownloadEvent) error {
	if !fetcher.IsObjectStorageURL(event.ProcessedURL()) {
		return nil
	}

	opts := event.ActiveClient().Options()
	client, err := p.client(ctx, opts)
	if err != nil {
		return fmt.Errorf("creating S3 client: %w", err)
	}

	fetcherOpts := []fetcher.Option{
		fetcher.WithLogger(p.logger),
		fetcher.WithMetrics(p.metrics),
	}
	if p.reporter != nil {
		fetcherOpts = append(fetcherOpts, fetcher.WithProgressReporter(p.reporter, p.conf.ProgressInterval))
	}
	event.SetActiveClient(NewRemoteFilesystem(fetcher.New(client, fetcherOpts...), opts))
	p.logger.Debug(ctx, "serving download from S3", "url", event.ProcessedURL())
	return nil
}
