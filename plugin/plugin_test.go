package plugin_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/chriskuehl/s3fetch/config"
	"github.com/chriskuehl/s3fetch/fetcher"
	"github.com/chriskuehl/s3fetch/host"
	"github.com/chriskuehl/s3fetch/plugin"
	"github.com/chriskuehl/s3fetch/testfunc"
	"github.com/chriskuehl/s3fetch/transfer"
)

var nonS3Addresses = []string{
	"http://example.com",
	"https://example.com",
	"http://example.com/packages.json",
	"https://example.com/packages.json",
}

var s3Addresses = []string{
	"s3://example.com",
	"s3://example",
	"s3://example.com/packages.json",
	"s3://example/packages.json",
}

// newPlugin returns a plugin whose client factory serves from stub and records the options it
// was called with.
func newPlugin(t *testing.T, stub *testfunc.StubS3, calls *[]host.Options) *plugin.Plugin {
	t.Helper()
	return plugin.New(config.NewConfig(), testfunc.NewMemoryLogger(), plugin.WithClientFactory(
		func(ctx context.Context, conf *config.Config, opts host.Options) (fetcher.S3Client, error) {
			if calls != nil {
				*calls = append(*calls, opts)
			}
			if stub == nil {
				t.Fatalf("client factory called unexpectedly")
			}
			return stub.NewS3Client(), nil
		},
	))
}

func TestPluginIgnoresNonS3Protocols(t *testing.T) {
	for _, address := range nonS3Addresses {
		t.Run(address, func(t *testing.T) {
			p := newPlugin(t, nil, nil)
			original := &testfunc.StubRemoteFileClient{Opts: host.Options{UserAgent: "composer"}}
			event := host.NewPreDownloadEvent(address, "", original)

			if err := p.OnBeforeDownload(context.Background(), event); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if event.ActiveClient() != original {
				t.Fatalf("active client was replaced for %s", address)
			}
		})
	}
}

func TestPluginReplacesRemoteFilesystemForS3Protocols(t *testing.T) {
	for _, address := range s3Addresses {
		t.Run(address, func(t *testing.T) {
			stub := testfunc.NewStubS3(t)
			var calls []host.Options
			p := newPlugin(t, stub, &calls)
			opts := host.Options{
				Proxy:     "http://proxy.internal:3128",
				Timeout:   30 * time.Second,
				UserAgent: "composer",
			}
			original := &testfunc.StubRemoteFileClient{Opts: opts}
			event := host.NewPreDownloadEvent(address, "", original)

			if err := p.OnBeforeDownload(context.Background(), event); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			installed, ok := event.ActiveClient().(*plugin.RemoteFilesystem)
			if !ok {
				t.Fatalf("expected *plugin.RemoteFilesystem, got %T", event.ActiveClient())
			}
			if diff := cmp.Diff(opts, installed.Options()); diff != "" {
				t.Fatalf("options not inherited (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]host.Options{opts}, calls); diff != "" {
				t.Fatalf("unexpected factory calls (-want +got):\n%s", diff)
			}
			if len(original.URLs()) != 0 {
				t.Fatalf("original client was used: %v", original.URLs())
			}
		})
	}
}

func TestPluginReusesClientForSameOptions(t *testing.T) {
	stub := testfunc.NewStubS3(t)
	var calls []host.Options
	p := newPlugin(t, stub, &calls)

	for _, opts := range []host.Options{{}, {}, {Timeout: time.Second}} {
		event := host.NewPreDownloadEvent("s3://bucket/key", "", &testfunc.StubRemoteFileClient{Opts: opts})
		if err := p.OnBeforeDownload(context.Background(), event); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(calls) != 2 {
		t.Fatalf("got %d factory calls, want 2", len(calls))
	}
}

func TestPluginFactoryError(t *testing.T) {
	factoryErr := errors.New("no region")
	p := plugin.New(config.NewConfig(), testfunc.NewMemoryLogger(), plugin.WithClientFactory(
		func(ctx context.Context, conf *config.Config, opts host.Options) (fetcher.S3Client, error) {
			return nil, factoryErr
		},
	))
	original := &testfunc.StubRemoteFileClient{}
	event := host.NewPreDownloadEvent("s3://bucket/key", "", original)
	if err := p.OnBeforeDownload(context.Background(), event); !errors.Is(err, factoryErr) {
		t.Fatalf("expected factory error, got %v", err)
	}
	if event.ActiveClient() != original {
		t.Fatalf("active client replaced despite error")
	}
}

func newDownloader(t *testing.T, stub *testfunc.StubS3, def host.RemoteFileClient, reporter transfer.ProgressReporter) *host.Downloader {
	t.Helper()
	conf := config.NewConfig()
	conf.ProgressInterval = 0
	logger := testfunc.NewMemoryLogger()
	p := plugin.New(conf, logger,
		plugin.WithProgressReporter(reporter),
		plugin.WithClientFactory(func(ctx context.Context, conf *config.Config, opts host.Options) (fetcher.S3Client, error) {
			return stub.NewS3Client(), nil
		}),
	)
	d := host.NewDispatcher()
	d.Register(p.Hooks())
	return host.NewDownloader(def, d, logger)
}

func TestDownloadThroughPlugin(t *testing.T) {
	stub := testfunc.NewStubS3(t)
	stub.Put("bucket", "key", testfunc.StubObject{Body: "abc", ContentType: "text/plain"})
	def := &testfunc.StubRemoteFileClient{Contents: "from http"}
	reporter := testfunc.NewRecordingReporter()
	dl := newDownloader(t, stub, def, reporter)
	ctx := context.Background()

	got, err := dl.Get(ctx, "s3://bucket/key", "example.com", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("unexpected payload: %q", got)
	}
	headers := dl.LastHeaders()
	if headers[0] != "HTTP 200" {
		t.Fatalf("unexpected status line: %v", headers)
	}
	events := reporter.Events()
	if len(events) == 0 || !events[len(events)-1].Complete {
		t.Fatalf("expected completion as last progress event: %v", events)
	}

	got, err = dl.Get(ctx, "http://example.com", "example.com", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "from http" {
		t.Fatalf("unexpected payload: %q", got)
	}

	dest := filepath.Join(t.TempDir(), "key")
	if err := dl.Download(ctx, "s3://bucket/key", "example.com", dest, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(content) != "abc" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestDownloadMissingObject(t *testing.T) {
	stub := testfunc.NewStubS3(t)
	dl := newDownloader(t, stub, &testfunc.StubRemoteFileClient{}, nil)

	_, err := dl.Get(context.Background(), "s3://bucket/missing", "", false)
	if !errors.Is(err, transfer.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDownloadLocatorWithoutKey(t *testing.T) {
	stub := testfunc.NewStubS3(t)
	dl := newDownloader(t, stub, &testfunc.StubRemoteFileClient{}, nil)

	_, err := dl.Get(context.Background(), "s3://bucket", "", false)
	if !errors.Is(err, fetcher.ErrInvalidLocator) {
		t.Fatalf("expected ErrInvalidLocator, got %v", err)
	}
	if !errors.Is(err, transfer.ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}
	if len(stub.Requests()) != 0 {
		t.Fatalf("unexpected requests: %v", stub.Requests())
	}
}
