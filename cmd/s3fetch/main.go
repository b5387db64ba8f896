package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/chriskuehl/s3fetch/cmd/internal/cli"
	"github.com/chriskuehl/s3fetch/config"
	"github.com/chriskuehl/s3fetch/config/loader"
	"github.com/chriskuehl/s3fetch/host"
	"github.com/chriskuehl/s3fetch/logging"
	"github.com/chriskuehl/s3fetch/metrics"
	"github.com/chriskuehl/s3fetch/plugin"
	"github.com/chriskuehl/s3fetch/transfer"
)

const userAgent = "s3fetch"

// Overridden in tests so that the machine's config files don't leak in.
var configPaths = cli.ConfigPaths

type flags struct {
	configPath      string
	output          string
	region          string
	profile         string
	endpoint        string
	pathStyle       bool
	proxy           string
	timeout         time.Duration
	insecure        bool
	headers         bool
	noProgress      bool
	metricsTextfile string
	dumpConfig      bool
	verbose         bool
}

func (f *flags) apply(cmd *cobra.Command, conf *config.Config) {
	changed := cmd.Flags().Changed
	if changed("region") {
		conf.Region = f.region
	}
	if changed("profile") {
		conf.Profile = f.profile
	}
	if changed("endpoint") {
		conf.Endpoint = f.endpoint
	}
	if changed("path-style") {
		conf.UsePathStyle = f.pathStyle
	}
}

func newCommand(stdout, stderr io.Writer) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use: "s3fetch [flags] URL",
		Long: `Download a file.

Example usage:

    Print a file stored in S3:
        s3fetch s3://my-bucket/packages.json

    Save it to disk instead:
        s3fetch -o packages.json s3://my-bucket/packages.json

    Use an S3-compatible service:
        s3fetch --endpoint http://localhost:9000 --path-style s3://my-bucket/packages.json

` + cli.Description,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := config.NewConfig()
			if err := cli.LoadConfig(conf, configPaths(), f.configPath); err != nil {
				return err
			}
			f.apply(cmd, conf)
			if errs := conf.Validate(); len(errs) > 0 {
				return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
			}

			if f.dumpConfig {
				text, err := loader.DumpConfigTOML(conf)
				if err != nil {
					return err
				}
				_, err = io.WriteString(stdout, text)
				return err
			}
			if len(args) != 1 {
				return errors.New("expected exactly one URL")
			}
			return fetch(cmd.Context(), stdout, stderr, conf, &f, args[0])
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "path to a TOML config file")
	fs.StringVarP(&f.output, "output", "o", "", "write to this file instead of stdout")
	fs.StringVar(&f.region, "region", "", "S3 region")
	fs.StringVar(&f.profile, "profile", "", "shared AWS config profile")
	fs.StringVar(&f.endpoint, "endpoint", "", "S3 endpoint URL, for S3-compatible services")
	fs.BoolVar(&f.pathStyle, "path-style", false, "use path-style S3 addressing")
	fs.StringVar(&f.proxy, "proxy", "", "proxy URL for all requests")
	fs.DurationVar(&f.timeout, "timeout", 0, "timeout for each request (0 for none)")
	fs.BoolVar(&f.insecure, "insecure", false, "skip TLS certificate verification")
	fs.BoolVar(&f.headers, "headers", false, "print the response headers to stderr")
	fs.BoolVar(&f.noProgress, "no-progress", false, "never show a progress bar")
	fs.StringVar(&f.metricsTextfile, "metrics-textfile", "", "write transfer metrics to this file in the Prometheus text format")
	fs.BoolVar(&f.dumpConfig, "dump-config", false, "print the effective configuration as TOML and exit")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log each transfer")
	return cmd
}

func fetch(ctx context.Context, stdout, stderr io.Writer, conf *config.Config, f *flags, rawURL string) (retErr error) {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector()
	registry.MustRegister(collector)
	if f.metricsTextfile != "" {
		defer func() {
			if err := prometheus.WriteToTextfile(f.metricsTextfile, registry); err != nil && retErr == nil {
				retErr = fmt.Errorf("writing metrics: %w", err)
			}
		}()
	}

	var reporter transfer.ProgressReporter
	if !f.noProgress && cli.IsTerminal(stderr) {
		reporter = cli.NewProgressBar(stderr)
	}

	opts := host.Options{
		Proxy:              f.proxy,
		Timeout:            f.timeout,
		InsecureSkipVerify: f.insecure,
		UserAgent:          userAgent,
	}
	httpClient, err := host.NewHTTPClient(opts, reporter, conf.ProgressInterval)
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	dispatcher := host.NewDispatcher()
	dispatcher.Register(plugin.New(conf, logger,
		plugin.WithMetrics(collector),
		plugin.WithProgressReporter(reporter),
	).Hooks())
	dispatcher.Register(host.Hooks{
		OnAfterDownload: func(ctx context.Context, event *host.PostDownloadEvent) {
			if event.Err != nil {
				logger.Debug(ctx, "download failed", "client", fmt.Sprintf("%T", event.Client), "error", event.Err)
			}
		},
	})
	dl := host.NewDownloader(httpClient, dispatcher, logger)

	origin := ""
	if u, err := url.Parse(rawURL); err == nil {
		origin = u.Host
	}
	progress := reporter != nil

	if f.output != "" {
		err = dl.Download(ctx, rawURL, origin, f.output, progress)
	} else {
		var body []byte
		body, err = dl.Get(ctx, rawURL, origin, progress)
		if err == nil {
			if _, werr := stdout.Write(body); werr != nil {
				err = fmt.Errorf("writing output: %w", werr)
			}
		}
	}
	if err != nil {
		return err
	}

	if f.headers {
		for _, line := range dl.LastHeaders() {
			fmt.Fprintln(stderr, line)
		}
	}
	return nil
}

func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	cmd := newCommand(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
