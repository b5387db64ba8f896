// Package fetcher retrieves objects addressed by s3:// URLs, either into memory or atomically
// into a local file, and keeps the transport metadata of the last transfer.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/chriskuehl/s3fetch/logging"
	"github.com/chriskuehl/s3fetch/metrics"
	"github.com/chriskuehl/s3fetch/transfer"
)

type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher is not safe for concurrent use: LastHeaders reflects whichever transfer finished last.
// Use the metadata returned by each call when fetching from multiple goroutines.
type Fetcher struct {
	client           S3Client
	logger           logging.Logger
	metrics          *metrics.Collector
	reporter         transfer.ProgressReporter
	progressInterval time.Duration

	last transfer.Metadata
}

type Option func(*Fetcher)

func WithLogger(logger logging.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(f *Fetcher) {
		f.metrics = c
	}
}

// WithProgressReporter sets where progress goes for calls made with reportProgress set.
func WithProgressReporter(reporter transfer.ProgressReporter, interval time.Duration) Option {
	return func(f *Fetcher) {
		f.reporter = reporter
		f.progressInterval = interval
	}
}

func New(client S3Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: client,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchToMemory downloads the whole object. The payload is the exact object content and the
// metadata is the transport response as received.
func (f *Fetcher) FetchToMemory(ctx context.Context, loc Locator, reportProgress bool) (*transfer.Result, error) {
	ctx = withTransfer(ctx, loc)
	start := time.Now()

	body, md, err := f.open(ctx, loc, reportProgress)
	if err != nil {
		return nil, f.finish(ctx, metrics.ModeMemory, start, 0, err)
	}
	defer body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return nil, f.finish(ctx, metrics.ModeMemory, start, body.Transferred(),
			transfer.NewError(transfer.ErrTransfer, loc.String(), md.StatusCode, err))
	}
	body.Finish()

	f.last = md
	f.finish(ctx, metrics.ModeMemory, start, body.Transferred(), nil, "status", md.StatusCode)
	return &transfer.Result{
		Payload:  buf.Bytes(),
		Metadata: md,
	}, nil
}

// FetchToFile downloads the object into path, replacing any existing file only once the full
// object has been written. On error, path is left as it was.
func (f *Fetcher) FetchToFile(ctx context.Context, loc Locator, path string, reportProgress bool) (*transfer.Metadata, error) {
	ctx = withTransfer(ctx, loc)
	start := time.Now()

	body, md, err := f.open(ctx, loc, reportProgress)
	if err != nil {
		return nil, f.finish(ctx, metrics.ModeFile, start, 0, err)
	}
	defer body.Close()

	if _, err := transfer.WriteFile(path, body); err != nil {
		return nil, f.finish(ctx, metrics.ModeFile, start, body.Transferred(),
			transfer.NewError(transfer.Classify(err), loc.String(), md.StatusCode, err))
	}
	body.Finish()

	f.last = md
	f.finish(ctx, metrics.ModeFile, start, body.Transferred(), nil, "status", md.StatusCode, "path", path)
	return &md, nil
}

// LastHeaders renders the metadata of the most recent successful transfer as a status line
// followed by header lines. Before the first transfer it returns just "HTTP 0".
func (f *Fetcher) LastHeaders() []string {
	return f.last.Lines()
}

func withTransfer(ctx context.Context, loc Locator) context.Context {
	if logging.HasTransfer(ctx) {
		return ctx
	}
	return logging.WithTransfer(ctx, loc.String(), "")
}

type progressBody struct {
	*transfer.ProgressReader
	io.Closer
}

func (f *Fetcher) open(ctx context.Context, loc Locator, reportProgress bool) (*progressBody, transfer.Metadata, error) {
	f.logger.Debug(ctx, "fetching object", "bucket", loc.Bucket, "key", loc.Key)
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		class, status := classifyError(err)
		return nil, transfer.Metadata{}, transfer.NewError(class, loc.String(), status, err)
	}

	total := int64(-1)
	if out.ContentLength != nil {
		total = *out.ContentLength
	}
	var reporter transfer.ProgressReporter
	if reportProgress {
		reporter = f.reporter
	}
	return &progressBody{
		ProgressReader: transfer.NewProgressReader(out.Body, reporter, total, f.progressInterval),
		Closer:         out.Body,
	}, responseMetadata(out), nil
}

func (f *Fetcher) finish(ctx context.Context, mode string, start time.Time, n int64, err error, args ...any) error {
	f.metrics.Observe(mode, start, n, err)
	args = append(args, "mode", mode, "bytes", n, "duration", time.Since(start))
	switch {
	case err == nil:
		f.logger.Info(ctx, "fetched object", args...)
	case errors.Is(err, transfer.ErrNotFound), errors.Is(err, transfer.ErrAccessDenied):
		f.logger.Warn(ctx, "fetching object failed", append(args, "error", err)...)
	default:
		f.logger.Error(ctx, "fetching object failed", append(args, "error", err)...)
	}
	return err
}

// responseMetadata returns the status and headers of the HTTP response behind out. Clients that
// do not go through the SDK's HTTP stack (e.g. test doubles) have no raw response; for those the
// metadata is derived from the output fields.
func responseMetadata(out *s3.GetObjectOutput) transfer.Metadata {
	if raw, ok := awsmiddleware.GetRawResponse(out.ResultMetadata).(*smithyhttp.Response); ok && raw != nil && raw.Response != nil {
		return transfer.Metadata{
			StatusCode: raw.StatusCode,
			Header:     raw.Header.Clone(),
		}
	}

	header := http.Header{}
	if out.ContentType != nil {
		header.Set("Content-Type", *out.ContentType)
	}
	if out.ContentLength != nil {
		header.Set("Content-Length", strconv.FormatInt(*out.ContentLength, 10))
	}
	if out.ETag != nil {
		header.Set("ETag", *out.ETag)
	}
	if out.LastModified != nil {
		header.Set("Last-Modified", out.LastModified.UTC().Format(http.TimeFormat))
	}
	return transfer.Metadata{
		StatusCode: http.StatusOK,
		Header:     header,
	}
}

var (
	accessDeniedCodes = map[string]struct{}{
		"AccessDenied":          {},
		"AllAccessDisabled":     {},
		"Forbidden":             {},
		"InvalidAccessKeyId":    {},
		"SignatureDoesNotMatch": {},
	}
	notFoundCodes = map[string]struct{}{
		"NoSuchBucket": {},
		"NoSuchKey":    {},
		"NotFound":     {},
	}
)

func classifyError(err error) (class error, status int) {
	var withStatus interface{ HTTPStatusCode() int }
	if errors.As(err, &withStatus) {
		status = withStatus.HTTPStatusCode()
	}

	var nsk *types.NoSuchKey
	var nsb *types.NoSuchBucket
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nsb) || errors.As(err, &nf) {
		return transfer.ErrNotFound, status
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := notFoundCodes[apiErr.ErrorCode()]; ok {
			return transfer.ErrNotFound, status
		}
		if _, ok := accessDeniedCodes[apiErr.ErrorCode()]; ok {
			return transfer.ErrAccessDenied, status
		}
	}

	if status != 0 {
		if class := transfer.ClassForStatus(status); class != nil {
			return class, status
		}
	}
	return transfer.ErrTransfer, status
}
