package plugin

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/chriskuehl/s3fetch/config"
	"github.com/chriskuehl/s3fetch/fetcher"
	"github.com/chriskuehl/s3fetch/host"
)

// ClientFactory builds the S3 client used for downloads made with the given transport options.
type ClientFactory func(ctx context.Context, conf *config.Config, opts host.Options) (fetcher.S3Client, error)

func loadOptions(conf *config.Config, opts host.Options) ([]func(*awsConfig.LoadOptions) error, error) {
	tr, err := host.NewTransport(opts)
	if err != nil {
		return nil, err
	}
	httpClient := awshttp.NewBuildableClient().
		WithTransportOptions(func(t *http.Transport) {
			t.Proxy = tr.Proxy
			if opts.InsecureSkipVerify {
				if t.TLSClientConfig == nil {
					t.TLSClientConfig = &tls.Config{}
				}
				t.TLSClientConfig.InsecureSkipVerify = true
			}
		}).
		WithTimeout(opts.Timeout)

	loadOpts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithHTTPClient(httpClient),
	}
	if conf.Region != "" {
		loadOpts = append(loadOpts, awsConfig.WithRegion(conf.Region))
	}
	if conf.Profile != "" {
		loadOpts = append(loadOpts, awsConfig.WithSharedConfigProfile(conf.Profile))
	}
	if conf.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.SecretAccessKey, ""),
		))
	}
	if conf.MaxAttempts > 0 {
		loadOpts = append(loadOpts, awsConfig.WithRetryMaxAttempts(conf.MaxAttempts))
	}
	if opts.UserAgent != "" {
		loadOpts = append(loadOpts, awsConfig.WithAppID(opts.UserAgent))
	}
	return loadOpts, nil
}

// NewS3Client is the default ClientFactory. It resolves credentials and region the way the AWS
// CLI does, with the plugin configuration taking precedence, and routes requests through the
// same proxy and TLS settings as the host's HTTP client.
func NewS3Client(ctx context.Context, conf *config.Config, opts host.Options) (fetcher.S3Client, error) {
	loadOpts, err := loadOptions(conf, opts)
	if err != nil {
		return nil, fmt.Errorf("building transport: %w", err)
	}
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
		o.UsePathStyle = conf.UsePathStyle
	}), nil
}
