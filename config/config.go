package config

import (
	"net/url"
	"time"
)

type Config struct {
	// Region is the default region for S3 requests. If empty, the SDK's default resolution
	// (environment, shared config) applies.
	Region string
	// Profile selects a shared config profile.
	Profile string
	// Endpoint overrides the S3 endpoint, e.g. for S3-compatible services. Must be an absolute
	// URL if set.
	Endpoint     string
	UsePathStyle bool
	// AccessKeyID and SecretAccessKey configure static credentials. Both or neither must be set;
	// if neither is set, the SDK's default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	// MaxAttempts caps the SDK's retry attempts per request. 0 keeps the SDK default.
	MaxAttempts int
	// ProgressInterval is the minimum time between two progress reports for a transfer.
	ProgressInterval time.Duration
}

func NewConfig() *Config {
	return &Config{
		ProgressInterval: 100 * time.Millisecond,
	}
}

func (conf *Config) Validate() []string {
	var errs []string
	if conf.Endpoint != "" {
		u, err := url.Parse(conf.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, "Endpoint must be an absolute URL")
		}
	}
	if (conf.AccessKeyID == "") != (conf.SecretAccessKey == "") {
		errs = append(errs, "AccessKeyID and SecretAccessKey must be set together")
	}
	if conf.MaxAttempts < 0 {
		errs = append(errs, "MaxAttempts must not be negative")
	}
	if conf.ProgressInterval < 0 {
		errs = append(errs, "ProgressInterval must not be negative")
	}
	return errs
}
