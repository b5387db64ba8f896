package loader

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/chriskuehl/s3fetch/config"
)

type credentials struct {
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

type configFile struct {
	Region             string `toml:"region"`
	Profile            string `toml:"profile"`
	Endpoint           string `toml:"endpoint"`
	UsePathStyle       bool   `toml:"use_path_style"`
	MaxAttempts        int    `toml:"max_attempts"`
	ProgressIntervalMS int64  `toml:"progress_interval_ms"`

	Credentials *credentials `toml:"credentials"`
}

func LoadConfigTOML(conf *config.Config, path string) error {
	var cfg configFile
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if len(md.Undecoded()) > 0 {
		return fmt.Errorf("unknown keys in config: %v", md.Undecoded())
	}
	if cfg.Region != "" {
		conf.Region = cfg.Region
	}
	if cfg.Profile != "" {
		conf.Profile = cfg.Profile
	}
	if cfg.Endpoint != "" {
		conf.Endpoint = cfg.Endpoint
	}
	if md.IsDefined("use_path_style") {
		conf.UsePathStyle = cfg.UsePathStyle
	}
	if cfg.MaxAttempts != 0 {
		conf.MaxAttempts = cfg.MaxAttempts
	}
	if md.IsDefined("progress_interval_ms") {
		conf.ProgressInterval = time.Duration(cfg.ProgressIntervalMS) * time.Millisecond
	}
	if cfg.Credentials != nil {
		conf.AccessKeyID = cfg.Credentials.AccessKeyID
		conf.SecretAccessKey = cfg.Credentials.SecretAccessKey
	}
	return nil
}

func DumpConfigTOML(conf *config.Config) (string, error) {
	cfg := configFile{
		Region:             conf.Region,
		Profile:            conf.Profile,
		Endpoint:           conf.Endpoint,
		UsePathStyle:       conf.UsePathStyle,
		MaxAttempts:        conf.MaxAttempts,
		ProgressIntervalMS: conf.ProgressInterval.Milliseconds(),
	}
	if conf.AccessKeyID != "" || conf.SecretAccessKey != "" {
		cfg.Credentials = &credentials{
			AccessKeyID:     conf.AccessKeyID,
			SecretAccessKey: conf.SecretAccessKey,
		}
	}
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	return string(buf), nil
}
