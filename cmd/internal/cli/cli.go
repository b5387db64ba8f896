package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/adrg/xdg"
	"golang.org/x/term"

	"github.com/chriskuehl/s3fetch/config"
	"github.com/chriskuehl/s3fetch/config/loader"
)

const Description = `s3fetch downloads files the way a package manager would: s3:// URLs are
fetched from S3 (or an S3-compatible service), anything else over plain HTTP.

Credentials and region are resolved like the AWS CLI does (environment, shared
config and credentials files, instance metadata). Settings can be made permanent
in a TOML config file, for example:

    region = "eu-west-1"
    endpoint = "https://minio.my.corp"
    use_path_style = true

This file can be placed at either /etc/s3fetch.toml or $XDG_CONFIG_HOME/s3fetch.toml.
`

func ConfigPaths() []string {
	return []string{
		"/etc/s3fetch.toml",
		path.Join(xdg.ConfigHome, "s3fetch.toml"),
	}
}

// LoadConfig applies every config file that exists from paths, in order, and then explicit,
// which must exist if non-empty.
func LoadConfig(conf *config.Config, paths []string, explicit string) error {
	for _, configPath := range paths {
		if _, err := os.Stat(configPath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("reading config file %s: %w", configPath, err)
		}
		if err := loader.LoadConfigTOML(conf, configPath); err != nil {
			return fmt.Errorf("reading config file %s: %w", configPath, err)
		}
	}
	if explicit != "" {
		if err := loader.LoadConfigTOML(conf, explicit); err != nil {
			return fmt.Errorf("reading config file %s: %w", explicit, err)
		}
	}
	return nil
}

func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ProgressBar prints transfer progress on a single, continuously rewritten line.
type ProgressBar struct {
	w io.Writer
}

func NewProgressBar(w io.Writer) *ProgressBar {
	return &ProgressBar{w: w}
}

func (p *ProgressBar) OnProgress(transferred, total int64) {
	if total > 0 {
		fmt.Fprintf(p.w, "\r\x1b[KDownloading (%3d%%) %s / %s", transferred*100/total, FormatBytes(transferred), FormatBytes(total))
	} else {
		fmt.Fprintf(p.w, "\r\x1b[KDownloading %s", FormatBytes(transferred))
	}
}

func (p *ProgressBar) OnComplete(transferred int64) {
	fmt.Fprintf(p.w, "\r\x1b[KDownloaded %s\n", FormatBytes(transferred))
}
