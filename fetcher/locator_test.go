package fetcher

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Locator
		wantErr bool
	}{
		{
			name: "simple",
			in:   "s3://bucket/key",
			want: Locator{Scheme: "s3", Bucket: "bucket", Key: "key"},
		},
		{
			name: "nested key",
			in:   "s3://example.com/dists/vendor/pkg-1.0.0.zip",
			want: Locator{Scheme: "s3", Bucket: "example.com", Key: "dists/vendor/pkg-1.0.0.zip"},
		},
		{
			name: "escaped key",
			in:   "s3://bucket/a%20b.json",
			want: Locator{Scheme: "s3", Bucket: "bucket", Key: "a b.json"},
		},
		{
			name: "uppercase scheme",
			in:   "S3://bucket/key",
			want: Locator{Scheme: "s3", Bucket: "bucket", Key: "key"},
		},
		{
			name: "escaped hash and question mark",
			in:   "s3://bucket/v1%232.zip%3Fx",
			want: Locator{Scheme: "s3", Bucket: "bucket", Key: "v1#2.zip?x"},
		},
		{
			name:    "fragment",
			in:      "s3://bucket/v1#2.zip",
			wantErr: true,
		},
		{
			name:    "query",
			in:      "s3://bucket/a?b",
			wantErr: true,
		},
		{
			name:    "empty query",
			in:      "s3://bucket/a?",
			wantErr: true,
		},
		{
			name:    "no key",
			in:      "s3://example",
			wantErr: true,
		},
		{
			name:    "no bucket",
			in:      "s3:///key",
			wantErr: true,
		},
		{
			name:    "other scheme",
			in:      "https://example.com/packages.json",
			wantErr: true,
		},
		{
			name:    "unparseable",
			in:      "s3://bucket/%zz",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLocator(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLocator) {
					t.Fatalf("expected ErrInvalidLocator, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected locator (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocatorString(t *testing.T) {
	loc := Locator{Scheme: "s3", Bucket: "bucket", Key: "dir/a b.json"}
	if got, want := loc.String(), "s3://bucket/dir/a%20b.json"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIsObjectStorageURL(t *testing.T) {
	tests := map[string]bool{
		"http://example.com":                false,
		"https://example.com":               false,
		"http://example.com/packages.json":  false,
		"https://example.com/packages.json": false,
		"s3://example.com":                  true,
		"s3://example":                      true,
		"s3://example.com/packages.json":    true,
		"s3://example/packages.json":        true,
		"::not a url":                       false,
	}
	for url, want := range tests {
		if got := IsObjectStorageURL(url); got != want {
			t.Errorf("IsObjectStorageURL(%q) = %v, want %v", url, got, want)
		}
	}
}
