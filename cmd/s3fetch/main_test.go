package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chriskuehl/s3fetch/testfunc"
	"github.com/chriskuehl/s3fetch/transfer"
)

func setup(t *testing.T, stub *testfunc.StubS3) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "aws-config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "aws-credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	orig := configPaths
	configPaths = func() []string { return nil }
	t.Cleanup(func() { configPaths = orig })

	configPath := filepath.Join(dir, "s3fetch.toml")
	contents := fmt.Sprintf(`
region = "us-east-1"
endpoint = %q
use_path_style = true
max_attempts = 1

[credentials]
access_key_id = "AKIDSTUB"
secret_access_key = "stub-secret"
`, stub.Server.URL)
	if err := os.WriteFile(configPath, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), &stdout, &stderr, args)
	return stdout.String(), stderr.String(), err
}

func TestFetchS3ToStdout(t *testing.T) {
	stub := testfunc.NewStubS3(t)
	stub.Put("bucket", "packages.json", testfunc.StubObject{Body: `{"packages":[]}`, ContentType: "application/json"})
	configPath := setup(t, stub)

	stdout, stderr, err := runCommand(t, "--config", configPath, "--headers", "s3://bucket/packages.json")
	if err != nil {
		t.Fatalf("unexpected error: %v\nstderr: %s", err, stderr)
	}
	if stdout != `{"packages":[]}` {
		t.Fatalf("unexpected stdout: %q", stdout)
	}
	if !strings.HasPrefix(stderr, "HTTP 200\n") {
		t.Fatalf("expected status line on stderr, got: %q", stderr)
	}
	if !strings.Contains(stderr, "Content-Type:application/json") {
		t.Fatalf("expected content type header on stderr, got: %q", stderr)
	}
}

func TestFetchS3ToFile(t *testing.T) {
	stub := testfunc.NewStubS3(t)
	stub.Put("bucket", "dist/pkg.zip", testfunc.StubObject{Body: "zip bytes"})
	configPath := setup(t, stub)
	dir := t.TempDir()
	dest := filepath.Join(dir, "pkg.zip")

	stdout, stderr, err := runCommand(t, "--config", configPath, "-o", dest, "s3://bucket/dist/pkg.zip")
	if err != nil {
		t.Fatalf("unexpected error: %v\nstderr: %s", err, stderr)
	}
	if stdout != "" {
		t.Fatalf("unexpected stdout: %q", stdout)
	}
	content, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(content) != "zip bytes" {
		t.Fatalf("unexpected content: %q", content)
	}
	testfunc.AssertDirEntries(t, dir, []string{"pkg.zip"})
}

func TestFetchS3MissingObject(t *testing.T) {
	stub := testfunc.NewStubS3(t)
	configPath := setup(t, stub)
	dir := t.TempDir()

	_, stderr, err := runCommand(t, "--config", configPath, "-o", filepath.Join(dir, "out"), "s3://bucket/missing")
	if !errors.Is(err, transfer.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(stderr, "not found") {
		t.Fatalf("expected error on stderr, got: %q", stderr)
	}
	testfunc.AssertDirEntries(t, dir, nil)
}

func TestFetchHTTP(t *testing.T) {
	stub := testfunc.NewStubS3(t)
	configPath := setup(t, stub)
	var userAgents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgents = append(userAgents, r.UserAgent())
		if r.URL.Path != "/packages.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"packages":{}}`)
	}))
	t.Cleanup(server.Close)

	stdout, stderr, err := runCommand(t, "--config", configPath, server.URL+"/packages.json")
	if err != nil {
		t.Fatalf("unexpected error: %v\nstderr: %s", err, stderr)
	}
	if stdout != `{"packages":{}}` {
		t.Fatalf("unexpected stdout: %q", stdout)
	}
	if len(stub.Requests()) != 0 {
		t.Fatalf("S3 stub should not have been used: %v", stub.Requests())
	}

	_, _, err = runCommand(t, "--config", configPath, server.URL+"/missing.json")
	if !errors.Is(err, transfer.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	for _, ua := range userAgents {
		if ua != userAgent {
			t.Fatalf("unexpected user agent: %q", ua)
		}
	}
}

func TestMetricsTextfile(t *testing.T) {
	stub := testfunc.NewStubS3(t)
	stub.Put("bucket", "key", testfunc.StubObject{Body: "abc"})
	configPath := setup(t, stub)
	metricsPath := filepath.Join(t.TempDir(), "s3fetch.prom")

	if _, stderr, err := runCommand(t, "--config", configPath, "--metrics-textfile", metricsPath, "s3://bucket/key"); err != nil {
		t.Fatalf("unexpected error: %v\nstderr: %s", err, stderr)
	}
	content, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("failed to read metrics: %v", err)
	}
	for _, want := range []string{
		`s3fetch_transfers_total{mode="memory",outcome="success"} 1`,
		`s3fetch_transfer_bytes_total{mode="memory"} 3`,
	} {
		if !strings.Contains(string(content), want) {
			t.Errorf("metrics missing %q:\n%s", want, content)
		}
	}
}

func TestDumpConfig(t *testing.T) {
	stub := testfunc.NewStubS3(t)
	configPath := setup(t, stub)

	stdout, _, err := runCommand(t, "--config", configPath, "--region", "eu-west-1", "--dump-config")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		`region = "eu-west-1"`,
		fmt.Sprintf("endpoint = %q", stub.Server.URL),
		"use_path_style = true",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("dumped config missing %q:\n%s", want, stdout)
		}
	}
}

func TestInvalidInvocations(t *testing.T) {
	stub := testfunc.NewStubS3(t)
	configPath := setup(t, stub)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "no URL",
			args: []string{"--config", configPath},
			want: "expected exactly one URL",
		},
		{
			name: "missing config file",
			args: []string{"--config", filepath.Join(t.TempDir(), "nope.toml"), "s3://bucket/key"},
			want: "reading config file",
		},
		{
			name: "relative endpoint",
			args: []string{"--config", configPath, "--endpoint", "localhost:9000", "s3://bucket/key"},
			want: "Endpoint must be an absolute URL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCommand(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got error %v, want one containing %q", err, tt.want)
			}
		})
	}
}
