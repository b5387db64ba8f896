package testfunc

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type StubObject struct {
	Body        string
	ContentType string
	// Header is sent in addition to Content-Type and Content-Length.
	Header http.Header
}

// StubFault makes the stub answer with an S3 error document.
type StubFault struct {
	StatusCode int
	Code       string
}

// StubS3 is a minimal S3-compatible endpoint serving path-style GetObject requests.
type StubS3 struct {
	Server *httptest.Server

	mu        sync.Mutex
	objects   map[string]StubObject
	faults    map[string]StubFault
	truncated map[string]StubObject
	requests  []string
}

func NewStubS3(t *testing.T) *StubS3 {
	s := &StubS3{
		objects:   make(map[string]StubObject),
		faults:    make(map[string]StubFault),
		truncated: make(map[string]StubObject),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Server.Close)
	return s
}

func (s *StubS3) Put(bucket, key string, obj StubObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = obj
}

func (s *StubS3) Fail(bucket, key string, fault StubFault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[bucket+"/"+key] = fault
}

// Truncate makes the stub announce the full object but drop the connection halfway through
// the body.
func (s *StubS3) Truncate(bucket, key string, obj StubObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.truncated[bucket+"/"+key] = obj
}

// Requests returns the paths requested so far.
func (s *StubS3) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *StubS3) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	s.mu.Lock()
	s.requests = append(s.requests, path)
	obj, found := s.objects[path]
	fault, failing := s.faults[path]
	partial, truncated := s.truncated[path]
	s.mu.Unlock()

	if r.Method != http.MethodGet {
		writeS3Error(w, http.StatusMethodNotAllowed, "MethodNotAllowed")
		return
	}
	switch {
	case failing:
		writeS3Error(w, fault.StatusCode, fault.Code)
	case truncated:
		writeTruncated(w, partial)
	case found:
		for name, values := range obj.Header {
			for _, v := range values {
				w.Header().Add(name, v)
			}
		}
		if obj.ContentType != "" {
			w.Header().Set("Content-Type", obj.ContentType)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.Body)))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(obj.Body))
	default:
		writeS3Error(w, http.StatusNotFound, "NoSuchKey")
	}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>%s</Code><Message>stub error</Message><RequestId>stub</RequestId></Error>`, code)
}

func writeTruncated(w http.ResponseWriter, obj StubObject) {
	conn, buf, err := http.NewResponseController(w).Hijack()
	if err != nil {
		panic(fmt.Sprintf("hijacking connection: %v", err))
	}
	defer conn.Close()
	fmt.Fprintf(buf, "HTTP/1.1 200 OK\r\nContent-Type: %s\r\nContent-Length: %d\r\n\r\n", obj.ContentType, len(obj.Body))
	buf.WriteString(obj.Body[:len(obj.Body)/2])
	buf.Flush()
}

// NewS3Client returns an SDK client talking to the stub with retries disabled.
func (s *StubS3) NewS3Client() *s3.Client {
	return s3.New(s3.Options{
		Region:           "us-east-1",
		Credentials:      credentials.NewStaticCredentialsProvider("AKIDSTUB", "stub-secret", ""),
		BaseEndpoint:     aws.String(s.Server.URL),
		UsePathStyle:     true,
		RetryMaxAttempts: 1,
	})
}
