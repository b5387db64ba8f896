package fetcher

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Scheme is the URL scheme handled by the fetcher.
const Scheme = "s3"

var ErrInvalidLocator = errors.New("invalid object locator")

// Locator identifies an object as s3://<bucket>/<key>.
type Locator struct {
	Scheme string
	Bucket string
	Key    string
}

func (l Locator) String() string {
	u := url.URL{Scheme: l.Scheme, Host: l.Bucket, Path: "/" + l.Key}
	return u.String()
}

// IsObjectStorageURL reports whether raw uses the object storage scheme. It does not check that
// the rest of the URL is a valid locator.
func IsObjectStorageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == Scheme
}

func ParseLocator(raw string) (Locator, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %w", ErrInvalidLocator, err)
	}
	if u.Scheme != Scheme {
		return Locator{}, fmt.Errorf("%w: scheme %q is not %q", ErrInvalidLocator, u.Scheme, Scheme)
	}
	if u.Host == "" {
		return Locator{}, fmt.Errorf("%w: %q has no bucket", ErrInvalidLocator, raw)
	}
	if u.RawQuery != "" || u.ForceQuery || u.Fragment != "" {
		// Keys may contain '?' and '#' but only in escaped form.
		return Locator{}, fmt.Errorf("%w: %q has a query or fragment", ErrInvalidLocator, raw)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return Locator{}, fmt.Errorf("%w: %q has no key", ErrInvalidLocator, raw)
	}
	return Locator{
		Scheme: u.Scheme,
		Bucket: u.Host,
		Key:    key,
	}, nil
}
