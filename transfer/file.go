package transfer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(b []byte) (int, error) {
	n, err := s.r.Read(b)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}

// WriteFile atomically replaces path with the contents of r. The data is first written to a
// temporary file in the same directory which is renamed over path once complete. On any error
// or panic the temporary file is removed and path is left untouched.
//
// Errors reading from r wrap ErrTransfer; filesystem errors wrap ErrIO.
func WriteFile(path string, r io.Reader) (n int64, err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("%w: creating temp file: %w", ErrIO, err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	src := &sourceReader{r: r}
	n, err = io.Copy(tmp, src)
	if err != nil {
		if src.err != nil && errors.Is(err, src.err) {
			return n, fmt.Errorf("%w: reading body: %w", ErrTransfer, err)
		}
		return n, fmt.Errorf("%w: writing temp file: %w", ErrIO, err)
	}
	if err = tmp.Sync(); err != nil {
		return n, fmt.Errorf("%w: syncing temp file: %w", ErrIO, err)
	}
	if err = tmp.Close(); err != nil {
		return n, fmt.Errorf("%w: closing temp file: %w", ErrIO, err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return n, fmt.Errorf("%w: setting permissions: %w", ErrIO, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return n, fmt.Errorf("%w: renaming temp file: %w", ErrIO, err)
	}
	committed = true
	return n, nil
}

// Classify returns the error class wrapped by err, defaulting to ErrTransfer.
func Classify(err error) error {
	for _, class := range []error{ErrNotFound, ErrAccessDenied, ErrIO, ErrTransfer} {
		if errors.Is(err, class) {
			return class
		}
	}
	return ErrTransfer
}
