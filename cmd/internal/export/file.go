package export

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

type multiCloser struct {
	io.Writer
	closers []io.Closer
}

// Close closes in order and keeps the first error.
func (m multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Create opens path for writing. A trailing .xz compresses the stream.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xz") {
		return f, nil
	}

	zw, err := xz.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return multiCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// Open opens path for reading and transparently decompresses .xz. name is
// the path without the .xz suffix, for format detection.
func Open(path string) (rc io.ReadCloser, name string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xz") {
		return f, path, nil
	}

	zr, err := xz.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, "", errors.Join(ErrUnsupportedFormat, err)
	}
	return readCloser{Reader: zr, Closer: f}, path[:len(path)-len(".xz")], nil
}
