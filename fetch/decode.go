package fetch

import (
	"io"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// The CVM publishes its CSVs in ISO 8859-1.

type decodedFile struct {
	io.Reader
	closer io.Closer
}

func (d *decodedFile) Close() error { return d.closer.Close() }

// decodeLatin1 wraps rc so reads come out as UTF-8.
func decodeLatin1(rc io.ReadCloser) io.ReadCloser {
	return &decodedFile{
		Reader: transform.NewReader(rc, charmap.ISO8859_1.NewDecoder()),
		closer: rc,
	}
}
