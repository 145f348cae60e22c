// Package fetch downloads the CVM open-data files, keeps a local cache,
// unzips archives and hands the tables out as UTF-8 readers.
package fetch

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrFileNotFound error
var ErrFileNotFound = errors.New("arquivo não encontrado no servidor")

// Fetcher downloads and caches the source files under dataDir.
type Fetcher struct {
	dataDir string
	client  *http.Client
	log     zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient overrides the HTTP client. Tests use it.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger sets the download logger.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Fetcher) { f.log = log }
}

// New returns a Fetcher caching under dataDir.
func New(dataDir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		dataDir: dataDir,
		client:  &http.Client{Timeout: 10 * time.Minute},
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Snapshot maps table keys ("registro_fundo", "cad_fi", ...) to local CSV
// files, already unzipped but still Latin-1 encoded.
type Snapshot struct {
	Files map[string]string
}

// Open returns a UTF-8 reader over one table.
func (s *Snapshot) Open(table string) (io.ReadCloser, error) {
	file, ok := s.Files[table]
	if !ok {
		return nil, errors.Errorf("tabela %q ausente do snapshot", table)
	}
	fp, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrap(err, "erro ao abrir "+file)
	}
	return decodeLatin1(fp), nil
}

// tableKey derives the snapshot key of a file: its base name without the
// extension.
func tableKey(file string) string {
	base := path.Base(file)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Snapshot downloads every source, reusing cached files unless force is
// set, and returns the table map. Archives are unzipped next to the cache.
func (f *Fetcher) Snapshot(sources []Source, force bool) (*Snapshot, error) {
	snap := &Snapshot{Files: make(map[string]string)}

	for _, src := range sources {
		target := filepath.Join(f.dataDir, path.Base(src.URL))
		if err := f.download(src.URL, target, force); err != nil {
			return nil, errors.Wrapf(err, "fonte %s", src.Name)
		}

		if len(src.Members) == 0 {
			snap.Files[tableKey(target)] = target
			continue
		}

		files, err := Unzip(target, f.dataDir, src.Members)
		if err != nil {
			return nil, errors.Wrapf(err, "fonte %s", src.Name)
		}
		for _, member := range src.Members {
			found := ""
			for _, file := range files {
				if filepath.Base(file) == member {
					found = file
					break
				}
			}
			if found == "" {
				return nil, errors.Errorf("fonte %s: membro %s ausente do arquivo", src.Name, member)
			}
			snap.Files[tableKey(found)] = found
		}
	}

	return snap, nil
}

// download fetches url into target unless a cached copy exists. The cache
// keeps monthly reruns off the CVM server; force bypasses it.
func (f *Fetcher) download(url, target string, force bool) (err error) {
	if !force {
		if info, err := os.Stat(target); err == nil && info.Size() > 0 {
			f.log.Debug().Str("arquivo", target).Msg("usando arquivo em cache")
			return nil
		}
	}

	if err = os.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	// https://www.joeshaw.org/dont-defer-close-on-writable-files/
	defer func() {
		cerr := out.Close()
		if err == nil {
			err = cerr
		}
	}()

	f.log.Info().Str("url", url).Msg("download")
	resp, err := f.client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		os.Remove(target)
		return ErrFileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		os.Remove(target)
		return errors.Errorf("resposta inesperada: %s", resp.Status)
	}

	counter := &WriteCounter{}
	_, err = io.Copy(out, io.TeeReader(resp.Body, counter))
	fmt.Println()
	if err != nil {
		os.Remove(target)
		return err
	}

	return nil
}

// WriteCounter counts the number of bytes written to the io.Writer.
type WriteCounter struct {
	Total uint64
}

// Write implements the io.Writer interface and will be passed to io.TeeReader().
func (wc *WriteCounter) Write(p []byte) (int, error) {
	n := len(p)
	wc.Total += uint64(n)
	wc.printProgress()
	return n, nil
}

func (wc WriteCounter) printProgress() {
	fmt.Printf("\r[  %7s ]", humanize.Bytes(wc.Total))
}
