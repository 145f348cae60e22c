package fetch

import (
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// LastModified extracts the publication time of one file from an
// Apache-style directory listing. The listing shows each file as a row
// with a link and a "2006-01-02 15:04" timestamp cell.
func LastModified(r io.Reader, filename string) (time.Time, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "erro ao interpretar listagem")
	}

	var when time.Time
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if row.Find("a").First().Text() != filename {
			return true
		}
		row.Find("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			t, err := time.Parse("2006-01-02 15:04", strings.TrimSpace(cell.Text()))
			if err != nil {
				return true
			}
			when = t
			return false
		})
		return when.IsZero()
	})

	if when.IsZero() {
		return time.Time{}, errors.Errorf("%s ausente da listagem", filename)
	}
	return when, nil
}

// RemoteFreshness fetches the listing of the directory holding the source
// and returns when the file was last published.
func (f *Fetcher) RemoteFreshness(src Source) (time.Time, error) {
	// path.Dir would collapse the double slash of the scheme
	dir := src.URL[:strings.LastIndex(src.URL, "/")+1]
	resp, err := f.client.Get(dir)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, errors.Errorf("resposta inesperada: %s", resp.Status)
	}
	return LastModified(resp.Body, path.Base(src.URL))
}
