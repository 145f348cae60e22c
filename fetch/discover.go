package fetch

import (
	"sort"
	"strings"

	"github.com/gocolly/colly"
	"github.com/pkg/errors"
)

// Discover crawls the open-data directory listing and returns the data
// files it publishes (.zip and .csv links), sorted. Useful to spot new
// archives the source declarations do not cover yet.
func Discover(baseURL string) ([]string, error) {
	c := colly.NewCollector(
		// Allow visiting the same page multiple times
		colly.AllowURLRevisit(),
		colly.Async(false),
	)

	var files []string
	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := e.Attr("href")
		if strings.HasSuffix(href, ".zip") || strings.HasSuffix(href, ".csv") {
			files = append(files, href)
		}
	})

	if err := c.Visit(baseURL); err != nil {
		return nil, errors.Wrap(err, "erro ao listar diretório "+baseURL)
	}

	sort.Strings(files)
	return files, nil
}
