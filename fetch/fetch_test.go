package fetch

import (
	"archive/zip"
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// latin1 encodes a string to ISO 8859-1 (test data is plain accents only).
func latin1(s string) []byte {
	var b bytes.Buffer
	for _, r := range s {
		b.WriteByte(byte(r))
	}
	return b.Bytes()
}

func buildZip(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range members {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write(latin1(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestSnapshotDownloadUnzipDecode(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"registro_fundo.csv": "CNPJ_Fundo;Situacao\n191;LIQUIDAÇÃO\n",
		"leia-me.txt":        "ignorado",
	})

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(archive)
	}))
	defer srv.Close()

	f := New(t.TempDir(), WithClient(srv.Client()), WithLogger(zerolog.Nop()))
	src := Source{Name: "registro", URL: srv.URL + "/registro_fundo_classe.zip", Members: []string{"registro_fundo.csv"}}

	snap, err := f.Snapshot([]Source{src}, false)
	require.NoError(t, err)
	require.Contains(t, snap.Files, "registro_fundo")

	rc, err := snap.Open("registro_fundo")
	require.NoError(t, err)
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	// Latin-1 bytes come out as UTF-8
	assert.Contains(t, string(raw), "LIQUIDAÇÃO")

	// unwanted members are not extracted
	_, err = snap.Open("leia-me")
	assert.Error(t, err)

	// second run hits the cache, not the server
	_, err = f.Snapshot([]Source{src}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	// force bypasses the cache
	_, err = f.Snapshot([]Source{src}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestSnapshotPlainCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(latin1("CNPJ_FUNDO;SIT\n191;CANCELADA\n"))
	}))
	defer srv.Close()

	f := New(t.TempDir(), WithClient(srv.Client()))
	snap, err := f.Snapshot([]Source{{Name: "cad_fi", URL: srv.URL + "/cad_fi.csv"}}, false)
	require.NoError(t, err)
	require.Contains(t, snap.Files, "cad_fi")
}

func TestDownloadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(t.TempDir(), WithClient(srv.Client()))
	_, err := f.Snapshot([]Source{{Name: "x", URL: srv.URL + "/x.csv"}}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestUnzipRejectsZipSlip(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create("../evil.csv")
	require.NoError(t, err)
	fw.Write([]byte("x"))
	require.NoError(t, w.Close())

	dir := t.TempDir()
	src := filepath.Join(dir, "evil.zip")
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0644))

	_, err = Unzip(src, filepath.Join(dir, "out"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal file path")
}

func TestLoadSourcesDefaultsWhenMissing(t *testing.T) {
	got, err := LoadSources(filepath.Join(t.TempDir(), "fontes.yml"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "registro", got[0].Name)
	assert.Len(t, got[0].Members, 3)
}

func TestLoadSourcesFromYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "fontes.yml")
	yml := `sources:
  - name: registro
    url: https://example.com/registro_fundo_classe.zip
    members: [registro_fundo.csv]
`
	require.NoError(t, os.WriteFile(file, []byte(yml), 0644))

	got, err := LoadSources(file)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/registro_fundo_classe.zip", got[0].URL)
	assert.Equal(t, []string{"registro_fundo.csv"}, got[0].Members)
}

const listing = `<html><body><table>
<tr><th>Name</th><th>Last modified</th><th>Size</th></tr>
<tr><td><a href="cad_fi.csv">cad_fi.csv</a></td><td>2026-08-01 06:10</td><td>12M</td></tr>
<tr><td><a href="registro_fundo_classe.zip">registro_fundo_classe.zip</a></td><td>2026-08-02 06:12</td><td>9M</td></tr>
</table></body></html>`

func TestLastModified(t *testing.T) {
	when, err := LastModified(strings.NewReader(listing), "registro_fundo_classe.zip")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 2, 6, 12, 0, 0, time.UTC), when)

	_, err = LastModified(strings.NewReader(listing), "inexistente.csv")
	assert.Error(t, err)
}
