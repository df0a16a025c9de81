package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alisaviation/metricboard/internal/models"
)

func TestLoadRemote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Write([]byte("up 1\n"))
	}))
	defer ts.Close()

	l := NewLoader(".")
	content, err := l.Load(context.Background(), models.Source{Kind: models.Remote, Name: ts.URL})
	require.NoError(t, err)
	assert.Equal(t, "up 1\n", string(content.Body))
	assert.Contains(t, content.Type, "text/plain")
}

func TestLoadRemotePrependsScheme(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok 1\n"))
	}))
	defer ts.Close()

	address := strings.TrimPrefix(ts.URL, "http://")
	l := NewLoader(".")
	content, err := l.Load(context.Background(), models.Source{Kind: models.Remote, Name: address})
	require.NoError(t, err)
	assert.Equal(t, "ok 1\n", string(content.Body))
}

func TestLoadRemoteErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	l := NewLoader(".")
	_, err := l.Load(context.Background(), models.Source{Kind: models.Remote, Name: ts.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestLoadRemoteUnreachable(t *testing.T) {
	l := NewLoader(".")
	_, err := l.Load(context.Background(), models.Source{Kind: models.Remote, Name: "127.0.0.1:1"})
	require.Error(t, err)
}

func TestLoadLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metrics.json"), []byte(`{"a": 1}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metrics.prom"), []byte("a 1\n"), 0o644))

	l := NewLoader(dir)

	jsonContent, err := l.Load(context.Background(), models.Source{Kind: models.Local, Name: "metrics.json"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", jsonContent.Type)

	textContent, err := l.Load(context.Background(), models.Source{Kind: models.Local, Name: "metrics.prom"})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", textContent.Type)
	assert.Equal(t, "a 1\n", string(textContent.Body))
}

func TestLoadLocalMissingFile(t *testing.T) {
	l := NewLoader(t.TempDir())
	_, err := l.Load(context.Background(), models.Source{Kind: models.Local, Name: "absent.json"})
	require.Error(t, err)
}

func TestLoadUnknownKind(t *testing.T) {
	l := NewLoader(".")
	_, err := l.Load(context.Background(), models.Source{Kind: "weird", Name: "x"})
	require.Error(t, err)
}
