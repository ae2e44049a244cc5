package archives

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brettbedarf/resmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newArchiveServer serves files plus a manifest listing them below /assets/
func newArchiveServer(t *testing.T, files map[string]string, requireHeader string) *httptest.Server {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	manifest, err := json.Marshal(names)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requireHeader != "" && r.Header.Get("Authorization") != requireHeader {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/assets/")
		if name == ManifestName {
			_, _ = w.Write(manifest)
			return
		}
		if name == "broken.bin" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		content, ok := files[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(content))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url     string
		wantErr bool
		desc    string
	}{
		// Valid cases
		{"http://test.com", false, "basic HTTP URL"},
		{"https://test.com/assets/", false, "basic HTTPS URL with path"},
		{"  http://test.com   ", false, "URL with whitespace"},
		{"http://test.com:8080", false, "URL with port"},
		{"http://localhost:8080/test", false, "localhost with port"},
		{"http://123.123.123.123/test", false, "IP address"},

		// Invalid cases
		{"", true, "empty string"},
		{" ", true, "whitespace only"},
		{"ftp://test.com", true, "different scheme rejected"},
		{"test.com", true, "missing scheme"},
		{"http://", true, "missing host"},
		{"http://user@test.com/path", true, "URL with user info"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()
			base, err := parseBaseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, base)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(base.Path, "/"))
		})
	}
}

func TestHTTPArchive(t *testing.T) {
	t.Parallel()
	srv := newArchiveServer(t, map[string]string{
		"textures/a.png": "A",
		"sounds/b.ogg":   "B",
		"broken.bin":     "",
	}, "")

	a, err := OpenHTTP(context.Background(), srv.URL+"/assets", Options{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer a.Close()

	t.Run("fetch", func(t *testing.T) {
		data, err := a.Fetch(context.Background(), `Textures\a.png`)
		require.NoError(t, err)
		assert.Equal(t, []byte("A"), data)
	})

	t.Run("not in manifest", func(t *testing.T) {
		_, err := a.Fetch(context.Background(), "models/x.bin")
		assert.ErrorIs(t, err, resmgr.ErrFileNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := a.Fetch(context.Background(), "broken.bin")
		require.Error(t, err)
		assert.NotErrorIs(t, err, resmgr.ErrFileNotFound)
	})

	t.Run("list", func(t *testing.T) {
		names, err := a.List("*")
		require.NoError(t, err)
		assert.Equal(t, []string{"broken.bin", "sounds/b.ogg", "textures/a.png"}, names)
	})
}

func TestHTTPArchive_NotFoundStatus(t *testing.T) {
	t.Parallel()
	// Manifest lists an entry the server does not have
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ManifestName) {
			_, _ = w.Write([]byte(`["gone.txt"]`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	a, err := OpenHTTP(context.Background(), srv.URL, Options{})
	require.NoError(t, err)

	_, err = a.Fetch(context.Background(), "gone.txt")
	assert.ErrorIs(t, err, resmgr.ErrFileNotFound)
}

func TestHTTPArchive_CustomHeaders(t *testing.T) {
	t.Parallel()
	srv := newArchiveServer(t, map[string]string{"a.txt": "secret"}, "Bearer token")

	_, err := OpenHTTP(context.Background(), srv.URL+"/assets", Options{})
	assert.Error(t, err)

	a, err := OpenHTTP(context.Background(), srv.URL+"/assets", Options{
		Headers: map[string]string{"Authorization": "Bearer token"},
	})
	require.NoError(t, err)
	data, err := a.Fetch(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), data)
}

func TestOpenHTTP_BadManifest(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	t.Cleanup(srv.Close)

	_, err := OpenHTTP(context.Background(), srv.URL, Options{})
	assert.Error(t, err)
}
