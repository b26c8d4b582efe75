package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthcheck_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		w.Write([]byte("<html>panel</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	assert.NoError(t, c.Healthcheck())
}

func TestHealthcheck_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	assert.Error(t, c.Healthcheck())
}

func TestHealthcheck_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "")
	assert.Error(t, c.Healthcheck())
}

func TestUpload(t *testing.T) {
	recording := filepath.Join(t.TempDir(), "session.json.gz")
	f, err := os.Create(recording)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(`{"frames":[]}`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	var gotSecret, gotOperator, gotFilename string
	var gotFileBytes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sessions/add", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotSecret = r.FormValue("secret")
		gotOperator = r.FormValue("operator")
		gotFilename = r.FormValue("filename")

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		gotFileBytes = len(data)
	}))
	defer srv.Close()

	c := New(srv.URL, "hunter2")
	err = c.Upload(recording, UploadMetadata{
		Operator:        "op1",
		Robot:           "nerftank.local",
		SessionDuration: 42.5,
	})
	require.NoError(t, err)

	assert.Equal(t, "hunter2", gotSecret)
	assert.Equal(t, "op1", gotOperator)
	assert.Equal(t, "session.json.gz", gotFilename)
	assert.Greater(t, gotFileBytes, 0)
}

func TestUpload_MissingFile(t *testing.T) {
	c := New("http://127.0.0.1:1", "")
	assert.Error(t, c.Upload("/does/not/exist.json.gz", UploadMetadata{}))
}

func TestUpload_ServerRejects(t *testing.T) {
	recording := filepath.Join(t.TempDir(), "session.json.gz")
	require.NoError(t, os.WriteFile(recording, []byte("x"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(srv.URL, "wrong")
	assert.Error(t, c.Upload(recording, UploadMetadata{}))
}
