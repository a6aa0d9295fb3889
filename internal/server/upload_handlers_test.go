package server

import (
	"bytes"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lukeblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	cfg := testConfig(t)
	env := newTestEnvWith(t, cfg, nil)
	env.staff("luke", "skywalker-123", false)
	token := env.login("luke", "skywalker-123")

	body, contentType := multipartUpload(t, "upload", "pic.png", testutil.TinyPNG(t, 40, 30, color.White))
	req := httptest.NewRequest(http.MethodPost, "/ckeditor/upload/", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := env.do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Uploaded int    `json:"uploaded"`
		FileName string `json:"fileName"`
		URL      string `json:"url"`
	}
	decodeBody(t, resp, &out)
	assert.Equal(t, 1, out.Uploaded)
	assert.True(t, strings.HasSuffix(out.FileName, ".png"))

	rel := strings.TrimPrefix(out.URL, testSiteURL)
	rel = strings.TrimPrefix(rel, "/media/")
	_, err := os.Stat(filepath.Join(cfg.MediaRoot, filepath.FromSlash(rel)))
	assert.NoError(t, err)

	served := env.get("/media/" + rel)
	assert.Equal(t, http.StatusOK, served.StatusCode)
}

func TestUploadImage_Rejections(t *testing.T) {
	env := newTestEnv(t)
	env.staff("luke", "skywalker-123", false)
	token := env.login("luke", "skywalker-123")

	send := func(field, filename string, content []byte, auth bool) *http.Response {
		body, contentType := multipartUpload(t, field, filename, content)
		req := httptest.NewRequest(http.MethodPost, "/ckeditor/upload/", body)
		req.Header.Set("Content-Type", contentType)
		if auth {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return env.do(req)
	}

	assert.Equal(t, http.StatusUnauthorized, send("upload", "a.png", []byte("x"), false).StatusCode)

	resp := send("", "", nil, true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out struct {
		Uploaded int `json:"uploaded"`
		Error    struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, resp, &out)
	assert.Equal(t, 0, out.Uploaded)
	assert.Equal(t, "No file uploaded", out.Error.Message)

	resp = send("upload", "notes.png", []byte("plain text, not an image"), true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decodeBody(t, resp, &out)
	assert.Equal(t, "Invalid image type", out.Error.Message)
}
