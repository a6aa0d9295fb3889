package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"lukeblog/internal/models"
	"lukeblog/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validComment(target string) map[string]string {
	return map[string]string{
		"target":   target,
		"nickname": "reader",
		"email":    "reader@example.com",
		"website":  "https://reader.example.com",
		"content":  "Nice write-up, thanks!",
	}
}

func TestCreateComment_JSON(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fx.User("luke", false)
	cat := env.fx.Category(owner, "Go", false)
	post := env.fx.Post(owner, cat, "Hello", models.StatusNormal)

	resp := env.postJSON("/comment/", validComment(service.PostTarget(post.ID)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out struct {
		Succeed bool   `json:"succeed"`
		Target  string `json:"target"`
	}
	decodeBody(t, resp, &out)
	assert.True(t, out.Succeed)
	assert.Equal(t, service.PostTarget(post.ID), out.Target)

	var count int64
	require.NoError(t, env.db.Model(&models.Comment{}).Where("target = ?", out.Target).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateComment_RejectsShortContentAndUnknownTarget(t *testing.T) {
	env := newTestEnv(t)

	in := validComment(service.LinksTarget)
	in["content"] = "hey"
	resp := env.postJSON("/comment/", in)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out struct {
		Succeed bool                `json:"succeed"`
		Errors  map[string][]string `json:"errors"`
	}
	decodeBody(t, resp, &out)
	assert.False(t, out.Succeed)
	assert.Contains(t, out.Errors, "content")

	resp = env.postJSON("/comment/", validComment("/post/404.html"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decodeBody(t, resp, &out)
	assert.Contains(t, out.Errors, "target")

	var count int64
	require.NoError(t, env.db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateComment_HTMLForm(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	for k, v := range validComment(service.LinksTarget) {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, "/comment/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	resp := env.do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "your comment was posted")
	assert.Contains(t, body, `href="/links/"`)

	form.Set("content", "no")
	req = httptest.NewRequest(http.MethodPost, "/comment/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	resp = env.do(req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "could not be posted")
}

func TestCreateComment_RateLimited(t *testing.T) {
	env := newTestEnv(t)

	in := validComment(service.LinksTarget)
	for i := 0; i < commentRateLimit; i++ {
		resp := env.postJSON("/comment/", in)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp := env.postJSON("/comment/", in)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	var out models.ErrorResponse
	decodeBody(t, resp, &out)
	assert.Equal(t, "rate limit exceeded", out.Error)

	form := url.Values{}
	for k, v := range in {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, "/comment/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	resp = env.do(req)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body := readBody(t, resp)
	assert.Contains(t, body, "<h2>429</h2>")
	assert.Contains(t, body, "rate limit exceeded")
}
