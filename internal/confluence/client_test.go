package confluence

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/wiki", "bot@example.com", "token", WithUserAgent("docsync/test"))
	require.NoError(t, err)
	return c
}

func TestNew_EnforcesTrailingSlash(t *testing.T) {
	c, err := New("https://example.atlassian.net/wiki", "u", "p")
	require.NoError(t, err)
	assert.Equal(t, "https://example.atlassian.net/wiki/", c.BaseURL())

	_, err = New("not a url", "u", "p")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestSpaceID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/wiki/api/v2/spaces", r.URL.Path)
		assert.Equal(t, "DOCS", r.URL.Query().Get("keys"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bot@example.com", user)
		assert.Equal(t, "token", pass)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "docsync/test", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `{"results":[{"id":"98304","key":"DOCS"}]}`)
	})

	id, err := c.SpaceID(context.Background(), "DOCS")
	require.NoError(t, err)
	assert.Equal(t, "98304", id)
}

func TestSpaceID_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"results":[]}`)
	})

	_, err := c.SpaceID(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestFindPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wiki/api/v2/pages", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "title=Getting+Started")
		assert.Equal(t, "42", r.URL.Query().Get("space-id"))
		if r.URL.Query().Get("title") == "Getting Started" {
			_, _ = io.WriteString(w, `{"results":[{"id":"7","title":"Getting Started","version":{"number":3}}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"results":[]}`)
	})

	ref, found, err := c.FindPage(context.Background(), "42", "Getting Started")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, PageRef{ID: "7", Title: "Getting Started", Version: Version{Number: 3}}, ref)
}

func TestCreatePage(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wiki/api/v2/pages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"id":"1001"}`)
	})

	id, err := c.CreatePage(context.Background(), "42", PageInput{Title: "Home", Body: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, "1001", id)

	assert.Equal(t, "42", got["spaceId"])
	assert.Equal(t, "current", got["status"])
	assert.Equal(t, "Home", got["title"])
	assert.Contains(t, got, "parentId")
	assert.Nil(t, got["parentId"])
	assert.Equal(t, map[string]any{"storage": map[string]any{"value": "<p>hi</p>", "representation": "storage"}}, got["body"])
}

func TestUpdatePage(t *testing.T) {
	var got updatePageRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/wiki/api/v2/pages/7", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"id":"7"}`)
	})

	err := c.UpdatePage(context.Background(), "7", Version{Number: 4, Message: "docsync"}, PageInput{Title: "Guide", ParentID: "5", Body: "b"})
	require.NoError(t, err)

	assert.Equal(t, "7", got.ID)
	assert.Equal(t, StatusCurrent, got.Status)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, "5", *got.ParentID)
	assert.Equal(t, Version{Number: 4, Message: "docsync"}, got.Version)
}

func TestUploadAttachment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/wiki/rest/api/content/7/child/attachment", r.URL.Path)
		assert.Equal(t, "nocheck", r.Header.Get("X-Atlassian-Token"))
		_, _, ok := r.BasicAuth()
		assert.True(t, ok)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Attachment for Home", r.FormValue("comment"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "643a3006c7292dce2d721819c76ef6b9", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		data, _ := io.ReadAll(f)
		assert.Equal(t, "PNGDATA", string(data))
		_, _ = io.WriteString(w, `{"results":[]}`)
	})

	err := c.UploadAttachment(context.Background(), "7", Attachment{
		Name:        "643a3006c7292dce2d721819c76ef6b9",
		ContentType: "image/png",
		Comment:     "Attachment for Home",
		Data:        strings.NewReader("PNGDATA"),
	})
	require.NoError(t, err)
}

func TestNonSuccessIsFatalRemoteError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"created is not ok", http.StatusCreated},
		{"bad request", http.StatusBadRequest},
		{"unauthorized", http.StatusUnauthorized},
		{"server error", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, "title already exists\n"+strings.Repeat("x", 1000))
			})

			_, err := c.CreatePage(context.Background(), "42", PageInput{Title: "Home"})
			require.Error(t, err)

			ce, ok := errors.AsClassified(err)
			require.True(t, ok)
			assert.Equal(t, errors.CategoryRemote, ce.Category())
			assert.True(t, ce.IsFatal())
			assert.Equal(t, tt.status, ce.Context()["status"])
			resp, _ := ce.Context().GetString("response")
			assert.True(t, strings.HasPrefix(resp, "title already exists "))
			assert.Len(t, resp, maxErrorBody)
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := New(srv.URL, "u", "p")
	require.NoError(t, err)
	srv.Close()

	_, err = c.SpaceID(context.Background(), "DOCS")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}
