package confluence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

// SpaceID resolves a space key to its id.
func (c *Client) SpaceID(ctx context.Context, key string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("api/v2/spaces", url.Values{"keys": {key}}), nil)
	if err != nil {
		return "", err
	}
	var out results[space]
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if len(out.Results) == 0 || out.Results[0].ID == "" {
		return "", errors.NotFoundError("confluence space not found").
			WithContext("space", key).
			Build()
	}
	return out.Results[0].ID, nil
}

// FindPage looks up a page by exact title within a space. The boolean is
// false when no page has that title.
func (c *Client) FindPage(ctx context.Context, spaceID, title string) (PageRef, bool, error) {
	q := url.Values{"title": {title}, "space-id": {spaceID}}
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("api/v2/pages", q), nil)
	if err != nil {
		return PageRef{}, false, err
	}
	var out results[PageRef]
	if err := c.do(req, &out); err != nil {
		return PageRef{}, false, err
	}
	if len(out.Results) == 0 {
		return PageRef{}, false, nil
	}
	return out.Results[0], true, nil
}

// CreatePage creates a current page and returns its id.
func (c *Client) CreatePage(ctx context.Context, spaceID string, in PageInput) (string, error) {
	body := createPageRequest{
		SpaceID:  spaceID,
		Status:   StatusCurrent,
		Title:    in.Title,
		ParentID: optional(in.ParentID),
		Body:     storage(in.Body),
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("api/v2/pages", nil), body)
	if err != nil {
		return "", err
	}
	var out createPageResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.RemoteError("confluence returned no page id").
			WithContext("title", in.Title).
			Build()
	}
	return out.ID, nil
}

// UpdatePage replaces the content of page id. version must be the next
// version number, one above the current one.
func (c *Client) UpdatePage(ctx context.Context, id string, version Version, in PageInput) error {
	body := updatePageRequest{
		ID:       id,
		Status:   StatusCurrent,
		ParentID: optional(in.ParentID),
		Title:    in.Title,
		Body:     storage(in.Body),
		Version:  version,
	}
	req, err := c.newRequest(ctx, http.MethodPut, c.endpoint("api/v2/pages/"+url.PathEscape(id), nil), body)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Attachment is a file to attach to a page.
type Attachment struct {
	Name        string
	ContentType string
	Comment     string
	Data        io.Reader
}

// UploadAttachment creates or replaces an attachment on page id.
func (c *Client) UploadAttachment(ctx context.Context, pageID string, a Attachment) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(a.Name)))
	h.Set("Content-Type", a.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return errors.InternalError("failed to create multipart file part").WithCause(err).Build()
	}
	if _, err := io.Copy(part, a.Data); err != nil {
		return errors.FileSystemError("failed to read attachment").
			WithCause(err).
			WithContext("attachment", a.Name).
			Fatal().
			Build()
	}
	if err := mw.WriteField("comment", a.Comment); err != nil {
		return errors.InternalError("failed to write multipart comment").WithCause(err).Build()
	}
	if err := mw.Close(); err != nil {
		return errors.InternalError("failed to close multipart body").WithCause(err).Build()
	}

	endpoint := c.endpoint("rest/api/content/"+url.PathEscape(pageID)+"/child/attachment", nil)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, &buf)
	if err != nil {
		return errors.InternalError("failed to create request").
			WithCause(err).
			WithContext("url", endpoint).
			Build()
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Atlassian-Token", "nocheck")
	c.authorize(req)
	return c.do(req, nil)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
