// Package publish writes a resolved page tree to the wiki: pages first, in
// tree order, then their attachments.
package publish

import (
	"context"

	"git.home.luguber.info/inful/docsync/internal/confluence"
)

// API is the part of the wiki client the synchronizer and uploader use.
type API interface {
	SpaceID(ctx context.Context, key string) (string, error)
	FindPage(ctx context.Context, spaceID, title string) (confluence.PageRef, bool, error)
	CreatePage(ctx context.Context, spaceID string, in confluence.PageInput) (string, error)
	UpdatePage(ctx context.Context, id string, version confluence.Version, in confluence.PageInput) error
	UploadAttachment(ctx context.Context, pageID string, a confluence.Attachment) error
}

var _ API = (*confluence.Client)(nil)
