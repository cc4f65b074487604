package publish

import (
	"bytes"
	"context"
	"mime"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"

	"git.home.luguber.info/inful/docsync/internal/confluence"
	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/logfields"
	"git.home.luguber.info/inful/docsync/internal/metrics"
	"git.home.luguber.info/inful/docsync/internal/observability"
	"git.home.luguber.info/inful/docsync/internal/tree"
	"git.home.luguber.info/inful/docsync/internal/xref"
)

// DefaultContentType is sent when neither the extension nor the content
// identify the file.
const DefaultContentType = "multipart/form-data"

// UploadStats counts the outcome of an upload pass.
type UploadStats struct {
	Uploaded int
	Skipped  int
}

// Uploader attaches local assets to the pages that embed them.
type Uploader struct {
	api      API
	recorder metrics.Recorder
}

// NewUploader returns an Uploader using api.
func NewUploader(api API) *Uploader {
	return &Uploader{api: api, recorder: metrics.NoopRecorder{}}
}

// WithRecorder sets the metrics recorder.
func (u *Uploader) WithRecorder(rec metrics.Recorder) *Uploader {
	if rec != nil {
		u.recorder = rec
	}
	return u
}

// AssetPath is where an asset referenced by a page is expected on disk.
func AssetPath(p *tree.Page, filename string) string {
	return filepath.Clean(filepath.Join(filepath.Dir(p.Source.AbsSrcPath()), filepath.FromSlash(filename)))
}

// Upload sends every asset that exists on disk to its page, named by
// xref.AssetID. Missing files are skipped. Pages must already have remote
// ids.
func (u *Uploader) Upload(ctx context.Context, pages []*tree.Page) (UploadStats, error) {
	var stats UploadStats
	for _, p := range pages {
		done := make(map[string]struct{}, len(p.Assets))
		for _, a := range p.Assets {
			if _, dup := done[a.Filename]; dup {
				continue
			}
			done[a.Filename] = struct{}{}

			local := AssetPath(p, a.Filename)
			fi, err := os.Stat(local)
			if err != nil || fi.IsDir() {
				stats.Skipped++
				u.recorder.IncAttachmentSkipped()
				observability.DebugContext(ctx, "Attachment not found on disk, skipping",
					logfields.Page(p.DisplayName), logfields.Path(local))
				continue
			}
			if p.RemoteID == "" {
				return stats, errors.InternalError("page has no remote id").
					WithContext("page", p.DisplayName).
					Build()
			}

			data, err := os.ReadFile(local)
			if err != nil {
				return stats, errors.FileSystemError("read attachment").
					WithCause(err).
					WithContext("path", local).
					Fatal().
					Build()
			}
			name := xref.AssetID(a.Filename)
			att := confluence.Attachment{
				Name:        name,
				ContentType: ContentType(local, data),
				Comment:     "Attachment for " + p.DisplayName,
				Data:        bytes.NewReader(data),
			}
			observability.InfoContext(ctx, "Uploading attachment",
				logfields.Page(p.DisplayName), logfields.Attachment(name), logfields.Path(local))
			if err := u.api.UploadAttachment(ctx, p.RemoteID, att); err != nil {
				return stats, err
			}
			stats.Uploaded++
			u.recorder.IncAttachmentUploaded()
		}
	}
	return stats, nil
}

// ContentType guesses from the file extension, then from the leading
// bytes, falling back to DefaultContentType.
func ContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			return mt
		}
		return ct
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	return DefaultContentType
}
