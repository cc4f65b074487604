package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPage       = "page"
	KeySource     = "source"
	KeySpace      = "space"
	KeyRemoteID   = "remote_id"
	KeyVersion    = "version"
	KeyParentID   = "parent_id"
	KeyAttachment = "attachment"
	KeyLink       = "link"
	KeyURL        = "url"
	KeyStatus     = "status"
	KeyPath       = "path"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Page(name string) slog.Attr       { return slog.String(KeyPage, name) }
func Source(path string) slog.Attr     { return slog.String(KeySource, path) }
func Space(key string) slog.Attr       { return slog.String(KeySpace, key) }
func RemoteID(id string) slog.Attr     { return slog.String(KeyRemoteID, id) }
func Version(n int) slog.Attr          { return slog.Int(KeyVersion, n) }
func ParentID(id string) slog.Attr     { return slog.String(KeyParentID, id) }
func Attachment(name string) slog.Attr { return slog.String(KeyAttachment, name) }
func Link(target string) slog.Attr     { return slog.String(KeyLink, target) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
