package site

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// normalizeSrcPath makes p slash separated, cleaned and NFC normalized so
// that paths typed by authors on different platforms compare equal.
func normalizeSrcPath(p string) string {
	if p == "" {
		return ""
	}
	p = path.Clean(filepath.ToSlash(p))
	p = strings.TrimPrefix(p, "./")
	return norm.NFC.String(p)
}

func isMarkdown(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".markdown"
}

// isExternal reports whether a nav target is an absolute URL rather than a
// docs-relative file.
func isExternal(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme != "" || u.Host != ""
}

func isIndexFile(name string) bool {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.EqualFold(base, "index") || strings.EqualFold(base, "readme")
}

// titleFromFilename derives a title from a docs-relative path. Index files
// are named after their directory; the root index is "Home".
func titleFromFilename(srcPath string) string {
	dir, name := path.Split(srcPath)
	if isIndexFile(name) {
		dir = strings.TrimSuffix(dir, "/")
		if dir == "" {
			return "Home"
		}
		name = path.Base(dir)
	} else {
		name = strings.TrimSuffix(name, path.Ext(name))
	}
	return prettify(name)
}

func prettify(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	if strings.ToLower(name) == name {
		r, size := utf8.DecodeRuneInString(name)
		name = string(unicode.ToUpper(r)) + name[size:]
	}
	return name
}
