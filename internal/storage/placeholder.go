package storage

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// PlaceholderPrefix starts every relative link placeholder href.
const PlaceholderPrefix = "docsync-internal-link-"

var placeholderNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://git.home.luguber.info/inful/docsync/internal-link"))

// Placeholder derives the href used for the ordinal-th relative link of
// docPath. The value is stable across runs so rendered output can be
// compared and fingerprinted.
func Placeholder(docPath string, ordinal int, target string) string {
	name := strings.Join([]string{docPath, strconv.Itoa(ordinal), target}, "\x00")
	return PlaceholderPrefix + uuid.NewSHA1(placeholderNamespace, []byte(name)).String()
}

// IsPlaceholder reports whether href was produced by Placeholder.
func IsPlaceholder(href string) bool {
	return strings.HasPrefix(href, PlaceholderPrefix)
}
