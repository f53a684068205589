package archive

import (
	"regexp"
	"strings"
)

// Well-known member suffixes inside a GUID directory.
const (
	SuffixPathname = "pathname"
	SuffixAsset    = "asset"
	SuffixMeta     = "asset.meta"
	SuffixPreview  = "preview.png"
)

var guidPattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

// IsGUID reports whether s is a 32 character hexadecimal identifier.
func IsGUID(s string) bool {
	return guidPattern.MatchString(s)
}

// SplitMember splits a member name of the form "<guid>/<suffix>".
// A leading "./" is ignored. ok is false when the first segment is not a GUID
// or there is no suffix.
func SplitMember(name string) (guid, suffix string, ok bool) {
	name = strings.TrimPrefix(name, "./")

	guid, suffix, found := strings.Cut(name, "/")
	if !found || suffix == "" || !IsGUID(guid) {
		return "", "", false
	}
	return guid, suffix, true
}
