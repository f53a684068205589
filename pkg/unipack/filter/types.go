// Package filter narrows the assets of a package by glob, extension, size and
// depth, and orders the result.
package filter

import (
	"errors"
	"fmt"
	"strings"
)

// SortField names the key results are ordered by.
type SortField int

const (
	// SortPath orders by logical path.
	SortPath SortField = iota
	// SortSize orders by payload size.
	SortSize
	// SortName orders by the last path segment.
	SortName
)

var sortFieldNames = [...]string{
	SortPath: "path",
	SortSize: "size",
	SortName: "name",
}

// String returns the flag spelling of the field.
func (s SortField) String() string {
	if int(s) < len(sortFieldNames) {
		return sortFieldNames[s]
	}
	return sortFieldNames[SortPath]
}

// ErrInvalidSortField indicates an unknown sort field name.
var ErrInvalidSortField = errors.New("invalid sort field")

// ParseSortField parses "path", "size" or "name", case-insensitively.
func ParseSortField(s string) (SortField, error) {
	for i, name := range sortFieldNames {
		if strings.EqualFold(s, name) {
			return SortField(i), nil
		}
	}
	return SortPath, fmt.Errorf("%w: %q", ErrInvalidSortField, s)
}

// TypeGroups maps asset categories to the extensions that belong to them.
var TypeGroups = map[string][]string{
	"script":    {".cs", ".js", ".boo", ".dll", ".asmdef", ".asmref"},
	"shader":    {".shader", ".cginc", ".hlsl", ".compute", ".shadergraph", ".shadersubgraph"},
	"texture":   {".png", ".jpg", ".jpeg", ".tga", ".psd", ".tif", ".tiff", ".exr", ".hdr", ".bmp", ".gif"},
	"model":     {".fbx", ".obj", ".blend", ".dae", ".3ds", ".max", ".ma", ".mb"},
	"audio":     {".wav", ".mp3", ".ogg", ".aiff", ".aif", ".flac", ".mod", ".it", ".xm"},
	"material":  {".mat", ".physicmaterial", ".physicsmaterial2d"},
	"prefab":    {".prefab"},
	"scene":     {".unity"},
	"animation": {".anim", ".controller", ".overridecontroller", ".mask", ".playable"},
	"data":      {".asset", ".json", ".xml", ".txt", ".bytes", ".csv", ".yaml"},
	"font":      {".ttf", ".otf", ".fontsettings"},
}

// ErrUnknownTypeGroup indicates a name missing from TypeGroups.
var ErrUnknownTypeGroup = errors.New("unknown type group")

// ErrInvalidPattern wraps a glob that failed to compile.
var ErrInvalidPattern = errors.New("invalid pattern")
