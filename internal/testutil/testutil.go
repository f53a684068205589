// Package testutil builds in-memory .unitypackage archives for tests.
package testutil

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// Member is a raw archive member.
type Member struct {
	Name string
	Data []byte
}

// Asset describes one GUID directory of a package.
type Asset struct {
	GUID     string
	Pathname string // empty omits the pathname member
	Data     []byte // nil omits the asset member
	Meta     string // empty omits the asset.meta member
}

// Members expands the asset into archive members, pathname first.
func (a Asset) Members() []Member {
	var members []Member
	if a.Pathname != "" {
		members = append(members, Member{Name: a.GUID + "/pathname", Data: []byte(a.Pathname + "\n")})
	}
	if a.Data != nil {
		members = append(members, Member{Name: a.GUID + "/asset", Data: a.Data})
	}
	if a.Meta != "" {
		members = append(members, Member{Name: a.GUID + "/asset.meta", Data: []byte(a.Meta)})
	}
	return members
}

// Build encodes members as a gzip-compressed tar stream, in order.
// A directory header is emitted for every GUID the first time it is seen.
func Build(t testing.TB, members ...Member) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	dirs := make(map[string]bool)
	for _, m := range members {
		if dir := filepath.Dir(m.Name); dir != "." && !dirs[dir] {
			dirs[dir] = true
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name:     dir + "/",
				Typeflag: tar.TypeDir,
				Mode:     0o755,
			}))
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     m.Name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(m.Data)),
		}))
		_, err := tw.Write(m.Data)
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

// BuildAssets encodes assets in order.
func BuildAssets(t testing.TB, assets ...Asset) []byte {
	t.Helper()

	var members []Member
	for _, a := range assets {
		members = append(members, a.Members()...)
	}
	return Build(t, members...)
}

// WritePackage writes an encoded package into dir and returns its path.
func WritePackage(t testing.TB, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// GUID returns a deterministic 32 character GUID for n.
func GUID(n int) string {
	const hex = "0123456789abcdef"
	b := bytes.Repeat([]byte{'0'}, 32)
	for i := 31; i >= 0 && n > 0; i-- {
		b[i] = hex[n%16]
		n /= 16
	}
	return string(b)
}
