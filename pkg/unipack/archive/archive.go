// Package archive decodes the gzip-compressed tar stream of a .unitypackage
// into a sequence of member entries.
//
// Basic usage:
//
//	f, err := archive.Open("Assets.unitypackage")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	for {
//	    entry, err := f.Next()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    // read entry, or entry.Drain()
//	}
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// ErrDecode indicates the compressed stream could not be read or decompressed.
var ErrDecode = errors.New("decode package stream")

// Entry is a single regular-file member of the archive.
// Its content is only valid until the next call to Next.
type Entry struct {
	// Name is the member name as stored in the tar header.
	Name string

	// Size is the declared content length in bytes.
	Size int64

	r io.Reader
}

// NewEntry creates an entry over an arbitrary reader. It is mostly useful for
// feeding a correlator from sources other than a tar stream.
func NewEntry(name string, size int64, r io.Reader) *Entry {
	return &Entry{Name: name, Size: size, r: r}
}

// Read reads entry content.
func (e *Entry) Read(p []byte) (int, error) {
	return e.r.Read(p)
}

// Drain discards any unread content.
func (e *Entry) Drain() error {
	if _, err := io.Copy(io.Discard, e.r); err != nil {
		return fmt.Errorf("drain %s: %w", e.Name, err)
	}
	return nil
}

// Reader iterates over the members of a gzip+tar stream.
type Reader struct {
	gz      *gzip.Reader
	tr      *tar.Reader
	current *Entry
}

// NewReader creates a Reader over a gzip-compressed tar stream.
func NewReader(r io.Reader) (*Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: gzip header: %w", ErrDecode, err)
	}
	return &Reader{
		gz: gz,
		tr: tar.NewReader(gz),
	}, nil
}

// Next advances to the next regular-file entry. Unread content of the
// previous entry is discarded first. It returns io.EOF at end of stream.
func (r *Reader) Next() (*Entry, error) {
	if r.current != nil {
		if err := r.current.Drain(); err != nil {
			return nil, err
		}
		r.current = nil
	}

	for {
		hdr, err := r.tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}

		// directories and links carry no payload
		if !hdr.FileInfo().Mode().IsRegular() {
			continue
		}

		r.current = &Entry{
			Name: hdr.Name,
			Size: hdr.Size,
			r:    &decodeReader{r: r.tr, name: hdr.Name},
		}
		return r.current, nil
	}
}

// Close releases the gzip decoder. It does not close the underlying reader.
func (r *Reader) Close() error {
	return r.gz.Close()
}

// decodeReader tags read failures from the tar stream with ErrDecode.
type decodeReader struct {
	r    io.Reader
	name string
}

func (d *decodeReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w: read %s: %w", ErrDecode, d.name, err)
	}
	return n, err
}

// File is a Reader bound to a file on disk.
type File struct {
	*Reader
	f *os.File
}

// Open opens a package file for sequential reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}

	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &File{Reader: r, f: f}, nil
}

// Close closes both the decoder and the file.
func (f *File) Close() error {
	gzErr := f.Reader.Close()
	if err := f.f.Close(); err != nil {
		return err
	}
	return gzErr
}
