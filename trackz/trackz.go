// Package trackz reads and appends track files, gzipped or not.
package trackz

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

type GZFileWriter struct {
	f      *os.File
	gzw    *gzip.Writer
	locked bool
	closed bool
}

type GZFileWriterConfig struct {
	CompressionLevel int
	Flag             int
	FilePerm         os.FileMode
	DirPerm          os.FileMode
}

func DefaultGZFileWriterConfig() *GZFileWriterConfig {
	return &GZFileWriterConfig{
		CompressionLevel: gzip.BestCompression,
		Flag:             os.O_WRONLY | os.O_APPEND | os.O_CREATE,
		FilePerm:         0660,
		DirPerm:          0770,
	}
}

// NewGZFileWriter opens path for appending a new gzip member.
// Readers see the members of an appended file as one stream.
func NewGZFileWriter(path string, config *GZFileWriterConfig) (*GZFileWriter, error) {
	if config == nil {
		config = DefaultGZFileWriterConfig()
	}
	if err := os.MkdirAll(filepath.Dir(path), config.DirPerm); err != nil {
		return nil, err
	}
	fi, err := os.OpenFile(path, config.Flag, config.FilePerm)
	if err != nil {
		return nil, err
	}
	gzw, err := gzip.NewWriterLevel(fi, config.CompressionLevel)
	if err != nil {
		_ = fi.Close()
		return nil, err
	}
	return &GZFileWriter{f: fi, gzw: gzw}, nil
}

// Write locks the file on first use; the lock is held until Close.
func (g *GZFileWriter) Write(p []byte) (int, error) {
	g.lock()
	return g.gzw.Write(p)
}

// Flush writes pending compressed data without ending the gzip member.
func (g *GZFileWriter) Flush() error {
	return g.gzw.Flush()
}

// lock locks the file for exclusive access.
// The lock will be invalidated if and when the file is closed.
func (g *GZFileWriter) lock() {
	if g.locked || g.closed || g.f == nil {
		return
	}
	_ = syscall.Flock(int(g.f.Fd()), syscall.LOCK_EX)
	g.locked = true
}

func (g *GZFileWriter) Close() error {
	if g.closed {
		return nil
	}
	// Closing the file releases the lock.
	g.closed = true
	if err := g.gzw.Close(); err != nil {
		_ = g.f.Close()
		return err
	}
	return g.f.Close()
}

func (g *GZFileWriter) Path() string {
	return g.f.Name()
}

// IsGZ reports whether path names a gzipped file, by extension.
func IsGZ(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

type fileReader struct {
	io.Reader
	closers []io.Closer
}

func (r *fileReader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens a track file for reading, decompressing it if it is gzipped.
func Open(path string) (io.ReadCloser, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !IsGZ(path) {
		return fi, nil
	}
	gzr, err := gzip.NewReader(fi)
	if err != nil {
		_ = fi.Close()
		return nil, err
	}
	return &fileReader{Reader: gzr, closers: []io.Closer{gzr, fi}}, nil
}

// LineCount counts the lines of a track file.
func LineCount(path string) (int, error) {
	r, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	count := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
