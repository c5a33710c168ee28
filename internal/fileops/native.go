package fileops

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/otiai10/copy"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the compression format used by NativeOps.
type Codec string

const (
	CodecGzip Codec = "gzip"
	CodecLZ4  Codec = "lz4"
)

// NativeOps implements Ops with in-process compression and filesystem calls
// instead of external utilities.
type NativeOps struct {
	codec Codec
	level int
}

// NewNativeOps returns a NativeOps using the given codec and compression
// level. The level only applies to the gzip codec.
func NewNativeOps(codec Codec, level int) (*NativeOps, error) {
	switch codec {
	case CodecGzip, CodecLZ4:
	default:
		return nil, fmt.Errorf("unknown codec %q", codec)
	}
	if level < 1 || level > 9 {
		return nil, fmt.Errorf("compression level must be between 1 and 9, got %d", level)
	}
	return &NativeOps{codec: codec, level: level}, nil
}

func (n *NativeOps) Compress(path string) error {
	out := path + n.Suffix()
	if err := n.compressTo(path, out); err != nil {
		// Keep the original; drop the partial output.
		if rmErr := os.Remove(out); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("%w (could not remove partial %s: %v)", err, out, rmErr)
		}
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("could not remove original %s: %w", path, err)
	}
	return nil
}

func (n *NativeOps) compressTo(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	var zw io.WriteCloser
	switch n.codec {
	case CodecLZ4:
		zw = lz4.NewWriter(out)
	default:
		zw, err = gzip.NewWriterLevel(out, n.level)
		if err != nil {
			out.Close()
			return fmt.Errorf("gzip writer: %w", err)
		}
	}

	if _, err = io.Copy(zw, in); err != nil {
		zw.Close()
		out.Close()
		return fmt.Errorf("compress %s: %w", src, err)
	}
	if err = zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finish %s: %w", dst, err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}

func (n *NativeOps) DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (n *NativeOps) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

// Move renames src to dst, falling back to copy-and-remove when the rename
// fails (the archive root commonly lives on a different filesystem).
func (n *NativeOps) Move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copy.Copy(src, dst); err != nil {
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove %s after copy: %w", src, err)
	}
	return nil
}

func (n *NativeOps) Suffix() string {
	if n.codec == CodecLZ4 {
		return ".lz4"
	}
	return ".gz"
}
