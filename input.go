package failrate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type decodedInput struct {
	decoder io.Reader
	close   func() error
}

func (d decodedInput) Read(p []byte) (int, error) {
	return d.decoder.Read(p)
}

func (d decodedInput) Close() error {
	return d.close()
}

// decodeInput decompresses the files with the .gz, .zst and .br
// extensions.
func decodeInput(name string, f io.ReadCloser) (io.ReadCloser, error) {
	switch filepath.Ext(name) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to decompress %s: %w", name, err)
		}

		return decodedInput{decoder: zr, close: func() error {
			zr.Close()
			return f.Close()
		}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to decompress %s: %w", name, err)
		}

		return decodedInput{decoder: zr, close: func() error {
			zr.Close()
			return f.Close()
		}}, nil
	case ".br":
		return decodedInput{decoder: brotli.NewReader(f), close: f.Close}, nil
	default:
		return f, nil
	}
}

func (o Options) openInput(name string) (io.ReadCloser, error) {
	if name == "" || name == stdinName {
		stdin := o.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}

		return io.NopCloser(stdin), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	return decodeInput(name, f)
}
