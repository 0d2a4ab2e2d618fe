package compressor

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// GzipVerifier checks that a downloaded archive is a complete gzip stream.
type GzipVerifier struct{}

func NewGzip() *GzipVerifier {
	return &GzipVerifier{}
}

func (g *GzipVerifier) Verify(path string) error {
	sourceFile, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	gzipReader, err := gzip.NewReader(sourceFile)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	// Reading to EOF makes the reader check the trailing CRC and size.
	if _, err := io.Copy(io.Discard, gzipReader); err != nil {
		return fmt.Errorf("failed to decompress: %w", err)
	}

	return nil
}
