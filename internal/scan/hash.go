package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
)

// QuickHashBytes is the prefix length covered by the quick digest. A file
// smaller than this hashes identically under QuickDigest and FullDigest.
const QuickHashBytes = 64 * 1024

// QuickDigest returns the SHA-256 of the first QuickHashBytes bytes of the
// file at path (or of the whole file if it is smaller). It never reads past
// the prefix. Failures are returned as *FileReadError.
func QuickDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyN(h, f, QuickHashBytes); err != nil && !errors.Is(err, io.EOF) {
		return "", &FileReadError{Path: path, Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FullDigest returns the SHA-256 of the entire file content, streaming it
// through the digest so memory use is constant regardless of file size.
// Failures are returned as *FileReadError.
func FullDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
