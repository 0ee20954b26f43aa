package testutil

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
)

// TempDir creates a temporary directory and returns a cleanup function.
func TempDir(prefix string) (string, func(), error) {
	dir, err := os.MkdirTemp("", prefix+"-*")
	if err != nil {
		return "", nil, err
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// CreateTestFile writes size bytes (random or zero) to dir/name.
func CreateTestFile(dir, name string, size int64, random bool) (string, error) {
	data := make([]byte, size)
	if random {
		if _, err := rand.Read(data); err != nil {
			return "", err
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile writes data to dir/name, creating dir if needed.
func WriteFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	return path, os.WriteFile(path, data, 0644)
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// VerifyFileSize checks that path is exactly size bytes.
func VerifyFileSize(path string, size int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() != size {
		return fmt.Errorf("size mismatch for %s: got %d, want %d", path, info.Size(), size)
	}
	return nil
}

// FileContentEquals reports whether path holds exactly want.
func FileContentEquals(path string, want []byte) (bool, error) {
	got, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return bytes.Equal(got, want), nil
}
