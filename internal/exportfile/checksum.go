package exportfile

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// CalculateSHA256 returns the hex SHA256 checksum of everything read from r.
func CalculateSHA256(r io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", errors.Wrap(err, "failed to read data for checksum")
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

func fileChecksum(fs FileSystem, path string) (string, error) {
	file, err := fs.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer file.Close()

	return CalculateSHA256(file)
}
