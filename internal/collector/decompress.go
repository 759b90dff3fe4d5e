package collector

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ErrBadArchive is returned when a .gz file is not a valid gzip stream
var ErrBadArchive = errors.New("bad gzip archive")

const archiveSuffix = ".gz"

// Decompress expands a .gz file next to itself, without the suffix, then removes the archive.
// On failure the archive is left in place and no plain file is produced.
func Decompress(archivePath string) (string, error) {
	target := strings.TrimSuffix(archivePath, archiveSuffix)
	if target == archivePath {
		return "", fmt.Errorf("%s is not a %s file", archivePath, archiveSuffix)
	}

	if err := expand(archivePath, target); err != nil {
		return "", err
	}

	if err := os.Remove(archivePath); err != nil {
		return target, fmt.Errorf("remove archive: %w", err)
	}
	return target, nil
}

func expand(archivePath, target string) error {
	in, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadArchive, archivePath, err)
	}
	defer zr.Close()

	tmp := target + partialSuffix
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	if _, err := io.Copy(out, zr); err != nil {
		out.Close()
		os.Remove(tmp)
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return fmt.Errorf("write %s: %w", tmp, err)
		}
		return fmt.Errorf("%w: %s: %v", ErrBadArchive, archivePath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
