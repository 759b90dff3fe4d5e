package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
)

// Kind identifies which grammar a log file is written in
type Kind string

const (
	Access Kind = "access"
	Error  Kind = "error"
)

// Source is a local directory holding logs of one kind
type Source struct {
	Kind    Kind
	Dir     string
	Pattern string // matched against file names, doublestar syntax
}

// File is a discovered log file
type File struct {
	Path string
	Size int64
}

// Classify returns the kind of a log file from its name prefix
func Classify(name string) (Kind, bool) {
	switch {
	case strings.HasPrefix(name, string(Access)):
		return Access, true
	case strings.HasPrefix(name, string(Error)):
		return Error, true
	}
	return "", false
}

// Suffixes of files the collector has not turned into plain logs yet
var undeliveredSuffixes = []string{".gz", ".part"}

// IsUndelivered reports whether name is a compressed archive or a partial download.
// Neither holds plain log lines.
func IsUndelivered(name string) bool {
	for _, suffix := range undeliveredSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Finder lists the files of a Source
type Finder struct {
	logger *pterm.Logger
}

func NewFinder(logger *pterm.Logger) *Finder {
	return &Finder{logger: logger}
}

// Find returns the regular files in src.Dir whose names match src.Pattern,
// following symlinks and leaving out archives and partial downloads.
// Files are returned in discovery order: sorted by file name.
func (f *Finder) Find(src Source) ([]File, error) {
	f.logger.Trace("Discovering log files",
		f.logger.Args("kind", src.Kind, "dir", src.Dir, "pattern", src.Pattern))

	entries, err := os.ReadDir(src.Dir)
	if err != nil {
		return nil, fmt.Errorf("read %s log directory: %w", src.Kind, err)
	}

	files := []File{}
	var total int64
	for _, entry := range entries {
		name := entry.Name()
		if IsUndelivered(name) {
			f.logger.Trace("Skipping archive or partial download", f.logger.Args("name", name))
			continue
		}

		matched, err := doublestar.Match(src.Pattern, name)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", src.Kind, src.Pattern, err)
		}
		if !matched {
			f.logger.Trace("File does not match pattern", f.logger.Args("name", name))
			continue
		}

		// os.Stat follows symlinks
		path := filepath.Join(src.Dir, name)
		info, err := os.Stat(path)
		if err != nil {
			f.logger.Debug("Skipping unreadable entry", f.logger.Args("name", name, "error", err))
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		files = append(files, File{
			Path: path,
			Size: info.Size(),
		})
		total += info.Size()
	}

	f.logger.Debug("Discovered log files",
		f.logger.Args(
			"kind", src.Kind,
			"dir", src.Dir,
			"count", len(files),
			"total_size", humanize.Bytes(uint64(total)),
		))

	return files, nil
}
