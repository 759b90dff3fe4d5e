package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"logsift/internal/discovery"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
)

// partialSuffix marks a file that is still being written
const partialSuffix = ".part"

// Config holds the collector's directories
type Config struct {
	RemoteDir string
	AccessDir string
	ErrorDir  string
}

// Report summarizes one collection run
type Report struct {
	Listed       int
	Classified   int
	Downloaded   int
	Decompressed int
	Skipped      int
	Failed       int
	Bytes        int64
}

// Collector copies access and error logs from a remote directory into the local
// log directories. Deliveries are atomic and a re-run overwrites earlier copies.
type Collector struct {
	cfg    Config
	remote RemoteFS
	logger *pterm.Logger
}

// NewCollector creates a collector reading from remote
func NewCollector(cfg Config, remote RemoteFS, logger *pterm.Logger) *Collector {
	return &Collector{
		cfg:    cfg,
		remote: remote,
		logger: logger,
	}
}

// Run downloads every access* and error* file of the remote directory.
// A failing file is reported and skipped; only listing errors and cancellation abort the run.
func (c *Collector) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	for _, dir := range []string{c.cfg.AccessDir, c.cfg.ErrorDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return report, fmt.Errorf("create local log directory: %w", err)
		}
	}

	entries, err := c.remote.ReadDir(c.cfg.RemoteDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.logger.WithCaller().Error("Remote path not found", c.logger.Args("path", c.cfg.RemoteDir))
		}
		return report, fmt.Errorf("list remote directory %s: %w", c.cfg.RemoteDir, err)
	}

	report.Listed = len(entries)
	c.logger.Debug("Listed remote directory",
		c.logger.Args("path", c.cfg.RemoteDir, "files", len(entries)))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if entry.IsDir() {
			report.Skipped++
			continue
		}

		name := entry.Name()
		kind, ok := discovery.Classify(name)
		if !ok {
			c.logger.Debug("Skipping unclassified remote file", c.logger.Args("name", name))
			report.Skipped++
			continue
		}
		report.Classified++

		localDir := c.cfg.AccessDir
		if kind == discovery.Error {
			localDir = c.cfg.ErrorDir
		}

		remotePath := path.Join(c.cfg.RemoteDir, name)
		localPath := filepath.Join(localDir, name)

		c.logger.Trace("Downloading", c.logger.Args("remote", remotePath, "local", localPath))
		n, err := c.download(remotePath, localPath)
		if err != nil {
			c.logger.WithCaller().Error("Failed to download remote file",
				c.logger.Args("remote", remotePath, "error", err))
			report.Failed++
			continue
		}
		report.Downloaded++
		report.Bytes += n
		c.logger.Debug("Downloaded remote file",
			c.logger.Args("remote", remotePath, "local", localPath, "size", humanize.Bytes(uint64(n))))

		if strings.HasSuffix(name, archiveSuffix) {
			plain, err := Decompress(localPath)
			if err != nil {
				c.logger.WithCaller().Error("Failed to decompress archive",
					c.logger.Args("path", localPath, "error", err))
				report.Failed++
				continue
			}
			report.Decompressed++
			c.logger.Debug("Decompressed archive", c.logger.Args("archive", localPath, "plain", plain))
		}
	}

	if report.Downloaded < report.Classified {
		c.logger.Warn("Not every log file was downloaded",
			c.logger.Args("downloaded", report.Downloaded, "expected", report.Classified))
	}
	c.logger.Info("Collection finished",
		c.logger.Args(
			"listed", report.Listed,
			"downloaded", report.Downloaded,
			"decompressed", report.Decompressed,
			"skipped", report.Skipped,
			"failed", report.Failed,
			"size", humanize.Bytes(uint64(report.Bytes)),
		))

	return report, nil
}

// download copies a remote file to localPath through a temporary file,
// so localPath only ever holds a complete copy
func (c *Collector) download(remotePath, localPath string) (int64, error) {
	src, err := c.remote.Open(remotePath)
	if err != nil {
		return 0, fmt.Errorf("open remote file: %w", err)
	}
	defer src.Close()

	tmp := localPath + partialSuffix
	dst, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", tmp, err)
	}

	n, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		os.Remove(tmp)
		return n, fmt.Errorf("copy %s: %w", remotePath, err)
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		os.Remove(tmp)
		return n, fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return n, fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, localPath); err != nil {
		os.Remove(tmp)
		return n, fmt.Errorf("rename %s: %w", tmp, err)
	}
	return n, nil
}
