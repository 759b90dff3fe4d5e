package collector

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"logsift/internal/discovery"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/pterm/pterm"
)

// dirFS serves a local directory as the remote side
type dirFS struct {
	failOpen string // name whose reads break halfway
}

func (d dirFS) ReadDir(dir string) ([]os.FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	infos := make([]os.FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (d dirFS) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	if d.failOpen != "" && filepath.Base(name) == d.failOpen {
		return &brokenReader{f: f}, nil
	}
	return f, nil
}

// brokenReader returns a few bytes, then an error
type brokenReader struct {
	f    *os.File
	read bool
}

func (b *brokenReader) Read(p []byte) (int, error) {
	if b.read {
		return 0, errors.New("connection reset")
	}
	b.read = true
	n := copy(p, "partial")
	return n, nil
}

func (b *brokenReader) Close() error { return b.f.Close() }

func testLogger() *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

func TestDecompress(t *testing.T) {
	dir := t.TempDir()
	content := []byte("line one\nline two\n")
	archive := filepath.Join(dir, "access.log.2.gz")
	writeFile(t, archive, gzipBytes(t, content))

	plain, err := Decompress(archive)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if plain != filepath.Join(dir, "access.log.2") {
		t.Errorf("Unexpected plain path %s", plain)
	}

	got, err := os.ReadFile(plain)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Expected %q, got %q", content, got)
	}
	if _, err := os.Stat(archive); !errors.Is(err, os.ErrNotExist) {
		t.Error("Expected the archive to be removed")
	}
}

func TestDecompress_BadArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "error.log.1.gz")
	writeFile(t, archive, []byte("definitely not gzip"))

	_, err := Decompress(archive)
	if !errors.Is(err, ErrBadArchive) {
		t.Fatalf("Expected ErrBadArchive, got %v", err)
	}
	if diff := cmp.Diff([]string{"error.log.1.gz"}, listDir(t, dir)); diff != "" {
		t.Errorf("Directory contents mismatch (-want +got):\n%s", diff)
	}
}

func TestDecompress_TruncatedArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "access.log.3.gz")
	full := gzipBytes(t, []byte(strings.Repeat("x", 4096)))
	writeFile(t, archive, full[:len(full)-6])

	if _, err := Decompress(archive); !errors.Is(err, ErrBadArchive) {
		t.Fatalf("Expected ErrBadArchive, got %v", err)
	}
	if diff := cmp.Diff([]string{"access.log.3.gz"}, listDir(t, dir)); diff != "" {
		t.Errorf("Directory contents mismatch (-want +got):\n%s", diff)
	}
}

func TestDecompress_RequiresSuffix(t *testing.T) {
	if _, err := Decompress(filepath.Join(t.TempDir(), "access.log")); err == nil {
		t.Error("Expected an error for a file without the .gz suffix")
	}
}

type collectFixture struct {
	remote    string
	accessDir string
	errorDir  string
}

func newCollectFixture(t *testing.T) *collectFixture {
	t.Helper()
	root := t.TempDir()
	f := &collectFixture{
		remote:    filepath.Join(root, "remote"),
		accessDir: filepath.Join(root, "logs", "access"),
		errorDir:  filepath.Join(root, "logs", "error"),
	}
	if err := os.MkdirAll(f.remote, 0o755); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *collectFixture) collector(remote RemoteFS) *Collector {
	return NewCollector(Config{RemoteDir: f.remote, AccessDir: f.accessDir, ErrorDir: f.errorDir}, remote, testLogger())
}

func TestCollector_Run_RoutesAndDecompresses(t *testing.T) {
	f := newCollectFixture(t)
	writeFile(t, filepath.Join(f.remote, "access.log"), []byte("a0\n"))
	writeFile(t, filepath.Join(f.remote, "access.log.1"), []byte("a1\n"))
	writeFile(t, filepath.Join(f.remote, "access.log.2.gz"), gzipBytes(t, []byte("a2\n")))
	writeFile(t, filepath.Join(f.remote, "error.log"), []byte("e0\n"))
	writeFile(t, filepath.Join(f.remote, "other.txt"), []byte("skip\n"))
	if err := os.Mkdir(filepath.Join(f.remote, "access.d"), 0o755); err != nil {
		t.Fatal(err)
	}

	report, err := f.collector(dirFS{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if diff := cmp.Diff([]string{"access.log", "access.log.1", "access.log.2"}, listDir(t, f.accessDir)); diff != "" {
		t.Errorf("Access dir mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"error.log"}, listDir(t, f.errorDir)); diff != "" {
		t.Errorf("Error dir mismatch (-want +got):\n%s", diff)
	}

	got, err := os.ReadFile(filepath.Join(f.accessDir, "access.log.2"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "a2\n" {
		t.Errorf("Expected decompressed content, got %q", got)
	}

	want := Report{Listed: 6, Classified: 4, Downloaded: 4, Decompressed: 1, Skipped: 2}
	report.Bytes = 0
	if diff := cmp.Diff(want, *report); diff != "" {
		t.Errorf("Report mismatch (-want +got):\n%s", diff)
	}
}

func TestCollector_Run_RerunOverwrites(t *testing.T) {
	f := newCollectFixture(t)
	remoteFile := filepath.Join(f.remote, "access.log")
	writeFile(t, remoteFile, []byte("first\n"))

	c := f.collector(dirFS{})
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	writeFile(t, remoteFile, []byte("second\n"))
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(f.accessDir, "access.log"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second\n" {
		t.Errorf("Expected the local copy to be replaced, got %q", got)
	}
}

func TestCollector_Run_PartialDownloadLeavesNothing(t *testing.T) {
	f := newCollectFixture(t)
	writeFile(t, filepath.Join(f.remote, "access.log"), []byte("complete\n"))
	writeFile(t, filepath.Join(f.remote, "access.log.1"), []byte("never arrives\n"))

	report, err := f.collector(dirFS{failOpen: "access.log.1"}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Failed != 1 || report.Downloaded != 1 {
		t.Errorf("Unexpected report %+v", report)
	}
	if diff := cmp.Diff([]string{"access.log"}, listDir(t, f.accessDir)); diff != "" {
		t.Errorf("Access dir mismatch (-want +got):\n%s", diff)
	}
}

func TestCollector_Run_BadArchiveIsReported(t *testing.T) {
	f := newCollectFixture(t)
	writeFile(t, filepath.Join(f.remote, "error.log.1.gz"), []byte("not gzip"))

	report, err := f.collector(dirFS{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Failed != 1 || report.Decompressed != 0 {
		t.Errorf("Unexpected report %+v", report)
	}
	if diff := cmp.Diff([]string{"error.log.1.gz"}, listDir(t, f.errorDir)); diff != "" {
		t.Errorf("Error dir mismatch (-want +got):\n%s", diff)
	}
}

func TestCollector_Run_MissingRemoteDir(t *testing.T) {
	f := newCollectFixture(t)
	c := NewCollector(Config{
		RemoteDir: filepath.Join(f.remote, "absent"),
		AccessDir: f.accessDir,
		ErrorDir:  f.errorDir,
	}, dirFS{}, testLogger())

	if _, err := c.Run(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}
}

func TestCollector_Run_CancelledContext(t *testing.T) {
	f := newCollectFixture(t)
	writeFile(t, filepath.Join(f.remote, "access.log"), []byte("a\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.collector(dirFS{}).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestCollector_Run_BadArchiveIsNotDiscovered(t *testing.T) {
	f := newCollectFixture(t)
	writeFile(t, filepath.Join(f.remote, "access.log.1"), []byte("plain\n"))
	writeFile(t, filepath.Join(f.remote, "access.log.2.gz"), []byte("not gzip"))

	if _, err := f.collector(dirFS{}).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	files, err := discovery.NewFinder(testLogger()).Find(discovery.Source{
		Kind:    discovery.Access,
		Dir:     f.accessDir,
		Pattern: "*.log.*",
	})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}

	want := []discovery.File{{Path: filepath.Join(f.accessDir, "access.log.1"), Size: 6}}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("Discovered files mismatch (-want +got):\n%s", diff)
	}
}
