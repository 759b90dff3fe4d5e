package nginx

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// LineReader reads a log file sequentially, one line at a time.
// Unlike a bufio.Scanner it has no maximum line length and it keeps empty lines,
// so the number of callbacks always equals the number of lines in the file.
type LineReader struct {
	filePath string
	logger   *pterm.Logger
}

// NewLineReader creates a reader for the file at filePath
func NewLineReader(filePath string, logger *pterm.Logger) *LineReader {
	return &LineReader{
		filePath: filePath,
		logger:   logger,
	}
}

// Each calls fn for every line of the file, in order, without the trailing line break.
// Returns the number of lines read.
func (r *LineReader) Each(fn func(line string)) (int, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		if os.IsPermission(err) {
			r.logger.WithCaller().Error("Permission denied accessing log file",
				r.logger.Args("path", r.filePath, "error", err))
		}
		return 0, fmt.Errorf("open %s: %w", r.filePath, err)
	}
	defer file.Close()

	return eachLine(file, fn)
}

func eachLine(src io.Reader, fn func(line string)) (int, error) {
	br := bufio.NewReader(src)
	lines := 0
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			fn(line)
			lines++
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return lines, nil
			}
			return lines, err
		}
	}
}
