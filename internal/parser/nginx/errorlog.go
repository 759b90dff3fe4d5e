package nginx

import (
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// ErrorTimeLayout matches the leading date and time of an error line, e.g. "2024/09/29 10:15:03"
const ErrorTimeLayout = "2006/01/02 15:04:05"

// Format: <date> <time> [<level>] <pid>#<tid>: <text>, <message>, client: <ip>, server: <name>, request: "<req>", host: "<host>"
const (
	fieldSeparator = ", "
	valueSeparator = ": "
)

// Positional fields after the header, in the order they are assigned
var errorValueFields = []string{"client_ip", "server", "request", "host"}

// ErrorParser tokenizes nginx error log lines.
// Lines that are shorter than the grammar are null-filled, never skipped.
type ErrorParser struct {
	logger *pterm.Logger
}

// NewErrorParser creates a new error log parser
func NewErrorParser(logger *pterm.Logger) *ErrorParser {
	return &ErrorParser{logger: logger}
}

// Name returns the parser identifier
func (p *ErrorParser) Name() string {
	return "nginx-error"
}

// ParseFile parses every line of the file at path
func (p *ErrorParser) ParseFile(path string) (*Outcome[ErrorRecord], error) {
	out := &Outcome[ErrorRecord]{Source: path}
	_, err := NewLineReader(path, p.logger).Each(func(line string) {
		out.Records = append(out.Records, p.ParseLine(line, &out.Accounting))
		out.Accounting.Lines++
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("Parsed error log file",
		p.logger.Args(
			"path", path,
			"records", len(out.Records),
			"malformed_units", out.Accounting.Units,
		))
	return out, nil
}

// Parse parses lines from r, using source as the outcome's name
func (p *ErrorParser) Parse(r io.Reader, source string) (*Outcome[ErrorRecord], error) {
	out := &Outcome[ErrorRecord]{Source: source}
	_, err := eachLine(r, func(line string) {
		out.Records = append(out.Records, p.ParseLine(line, &out.Accounting))
		out.Accounting.Lines++
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseLine tokenizes a single error line. Each column the line does not provide
// stays nil and adds one malformed unit.
func (p *ErrorParser) ParseLine(line string, acct *Accounting) ErrorRecord {
	fields := strings.Split(line, fieldSeparator)
	header := strings.Split(fields[0], " ")

	var rec ErrorRecord
	before := acct.Units

	if len(header) > 1 {
		rec.Timestamp = parseTimestamp(ErrorTimeLayout, header[0]+" "+header[1])
	}
	if rec.Timestamp == nil {
		acct.BadTimestamps++
	}

	if len(header) > 2 {
		rec.ErrorLevel = ptr(strings.Trim(header[2], "[]"))
	} else {
		acct.Count(MissingField, 1)
	}

	if len(header) > 3 {
		halves := strings.Split(header[3], "#")
		if len(halves) > 1 {
			rec.ProcessID = ptr(halves[1])
		} else {
			acct.Count(MissingSeparator, 1)
		}
	} else {
		acct.Count(MissingField, 1)
	}

	rec.Message = afterSeparator(fields, 1, ":", acct)
	if rec.Message != nil {
		rec.Message = ptr(strings.TrimSpace(*rec.Message))
	}

	values := make([]*string, len(errorValueFields))
	for i := range errorValueFields {
		values[i] = afterSeparator(fields, i+2, valueSeparator, acct)
	}
	rec.ClientIP, rec.Server, rec.Request, rec.Host = values[0], values[1], values[2], values[3]

	if acct.Units > before {
		p.logger.Trace("Error line shorter than expected",
			p.logger.Args("fields", len(fields), "header_tokens", len(header), "malformed_units", acct.Units-before))
	}

	return rec
}

// afterSeparator returns the text after the first sep in fields[idx]
func afterSeparator(fields []string, idx int, sep string, acct *Accounting) *string {
	if idx >= len(fields) {
		acct.Count(MissingField, 1)
		return nil
	}
	_, after, ok := strings.Cut(fields[idx], sep)
	if !ok {
		acct.Count(MissingSeparator, 1)
		return nil
	}
	return ptr(after)
}
