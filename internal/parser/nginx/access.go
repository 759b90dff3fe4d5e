package nginx

import (
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// AccessTimeLayout matches the bracketed date token of an access line, e.g. "[29/Sep/2024:00:24:27".
// The zone offset lives in the next token and is not part of the layout.
const AccessTimeLayout = "[02/Jan/2006:15:04:05"

// Format: <client> - <user> [<date> <zone>] "<method> <url> <protocol>" <status> <size> "<referer>" "<user_agent>"
// Quote segments:  0: prefix  1: request  2: status+size  3: referer  4: " "  5+: user agent
const (
	segPrefix    = 0
	segRequest   = 1
	segStatus    = 2
	segUserAgent = 5
)

var httpMethods = map[string]struct{}{
	"GET":     {},
	"POST":    {},
	"PUT":     {},
	"DELETE":  {},
	"PATCH":   {},
	"HEAD":    {},
	"OPTIONS": {},
	"CONNECT": {},
	"TRACE":   {},
}

// IsHTTPMethod reports whether token is one of the recognized request methods
func IsHTTPMethod(token string) bool {
	_, ok := httpMethods[token]
	return ok
}

// AccessParser tokenizes nginx access log lines
type AccessParser struct {
	logger *pterm.Logger
}

// NewAccessParser creates a new access log parser
func NewAccessParser(logger *pterm.Logger) *AccessParser {
	return &AccessParser{logger: logger}
}

// Name returns the parser identifier
func (p *AccessParser) Name() string {
	return "nginx-access"
}

// ParseFile parses every line of the file at path.
// Only a failure to read the file is returned as an error; malformed lines are accounted for.
func (p *AccessParser) ParseFile(path string) (*Outcome[AccessRecord], error) {
	out := &Outcome[AccessRecord]{Source: path}
	_, err := NewLineReader(path, p.logger).Each(func(line string) {
		out.Records = append(out.Records, p.ParseLine(line, &out.Accounting))
		out.Accounting.Lines++
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("Parsed access log file",
		p.logger.Args(
			"path", path,
			"records", len(out.Records),
			"malformed_units", out.Accounting.Units,
		))
	return out, nil
}

// Parse parses lines from r, using source as the outcome's name
func (p *AccessParser) Parse(r io.Reader, source string) (*Outcome[AccessRecord], error) {
	out := &Outcome[AccessRecord]{Source: source}
	_, err := eachLine(r, func(line string) {
		out.Records = append(out.Records, p.ParseLine(line, &out.Accounting))
		out.Accounting.Lines++
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseLine tokenizes a single access line. It never fails: fields that are not
// where the grammar expects them are left nil and counted in acct.
func (p *AccessParser) ParseLine(line string, acct *Accounting) AccessRecord {
	segments := strings.Split(line, `"`)
	prefix := strings.Split(segments[segPrefix], " ")

	rec := AccessRecord{
		ClientIP:  prefix[0],
		UserAgent: []string{},
	}

	rec.HTTPMethod, rec.URL = p.parseRequest(segments, acct)

	if len(prefix) > 3 {
		rec.Timestamp = parseTimestamp(AccessTimeLayout, prefix[3])
	}
	if rec.Timestamp == nil {
		acct.BadTimestamps++
	}

	rec.StatusCode = statusToken(segments)
	if rec.StatusCode == nil {
		acct.Note(MissingStatus)
	}

	if len(segments) > segUserAgent {
		rec.UserAgent = append(rec.UserAgent, segments[segUserAgent:]...)
	}

	return rec
}

// parseRequest extracts method and url from the first quoted segment
func (p *AccessParser) parseRequest(segments []string, acct *Accounting) (*string, *string) {
	if len(segments) <= segRequest {
		p.logger.Trace("Access line has no quoted request")
		acct.Count(NoQuotes, 2)
		return nil, nil
	}

	tokens := strings.Split(segments[segRequest], " ")
	if len(tokens) <= 1 {
		p.logger.Trace("Access request holds a single token",
			p.logger.Args("request", segments[segRequest]))
		acct.Count(ShortRequest, 2)
		return nil, nil
	}

	if !IsHTTPMethod(tokens[0]) {
		p.logger.Trace("Unrecognized request method, keeping raw request as url",
			p.logger.Args("method", tokens[0]))
		acct.Count(UnknownMethod, 1)
		return nil, ptr(segments[segRequest])
	}

	// The last token is the protocol version
	return ptr(tokens[0]), ptr(strings.Join(tokens[1:len(tokens)-1], " "))
}

func statusToken(segments []string) *string {
	if len(segments) <= segStatus {
		return nil
	}
	tokens := strings.Split(segments[segStatus], " ")
	if len(tokens) < 2 {
		return nil
	}
	return ptr(tokens[1])
}

// parseTimestamp returns nil when value does not match layout
func parseTimestamp(layout, value string) *time.Time {
	t, err := time.Parse(layout, value)
	if err != nil {
		return nil
	}
	return &t
}
