package nginx

import (
	"encoding/json"
	"time"
)

// ExportTimeLayout is the layout used when a timestamp is written to a table cell
const ExportTimeLayout = "2006-01-02 15:04:05"

// AccessColumns is the header row of the access table
var AccessColumns = []string{"client_ip", "timestamp", "http_method", "url", "status_code", "user_agent"}

// ErrorColumns is the header row of the error table
var ErrorColumns = []string{"timestamp", "error_level", "process_id", "message", "client_ip", "server", "request", "host"}

// AccessRecord represents one parsed access log line.
// Nil pointers are null values: the line did not carry the field in the expected position.
type AccessRecord struct {
	ClientIP   string
	Timestamp  *time.Time
	HTTPMethod *string
	URL        *string
	StatusCode *string
	// Raw quote-delimited fragments from the sixth segment onward
	UserAgent []string
}

// ErrorRecord represents one parsed error log line
type ErrorRecord struct {
	Timestamp  *time.Time
	ErrorLevel *string
	ProcessID  *string
	Message    *string
	ClientIP   *string
	Server     *string
	Request    *string
	Host       *string
}

// Outcome is the result of parsing a single file
type Outcome[T any] struct {
	Source     string
	Records    []T
	Accounting Accounting
}

// Row returns the record as table cells, in AccessColumns order
func (r AccessRecord) Row() []string {
	return []string{
		r.ClientIP,
		formatTime(r.Timestamp),
		deref(r.HTTPMethod),
		deref(r.URL),
		deref(r.StatusCode),
		r.UserAgentJSON(),
	}
}

// UserAgentJSON encodes the user agent fragments as a JSON array
func (r AccessRecord) UserAgentJSON() string {
	fragments := r.UserAgent
	if fragments == nil {
		fragments = []string{}
	}
	b, err := json.Marshal(fragments)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// Row returns the record as table cells, in ErrorColumns order
func (r ErrorRecord) Row() []string {
	return []string{
		formatTime(r.Timestamp),
		deref(r.ErrorLevel),
		deref(r.ProcessID),
		deref(r.Message),
		deref(r.ClientIP),
		deref(r.Server),
		deref(r.Request),
		deref(r.Host),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(ExportTimeLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr[T any](v T) *T {
	return &v
}
