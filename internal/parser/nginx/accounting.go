package nginx

// Deviation classifies a grammar mismatch found while tokenizing a line
type Deviation string

const (
	// NoQuotes: access line without any quoted section
	NoQuotes Deviation = "no_quotes"
	// ShortRequest: quoted request holding a single token
	ShortRequest Deviation = "short_request"
	// UnknownMethod: first request token is not a recognized HTTP method
	UnknownMethod Deviation = "unknown_method"
	// MissingStatus: no third quote segment or no status token in it
	MissingStatus Deviation = "missing_status"
	// MissingField: error line with fewer comma separated fields than expected
	MissingField Deviation = "missing_field"
	// MissingSeparator: error line field without its colon separator
	MissingSeparator Deviation = "missing_separator"
)

// Accounting tracks how much of a file did not fit the expected grammar.
// Units counts malformed units; Deviations breaks the same units down by cause
// (plus MissingStatus, which is diagnostic and never adds to Units).
type Accounting struct {
	Lines         int
	Units         int
	BadTimestamps int
	Deviations    map[Deviation]int
}

// Count records units malformed units of the given deviation
func (a *Accounting) Count(d Deviation, units int) {
	a.Units += units
	a.note(d, units)
}

// Note records a deviation without counting it as a malformed unit
func (a *Accounting) Note(d Deviation) {
	a.note(d, 1)
}

func (a *Accounting) note(d Deviation, n int) {
	if a.Deviations == nil {
		a.Deviations = make(map[Deviation]int)
	}
	a.Deviations[d] += n
}

// Merge adds the counters of other into a
func (a *Accounting) Merge(other Accounting) {
	a.Lines += other.Lines
	a.Units += other.Units
	a.BadTimestamps += other.BadTimestamps
	for d, n := range other.Deviations {
		a.note(d, n)
	}
}
