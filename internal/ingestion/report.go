package ingestion

import (
	"logsift/internal/discovery"
	"logsift/internal/parser/nginx"
)

// FileReport summarizes the parse of a single file
type FileReport struct {
	Path           string
	Size           int64
	Records        int
	MalformedUnits int
	Err            error
}

// KindReport summarizes one log kind across a batch
type KindReport struct {
	Kind            discovery.Kind
	FilesDiscovered int
	FilesProcessed  int
	FilesFailed     int
	Records         int
	Accounting      nginx.Accounting
	Files           []FileReport
	DiscoveryErr    error
}

// BatchReport is the outcome of one pipeline run
type BatchReport struct {
	Access KindReport
	Error  KindReport
}

func (r *KindReport) add(file discovery.File, acct *nginx.Accounting, records int, err error) {
	fr := FileReport{Path: file.Path, Size: file.Size, Err: err}
	if err != nil {
		r.FilesFailed++
	} else {
		r.FilesProcessed++
		r.Records += records
		r.Accounting.Merge(*acct)
		fr.Records = records
		fr.MalformedUnits = acct.Units
	}
	r.Files = append(r.Files, fr)
}
