package model

import "time"

// Outcome is the result of processing one resource: rows on success, Err on failure.
type Outcome struct {
	Descriptor ResourceDescriptor
	Rows       []Row
	Columns    []string
	SinkURI    string
	Err        error
}

// Ok builds a successful outcome.
func Ok(d ResourceDescriptor, t *Table, sinkURI string) Outcome {
	return Outcome{Descriptor: d, Rows: t.Records(), Columns: t.Columns, SinkURI: sinkURI}
}

// Failed builds a failed outcome. Failed outcomes never carry rows.
func Failed(d ResourceDescriptor, err error) Outcome {
	return Outcome{Descriptor: d, Err: err}
}

// Failed reports whether the resource could not be processed.
func (o Outcome) Failed() bool { return o.Err != nil }

// LoadJob carries one landed table to the warehouse.
type LoadJob struct {
	RunID      string
	SinkURI    string
	Columns    []string
	Rows       []Row
	EnqueuedAt time.Time
}
