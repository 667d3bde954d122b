// Package io reads batches of form submissions from files and writes the
// accepted and rejected records back out.
package io

// RecordReader loads every submission in a file. Each record maps field
// names to raw values.
type RecordReader interface {
	Read(path string) ([]map[string]interface{}, error)
}

// RecordWriter writes accepted records to a file. Close must be called once
// all records are written and is safe to call more than once.
type RecordWriter interface {
	Write(records []map[string]interface{}, path string) error
	Close() error
}

// RejectWriter records a submission along with the reason it was rejected.
type RejectWriter interface {
	Write(record map[string]interface{}, reason error) error
	Close() error
}
