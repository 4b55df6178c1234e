// Package dbc parses CAN database (DBC) documents into the models package types.
package dbc

import (
	"can-dbc-catalog/internal/models"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
)

// Result is the outcome of parsing one document. Database holds every
// message that decoded cleanly; Failures lists the messages and value
// tables that did not, each quoting the offending source line.
type Result struct {
	Database *models.CANDatabase
	Failures []error
}

// Err joins all failures, nil when the document parsed cleanly
func (r *Result) Err() error {
	return errors.Join(r.Failures...)
}

// Parse builds the database for one document. Malformed messages and value
// tables are collected in Result.Failures; only an assembly error (duplicate
// message id) fails the whole document.
func Parse(name, text string) (*Result, error) {
	var (
		messages []models.CANMessage
		failures []error
	)

	for block := range MessageBlocks(text) {
		msg, err := DecodeMessage(block)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		messages = append(messages, msg)
	}

	tables, tableFailures := DecodeValueTables(ValueTableLines(text))
	failures = append(failures, tableFailures...)

	db, err := Assemble(name, messages, tables)
	if err != nil {
		return nil, err
	}

	return &Result{Database: db, Failures: failures}, nil
}

// ParseBytes decodes raw bytes with enc (nil = strict UTF-8) and parses them
func ParseBytes(name string, raw []byte, enc encoding.Encoding) (*Result, error) {
	text, err := Decode(raw, enc)
	if err != nil {
		return nil, err
	}
	return Parse(name, text)
}

// ParseReader reads a whole document from r and parses it
func ParseReader(name string, r io.Reader, enc encoding.Encoding) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", name, err)
	}
	return ParseBytes(name, raw, enc)
}
