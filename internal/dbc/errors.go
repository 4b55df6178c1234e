package dbc

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedDocument occurs when the input cannot be decoded as text.
	ErrMalformedDocument = errors.New("dbc: malformed document")

	// ErrMalformedMessageHeader occurs when a BO_ line lacks id, name, length or sender.
	ErrMalformedMessageHeader = errors.New("dbc: malformed message header")

	// ErrMalformedSignal occurs when a SG_ line does not follow the signal grammar.
	ErrMalformedSignal = errors.New("dbc: malformed signal")

	// ErrMalformedValueTable occurs when a VAL_ statement lacks a numeric id or a signal name.
	ErrMalformedValueTable = errors.New("dbc: malformed value table")

	// ErrAssembly occurs when decoded messages cannot form one database.
	ErrAssembly = errors.New("dbc: assembly failed")
)

// DocumentError reports input that is not decodable text
type DocumentError struct {
	Offset int // byte offset of the first invalid sequence, -1 if unknown
	Err    error
}

func (e *DocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", ErrMalformedDocument, e.Err)
	}
	return fmt.Sprintf("%v: invalid UTF-8 at byte %d", ErrMalformedDocument, e.Offset)
}

func (e *DocumentError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedDocument, e.Err}
	}
	return []error{ErrMalformedDocument}
}

// HeaderError reports a BO_ line that could not be decoded
type HeaderError struct {
	Line   int
	Raw    string
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("%v: line %d: %s: %q", ErrMalformedMessageHeader, e.Line, e.Reason, e.Raw)
}

func (e *HeaderError) Unwrap() error { return ErrMalformedMessageHeader }

// SignalError reports a SG_ line that could not be decoded. MessageID is set
// once the error has passed through the message decoder.
type SignalError struct {
	MessageID    uint32
	HasMessageID bool
	Signal       string
	Line         int
	Raw          string
	Reason       string
}

func (e *SignalError) Error() string {
	where := ""
	if e.HasMessageID {
		where = fmt.Sprintf(" message %d", e.MessageID)
	}
	if e.Signal != "" {
		where += fmt.Sprintf(" signal %s", e.Signal)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%v:%s line %d: %s: %q", ErrMalformedSignal, where, e.Line, e.Reason, e.Raw)
	}
	return fmt.Sprintf("%v:%s %s: %q", ErrMalformedSignal, where, e.Reason, e.Raw)
}

func (e *SignalError) Unwrap() error { return ErrMalformedSignal }

// ValueTableError reports a VAL_ statement that could not be decoded
type ValueTableError struct {
	Line   int
	Raw    string
	Reason string
}

func (e *ValueTableError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: line %d: %s: %q", ErrMalformedValueTable, e.Line, e.Reason, e.Raw)
	}
	return fmt.Sprintf("%v: %s: %q", ErrMalformedValueTable, e.Reason, e.Raw)
}

func (e *ValueTableError) Unwrap() error { return ErrMalformedValueTable }

// DuplicateMessageError reports two messages sharing one id
type DuplicateMessageError struct {
	ID     uint32
	First  string
	Second string
}

func (e *DuplicateMessageError) Error() string {
	return fmt.Sprintf("%v: duplicate message id %d used by %s and %s", ErrAssembly, e.ID, e.First, e.Second)
}

func (e *DuplicateMessageError) Unwrap() error { return ErrAssembly }
