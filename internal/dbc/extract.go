package dbc

import (
	"iter"
	"strings"
)

// Statement keywords recognised by the extractor. Everything else
// (BU_, BO_TX_BU_, CM_, BA_, SG_MUL_VAL_, VAL_TABLE_ ...) is skipped.
const (
	keywordMessage    = "BO_"
	keywordSignal     = "SG_"
	keywordValueTable = "VAL_"
)

// Line is one raw source line with its 1-based line number
type Line struct {
	Number int
	Text   string
}

// MessageBlock is a BO_ header line and the SG_ lines that follow it
type MessageBlock struct {
	Header  Line
	Signals []Line
}

// Sections holds everything the decoders need from one document
type Sections struct {
	Messages    []MessageBlock
	ValueTables []Line
}

// Extract collects message blocks and value-table lines from text.
// It never fails: a document without matches yields empty sections.
func Extract(text string) Sections {
	var s Sections
	for b := range MessageBlocks(text) {
		s.Messages = append(s.Messages, b)
	}
	for l := range ValueTableLines(text) {
		s.ValueTables = append(s.ValueTables, l)
	}
	return s
}

// MessageBlocks yields one block per BO_ header in source order. SG_ lines
// attach to the most recent header; blank lines keep the block open and any
// other statement closes it. SG_ lines outside a block are dropped.
func MessageBlocks(text string) iter.Seq[MessageBlock] {
	return func(yield func(MessageBlock) bool) {
		var cur *MessageBlock
		n := 0
		for raw := range strings.Lines(text) {
			n++
			line := strings.TrimRight(raw, "\r\n")

			switch kw, _ := splitKeyword(line); kw {
			case keywordMessage:
				if cur != nil && !yield(*cur) {
					return
				}
				cur = &MessageBlock{Header: Line{Number: n, Text: line}}
			case keywordSignal:
				if cur != nil {
					cur.Signals = append(cur.Signals, Line{Number: n, Text: line})
				}
			case "":
			default:
				if cur != nil && !yield(*cur) {
					return
				}
				cur = nil
			}
		}
		if cur != nil {
			yield(*cur)
		}
	}
}

// ValueTableLines yields every VAL_ statement line in source order
func ValueTableLines(text string) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		n := 0
		for raw := range strings.Lines(text) {
			n++
			line := strings.TrimRight(raw, "\r\n")
			if kw, _ := splitKeyword(line); kw == keywordValueTable {
				if !yield(Line{Number: n, Text: line}) {
					return
				}
			}
		}
	}
}

// splitKeyword returns the first token of a line and the text after it.
// Leading indentation is ignored. A blank line returns an empty keyword.
func splitKeyword(line string) (keyword, body string) {
	line = strings.TrimLeft(line, " \t")
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimLeft(line[i:], " \t")
}

// statementBody strips the keyword from a raw statement line
func statementBody(line string) string {
	_, body := splitKeyword(line)
	return body
}
