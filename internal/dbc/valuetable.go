package dbc

import (
	"can-dbc-catalog/internal/models"
	"errors"
	"iter"
	"regexp"
	"strconv"
	"strings"
)

// <value> "<label>"
var valuePair = regexp.MustCompile(`(-?\d+)\s+"([^"]*)"`)

// Key identifies the signal a value table belongs to
type Key struct {
	MessageID uint32
	Signal    string
}

// ValueTable is one decoded VAL_ statement
type ValueTable struct {
	Key     Key
	Entries []models.EnumValue
}

// DecodeValueTable decodes the body of a VAL_ statement:
//
//	<message id> <signal name> <value> "<label>" <value> "<label>" ... ;
//
// Text that does not form a value/label pair is ignored.
func DecodeValueTable(body string) (ValueTable, error) {
	idToken, rest := splitKeyword(body)
	name, rest := splitKeyword(rest)
	name = strings.TrimSuffix(name, ";")

	if idToken == "" || name == "" {
		return ValueTable{}, &ValueTableError{Raw: body, Reason: "expected <message id> <signal name>"}
	}
	id, err := strconv.ParseUint(idToken, 10, 32)
	if err != nil {
		return ValueTable{}, &ValueTableError{Raw: body, Reason: "message id " + strconv.Quote(idToken) + " is not numeric"}
	}

	table := ValueTable{
		Key:     Key{MessageID: uint32(id), Signal: name},
		Entries: []models.EnumValue{},
	}
	for _, m := range valuePair.FindAllStringSubmatch(rest, -1) {
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		table.Entries = append(table.Entries, models.EnumValue{Value: v, Label: m[2]})
	}
	return table, nil
}

// DecodeValueTables decodes VAL_ lines into one map. A later statement for
// the same key replaces an earlier one. Malformed statements are returned as
// errors and left out of the map.
func DecodeValueTables(lines iter.Seq[Line]) (map[Key][]models.EnumValue, []error) {
	tables := make(map[Key][]models.EnumValue)
	var failures []error

	for line := range lines {
		vt, err := DecodeValueTable(statementBody(line.Text))
		if err != nil {
			var ve *ValueTableError
			if errors.As(err, &ve) {
				ve.Line = line.Number
				ve.Raw = line.Text
			}
			failures = append(failures, err)
			continue
		}
		tables[vt.Key] = vt.Entries
	}
	return tables, failures
}
