package report

import (
	"can-dbc-catalog/internal/models"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const banner = "**************************************************"

// MessageHeaders are the column names of MessageRow
func MessageHeaders() []string {
	return []string{"Message name", "Message ID", "Message length", "Sender"}
}

// MessageRow flattens the message header fields
func MessageRow(m *models.CANMessage) []string {
	return []string{m.Name, strconv.FormatUint(uint64(m.ID), 10), strconv.Itoa(m.Length), m.Sender}
}

// SignalHeaders are the column names of SignalRow
func SignalHeaders() []string {
	return []string{"Message name", "Signal name", "Start bit", "Bit length", "Endianness", "Unsigned",
		"Scale", "Offset", "Min", "Max", "Unit", "Receivers"}
}

// SignalRow flattens one signal, prefixed with its owning message name
func SignalRow(m *models.CANMessage, s *models.CANSignal) []string {
	return []string{
		m.Name,
		s.Name,
		strconv.Itoa(s.StartBit),
		strconv.Itoa(s.BitLength),
		s.ByteOrder.String(),
		strconv.FormatBool(s.Signedness == models.Unsigned),
		formatFloat(s.Scale),
		formatFloat(s.Offset),
		formatFloat(s.Min),
		formatFloat(s.Max),
		s.Unit,
		strings.Join(s.Receivers, " "),
	}
}

// EnumHeaders are the column names of EnumRows
func EnumHeaders() []string {
	return []string{"Message name", "Signal name", "Value", "Label"}
}

// EnumRows flattens every enumeration entry of a database
func EnumRows(db *models.CANDatabase) [][]string {
	var rows [][]string
	for i := range db.Messages {
		m := &db.Messages[i]
		for j := range m.Signals {
			s := &m.Signals[j]
			for _, e := range s.Enumeration {
				rows = append(rows, []string{m.Name, s.Name, strconv.FormatInt(e.Value, 10), e.Label})
			}
		}
	}
	return rows
}

// Dump writes a human readable listing of the database
func Dump(w io.Writer, db *models.CANDatabase) error {
	pw := &printer{w: w}

	pw.printf("%s\n", banner)
	pw.printf("CAN DBC %s\n", db.Name)
	pw.printf("%s\n", banner)

	for i := range db.Messages {
		m := &db.Messages[i]
		pw.printf("CAN Message: %s ID: %d MSG length: %d Sender: %s\n", m.Name, m.ID, m.Length, m.Sender)

		for j := range m.Signals {
			s := &m.Signals[j]
			pw.printf("-----> %s start_bit: %d bit length: %d endianness: %s, unsigned: %t, scale: %s, offset: %s, min: %s, max: %s, unit: %s, receivers: %s\n",
				s.Name, s.StartBit, s.BitLength, s.ByteOrder, s.Signedness == models.Unsigned,
				formatFloat(s.Scale), formatFloat(s.Offset), formatFloat(s.Min), formatFloat(s.Max),
				s.Unit, strings.Join(s.Receivers, " "))

			for _, e := range s.Enumeration {
				pw.printf("         %d = %s\n", e.Value, e.Label)
			}
		}
	}

	return pw.err
}

// WriteCSV writes <name>_messages.csv, <name>_signals.csv and
// <name>_enums.csv into dir and returns the written paths
func WriteCSV(dir string, db *models.CANDatabase) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := fileName(db.Name)

	var messages, signals [][]string
	for i := range db.Messages {
		m := &db.Messages[i]
		messages = append(messages, MessageRow(m))
		for j := range m.Signals {
			signals = append(signals, SignalRow(m, &m.Signals[j]))
		}
	}

	tables := []struct {
		suffix  string
		headers []string
		rows    [][]string
	}{
		{"messages", MessageHeaders(), messages},
		{"signals", SignalHeaders(), signals},
		{"enums", EnumHeaders(), EnumRows(db)},
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, base+"_"+t.suffix+".csv")
		if err := writeCSVFile(path, t.headers, t.rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSVFile(path string, headers []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// fileName makes a database name safe to use in a file name
func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// printer keeps the first write error
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
