package models

import "fmt"

// ByteOrder is the bit layout convention of a signal
type ByteOrder int

const (
	LittleEndian ByteOrder = iota // Intel, flag digit 1
	BigEndian                     // Motorola, flag digit 0
)

func (b ByteOrder) String() string {
	switch b {
	case LittleEndian:
		return "little-endian"
	case BigEndian:
		return "big-endian"
	}
	return fmt.Sprintf("ByteOrder(%d)", int(b))
}

// MarshalText encodes the byte order by name
func (b ByteOrder) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Signedness tells whether a raw signal value is two's complement
type Signedness int

const (
	Unsigned Signedness = iota
	Signed
)

func (s Signedness) String() string {
	switch s {
	case Unsigned:
		return "unsigned"
	case Signed:
		return "signed"
	}
	return fmt.Sprintf("Signedness(%d)", int(s))
}

// MarshalText encodes the signedness by name
func (s Signedness) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EnumValue is one raw value to label entry of a value table
type EnumValue struct {
	Value int64  `json:"value"`
	Label string `json:"label"`
}

// CANSignal is one packed bit field inside a message payload.
// Physical value = raw*Scale + Offset. Min and Max are advisory.
type CANSignal struct {
	Name        string     `json:"name"`
	Multiplexer string     `json:"multiplexer,omitempty"` // "M" or "m<n>" when multiplexed
	StartBit    int        `json:"start_bit"`
	BitLength   int        `json:"bit_length"`
	ByteOrder   ByteOrder  `json:"byte_order"`
	Signedness  Signedness `json:"signedness"`
	Scale       float64    `json:"scale"`
	Offset      float64    `json:"offset"`
	Min         float64    `json:"min"`
	Max         float64    `json:"max"`
	Unit        string     `json:"unit"`
	Receivers   []string   `json:"receivers"`

	// Enumeration is nil (JSON null) when no value table exists for the
	// signal and empty (JSON []) for a table without pairs. Only the
	// assembler sets it.
	Enumeration []EnumValue `json:"enumeration"`
}

// HasEnumeration reports whether a value table was attached
func (s *CANSignal) HasEnumeration() bool {
	return s.Enumeration != nil
}

// Label returns the enumeration label for a raw value
func (s *CANSignal) Label(raw int64) (string, bool) {
	for _, e := range s.Enumeration {
		if e.Value == raw {
			return e.Label, true
		}
	}
	return "", false
}

// CANMessage is one frame definition (BO_) with its signals in source order
type CANMessage struct {
	ID      uint32      `json:"id"`
	Name    string      `json:"name"`
	Length  int         `json:"length"`
	Sender  string      `json:"sender"`
	Signals []CANSignal `json:"signals"`
}

// Signal looks up a signal by name
func (m *CANMessage) Signal(name string) (*CANSignal, bool) {
	for i := range m.Signals {
		if m.Signals[i].Name == name {
			return &m.Signals[i], true
		}
	}
	return nil, false
}

// CANDatabase is the parsed model of one DBC document
type CANDatabase struct {
	Name     string       `json:"name"`
	Messages []CANMessage `json:"messages"`
}

// Message looks up a message by arbitration id
func (d *CANDatabase) Message(id uint32) (*CANMessage, bool) {
	for i := range d.Messages {
		if d.Messages[i].ID == id {
			return &d.Messages[i], true
		}
	}
	return nil, false
}

// SignalCount returns the number of signals across all messages
func (d *CANDatabase) SignalCount() int {
	n := 0
	for _, m := range d.Messages {
		n += len(m.Signals)
	}
	return n
}

// Subset returns a shallow copy holding only the listed message ids.
// An empty list keeps every message.
func (d *CANDatabase) Subset(ids []uint32) *CANDatabase {
	if len(ids) == 0 {
		return d
	}

	keep := make(map[uint32]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	out := &CANDatabase{Name: d.Name, Messages: make([]CANMessage, 0, len(ids))}
	for _, m := range d.Messages {
		if keep[m.ID] {
			out.Messages = append(out.Messages, m)
		}
	}
	return out
}
