package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func sampleDatabase() *CANDatabase {
	return &CANDatabase{
		Name: "Sample",
		Messages: []CANMessage{
			{ID: 100, Name: "EngineStatus", Length: 8, Sender: "ECU", Signals: []CANSignal{
				{Name: "RPM", BitLength: 16, Enumeration: []EnumValue{{Value: 0, Label: "Idle"}}},
				{Name: "Temp", BitLength: 8, ByteOrder: BigEndian, Signedness: Signed},
			}},
			{ID: 200, Name: "Brake", Length: 2, Sender: "Gateway"},
		},
	}
}

func TestLookups(t *testing.T) {
	db := sampleDatabase()

	msg, ok := db.Message(100)
	if !ok || msg.Name != "EngineStatus" {
		t.Fatalf("Message(100) = (%v, %v), want EngineStatus", msg, ok)
	}
	if _, ok := db.Message(300); ok {
		t.Error("Message(300) ok = true, want false")
	}

	rpm, ok := msg.Signal("RPM")
	if !ok {
		t.Fatal("Signal(RPM) ok = false")
	}
	if label, ok := rpm.Label(0); !ok || label != "Idle" {
		t.Errorf("Label(0) = (%q, %v), want (Idle, true)", label, ok)
	}
	if _, ok := rpm.Label(7); ok {
		t.Error("Label(7) ok = true, want false")
	}

	temp, _ := msg.Signal("Temp")
	if temp.HasEnumeration() {
		t.Error("Temp.HasEnumeration() = true, want false")
	}
	if db.SignalCount() != 2 {
		t.Errorf("SignalCount() = %d, want 2", db.SignalCount())
	}
}

func TestSubset(t *testing.T) {
	db := sampleDatabase()

	if got := db.Subset(nil); got != db {
		t.Error("Subset(nil) did not return the database itself")
	}
	sub := db.Subset([]uint32{200, 999})
	if len(sub.Messages) != 1 || sub.Messages[0].Name != "Brake" {
		t.Errorf("Subset([200 999]) = %+v, want only Brake", sub.Messages)
	}
	if len(db.Messages) != 2 {
		t.Error("Subset() modified the original database")
	}
}

func TestJSONEnumNames(t *testing.T) {
	b, err := json.Marshal(sampleDatabase().Messages[0].Signals[1])
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	s := string(b)
	for _, want := range []string{`"byte_order":"big-endian"`, `"signedness":"signed"`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON %s missing %s", s, want)
		}
	}
}

func TestJSONEnumeration(t *testing.T) {
	tests := []struct {
		name string
		enum []EnumValue
		want string
	}{
		{"absent", nil, `"enumeration":null`},
		{"empty", []EnumValue{}, `"enumeration":[]`},
		{"values", []EnumValue{{Value: -1, Label: "SNA"}}, `"enumeration":[{"value":-1,"label":"SNA"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(CANSignal{Name: "S", Enumeration: tt.enum})
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if !strings.Contains(string(b), tt.want) {
				t.Errorf("JSON %s missing %s", b, tt.want)
			}
		})
	}
}
