package dbc

import (
	"can-dbc-catalog/internal/models"
	"errors"
	"strings"
	"testing"
)

func TestAssemble_AttachesEnumerations(t *testing.T) {
	messages := []models.CANMessage{
		{ID: 100, Name: "EngineStatus", Signals: []models.CANSignal{{Name: "RPM"}, {Name: "Temp"}}},
		{ID: 200, Name: "Brake", Signals: []models.CANSignal{{Name: "RPM"}}},
	}
	tables := map[Key][]models.EnumValue{
		{MessageID: 100, Signal: "RPM"}:  {{Value: 0, Label: "Idle"}},
		{MessageID: 999, Signal: "Temp"}: {{Value: 1, Label: "Orphan"}},
	}

	db, err := Assemble("Sample", messages, tables)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if db.Name != "Sample" {
		t.Errorf("Name = %q, want %q", db.Name, "Sample")
	}

	rpm := db.Messages[0].Signals[0]
	if label, ok := rpm.Label(0); !ok || label != "Idle" {
		t.Errorf("EngineStatus.RPM Label(0) = (%q, %v), want (Idle, true)", label, ok)
	}
	if db.Messages[0].Signals[1].HasEnumeration() {
		t.Error("EngineStatus.Temp has an enumeration, want none")
	}
	if db.Messages[1].Signals[0].HasEnumeration() {
		t.Error("Brake.RPM has an enumeration, want none (keyed by message id)")
	}

	if messages[0].Signals[0].Enumeration != nil {
		t.Error("Assemble() mutated its input messages")
	}
}

func TestAssemble_DuplicateID(t *testing.T) {
	messages := []models.CANMessage{
		{ID: 100, Name: "EngineStatus"},
		{ID: 101, Name: "Other"},
		{ID: 100, Name: "EngineStatusCopy"},
	}

	db, err := Assemble("Sample", messages, nil)
	if db != nil {
		t.Errorf("Assemble() returned a database with a duplicate id")
	}
	if !errors.Is(err, ErrAssembly) {
		t.Fatalf("Assemble() error = %v, want ErrAssembly", err)
	}

	var de *DuplicateMessageError
	if !errors.As(err, &de) {
		t.Fatalf("error type = %T, want *DuplicateMessageError", err)
	}
	if de.ID != 100 || de.First != "EngineStatus" || de.Second != "EngineStatusCopy" {
		t.Errorf("DuplicateMessageError = %+v", de)
	}
	for _, name := range []string{"EngineStatus", "EngineStatusCopy"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Error() = %q, want it to name %s", err.Error(), name)
		}
	}
}

func TestAssemble_Empty(t *testing.T) {
	db, err := Assemble("Empty", nil, nil)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if db.Messages == nil || len(db.Messages) != 0 {
		t.Errorf("Messages = %v, want empty non-nil slice", db.Messages)
	}
}
