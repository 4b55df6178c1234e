package dbc

import (
	"can-dbc-catalog/internal/models"
	"errors"
	"slices"
	"testing"
)

func TestDecodeValueTable(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		key     Key
		entries []models.EnumValue
	}{
		{
			name:    "two entries",
			body:    `100 RPM 0 "Idle" 1 "Running" ;`,
			key:     Key{MessageID: 100, Signal: "RPM"},
			entries: []models.EnumValue{{Value: 0, Label: "Idle"}, {Value: 1, Label: "Running"}},
		},
		{
			name:    "labels with spaces and negative values",
			body:    `200 Gear -1 "Reverse gear" 0 "Neutral" 1 "First gear";`,
			key:     Key{MessageID: 200, Signal: "Gear"},
			entries: []models.EnumValue{{Value: -1, Label: "Reverse gear"}, {Value: 0, Label: "Neutral"}, {Value: 1, Label: "First gear"}},
		},
		{
			name:    "trailing garbage ignored",
			body:    `300 Mode 3 "On" 2 "Off" junk 7 ;`,
			key:     Key{MessageID: 300, Signal: "Mode"},
			entries: []models.EnumValue{{Value: 3, Label: "On"}, {Value: 2, Label: "Off"}},
		},
		{
			name:    "no entries",
			body:    `400 Unused;`,
			key:     Key{MessageID: 400, Signal: "Unused"},
			entries: []models.EnumValue{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vt, err := DecodeValueTable(tt.body)
			if err != nil {
				t.Fatalf("DecodeValueTable() error = %v", err)
			}
			if vt.Key != tt.key {
				t.Errorf("Key = %+v, want %+v", vt.Key, tt.key)
			}
			if !slices.Equal(vt.Entries, tt.entries) {
				t.Errorf("Entries = %v, want %v", vt.Entries, tt.entries)
			}
		})
	}
}

func TestDecodeValueTable_Errors(t *testing.T) {
	for _, body := range []string{"", "100", "abc RPM 0 \"Idle\"", "-5 RPM 0 \"Idle\""} {
		_, err := DecodeValueTable(body)
		if !errors.Is(err, ErrMalformedValueTable) {
			t.Errorf("DecodeValueTable(%q) error = %v, want ErrMalformedValueTable", body, err)
		}
	}
}

func TestDecodeValueTables_LastWins(t *testing.T) {
	text := `VAL_ 100 RPM 0 "Idle" 1 "Running" ;
VAL_ 100 Temp 0 "Cold" ;
VAL_ x RPM 0 "Broken" ;
VAL_ 100 RPM 5 "Overspeed" ;
`
	tables, failures := DecodeValueTables(ValueTableLines(text))

	if len(failures) != 1 {
		t.Fatalf("len(failures) = %d, want 1", len(failures))
	}
	var ve *ValueTableError
	if !errors.As(failures[0], &ve) || ve.Line != 3 {
		t.Errorf("failure = %v, want *ValueTableError on line 3", failures[0])
	}

	got := tables[Key{MessageID: 100, Signal: "RPM"}]
	want := []models.EnumValue{{Value: 5, Label: "Overspeed"}}
	if !slices.Equal(got, want) {
		t.Errorf("RPM entries = %v, want %v", got, want)
	}
	if len(tables) != 2 {
		t.Errorf("len(tables) = %d, want 2", len(tables))
	}
}
