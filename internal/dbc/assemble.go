package dbc

import (
	"can-dbc-catalog/internal/models"
	"slices"
)

// Assemble builds one database from decoded messages and attaches value
// tables to their signals by (message id, signal name). Signals without a
// table keep a nil enumeration. Two messages sharing an id abort assembly.
func Assemble(name string, messages []models.CANMessage, tables map[Key][]models.EnumValue) (*models.CANDatabase, error) {
	seen := make(map[uint32]string, len(messages))
	for _, msg := range messages {
		if first, ok := seen[msg.ID]; ok {
			return nil, &DuplicateMessageError{ID: msg.ID, First: first, Second: msg.Name}
		}
		seen[msg.ID] = msg.Name
	}

	db := &models.CANDatabase{
		Name:     name,
		Messages: make([]models.CANMessage, len(messages)),
	}
	for i, msg := range messages {
		msg.Signals = slices.Clone(msg.Signals)
		for j := range msg.Signals {
			sig := &msg.Signals[j]
			if entries, ok := tables[Key{MessageID: msg.ID, Signal: sig.Name}]; ok {
				sig.Enumeration = slices.Clone(entries)
			}
		}
		db.Messages[i] = msg
	}
	return db, nil
}
