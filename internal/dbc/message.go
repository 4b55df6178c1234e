package dbc

import (
	"can-dbc-catalog/internal/models"
	"errors"
	"regexp"
	"strconv"
)

// BO_ <id> <name>: <length> <sender>
var messageHeader = regexp.MustCompile(`^\s*BO_\s+(\d+)\s+(\w+)\s*:\s*(\d+)\s+(\w+)\s*$`)

// DecodeMessage decodes a message block into a CANMessage with its signals
// in source order. Any signal failure aborts the whole message.
func DecodeMessage(block MessageBlock) (models.CANMessage, error) {
	m := messageHeader.FindStringSubmatch(block.Header.Text)
	if m == nil {
		return models.CANMessage{}, &HeaderError{
			Line:   block.Header.Number,
			Raw:    block.Header.Text,
			Reason: "expected BO_ <id> <name>: <length> <sender>",
		}
	}

	id, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return models.CANMessage{}, &HeaderError{
			Line:   block.Header.Number,
			Raw:    block.Header.Text,
			Reason: "message id out of range",
		}
	}
	length, err := strconv.Atoi(m[3])
	if err != nil {
		return models.CANMessage{}, &HeaderError{
			Line:   block.Header.Number,
			Raw:    block.Header.Text,
			Reason: "message length out of range",
		}
	}

	msg := models.CANMessage{
		ID:      uint32(id),
		Name:    m[2],
		Length:  length,
		Sender:  m[4],
		Signals: make([]models.CANSignal, 0, len(block.Signals)),
	}

	names := make(map[string]bool, len(block.Signals))
	for _, line := range block.Signals {
		sig, err := DecodeSignal(statementBody(line.Text))
		if err == nil && names[sig.Name] {
			err = &SignalError{Signal: sig.Name, Reason: "duplicate signal name"}
		}
		if err != nil {
			var se *SignalError
			if errors.As(err, &se) {
				se.MessageID = msg.ID
				se.HasMessageID = true
				se.Line = line.Number
				se.Raw = line.Text
			}
			return models.CANMessage{}, err
		}
		names[sig.Name] = true
		msg.Signals = append(msg.Signals, sig)
	}

	return msg, nil
}
