package dbc

import (
	"can-dbc-catalog/internal/models"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// bit_length@order sign, e.g. "16@1+"
	layoutDescriptor = regexp.MustCompile(`^(\d+)@(\d)(\S)$`)

	// multiplexer switch "M" or multiplexed "m<n>" (extended: "m<n>M")
	multiplexIndicator = regexp.MustCompile(`^(M|m\d+M?)$`)
)

// DecodeSignal decodes the body of a SG_ statement:
//
//	name : start|length@order sign (scale,offset) [min|max] "unit" receiver,receiver
func DecodeSignal(body string) (models.CANSignal, error) {
	var sig models.CANSignal

	fail := func(reason string, args ...any) (models.CANSignal, error) {
		return models.CANSignal{}, &SignalError{
			Signal: sig.Name,
			Raw:    body,
			Reason: fmt.Sprintf(reason, args...),
		}
	}

	parts := strings.Split(body, ":")
	if len(parts) != 2 {
		return fail("expected one ':' between name and layout, found %d", len(parts)-1)
	}

	head := strings.Fields(parts[0])
	switch len(head) {
	case 0:
		return fail("missing signal name")
	case 1:
		sig.Name = head[0]
	case 2:
		sig.Name = head[0]
		if !multiplexIndicator.MatchString(head[1]) {
			return fail("invalid multiplexer indicator %q", head[1])
		}
		sig.Multiplexer = head[1]
	default:
		return fail("unexpected tokens before ':' %q", strings.TrimSpace(parts[0]))
	}

	fields, err := splitFields(strings.TrimSpace(parts[1]))
	if err != nil {
		return fail("%v", err)
	}
	if len(fields) < 5 {
		return fail("expected layout, (scale,offset), [min|max], unit and receivers, got %d fields", len(fields))
	}

	// start|length@order sign
	startLayout := strings.Split(fields[0], "|")
	if len(startLayout) != 2 {
		return fail("invalid bit layout %q", fields[0])
	}
	start, err := strconv.Atoi(startLayout[0])
	if err != nil || start < 0 {
		return fail("invalid start bit %q", startLayout[0])
	}
	sig.StartBit = start

	m := layoutDescriptor.FindStringSubmatch(startLayout[1])
	if m == nil {
		return fail("invalid layout descriptor %q", startLayout[1])
	}
	length, err := strconv.Atoi(m[1])
	if err != nil || length <= 0 {
		return fail("invalid bit length %q", m[1])
	}
	sig.BitLength = length

	switch m[2] {
	case "1":
		sig.ByteOrder = models.LittleEndian
	case "0":
		sig.ByteOrder = models.BigEndian
	default:
		return fail("invalid byte order flag %q", m[2])
	}

	switch m[3] {
	case "+":
		sig.Signedness = models.Unsigned
	case "-":
		sig.Signedness = models.Signed
	default:
		return fail("invalid sign character %q", m[3])
	}

	// (scale,offset)
	sig.Scale, sig.Offset, err = parseFloatPair(fields[1], "(", ")", ",")
	if err != nil {
		return fail("invalid (scale,offset) %q: %v", fields[1], err)
	}

	// [min|max]
	sig.Min, sig.Max, err = parseFloatPair(fields[2], "[", "]", "|")
	if err != nil {
		return fail("invalid [min|max] %q: %v", fields[2], err)
	}

	unit := fields[3]
	if len(unit) < 2 || !strings.HasPrefix(unit, `"`) || !strings.HasSuffix(unit, `"`) {
		return fail("unit %q is not quoted", unit)
	}
	sig.Unit = unit[1 : len(unit)-1]

	receivers := strings.Split(strings.Join(fields[4:], " "), ",")
	for i := range receivers {
		receivers[i] = strings.TrimSpace(receivers[i])
	}
	sig.Receivers = receivers

	return sig, nil
}

// parseFloatPair parses "<left>a<sep>b<right>" into two floats
func parseFloatPair(field, left, right, sep string) (float64, float64, error) {
	if !strings.HasPrefix(field, left) || !strings.HasSuffix(field, right) {
		return 0, 0, fmt.Errorf("expected %s...%s", left, right)
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(field, left), right)

	values := strings.Split(inner, sep)
	if len(values) != 2 {
		return 0, 0, fmt.Errorf("expected two values separated by %q", sep)
	}

	a, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(values[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// splitFields splits on whitespace, keeping double-quoted runs in one field
func splitFields(s string) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
		inField bool
	)

	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			inField = true
			current.WriteRune(r)
		case !quoted && (r == ' ' || r == '\t'):
			if inField {
				fields = append(fields, current.String())
				current.Reset()
				inField = false
			}
		default:
			inField = true
			current.WriteRune(r)
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote")
	}
	if inField {
		fields = append(fields, current.String())
	}
	return fields, nil
}
