// Package record fetches simulation records and normalizes their shape into an
// ordered step sequence.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/seatplay/internal/model"
)

// ErrMalformedRecord marks a record that could not be turned into steps.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedError carries the record name and the underlying cause.
type MalformedError struct {
	Name string
	Err  error
}

func (e *MalformedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Name, ErrMalformedRecord)
	}
	return fmt.Sprintf("%s: %v: %v", e.Name, ErrMalformedRecord, e.Err)
}

// Is matches ErrMalformedRecord.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedRecord
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

func malformed(name string, err error) error {
	return &MalformedError{Name: name, Err: err}
}

// Shape is the document layout a record was recognized as.
type Shape int

const (
	ShapeSequence Shape = iota
	ShapeWrapped
	ShapeKeyed
)

func (s Shape) String() string {
	switch s {
	case ShapeSequence:
		return "sequence"
	case ShapeWrapped:
		return "wrapped"
	default:
		return "keyed"
	}
}

var wrappedKeys = []string{"time_steps", "timeSteps"}

type member struct {
	key   string
	value json.RawMessage
}

// Normalize decodes raw into a Record. A top-level array is used as is; an
// object with a time_steps (or timeSteps) array uses that field; any other
// object contributes its values in document order. A leading element with a
// test name becomes the ConfigRecord and is not playable.
func Normalize(name string, raw []byte) (model.Record, error) {
	elems, _, err := elements(raw)
	if err != nil {
		return model.Record{}, malformed(name, err)
	}
	if len(elems) == 0 {
		return model.Record{}, malformed(name, errors.New("no elements"))
	}

	rec := model.Record{Name: name}
	start := 0
	if fields, ok := objectFields(elems[0]); ok {
		if cfg, ok := configFrom(fields); ok {
			rec.Config = &cfg
			start = 1
		}
	}
	for _, elem := range elems[start:] {
		fields, ok := objectFields(elem)
		if !ok {
			continue
		}
		rec.Steps = append(rec.Steps, stepFrom(fields))
	}
	if rec.Config == nil && len(rec.Steps) == 0 {
		return model.Record{}, malformed(name, errors.New("no step elements"))
	}
	return rec, nil
}

// DetectShape reports how raw would be interpreted by Normalize.
func DetectShape(raw []byte) (Shape, error) {
	_, shape, err := elements(raw)
	return shape, err
}

func elements(raw []byte) ([]json.RawMessage, Shape, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ShapeSequence, errors.New("empty document")
	}
	switch trimmed[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, ShapeSequence, fmt.Errorf("decode sequence: %w", err)
		}
		return elems, ShapeSequence, nil
	case '{':
		members, err := orderedMembers(trimmed)
		if err != nil {
			return nil, ShapeKeyed, err
		}
		for _, key := range wrappedKeys {
			for _, m := range members {
				if m.key != key {
					continue
				}
				var elems []json.RawMessage
				if err := json.Unmarshal(m.value, &elems); err == nil {
					return elems, ShapeWrapped, nil
				}
			}
		}
		elems := make([]json.RawMessage, 0, len(members))
		for _, m := range members {
			elems = append(elems, m.value)
		}
		return elems, ShapeKeyed, nil
	default:
		return nil, ShapeSequence, errors.New("document is not an array or object")
	}
}

func orderedMembers(raw []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("decode object: expected '{'")
	}
	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode object key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("decode object: non-string key")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode value %q: %w", key, err)
		}
		members = append(members, member{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode object end: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode object: trailing data")
	}
	return members, nil
}

func objectFields(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func lookup(fields map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, key := range keys {
		if v, ok := fields[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func configFrom(fields map[string]json.RawMessage) (model.ConfigRecord, bool) {
	nameRaw, ok := lookup(fields, "test_name", "testName")
	if !ok {
		return model.ConfigRecord{}, false
	}
	cfg := model.ConfigRecord{TestName: text(nameRaw)}
	if v, ok := lookup(fields, "test_scale", "testScale"); ok {
		cfg.TestScale = text(v)
	}
	if v, ok := lookup(fields, "seat_info", "seatInfo"); ok {
		cfg.SeatCount = collectionLen(v)
	}
	return cfg, true
}

func stepFrom(fields map[string]json.RawMessage) model.TimeStep {
	var step model.TimeStep
	if v, ok := lookup(fields, "time"); ok {
		step.Time = text(v)
	}
	if v, ok := lookup(fields, "seats_taken_state", "seatsTakenState"); ok {
		step.SeatState = stateMap(v)
	}
	if v, ok := lookup(fields, "taken_rate", "takenRate"); ok {
		step.TakenRate = text(v)
	}
	if v, ok := lookup(fields, "reversed_seats", "reserved_seats", "reservedSeats"); ok {
		step.ReservedSeats = integer(v)
	}
	return step
}

// text returns a string value verbatim and any other scalar as its JSON text.
func text(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return ""
	}
	return string(trimmed)
}

func integer(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return 0
}

func stateMap(raw json.RawMessage) map[string]string {
	var values map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	state := make(map[string]string, len(values))
	for key, v := range values {
		state[key] = text(v)
	}
	return state
}

func collectionLen(raw json.RawMessage) int {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		return len(obj)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return len(arr)
	}
	return 0
}
