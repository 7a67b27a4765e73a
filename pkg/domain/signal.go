package domain

import (
	"bytes"
	"encoding/json"
)

// Signal is the latched level of a component. The zero value is Unset, the
// state of a component that was never evaluated.
type Signal int8

const (
	Unset Signal = iota
	Low
	High
)

// Level converts a boolean to a Signal.
func Level(b bool) Signal {
	if b {
		return High
	}
	return Low
}

// Bool reports whether s is High. Unset reads as false.
func (s Signal) Bool() bool { return s == High }

// IsSet reports whether s holds a level.
func (s Signal) IsSet() bool { return s != Unset }

func (s Signal) String() string {
	switch s {
	case Low:
		return "0"
	case High:
		return "1"
	}
	return "-"
}

// MarshalJSON encodes Unset as null and levels as booleans.
func (s Signal) MarshalJSON() ([]byte, error) {
	switch s {
	case Low:
		return []byte("false"), nil
	case High:
		return []byte("true"), nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts null, booleans and arrays of booleans. Arrays are
// produced by some older documents for multi-output components; their first
// element is the latched level.
func (s *Signal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = Unset
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var levels []bool
		if err := json.Unmarshal(data, &levels); err != nil {
			return err
		}
		*s = Unset
		if len(levels) > 0 {
			*s = Level(levels[0])
		}
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*s = Level(b)
	return nil
}
