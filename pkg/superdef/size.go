package superdef

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Size is a byte count that decodes from either a JSON number or a decimal
// string. Layout files written by the platform build tools use strings.
type Size uint64

// UnmarshalJSON implements json.Unmarshaler.
func (s *Size) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			*s = 0
			return nil
		}
	}

	v, err := parseSize(text)
	if err != nil {
		return err
	}
	*s = Size(v)
	return nil
}

func parseSize(text string) (uint64, error) {
	if v, err := strconv.ParseUint(text, 10, 64); err == nil {
		return v, nil
	}
	// Exponent forms such as 1.048576e+06 show up in hand-edited files.
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f >= 1<<64 {
		return 0, fmt.Errorf("invalid size %q", text)
	}
	return uint64(f), nil
}

// Label is a text field that also accepts a bare JSON number or boolean,
// keeping its literal text. Some layouts write nv_id unquoted.
type Label string

// UnmarshalJSON implements json.Unmarshaler.
func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty label")
	}
	switch data[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*l = Label(text)
		return nil
	case '{', '[':
		return fmt.Errorf("label must be a string or number, got %s", data)
	}
	if !json.Valid(data) {
		return fmt.Errorf("invalid label %s", data)
	}
	if !bytes.Equal(data, []byte("null")) {
		*l = Label(data)
	}
	return nil
}
