package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Text is a display field the API sends either as a string or as a bare
// number ("164" or 164 for a duration, "8.1" or 8.1 for a rating).  Numbers
// keep their JSON spelling and null decodes to the empty string.  It always
// encodes as a JSON string.
type Text string

// String returns the field as plain text.
func (t Text) String() string { return string(t) }

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case bytes.Equal(b, []byte("true")) || bytes.Equal(b, []byte("false")):
		*t = Text(b)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("text field: expected string or number, got %s", b)
		}
		*t = Text(n.String())
	}
	return nil
}
