package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Text is a string that also accepts a JSON number, so a contact
// sent as 0123 or "0123" both end up stored as text.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string {
	return strings.TrimSpace(string(t))
}
