package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// ErrTextNotString is returned for a truthy text value that is not a string.
var ErrTextNotString = errors.New("text must be a string")

// UnmarshalJSON reads text and type loosely. A falsy text (null, false, 0, "")
// leaves Text empty so the request is rejected as missing text. A type that is
// not a string leaves Type empty, which selects terms of service wording.
func (r *Request) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text json.RawMessage `json:"text"`
		Type json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	text, err := decodeText(raw.Text)
	if err != nil {
		return err
	}
	var docType string
	if err := json.Unmarshal(raw.Type, &docType); err != nil {
		docType = ""
	}

	r.Text = text
	r.Type = DocType(docType)
	return nil
}

func decodeText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isFalsy(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", ErrTextNotString
	}
	return s, nil
}

func isFalsy(raw json.RawMessage) bool {
	switch string(raw) {
	case "null", "false", `""`:
		return true
	}
	if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return f == 0
	}
	return false
}
