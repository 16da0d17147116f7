package mediawiki

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Event is one recent-changes record from the wiki's UDP feed.
type Event struct {
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	User      string   `json:"user"`
	Comment   string   `json:"comment"`
	Minor     bool     `json:"minor"`
	Patrolled bool     `json:"patrolled"`
	Bot       bool     `json:"bot"`
	Revision  Revision `json:"revision"`

	LogType          string `json:"log_type"`
	LogAction        string `json:"log_action"`
	LogActionComment string `json:"log_action_comment"`
	LogParams        Params `json:"log_params"`

	raw []byte
	// loose is set when the record is valid JSON but does not fit the
	// fields above. Only the tags are known then.
	loose bool
}

type Revision struct {
	New int64 `json:"new"`
	Old int64 `json:"old"`
}

// Decode parses one datagram. The original bytes are kept for fallback dumps.
// Only syntactically broken JSON is an error; a record with unexpected field
// types still yields its type and log_type tags.
func Decode(raw []byte) (*Event, error) {
	var ev Event
	err := json.Unmarshal(raw, &ev)
	if err == nil {
		ev.raw = raw
		return &ev, nil
	}
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		return nil, fmt.Errorf("decode mediawiki event: %w", err)
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		// Not an object: there is no tag, which reads as null.
		fields = nil
	}
	return &Event{
		Type:    looseTag(fields["type"]),
		LogType: looseTag(fields["log_type"]),
		raw:     raw,
		loose:   true,
	}, nil
}

// looseTag reads a tag of any JSON type. Strings are unquoted, everything
// else keeps its JSON text, so 42 becomes "42" and null becomes "null".
func looseTag(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// Raw returns the datagram the event was decoded from.
func (e *Event) Raw() []byte { return e.raw }

// Params holds log_params. MediaWiki sends an empty JSON array instead of an
// object when there are none, and mixes numbers with numeric strings.
type Params map[string]json.RawMessage

func (p *Params) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*p = nil
		return nil
	}
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*p = m
	return nil
}

// Int64 reads a numeric parameter given as a number or a numeric string.
// Booleans count as 0 and 1.
func (p Params) Int64(key string) (int64, bool) {
	raw, ok := p[key]
	if !ok {
		return 0, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// String reads a parameter as text. Numbers are returned in their JSON form.
func (p Params) String(key string) string {
	raw, ok := p[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if t := string(bytes.TrimSpace(raw)); t != "null" {
		return t
	}
	return ""
}
