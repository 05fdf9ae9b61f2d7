package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// CanvasObject is one drawable shape or stroke. The server keys it by id and
// otherwise treats the body as an opaque JSON value.
type CanvasObject struct {
	// ID is the id in canonical JSON form, so 1 and "1" are different keys.
	ID   string
	Body json.RawMessage
}

// NewCanvasObject keeps the raw body and extracts its id. Objects whose id is
// missing or not a scalar share the empty id.
func NewCanvasObject(raw json.RawMessage) CanvasObject {
	return CanvasObject{
		ID:   objectID(raw),
		Body: cloneRaw(raw),
	}
}

func (o CanvasObject) MarshalJSON() ([]byte, error) {
	if len(o.Body) == 0 {
		return []byte("null"), nil
	}
	return o.Body, nil
}

func (o *CanvasObject) UnmarshalJSON(data []byte) error {
	*o = NewCanvasObject(data)
	return nil
}

func objectID(raw json.RawMessage) string {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return ParseObjectID(probe.ID)
}

// ParseObjectID renders a JSON scalar id in canonical JSON form: strings
// stay quoted, numbers are normalized. Anything else maps to the empty id.
func ParseObjectID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var id any
	if err := json.Unmarshal(raw, &id); err != nil {
		return ""
	}

	switch v := id.(type) {
	case string:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// ObjectIDJSON turns a key produced by ParseObjectID back into the JSON
// value clients sent.
func ObjectIDJSON(id string) json.RawMessage {
	if id == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(id)
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
