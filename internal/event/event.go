package event

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/dshills/topicview/internal/ident"
)

// Kind is the discriminant string identifying the category of a pushed message.
type Kind string

// Event is an immutable message received from the push channel.
type Event struct {
	// Kind identifies the event category (e.g., "event:post_edited").
	Kind Kind

	// Payload contains the event-specific data.
	Payload Payload

	// Metadata contains standard event information.
	Metadata Metadata
}

// Metadata contains standard information attached to every event.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was received.
	Timestamp time.Time

	// Source identifies where the event came from (e.g., "socket").
	Source string
}

// NewEvent creates a new event with the given kind and payload.
func NewEvent(kind Kind, payload Payload, source string) Event {
	return Event{
		Kind:    kind,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// Parse creates an event from a raw JSON payload.
func Parse(kind Kind, raw []byte, source string) (Event, error) {
	if kind == "" {
		return Event{}, ErrInvalidKind
	}
	p, err := NewPayload(raw)
	if err != nil {
		return Event{}, err
	}
	return NewEvent(kind, p, source), nil
}

// RequireID reads an identifier from the payload, normalizing string ids.
// A missing or non-numeric field yields a *PayloadError.
func (e Event) RequireID(path string) (int64, error) {
	if id, ok := e.Payload.ID(path); ok {
		return id, nil
	}
	return 0, e.malformed(path, "missing or non-numeric id")
}

// RequireInt reads a required numeric field such as a counter. Numeric
// strings are accepted the way ids are.
func (e Event) RequireInt(path string) (int64, error) {
	if n, ok := ResultID(e.Payload.Get(path)); ok {
		return n, nil
	}
	return 0, e.malformed(path, "missing or non-numeric value")
}

// RequireString reads a non-empty string field from the payload.
func (e Event) RequireString(path string) (string, error) {
	r := e.Payload.Get(path)
	if !r.Exists() || r.String() == "" {
		return "", e.malformed(path, "missing string")
	}
	return r.String(), nil
}

func (e Event) malformed(field, reason string) error {
	return &PayloadError{Kind: string(e.Kind), Field: field, Reason: reason}
}

// Payload is the JSON body of an event. The zero value is an empty object.
type Payload struct {
	raw []byte
}

// NewPayload wraps raw JSON. Empty input is treated as an empty object.
func NewPayload(raw []byte) (Payload, error) {
	if len(raw) == 0 {
		return Payload{}, nil
	}
	if !gjson.ValidBytes(raw) {
		return Payload{}, fmt.Errorf("%w: payload is not valid JSON", ErrInvalidEvent)
	}
	return Payload{raw: raw}, nil
}

// PayloadOf marshals v into a payload.
func PayloadOf(v any) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Payload{}, fmt.Errorf("marshal payload: %w", err)
	}
	return Payload{raw: raw}, nil
}

// MustPayload is like NewPayload but panics on invalid JSON.
// It is intended for literals in tests and fixtures.
func MustPayload(s string) Payload {
	p, err := NewPayload([]byte(s))
	if err != nil {
		panic(err)
	}
	return p
}

// Raw returns the JSON bytes of the payload.
func (p Payload) Raw() []byte {
	if len(p.raw) == 0 {
		return []byte("{}")
	}
	return p.raw
}

// Items returns the elements of the array at path as payloads. A missing
// or non-array value yields nil.
func (p Payload) Items(path string) []Payload {
	r := p.Get(path)
	if !r.IsArray() {
		return nil
	}
	arr := r.Array()
	out := make([]Payload, len(arr))
	for i, item := range arr {
		out[i] = Payload{raw: []byte(item.Raw)}
	}
	return out
}

// Get returns the value at a gjson path.
func (p Payload) Get(path string) gjson.Result {
	return gjson.GetBytes(p.Raw(), path)
}

// Has reports whether the path exists and is not null.
func (p Payload) Has(path string) bool {
	r := p.Get(path)
	return r.Exists() && r.Type != gjson.Null
}

// ID reads a numeric identifier. String values are normalized.
func (p Payload) ID(path string) (int64, bool) {
	return ResultID(p.Get(path))
}

// ResultID reads an identifier from an already selected value.
func ResultID(r gjson.Result) (int64, bool) {
	switch r.Type {
	case gjson.Number:
		if r.Num >= math.MaxInt64 || r.Num < math.MinInt64 {
			return 0, false
		}
		return r.Int(), true
	case gjson.String:
		return ident.Parse(r.Str)
	default:
		return 0, false
	}
}

// String reads a field as a string. Missing fields yield "".
func (p Payload) String(path string) string {
	return p.Get(path).String()
}

// Bool reads a field with JSON truthiness: true, non-zero numbers and
// "true" strings are true.
func (p Payload) Bool(path string) bool {
	return p.Get(path).Bool()
}

// Int reads a numeric field. Missing fields yield 0.
func (p Payload) Int(path string) int64 {
	return p.Get(path).Int()
}

// Value decodes the payload into plain Go values (maps, slices, strings,
// float64, bool).
func (p Payload) Value() any {
	return gjson.ParseBytes(p.Raw()).Value()
}

// JSON returns the payload as JSON text.
func (p Payload) JSON() string {
	return string(p.Raw())
}
