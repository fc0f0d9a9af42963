package event

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is a named occurrence with a JSON payload.
type Event struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// New creates an event with a fresh ID. A nil payload leaves Payload empty.
// A json.RawMessage or []byte payload is used as-is.
func New(name string, payload any) (Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Event{}, ErrEmptyName
	}

	var raw json.RawMessage
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return Event{}, errors.Join(ErrInvalidPayload, err)
		}
		raw = data
	}
	if raw != nil && !json.Valid(raw) {
		return Event{}, ErrInvalidPayload
	}

	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		Payload:    raw,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload of e into T. An empty payload yields the zero T.
func Decode[T any](e Event) (T, error) {
	var v T
	if len(e.Payload) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(e.Payload, &v); err != nil {
		return v, errors.Join(ErrInvalidPayload, err)
	}
	return v, nil
}
