// Package message defines the Message envelope that flows between every
// connector, analyser, classifier, and exporter in a runbook. A Message
// pairs a Schema identity with a polymorphic content payload; callers that
// know the concrete schema decode Content into their own typed structs
// rather than message itself knowing every schema's shape.
package message

import (
	"encoding/json"
	"fmt"

	"github.com/waivern/wct/schema"
)

// Message is the unit of data artifacts exchange. Content is kept as
// json.RawMessage internally so Message can be stored and forwarded without
// understanding its schema; typed accessors live next to each schema's
// consumer.
type Message struct {
	Schema  *schema.Schema
	Content json.RawMessage
}

// New constructs a Message by marshalling v as its content.
func New(sch *schema.Schema, v any) (*Message, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal message content: %w", err)
	}
	return &Message{Schema: sch, Content: raw}, nil
}

// Decode unmarshals the message content into dest, which must be a pointer.
func (m *Message) Decode(dest any) error {
	if err := json.Unmarshal(m.Content, dest); err != nil {
		return fmt.Errorf("decode message content (schema %s): %w", m.Schema.Key(), err)
	}
	return nil
}

// Validate checks the message content against its schema document.
func (m *Message) Validate() error {
	var v any
	if err := json.Unmarshal(m.Content, &v); err != nil {
		return fmt.Errorf("message content is not valid JSON: %w", err)
	}
	return m.Schema.Validate(v)
}

// wireMessage is the JSON representation persisted to the artifact store:
// the schema identity alongside the raw content, so a stored artifact is
// self-describing without a side channel.
type wireMessage struct {
	SchemaName    string          `json:"schema_name"`
	SchemaVersion string          `json:"schema_version"`
	Content       json.RawMessage `json:"content"`
}

// MarshalJSON implements json.Marshaler, embedding schema identity alongside
// content so a persisted Message is self-describing.
func (m *Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{
		SchemaName:    m.Schema.Name,
		SchemaVersion: m.Schema.Version,
		Content:       m.Content,
	})
}

// UnmarshalInto decodes a wire-format Message (as produced by MarshalJSON)
// using resolver to reconstitute the Schema reference.
func UnmarshalInto(data []byte, resolver func(name, version string) *schema.Schema) (*Message, error) {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal wire message: %w", err)
	}
	return &Message{
		Schema:  resolver(wire.SchemaName, wire.SchemaVersion),
		Content: wire.Content,
	}, nil
}
