// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"go.yaml.in/yaml/v3"
)

// Timestamp is a time that decodes from the loose date strings the backend
// emits (with or without zone, date-only, etc.). Zone-less values are UTC.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s with dateparse in UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{Time: t.UTC()}, nil
}

// UnmarshalJSON decodes a string timestamp; null leaves the zero value.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	*t = parsed
	return nil
}

// MarshalJSON encodes as RFC 3339, or null for the zero value.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// UnmarshalYAML decodes a scalar timestamp.
func (t *Timestamp) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" || node.Value == "" {
		return nil
	}
	parsed, err := ParseTimestamp(node.Value)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", node.Value, err)
	}
	*t = parsed
	return nil
}

// MarshalYAML encodes as RFC 3339.
func (t Timestamp) MarshalYAML() (any, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Time.Format(time.RFC3339), nil
}

// Result is the outcome of classifying one content unit against one scheme.
// Value is opaque JSON until paired with its scheme.
type Result struct {
	ID           int             `json:"id" yaml:"id"`
	Value        json.RawMessage `json:"value" yaml:"-"`
	SchemeID     int             `json:"scheme_id" yaml:"scheme_id"`
	DocumentID   int             `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	DatarecordID int             `json:"datarecord_id,omitempty" yaml:"datarecord_id,omitempty"`
	JobID        int             `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	RunID        int             `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Timestamp    Timestamp       `json:"timestamp" yaml:"timestamp"`
}

// EntityID returns the classified content unit: the document, else the data record.
func (r Result) EntityID() int {
	if r.DocumentID != 0 {
		return r.DocumentID
	}
	return r.DatarecordID
}

// UnmarshalYAML decodes a result from a YAML fixture. The value node is
// converted to JSON with its mapping key order intact.
func (r *Result) UnmarshalYAML(node *yaml.Node) error {
	type plain Result
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = Result(p)

	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "value" {
			continue
		}
		var buf bytes.Buffer
		if err := writeNodeJSON(&buf, node.Content[i+1]); err != nil {
			return fmt.Errorf("result %d value: %w", r.ID, err)
		}
		r.Value = buf.Bytes()
	}
	return nil
}

// MarshalYAML emits the value as a decoded structure.
func (r Result) MarshalYAML() (any, error) {
	type plain Result
	out := struct {
		plain `yaml:",inline"`
		Value any `yaml:"value"`
	}{plain: plain(r)}
	if len(r.Value) > 0 {
		if err := json.Unmarshal(r.Value, &out.Value); err != nil {
			return nil, fmt.Errorf("result %d value: %w", r.ID, err)
		}
	}
	return out, nil
}

// writeNodeJSON serializes a YAML node as JSON, preserving mapping order.
func writeNodeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeNodeJSON(buf, n.Content[0])
	case yaml.AliasNode:
		return writeNodeJSON(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, _ := json.Marshal(n.Content[i].Value)
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeNodeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNodeJSON(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			buf.WriteString("null")
		case "!!bool", "!!int", "!!float":
			// Decoding resolves YAML spellings such as 0x1F, 0o17 and True,
			// and keeps integers beyond float64 precision exact.
			var v any
			if err := n.Decode(&v); err != nil {
				return err
			}
			out, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("scalar %q: %w", n.Value, err)
			}
			buf.Write(out)
		default:
			s, _ := json.Marshal(n.Value)
			buf.Write(s)
		}
	default:
		return fmt.Errorf("unsupported YAML node kind %d", n.Kind)
	}
	return nil
}

// Entity is a classified content unit (document or data record) as far as the
// time axis needs it.
type Entity struct {
	ID             int        `json:"id" yaml:"id"`
	Title          string     `json:"title,omitempty" yaml:"title,omitempty"`
	EventTimestamp *Timestamp `json:"event_timestamp,omitempty" yaml:"event_timestamp,omitempty"`
	CreatedAt      Timestamp  `json:"created_at" yaml:"created_at"`
}

// When returns the entity's event timestamp, else its creation timestamp.
func (e Entity) When() (time.Time, bool) {
	if e.EventTimestamp != nil && !e.EventTimestamp.IsZero() {
		return e.EventTimestamp.Time, true
	}
	if !e.CreatedAt.IsZero() {
		return e.CreatedAt.Time, true
	}
	return time.Time{}, false
}

// GroupByEntity partitions results by EntityID, preserving input order
// within each group.
func GroupByEntity(results []Result) map[int][]Result {
	out := make(map[int][]Result)
	for _, r := range results {
		id := r.EntityID()
		out[id] = append(out[id], r)
	}
	return out
}
