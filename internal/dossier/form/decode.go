package form

import (
	"bytes"
	"encoding/json"
	"fmt"

	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
)

// Item is one element of a repeatable collection.
type Item struct {
	ID     id.ItemID
	Values Values
}

// Decode checks a section payload against the section schema and
// normalizes every key present in it. Keys absent from body are absent from
// the result. Errors carry CodeInvalidInput and nothing is persisted.
func (s Section) Decode(body []byte) (Values, error) {
	schema, err := s.schema()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "section schema unavailable")
	}
	if msg, err := checkShape(schema, body, s.labelFor); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid JSON payload")
	} else if msg != "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s: %s", s.Label(), msg))
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid JSON payload")
	}
	out := make(Values, len(raw))
	for _, f := range s.Fields {
		rv, present := raw[f.Key]
		if !present {
			continue
		}
		v, err := DecodeValue(f, rv)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s: %s", s.Label(), err.Error()))
		}
		out[f.Key] = v
	}
	return out, nil
}

// Encode renders the section's fields from v onto the wire.
func (s Section) Encode(v Values) map[string]string {
	out := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Key] = EncodeValue(f, v[f.Key])
	}
	return out
}

// DecodeSnapshot parses the client's current view of a collection. A
// missing or null snapshot is empty. Every item must carry a valid id;
// fields an item omits are written as empty.
func (c Collection) DecodeSnapshot(body []byte) ([]Item, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	schema, err := c.schema()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "collection schema unavailable")
	}
	if msg, err := checkShape(schema, body, c.labelFor); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid JSON payload")
	} else if msg != "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s: %s", c.Kind, msg))
	}

	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid JSON payload")
	}
	items := make([]Item, 0, len(raw))
	seen := make(map[id.ItemID]struct{}, len(raw))
	for i, r := range raw {
		rawID, _ := r["id"].(string)
		itemID, err := id.ParseItemID(rawID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s: item %d has an invalid id", c.Kind, i))
		}
		if _, dup := seen[itemID]; dup {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s: item %s appears twice", c.Kind, itemID))
		}
		seen[itemID] = struct{}{}

		values := c.Blank()
		for _, f := range c.Fields {
			rv, present := r[f.Key]
			if !present {
				continue
			}
			v, err := DecodeValue(f, rv)
			if err != nil {
				return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s: item %d: %s", c.Kind, i, err.Error()))
			}
			values[f.Key] = v
		}
		items = append(items, Item{ID: itemID, Values: values})
	}
	return items, nil
}

// EncodeItem renders an item as a flat JSON object with its id.
func (c Collection) EncodeItem(item Item) map[string]string {
	out := make(map[string]string, len(c.Fields)+1)
	out["id"] = item.ID.String()
	for _, f := range c.Fields {
		out[f.Key] = EncodeValue(f, item.Values[f.Key])
	}
	return out
}
