package docstore

import (
	"encoding/json"
	"fmt"
)

// IDField is the key under which Decode exposes the document id to structs.
const IDField = "id"

// Encode converts a tagged struct into document data. Empty fields follow the
// struct's json tags; an "id" key is dropped since ids live outside the data.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	delete(data, IDField)
	return data, nil
}

// Decode fills v from d, exposing the document id as "id".
func Decode(d Document, v any) error {
	data := make(map[string]any, len(d.Data)+1)
	for k, val := range d.Data {
		data[k] = val
	}
	data[IDField] = d.ID
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("decode %s/%s: %w", d.Path, d.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", d.Path, d.ID, err)
	}
	return nil
}

// DecodeAll decodes every document into a T, preserving order.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := Decode(d, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
