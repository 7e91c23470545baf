package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func docs() []Document {
	return []Document{
		{ID: "1", Data: map[string]any{"buyer": "Zara", "qty": float64(10), "bookingDate": "2025-01-03", "done": true}},
		{ID: "2", Data: map[string]any{"buyer": "H&M", "qty": float64(5), "bookingDate": "2025-02-10"}},
		{ID: "3", Data: map[string]any{"buyer": "Zara", "qty": float64(7), "bookingDate": "2024-12-30", "done": false}},
	}
}

func ids(ds []Document) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func TestApply_Filters(t *testing.T) {
	tests := []struct {
		name    string
		filters []Filter
		want    []string
	}{
		{"eq string", []Filter{Where("buyer", Eq, "Zara")}, []string{"1", "3"}},
		{"eq int against float", []Filter{Where("qty", Eq, 5)}, []string{"2"}},
		{"ne matches missing", []Filter{Where("done", Ne, true)}, []string{"2", "3"}},
		{"gt", []Filter{Where("qty", Gt, 6)}, []string{"1", "3"}},
		{"lte", []Filter{Where("qty", Lte, 7)}, []string{"2", "3"}},
		{"string range", []Filter{Where("bookingDate", Gte, "2025-01-01"), Where("bookingDate", Lt, "2025-02-01")}, []string{"1"}},
		{"in", []Filter{Where("buyer", In, []string{"H&M", "Gap"})}, []string{"2"}},
		{"lt ignores missing", []Filter{Where("missing", Lt, 1)}, []string{}},
		{"document id", []Filter{Where(DocumentID, Eq, "3")}, []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(docs(), Query{Filters: tt.filters})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApply_Order(t *testing.T) {
	got := Apply(docs(), Query{Order: []Order{Desc("bookingDate")}})
	assert.Equal(t, []string{"2", "1", "3"}, ids(got))

	got = Apply(docs(), Query{Order: []Order{Asc("buyer"), Desc("qty")}})
	assert.Equal(t, []string{"2", "1", "3"}, ids(got))

	// Missing fields sort first ascending.
	got = Apply(docs(), Query{Order: []Order{Asc("done")}})
	assert.Equal(t, []string{"2", "3", "1"}, ids(got))
}

func TestNormalize_DropsDeleteSentinel(t *testing.T) {
	out, err := normalize(map[string]any{"a": 1, "b": DeleteField})
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, out)
}
