package tradebook

import (
	"encoding/json"
	"testing"
)

func TestJsonObjectWriter(t *testing.T) {
	testCases := []struct {
		name  string
		build func(w *jsonObjectWriter)
		want  string
	}{
		{
			name:  "empty object",
			build: func(w *jsonObjectWriter) {},
			want:  `{}`,
		},
		{
			name: "field order is kept",
			build: func(w *jsonObjectWriter) {
				w.Append("b", 1).Append("a", "hello")
			},
			want: `{"b":1,"a":"hello"}`,
		},
		{
			name: "optional fields",
			build: func(w *jsonObjectWriter) {
				w.Append("a", 0).Optional("b", "").Optional("c", false).Optional("d", "x")
			},
			want: `{"a":0,"d":"x"}`,
		},
		{
			name: "embed",
			build: func(w *jsonObjectWriter) {
				w.Append("a", 1).Embed(json.RawMessage(` {"c":3,"d":4} `)).Append("b", 2)
			},
			want: `{"a":1,"c":3,"d":4,"b":2}`,
		},
		{
			name: "embed empty object",
			build: func(w *jsonObjectWriter) {
				w.Append("a", 1).Embed(json.RawMessage(`{}`))
			},
			want: `{"a":1}`,
		},
		{
			name: "prefix",
			build: func(w *jsonObjectWriter) {
				w.PrefixFrom("exit2", lotJSON{Qty: Q(10), Price: NO(12.5), Date: day(3, 1)})
			},
			want: `{"exit2Qty":10,"exit2Price":12.5,"exit2Date":"2024-03-01"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var w jsonObjectWriter
			tc.build(&w)
			got, err := w.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("MarshalJSON() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestJsonObjectWriter_Error(t *testing.T) {
	var w jsonObjectWriter
	w.Append("f", func() {}).Append("a", 1)
	if _, err := w.MarshalJSON(); err == nil {
		t.Errorf("MarshalJSON() succeeded with an unsupported value")
	}
}
