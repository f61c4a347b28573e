package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectItemLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"roadmap"},
			want: []string{"roadmap"},
		},
		{
			name: "direct item id first token",
			in:   []string{"roadmap", "12"},
			want: []string{"roadmap", "items", "show", "12"},
		},
		{
			name: "direct item id after value flag",
			in:   []string{"roadmap", "--server", "http://localhost:5000", "12"},
			want: []string{"roadmap", "--server", "http://localhost:5000", "items", "show", "12"},
		},
		{
			name: "direct item id after equals flag",
			in:   []string{"roadmap", "--server=http://localhost:5000", "12"},
			want: []string{"roadmap", "--server=http://localhost:5000", "items", "show", "12"},
		},
		{
			name: "direct item id after bool flag",
			in:   []string{"roadmap", "--pretty", "7"},
			want: []string{"roadmap", "--pretty", "items", "show", "7"},
		},
		{
			name: "direct item id after double dash",
			in:   []string{"roadmap", "--server", "http://localhost:5000", "--", "7"},
			want: []string{"roadmap", "--server", "http://localhost:5000", "--", "items", "show", "7"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"roadmap", "items", "show", "12"},
			want: []string{"roadmap", "items", "show", "12"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"roadmap", "wat"},
			want: []string{"roadmap", "wat"},
		},
		{
			name: "zero is not an item id",
			in:   []string{"roadmap", "0"},
			want: []string{"roadmap", "0"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectItemLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectItemLookupArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
