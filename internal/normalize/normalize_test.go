package normalize_test

import (
	"testing"

	"emaildomains/internal/normalize"
)

func TestLines(t *testing.T) {
	cases := []struct {
		name    string
		in      []string
		want    []string
		invalid int
	}{
		{
			name: "trims and lowercases",
			in:   []string{"  Temp.COM  ", "x.com"},
			want: []string{"temp.com", "x.com"},
		},
		{
			name: "skips empty lines and comments",
			in:   []string{"", "   ", "# header", "temp.com", "#trailing"},
			want: []string{"temp.com"},
		},
		{
			name:    "rejects tokens without a dot",
			in:      []string{"localhost", "temp.com"},
			want:    []string{"temp.com"},
			invalid: 1,
		},
		{
			name:    "rejects scheme prefixes",
			in:      []string{"https://temp.com", "temp.com"},
			want:    []string{"temp.com"},
			invalid: 1,
		},
		{
			name:    "rejects internal whitespace",
			in:      []string{"temp .com", "a\tb.com"},
			want:    []string{},
			invalid: 2,
		},
		{
			name:    "rejects dot fragments",
			in:      []string{".com", "temp.", "temp.com"},
			want:    []string{"temp.com"},
			invalid: 2,
		},
		{
			name: "dedupes case-insensitively",
			in:   []string{"Temp.com", "temp.COM", "temp.com"},
			want: []string{"temp.com"},
		},
		{
			name: "handles windows line endings",
			in:   []string{"temp.com\r", "x.com\r"},
			want: []string{"temp.com", "x.com"},
		},
		{
			name: "keeps punycode and deep subdomains",
			in:   []string{"xn--c1yn36f.com", "a.b.c.example.co.uk"},
			want: []string{"xn--c1yn36f.com", "a.b.c.example.co.uk"},
		},
	}

	for _, tc := range cases {
		set, invalid := normalize.Lines(tc.in)
		if invalid != tc.invalid {
			t.Errorf("%s: invalid count got %d, want %d", tc.name, invalid, tc.invalid)
		}
		if len(set) != len(tc.want) {
			t.Errorf("%s: got %d domains, want %d (%v)", tc.name, len(set), len(tc.want), set)
			continue
		}
		for _, d := range tc.want {
			if !set.Has(d) {
				t.Errorf("%s: missing %q in %v", tc.name, d, set)
			}
		}
	}
}
