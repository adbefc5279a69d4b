package sniff

import "testing"

func TestSniffExtensions(t *testing.T) {
	cases := []struct {
		path   string
		header string
		want   Format
	}{
		{"contacts.vcf", "BEGIN:VCARD\n", VCard},
		{"events.json", "[{\"a\":1}]", JSONArray},
		{"events.json", "  \n{\"a\":1}\n", NDJSON},
		{"data.csv", "name,email\n", CSV},
	}
	for _, c := range cases {
		got, err := Sniff(c.path, []byte(c.header))
		if err != nil {
			t.Fatalf("Sniff(%q): %v", c.path, err)
		}
		if got.Format != c.want {
			t.Errorf("Sniff(%q) = %v, want %v", c.path, got.Format, c.want)
		}
	}
}

func TestSniffDelimiterTieBreak(t *testing.T) {
	got, err := Sniff("data.csv", []byte("a,b;c,d;e\n1,2;3,4;5\n"))
	if err != nil {
		t.Fatal(err)
	}
	// comma and semicolon both appear twice; comma wins the tie.
	if got.Delimiter != ',' {
		t.Fatalf("expected comma to win tie, got %q", got.Delimiter)
	}
}

func TestSniffDelimiterPicksMax(t *testing.T) {
	got, err := Sniff("data.csv", []byte("a;b;c;d\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Delimiter != ';' {
		t.Fatalf("expected semicolon, got %q", got.Delimiter)
	}
}

func TestSniffDelimiterDefaultsToComma(t *testing.T) {
	got, err := Sniff("data.csv", []byte("abcdef\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Delimiter != ',' {
		t.Fatalf("expected default comma, got %q", got.Delimiter)
	}
}
