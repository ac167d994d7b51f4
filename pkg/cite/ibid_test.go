package cite

import (
	"testing"
)

func TestIsIbid(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "bare_ibid", text: "ibid", expected: true},
		{name: "ibid_period", text: "ibid.", expected: true},
		{name: "capitalized", text: "Ibid.", expected: true},
		{name: "uppercase", text: "IBID", expected: true},
		{name: "ibidem", text: "ibidem", expected: true},
		{name: "bluebook_id", text: "Id.", expected: true},
		{name: "bluebook_id_lower", text: "id.", expected: true},
		{name: "ibid_comma_page", text: "ibid, 45", expected: true},
		{name: "ibid_period_comma_page", text: "ibid., 45", expected: true},
		{name: "ibid_page_range", text: "ibid. 123-125", expected: true},
		{name: "ibid_en_dash_range", text: "ibid., 123–125", expected: true},
		{name: "id_at_page", text: "Id. at 45", expected: true},
		{name: "id_at_page_lower", text: "id. at 789", expected: true},
		{name: "ibid_pp_range", text: "ibid., pp. 12-15", expected: true},
		{name: "leading_whitespace", text: "  ibid.  ", expected: true},
		{name: "empty", text: "", expected: false},
		{name: "full_citation", text: "Jones, Foo, 2001.", expected: false},
		{name: "ibidem_prose", text: "ibidem is a Latin word", expected: false},
		{name: "identity_word", text: "identity", expected: false},
		{name: "url", text: "https://example.org/a", expected: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsIbid(tc.text); got != tc.expected {
				t.Errorf("IsIbid(%q) = %v, expected %v", tc.text, got, tc.expected)
			}
		})
	}
}

func TestExtractPinpoint(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "comma_page", text: "ibid, 45", expected: "45"},
		{name: "period_comma_range", text: "ibid., 123-125", expected: "123-125"},
		{name: "id_at", text: "Id. at 789", expected: "789"},
		{name: "pp_range", text: "ibid., pp. 12-15", expected: "12-15"},
		{name: "en_dash", text: "ibid., 123–125", expected: "123–125"},
		{name: "no_pinpoint", text: "ibid.", expected: ""},
		{name: "bare", text: "ibid", expected: ""},
		{name: "not_ibid", text: "Jones, Foo, 2001.", expected: ""},
		{name: "empty", text: "", expected: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractPinpoint(tc.text); got != tc.expected {
				t.Errorf("ExtractPinpoint(%q) = %q, expected %q", tc.text, got, tc.expected)
			}
		})
	}
}

// FuzzIsIbid ensures the recognizer never panics and stays consistent with
// ExtractPinpoint: a pinpoint is only ever extracted from a matching token.
func FuzzIsIbid(f *testing.F) {
	seeds := []string{
		"ibid", "Ibid.", "ibidem", "Id. at 45", "ibid., pp. 12-15",
		"ibid., 123–125", "", "Jones, Foo, 2001.", "https://example.org",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, text string) {
		matched := IsIbid(text)
		pinpoint := ExtractPinpoint(text)
		if !matched && pinpoint != "" {
			t.Errorf("ExtractPinpoint(%q) = %q for non-ibid input", text, pinpoint)
		}
	})
}
