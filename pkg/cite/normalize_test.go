package cite

import (
	"testing"
)

func TestNormalizeDOI(t *testing.T) {
	cases := []struct {
		name     string
		doi      string
		expected string
	}{
		{name: "plain", doi: "10.1037/0033-295X.84.2.191", expected: "10.1037/0033-295x.84.2.191"},
		{name: "doi_label", doi: "doi:10.1037/0033-295X.84.2.191", expected: "10.1037/0033-295x.84.2.191"},
		{name: "https_resolver", doi: "https://doi.org/10.1037/0033-295X.84.2.191", expected: "10.1037/0033-295x.84.2.191"},
		{name: "dx_resolver", doi: "http://dx.doi.org/10.2307/1914185", expected: "10.2307/1914185"},
		{name: "whitespace", doi: "  10.2307/1914185  ", expected: "10.2307/1914185"},
		{name: "empty", doi: "", expected: ""},
		{name: "whitespace_only", doi: "   ", expected: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeDOI(tc.doi); got != tc.expected {
				t.Errorf("NormalizeDOI(%q) = %q, expected %q", tc.doi, got, tc.expected)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		name     string
		url      string
		expected string
	}{
		{name: "lowercases", url: "https://Example.com/Path", expected: "https://example.com/path"},
		{name: "trailing_slash", url: "https://example.org/a/", expected: "https://example.org/a"},
		{name: "query_stripped", url: "https://example.org/a?utm=x&b=1", expected: "https://example.org/a"},
		{name: "query_and_slash", url: "https://example.org/a/?utm=x", expected: "https://example.org/a"},
		{name: "whitespace", url: "  https://example.org  ", expected: "https://example.org"},
		{name: "empty", url: "", expected: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeURL(tc.url); got != tc.expected {
				t.Errorf("NormalizeURL(%q) = %q, expected %q", tc.url, got, tc.expected)
			}
		})
	}
}

func TestURLsMatch(t *testing.T) {
	cases := []struct {
		name     string
		url1     string
		url2     string
		expected bool
	}{
		{name: "tracking_params", url1: "https://example.org/a?utm=x", url2: "https://example.org/a/", expected: true},
		{name: "case_difference", url1: "https://Example.com/", url2: "https://example.com", expected: true},
		{name: "different_paths", url1: "https://example.org/a", url2: "https://example.org/b", expected: false},
		{name: "first_empty", url1: "", url2: "https://example.org", expected: false},
		{name: "both_empty", url1: "", url2: "", expected: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := URLsMatch(tc.url1, tc.url2); got != tc.expected {
				t.Errorf("URLsMatch(%q, %q) = %v, expected %v", tc.url1, tc.url2, got, tc.expected)
			}
		})
	}
}
