// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package awssig

import "testing"

func TestPercentEncode(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"abcXYZ019-_.~", "abcXYZ019-_.~"},
		{"a b", "a%20b"},
		{"a/b", "a%2Fb"},
		{"a:b+c", "a%3Ab%2Bc"},
		{"日", "%E6%97%A5"},
	}
	for _, c := range cases {
		if got := percentEncode(c.in); got != c.want {
			t.Errorf("percentEncode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonicalURI(t *testing.T) {
	cases := []struct {
		path   string
		double bool
		want   string
	}{
		{"", false, "/"},
		{"", true, "/"},
		{"/", false, "/"},
		{"/", true, "/"},
		{"/a/b", false, "/a/b"},
		{"/a b/c", false, "/a%20b/c"},
		// double-encoding re-escapes the '%' produced by the first pass,
		// but never the '/' delimiters -- the documented V4 quirk.
		{"/a b", true, "/a%2520b"},
	}
	for _, c := range cases {
		if got := canonicalURI(c.path, c.double); got != c.want {
			t.Errorf("canonicalURI(%q, %v) = %q, want %q", c.path, c.double, got, c.want)
		}
	}
}

// TestCanonicalQueryOrdering checks that duplicate keys sort
// ascending by value within a key: [(a,1),(b,2),(a,3)] must
// render a=1&a=3&b=2.
func TestCanonicalQueryOrdering(t *testing.T) {
	pairs := []queryPair{{"a", "1"}, {"b", "2"}, {"a", "3"}}
	got := canonicalQueryString(pairs)
	const want = "a=1&a=3&b=2"
	if got != want {
		t.Errorf("canonicalQueryString = %q, want %q", got, want)
	}
}

// TestRenderedQueryReversesDuplicates covers the documented fold quirk:
// the rendered (wire) query string emits same-key duplicates in the
// reverse of their insertion order, unlike the canonical signing form.
func TestRenderedQueryReversesDuplicates(t *testing.T) {
	pairs := []queryPair{{"a", "1"}, {"b", "2"}, {"a", "3"}}
	got := renderedQueryString(pairs)
	const want = "?a=3&a=1&b=2"
	if got != want {
		t.Errorf("renderedQueryString = %q, want %q", got, want)
	}
}

func TestRenderedQueryStringEmpty(t *testing.T) {
	if got := renderedQueryString(nil); got != "" {
		t.Errorf("renderedQueryString(nil) = %q, want empty", got)
	}
}
