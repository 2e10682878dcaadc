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

import (
	"strings"

	"golang.org/x/exp/slices"
)

const upperhex = "0123456789ABCDEF"

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	}
	return false
}

// percentEncode implements the strict RFC 3986 "unreserved"
// percent-encoding rule SigV4 requires: A-Z a-z 0-9 - _ . ~ pass
// through unchanged, everything else (including '/', ':', '+'
// and space) becomes %HH with uppercase hex digits. This is
// stricter than net/url's form-encoding and must be applied to
// path segments individually, never to the '/' separators.
func percentEncode(s string) string {
	var needsEscape bool
	for i := 0; i < len(s); i++ {
		if !isUnreserved(s[i]) {
			needsEscape = true
			break
		}
	}
	if !needsEscape {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0xf])
	}
	return b.String()
}

// canonicalURI percent-encodes each '/'-delimited path segment
// individually and rejoins with '/'. An empty path normalizes
// to "/". When double is true each segment is percent-encoded a
// second time (re-escaping the '%' produced by the first pass),
// implementing the documented SigV4 quirk required for every
// signer except the (unimplemented) S3 variant -- the '/'
// delimiters themselves are never re-encoded by the second pass.
func canonicalURI(path string, double bool) string {
	if path == "" {
		return "/"
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		enc := percentEncode(seg)
		if double {
			enc = percentEncode(enc)
		}
		segments[i] = enc
	}
	return strings.Join(segments, "/")
}

// queryPair is one logical (possibly duplicated) query parameter.
type queryPair struct {
	Key   string
	Value string
}

// canonicalQueryString builds the CANONICAL (signing) form of a
// query string: keys and values are percent-encoded, then pairs
// are sorted ascending by encoded key and, for equal keys,
// ascending by encoded value; duplicates are preserved. No
// leading '?'.
func canonicalQueryString(pairs []queryPair) string {
	enc := encodePairs(pairs)
	slices.SortStableFunc(enc, func(a, b queryPair) bool {
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		return a.Value < b.Value
	})
	return joinPairs(enc)
}

// renderedQueryString builds the query string actually placed on
// the wire, including a documented AWS fold quirk: within an
// encoded key, the final emission order is the REVERSE of
// insertion order. This applies only to the rendered request URL,
// never to the canonical string used in signing -- see DESIGN.md's
// note on query-string duplicate ordering.
func renderedQueryString(pairs []queryPair) string {
	if len(pairs) == 0 {
		return ""
	}
	enc := encodePairs(pairs)

	// group by key preserving insertion order of first sighting,
	// then reverse each group's values before the final key sort.
	order := make([]string, 0, len(enc))
	groups := make(map[string][]string, len(enc))
	for _, p := range enc {
		if _, ok := groups[p.Key]; !ok {
			order = append(order, p.Key)
		}
		groups[p.Key] = append(groups[p.Key], p.Value)
	}
	flat := make([]queryPair, 0, len(enc))
	for _, k := range order {
		vals := groups[k]
		for i := len(vals) - 1; i >= 0; i-- {
			flat = append(flat, queryPair{Key: k, Value: vals[i]})
		}
	}
	slices.SortStableFunc(flat, func(a, b queryPair) bool { return a.Key < b.Key })
	return "?" + joinPairs(flat)
}

func encodePairs(pairs []queryPair) []queryPair {
	out := make([]queryPair, len(pairs))
	for i, p := range pairs {
		out[i] = queryPair{Key: percentEncode(p.Key), Value: percentEncode(p.Value)}
	}
	return out
}

func joinPairs(pairs []queryPair) string {
	var b strings.Builder
	for i, p := range pairs {
		if i != 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}
