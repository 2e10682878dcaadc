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

// canonicalHeader is one lowercased, whitespace-collapsed
// header that survives the content-type/accept exclusion applied
// before signing.
type canonicalHeader struct {
	Name  string // already lowercased
	Value string // already trimmed and collapsed
}

func collapseWhitespace(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastWasSpace {
				b.WriteByte(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// isExcludedFromSigning reports whether a (lowercased) header
// name is filtered out of the signed set: content-type and
// accept are dropped because transports (including browser APIs)
// frequently rewrite them, and signing them would then fail
// server-side verification.
func isExcludedFromSigning(lower string) bool {
	return lower == "content-type" || lower == "accept"
}

// buildCanonicalHeaders folds host plus the request's own
// headers (excluding content-type/accept) into the sorted,
// deduplicated-by-name canonical header block, along with the
// ';'-joined SignedHeaders list. The first header of each name
// wins, so the synthetic host is kept ahead of a caller's Host.
func buildCanonicalHeaders(host string, headers []Pair) (block string, signedHeaders string) {
	all := make([]canonicalHeader, 0, len(headers)+1)
	all = append(all, canonicalHeader{Name: "host", Value: strings.TrimSpace(host)})
	for _, h := range headers {
		lower := strings.ToLower(h.Name)
		if isExcludedFromSigning(lower) {
			continue
		}
		all = append(all, canonicalHeader{Name: lower, Value: collapseWhitespace(h.Value)})
	}
	slices.SortStableFunc(all, func(a, b canonicalHeader) bool { return a.Name < b.Name })

	var blk strings.Builder
	names := make([]string, 0, len(all))
	for i, h := range all {
		if i > 0 && h.Name == all[i-1].Name {
			continue
		}
		blk.WriteString(h.Name)
		blk.WriteByte(':')
		blk.WriteString(h.Value)
		blk.WriteByte('\n')
		names = append(names, h.Name)
	}
	return blk.String(), strings.Join(names, ";")
}

// canonicalRequest assembles the six-line canonical request.
// doubleEncodePath implements the V4-vs-S3 path encoding quirk:
// every signer except the (unimplemented) S3 signer encodes the
// path twice.
func canonicalRequest(method, path string, query []Pair, headers []Pair, host string, payloadHash string, doubleEncodePath bool) (canonical string, signedHeaders string) {
	headerBlock, signed := buildCanonicalHeaders(host, headers)

	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte('\n')
	b.WriteString(canonicalURI(path, doubleEncodePath))
	b.WriteByte('\n')
	b.WriteString(canonicalQueryString(toQueryPairs(query)))
	b.WriteByte('\n')
	b.WriteString(headerBlock)
	b.WriteByte('\n')
	b.WriteString(signed)
	b.WriteByte('\n')
	b.WriteString(payloadHash)
	return b.String(), signed
}

func toQueryPairs(p []Pair) []queryPair {
	out := make([]queryPair, len(p))
	for i, q := range p {
		out[i] = queryPair{Key: q.Name, Value: q.Value}
	}
	return out
}

// stringToSign builds the four-line AWS4-HMAC-SHA256 string to sign.
func stringToSign(timestamp, credentialScope, canonicalRequestHash string) string {
	var b strings.Builder
	b.WriteString("AWS4-HMAC-SHA256\n")
	b.WriteString(timestamp)
	b.WriteByte('\n')
	b.WriteString(credentialScope)
	b.WriteByte('\n')
	b.WriteString(canonicalRequestHash)
	return b.String()
}
