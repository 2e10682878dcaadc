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
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

// BodyKind selects which of the three request body shapes is in
// play: empty, a raw string with a MIME type, or a JSON value.
type BodyKind int

const (
	BodyEmpty BodyKind = iota
	BodyString
	BodyJSON
)

// Body is the tagged {Empty, String(mime, text), Json(value)}
// variant a request carries as its payload.
type Body struct {
	Kind BodyKind
	MIME string // only meaningful for BodyString
	Text string // only meaningful for BodyString
	JSON any    // only meaningful for BodyJSON
}

// EmptyBody is the canonical zero-length request body.
func EmptyBody() Body { return Body{Kind: BodyEmpty} }

// StringBody is a request body with an explicit MIME type.
func StringBody(mime, text string) Body {
	return Body{Kind: BodyString, MIME: mime, Text: text}
}

// JSONBody is a request body serialized as compact JSON.
func JSONBody(value any) Body {
	return Body{Kind: BodyJSON, JSON: value}
}

// payload renders the body to bytes. For BodyJSON this is its
// compact (no added whitespace) serialization.
func (b Body) payload() ([]byte, error) {
	switch b.Kind {
	case BodyEmpty:
		return nil, nil
	case BodyString:
		return []byte(b.Text), nil
	case BodyJSON:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(b.JSON); err != nil {
			return nil, err
		}
		// json.Encoder.Encode appends a trailing newline; trim it
		// so the hashed/sent payload matches json.Marshal's output.
		return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
	default:
		return nil, nil
	}
}

var emptyBodyHash = sha256Hex(nil)

func sha256Hex(p []byte) string {
	h := sha256.Sum256(p)
	return hex.EncodeToString(h[:])
}

// Pair is one element of an ordered, duplicate-permitting
// sequence of (name, value) -- used for both headers and query
// parameters.
type Pair struct {
	Name  string
	Value string
}

// Request is an unsigned request: an operation name, method,
// path, body, headers, query parameters and a decoder, but no
// credentials and no timestamp. Path and query values are
// logical; Send owns all percent-encoding.
type Request[T any] struct {
	Name    string
	Method  string
	Path    string
	Body    Body
	Headers []Pair
	Query   []Pair
	Decode  Decoder[T]

	// RequestID correlates this request with the response
	// Metadata a decoder sees. Assigned once, when the Builder is
	// consumed.
	RequestID uuid.UUID
}

// Builder assembles a Request[T] with empty headers and query
// and the caller-supplied decoder. Once handed to Send or
// SendUnsigned it is considered consumed; reusing it panics.
type Builder[T any] struct {
	req      Request[T]
	consumed bool
}

// NewRequest starts building an unsigned request for the given
// operation.
func NewRequest[T any](name, method, path string, body Body, decode Decoder[T]) *Builder[T] {
	return &Builder[T]{req: Request[T]{
		Name:   name,
		Method: method,
		Path:   path,
		Body:   body,
		Decode: decode,
	}}
}

// AddHeaders appends to the request's header sequence,
// preserving order.
func (b *Builder[T]) AddHeaders(pairs ...Pair) *Builder[T] {
	b.req.Headers = append(b.req.Headers, pairs...)
	return b
}

// AddQuery appends to the request's query sequence, preserving
// order.
func (b *Builder[T]) AddQuery(pairs ...Pair) *Builder[T] {
	b.req.Query = append(b.req.Query, pairs...)
	return b
}

// build returns the assembled Request and marks the builder
// consumed. It panics if called twice on the same builder.
func (b *Builder[T]) build() Request[T] {
	if b.consumed {
		panic("awssig: Builder used after being sent")
	}
	b.consumed = true
	b.req.RequestID = uuid.New()
	return b.req
}

// applyProtocolHeaders applies the pre-signing transformation
// JSON-protocol services require: an x-amz-target header
// prepended ahead of any caller-supplied headers.
func applyProtocolHeaders[T any](service Service, req Request[T]) Request[T] {
	if service.Protocol != JSON {
		return req
	}
	target := Pair{Name: "x-amz-target", Value: service.TargetPrefix + "." + req.Name}
	req.Headers = append([]Pair{target}, req.Headers...)
	return req
}
