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
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lattice-labs/awssig/internal/scope"
)

func hasHeader(headers []Pair, name string) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

// addInitialHeaders adds x-amz-date and x-amz-content-sha256
// unconditionally; Accept and Content-Type are added only if the
// caller did not already supply them (case-insensitively), and
// Content-Type defers to an explicit BodyString MIME type when one
// is present.
func addInitialHeaders[T any](service Service, ts, payloadHash string, req Request[T]) Request[T] {
	add := []Pair{
		{Name: "x-amz-date", Value: ts},
		{Name: "x-amz-content-sha256", Value: payloadHash},
	}
	if !hasHeader(req.Headers, "accept") {
		add = append(add, Pair{Name: "Accept", Value: service.AcceptType()})
	}
	if !hasHeader(req.Headers, "content-type") {
		if req.Body.Kind == BodyString && req.Body.MIME != "" {
			add = append(add, Pair{Name: "Content-Type", Value: req.Body.MIME})
		} else {
			add = append(add, Pair{Name: "Content-Type", Value: service.ContentType()})
		}
	}
	req.Headers = append(append([]Pair{}, req.Headers...), add...)
	return req
}

func authorizationHeader(accessKeyID, credentialScope, signedHeaders, signature string) string {
	var b strings.Builder
	b.WriteString("AWS4-HMAC-SHA256 Credential=")
	b.WriteString(accessKeyID)
	b.WriteByte('/')
	b.WriteString(credentialScope)
	b.WriteString(", SignedHeaders=")
	b.WriteString(signedHeaders)
	b.WriteString(", Signature=")
	b.WriteString(signature)
	return b.String()
}

// wireURL renders the https URL a prepared request is actually
// sent to: the path is percent-encoded once (never the double
// encoding used only for the canonical/signing string) and the
// query string is rendered with AWS's reverse-of-insertion-order
// fold for duplicate keys (not the plain ascending order used for
// the canonical/signing string).
func wireURL(host, path string, query []Pair) string {
	return "https://" + host + canonicalURI(path, false) + renderedQueryString(toQueryPairs(query))
}

func newHTTPRequest(ctx context.Context, method, rawURL string, body []byte) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.ContentLength = int64(len(body))
	}
	return req, nil
}

func doRequest[T any](client *Client, host string, req *http.Request, decode Decoder[T], requestID uuid.UUID) (T, error) {
	var zero T
	req.Host = host

	res, err := client.Doer.Do(req)
	if err != nil {
		return zero, classifyTransportError(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return zero, classifyTransportError(err)
	}

	meta := Metadata{
		URL:        req.URL.String(),
		StatusCode: res.StatusCode,
		StatusText: res.Status,
		Headers:    map[string][]string(res.Header),
		RequestID:  requestID,
	}
	return decode(classify(res.StatusCode), meta, body)
}

func setHeaders(req *http.Request, headers []Pair) {
	for _, h := range headers {
		req.Header.Add(h.Name, h.Value)
	}
}

// Send signs req with AWS Signature Version 4 and issues it
// against service using client, returning a typed result or a
// TransportError. If service.Signer is SignS3, Send fails
// immediately with the unimplemented-S3-signer error and issues
// no network I/O.
func Send[T any](ctx context.Context, client *Client, service Service, creds Credentials, b *Builder[T]) (T, error) {
	var zero T
	req := applyProtocolHeaders(service, b.build())

	if service.Signer == SignS3 {
		return zero, errS3NotImplemented
	}

	payload, err := req.Body.payload()
	if err != nil {
		return zero, BadBody(err.Error())
	}
	payloadHash := sha256Hex(payload)

	now := signtime()
	ts := FormatTimestamp(now)
	short := shortDateOf(now)

	req = addInitialHeaders(service, ts, payloadHash, req)

	host := service.Host()
	region := service.Region()
	signingName := service.signingName()
	credentialScope := scope.Credential(short, region, signingName)

	// The canonical request is built before the session-token
	// header is attached: x-amz-security-token is never part of
	// the signed header set.
	canonicalReq, signedHeaders := canonicalRequest(req.Method, req.Path, req.Query, req.Headers, host, payloadHash, true)
	hashed := sha256Hex([]byte(canonicalReq))
	toSign := stringToSign(ts, credentialScope, hashed)

	derived := client.cache.Derive(creds.SecretAccessKey, creds.AccessKeyID, short, region, signingName)
	signature := scope.Sign(derived, toSign)

	wireHeaders := append([]Pair{}, req.Headers...)
	wireHeaders = append(wireHeaders, Pair{
		Name:  "Authorization",
		Value: authorizationHeader(creds.AccessKeyID, credentialScope, signedHeaders, signature),
	})
	if creds.SessionToken != "" {
		wireHeaders = append(wireHeaders, Pair{Name: "x-amz-security-token", Value: creds.SessionToken})
	}

	httpReq, err := newHTTPRequest(ctx, req.Method, wireURL(host, req.Path, req.Query), payload)
	if err != nil {
		return zero, BadURL(err.Error())
	}
	setHeaders(httpReq, wireHeaders)

	return doRequest(client, host, httpReq, req.Decode, req.RequestID)
}

// SendUnsigned issues req against service with the same pre-signing
// header augmentation as Send, but no canonicalization, no key
// derivation and no Authorization header. It does not consult
// service.Signer: choosing SendUnsigned over Send is the caller's
// decision.
func SendUnsigned[T any](ctx context.Context, client *Client, service Service, b *Builder[T]) (T, error) {
	var zero T
	req := applyProtocolHeaders(service, b.build())

	payload, err := req.Body.payload()
	if err != nil {
		return zero, BadBody(err.Error())
	}
	payloadHash := sha256Hex(payload)

	now := signtime()
	ts := FormatTimestamp(now)
	req = addInitialHeaders(service, ts, payloadHash, req)

	host := service.Host()
	httpReq, err := newHTTPRequest(ctx, req.Method, wireURL(host, req.Path, req.Query), payload)
	if err != nil {
		return zero, BadURL(err.Error())
	}
	setHeaders(httpReq, req.Headers)

	return doRequest(client, host, httpReq, req.Decode, req.RequestID)
}

// SignedURL produces a query-string-authenticated URL valid for
// validFor, without an Authorization header. Only the Host header
// is signed; the payload is always treated as UNSIGNED-PAYLOAD, as
// is conventional for presigned GETs.
func SignedURL(service Service, creds Credentials, method, path string, query []Pair, validFor time.Duration) (string, error) {
	now := signtime()
	short := shortDateOf(now)
	ts := FormatTimestamp(now)
	host := service.Host()
	region := service.Region()
	signingName := service.signingName()
	credentialScope := scope.Credential(short, region, signingName)

	q := append([]Pair{}, query...)
	q = append(q,
		Pair{Name: "X-Amz-Algorithm", Value: "AWS4-HMAC-SHA256"},
		Pair{Name: "X-Amz-Credential", Value: creds.AccessKeyID + "/" + credentialScope},
		Pair{Name: "X-Amz-Date", Value: ts},
		Pair{Name: "X-Amz-Expires", Value: strconv.FormatInt(int64(validFor/time.Second), 10)},
		Pair{Name: "X-Amz-SignedHeaders", Value: "host"},
	)
	if creds.SessionToken != "" {
		q = append(q, Pair{Name: "X-Amz-Security-Token", Value: creds.SessionToken})
	}

	canonicalQuery := canonicalQueryString(toQueryPairs(q))
	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte('\n')
	// Presigned URLs, unlike the Authorization-header flow, are
	// only ever single-encoded here -- matching AWS's documented
	// presigned-URL known-answer vectors.
	b.WriteString(canonicalURI(path, false))
	b.WriteByte('\n')
	b.WriteString(canonicalQuery)
	b.WriteByte('\n')
	b.WriteString("host:")
	b.WriteString(host)
	b.WriteString("\n\nhost\nUNSIGNED-PAYLOAD")

	hashed := sha256Hex([]byte(b.String()))
	toSign := stringToSign(ts, credentialScope, hashed)

	derived := scope.Derive(creds.SecretAccessKey, short, region, signingName)
	signature := scope.Sign(derived, toSign)

	signedQuery := canonicalQuery
	if signedQuery != "" {
		signedQuery += "&"
	}
	signedQuery += "X-Amz-Signature=" + signature

	return "https://" + host + canonicalURI(path, false) + "?" + signedQuery, nil
}
