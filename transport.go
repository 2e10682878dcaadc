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
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/lattice-labs/awssig/internal/scope"
)

// Doer is the pluggable HTTP transport collaborator: anything
// that can round-trip an *http.Request. *http.Client satisfies
// this.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client pairs a Doer with a derived-signing-key cache. It
// holds no credentials and no service descriptors, so a single
// Client may be shared across concurrently executing Send calls
// against any number of services. Constructing it explicitly --
// rather than reaching for a package-level singleton -- is what
// keeps the package itself free of process-global state.
type Client struct {
	Doer  Doer
	cache *scope.Cache
}

// NewClient returns a Client that round-trips requests with
// doer. If doer is nil, http.DefaultClient is used, so a Client
// constructed without a Doer carries no timeout by default.
func NewClient(doer Doer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{Doer: doer, cache: scope.NewCache()}
}

// classifyTransportError maps a lower-level transport failure
// from Doer.Do to the closed TransportError union, bypassing the
// decoder entirely. Request construction failures (a malformed
// URL) are classified separately, at the point
// http.NewRequestWithContext rejects them, since those never
// reach Doer.Do at all.
func classifyTransportError(err error) *TransportError {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout()
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return Timeout()
	}
	// context.Canceled, connection refused/reset, DNS failure,
	// TLS failure, ... all surface as a network error.
	return NetworkError(err.Error())
}
