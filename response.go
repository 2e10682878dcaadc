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

import "github.com/google/uuid"

// StatusClass is the two-valued projection of a transport
// outcome the decoder contract consults.
type StatusClass int

const (
	GoodStatus StatusClass = iota
	BadStatus
)

func classify(statusCode int) StatusClass {
	if statusCode >= 200 && statusCode < 300 {
		return GoodStatus
	}
	return BadStatus
}

// Metadata carries everything about a response a decoder might
// need besides the body bytes themselves.
type Metadata struct {
	URL        string
	StatusCode int
	StatusText string
	Headers    map[string][]string

	// RequestID correlates this response with the Builder that
	// produced the request. It is never signed and never sent on
	// the wire.
	RequestID uuid.UUID
}
