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

import "encoding/json"

// Decoder maps a transport outcome to a typed result or a
// TransportError. Lower-level transport failures (bad URL,
// timeout, network error) never reach a Decoder; Send maps those
// directly to a TransportError.
type Decoder[T any] func(status StatusClass, meta Metadata, body []byte) (T, error)

// FullDecoder delegates entirely to fn; any error fn returns is
// wrapped as TransportError.BadBody.
func FullDecoder[T any](fn func(StatusClass, Metadata, []byte) (T, error)) Decoder[T] {
	return func(status StatusClass, meta Metadata, body []byte) (T, error) {
		v, err := fn(status, meta, body)
		if err != nil {
			var zero T
			return zero, BadBody(err.Error())
		}
		return v, nil
	}
}

// JSONFullDecoder lets fn pick a json.Unmarshal-compatible
// decode function based on the status and metadata (e.g. to
// decode error-shaped JSON on BadStatus and result-shaped JSON
// on GoodStatus). A JSON syntax or schema error is wrapped as
// TransportError.BadBody.
func JSONFullDecoder[T any](fn func(StatusClass, Metadata) func([]byte, any) error) Decoder[T] {
	return func(status StatusClass, meta Metadata, body []byte) (T, error) {
		var v T
		unmarshal := fn(status, meta)
		if unmarshal == nil {
			unmarshal = json.Unmarshal
		}
		if err := unmarshal(body, &v); err != nil {
			var zero T
			return zero, BadBody(err.Error())
		}
		return v, nil
	}
}

// StringBodyDecoder runs fn only on GoodStatus; a BadStatus
// response short-circuits to TransportError.BadStatus without
// ever calling fn.
func StringBodyDecoder[T any](fn func(string) (T, error)) Decoder[T] {
	return func(status StatusClass, meta Metadata, body []byte) (T, error) {
		var zero T
		if status == BadStatus {
			return zero, StatusError(meta.StatusCode)
		}
		v, err := fn(string(body))
		if err != nil {
			return zero, BadBody(err.Error())
		}
		return v, nil
	}
}

// JSONBodyDecoder parses the body as JSON into a T on
// GoodStatus; BadStatus short-circuits exactly like
// StringBodyDecoder, without attempting to parse the body.
func JSONBodyDecoder[T any]() Decoder[T] {
	return func(status StatusClass, meta Metadata, body []byte) (T, error) {
		var v T
		if status == BadStatus {
			return v, StatusError(meta.StatusCode)
		}
		if err := json.Unmarshal(body, &v); err != nil {
			var zero T
			return zero, BadBody(err.Error())
		}
		return v, nil
	}
}

// ConstantDecoder returns value on GoodStatus; BadStatus
// short-circuits like the other body decoders.
func ConstantDecoder[T any](value T) Decoder[T] {
	return func(status StatusClass, meta Metadata, body []byte) (T, error) {
		if status == BadStatus {
			var zero T
			return zero, StatusError(meta.StatusCode)
		}
		return value, nil
	}
}
