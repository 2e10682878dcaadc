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

import "time"

// faketime/fakenow let the package's own tests pin the signing
// clock so known-answer vectors reproduce byte-exact; nothing
// outside this package's test files may set them.
var (
	faketime bool
	fakenow  time.Time
)

func signtime() time.Time {
	if faketime {
		return fakenow
	}
	return time.Now()
}

const (
	longFormat  = "20060102T150405Z"
	shortFormat = "20060102"
)

// FormatTimestamp renders t in ISO 8601 basic format
// (YYYYMMDDTHHMMSSZ), the form AWS Signature Version 4 requires
// for the x-amz-date header and the string-to-sign.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(longFormat)
}

// shortDateOf returns the first eight characters of
// FormatTimestamp(t): the YYYYMMDD credential-scope date.
func shortDateOf(t time.Time) string {
	return t.UTC().Format(shortFormat)
}
