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

// Package awstest holds fixtures shared by awssig's own tests and by
// downstream service-client packages that want to exercise Send against
// a known-answer vector without hand-building a Service descriptor.
package awstest

import "time"

// Vector is one AWS SigV4 test-suite known-answer case: the inputs
// to the signing engine and the signature it must produce,
// byte-exact.
type Vector struct {
	Name            string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	SigningName     string
	Timestamp       time.Time
	Method          string
	Path            string
	Host            string
	Signature       string
}

// GetVanilla is the AWS SigV4 test-suite's "get-vanilla" example:
// a bare GET to "/" with Host and x-amz-date headers (both
// signed), empty body, signed
// against the fixed dummy service name "service" the test suite
// uses for this family of vectors.
var GetVanilla = Vector{
	Name:            "get-vanilla",
	AccessKeyID:     "AKIDEXAMPLE",
	SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
	Region:          "us-east-1",
	SigningName:     "service",
	Timestamp:       time.Date(2015, time.August, 30, 12, 36, 0, 0, time.UTC),
	Method:          "GET",
	Path:            "/",
	Host:            "example.amazonaws.com",
	Signature:       "5fa00fa31553b73ebf1942676e86291e8372ff2a2260956d9b8aae1d763fbf31",
}

// Vectors lists every known-answer vector this package exports.
var Vectors = []Vector{GetVanilla}
