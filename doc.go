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

// Package awssig is a lightweight implementation of the AWS
// request-signing algorithms needed to talk to an AWS-compatible
// HTTP API. It covers Signature Version 4 (and a no-op Unsigned
// variant) plus the per-service request shaping -- protocol
// dialect, host resolution, content negotiation, target
// prefixing -- that has to happen before a request can be signed.
//
// It does not include service-specific request/response types,
// JSON/XML codecs, credential acquisition, retries, or a CLI
// beyond the small example in cmd/awssigcheck.
package awssig
