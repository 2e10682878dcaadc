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

// Command awssigcheck signs one ad hoc request from flags, either
// issuing it and printing the response body, or (with -presign)
// printing a presigned URL without sending anything.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/lattice-labs/awssig"
	"github.com/lattice-labs/awssig/ambient"
)

func main() {
	endpointPrefix := flag.String("service", "sts", "service endpoint prefix, e.g. sts, acm")
	apiVersion := flag.String("api-version", "2011-06-15", "service API version")
	method := flag.String("method", http.MethodGet, "HTTP method")
	path := flag.String("path", "/", "request path")
	region := flag.String("region", "", "region override; defaults to the ambient region")
	presign := flag.Bool("presign", false, "print a presigned URL instead of sending a signed request")
	validFor := flag.Duration("valid-for", 15*time.Minute, "validity window for -presign")
	flag.Parse()

	creds, ambientRegion, err := ambient.Creds()
	if err != nil {
		log.Fatalf("awssigcheck: loading credentials: %v", err)
	}
	if *region == "" {
		*region = ambientRegion
	}

	svc := awssig.DefineRegional(*endpointPrefix, *apiVersion, awssig.QUERY, awssig.SignV4, *region)

	if *presign {
		u, err := awssig.SignedURL(svc, creds, http.MethodGet, *path, nil, *validFor)
		if err != nil {
			log.Fatalf("awssigcheck: SignedURL: %v", err)
		}
		os.Stdout.WriteString(u + "\n")
		return
	}

	client := awssig.NewClient(nil)
	b := awssig.NewRequest[string]("AdHocRequest", *method, *path, awssig.EmptyBody(),
		awssig.StringBodyDecoder(func(body string) (string, error) { return body, nil }))

	out, err := awssig.Send(context.Background(), client, svc, creds, b)
	if err != nil {
		log.Fatalf("awssigcheck: Send: %v", err)
	}
	os.Stdout.WriteString(out + "\n")
}
