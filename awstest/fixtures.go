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

package awstest

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/lattice-labs/awssig"
)

// descriptorYAML is the YAML-serializable projection of a Service:
// awssig.Service itself carries resolver closures that cannot round
// trip through YAML, so fixtures are described this way and turned
// into a live Service by ToService.
type descriptorYAML struct {
	EndpointPrefix string `json:"endpointPrefix"`
	APIVersion     string `json:"apiVersion"`
	Protocol       string `json:"protocol"`
	Signer         string `json:"signer"`
	JSONVersion    string `json:"jsonVersion,omitempty"`
	SigningName    string `json:"signingName,omitempty"`
	Endpoint       string `json:"endpoint"` // "global" or a region name
	DigitalOcean   bool   `json:"digitalOcean,omitempty"`
}

var protocols = map[string]awssig.Protocol{
	"ec2":       awssig.EC2,
	"json":      awssig.JSON,
	"query":     awssig.QUERY,
	"rest_json": awssig.RestJSON,
	"rest_xml":  awssig.RestXML,
}

var signers = map[string]awssig.Signer{
	"v4": awssig.SignV4,
	"s3": awssig.SignS3,
}

// ToService builds the live Service a fixture describes.
func (d descriptorYAML) ToService() (awssig.Service, error) {
	protocol, ok := protocols[d.Protocol]
	if !ok {
		return awssig.Service{}, fmt.Errorf("awstest: unknown protocol %q", d.Protocol)
	}
	signer, ok := signers[d.Signer]
	if !ok {
		return awssig.Service{}, fmt.Errorf("awstest: unknown signer %q", d.Signer)
	}

	var svc awssig.Service
	if d.Endpoint == "global" || d.Endpoint == "" {
		svc = awssig.DefineGlobal(d.EndpointPrefix, d.APIVersion, protocol, signer)
	} else {
		svc = awssig.DefineRegional(d.EndpointPrefix, d.APIVersion, protocol, signer, d.Endpoint)
	}
	if d.JSONVersion != "" {
		svc = svc.SetJSONVersion(d.JSONVersion)
	}
	if d.SigningName != "" {
		svc = svc.SetSigningName(d.SigningName)
	}
	if d.DigitalOcean {
		svc = svc.ToDigitalOceanSpaces()
	}
	return svc, nil
}

// fixturesYAML is an embedded table of real-world service
// descriptors, covering a JSON-protocol global service (acm), a
// QUERY-protocol global service (sts), and an S3-compatible
// regional REST_XML service routed through DigitalOcean Spaces --
// exercising the descriptor's full knob set.
const fixturesYAML = `
- endpointPrefix: acm
  apiVersion: "2015-12-08"
  protocol: json
  signer: v4
  jsonVersion: "1.1"
  endpoint: global
- endpointPrefix: sts
  apiVersion: "2011-06-15"
  protocol: query
  signer: v4
  endpoint: global
- endpointPrefix: s3
  apiVersion: "2006-03-01"
  protocol: rest_xml
  signer: s3
  endpoint: sfo2
  digitalOcean: true
`

// Fixtures returns freshly constructed Service descriptors for the
// three named fixtures above, keyed by endpointPrefix.
func Fixtures() (map[string]awssig.Service, error) {
	var raw []descriptorYAML
	if err := yaml.Unmarshal([]byte(fixturesYAML), &raw); err != nil {
		return nil, fmt.Errorf("awstest: parsing fixtures: %w", err)
	}
	out := make(map[string]awssig.Service, len(raw))
	for _, d := range raw {
		svc, err := d.ToService()
		if err != nil {
			return nil, err
		}
		out[d.EndpointPrefix] = svc
	}
	return out, nil
}
