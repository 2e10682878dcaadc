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

import "strings"

// Protocol selects the per-service content negotiation and
// target-prefix injection rules.
type Protocol int

const (
	EC2 Protocol = iota
	JSON
	QUERY
	RestJSON
	RestXML
)

// Signer selects the signing engine a Service uses.
type Signer int

const (
	// SignV4 is the only fully implemented signer.
	SignV4 Signer = iota
	// SignS3 is recognized but not implemented; Send fails
	// immediately with errS3NotImplemented.
	SignS3
)

// TimestampFormat selects how a signing timestamp is rendered
// on the wire outside of the SigV4 Authorization header itself
// (which always uses ISO8601 basic format).
type TimestampFormat int

const (
	ISO8601 TimestampFormat = iota
	RFC822
	UnixTimestamp
)

// EndpointKind distinguishes a global service (signed against
// the fixed SigV4 region "us-east-1") from one with a
// caller-chosen region.
type EndpointKind int

const (
	Global EndpointKind = iota
	Regional
)

// Endpoint is the tagged {Global, Regional(region)} variant
// a Service binds to.
type Endpoint struct {
	Kind   EndpointKind
	Region string
}

// HostResolver computes the bare host (no scheme, no trailing
// slash) a service should be addressed at.
type HostResolver func(endpoint Endpoint, endpointPrefix string) string

// RegionResolver computes the SigV4 signing region for an endpoint.
type RegionResolver func(endpoint Endpoint) string

func defaultHostResolver(endpoint Endpoint, endpointPrefix string) string {
	if endpoint.Kind == Global {
		return endpointPrefix + ".amazonaws.com"
	}
	return endpointPrefix + "." + endpoint.Region + ".amazonaws.com"
}

func defaultRegionResolver(endpoint Endpoint) string {
	if endpoint.Kind == Global {
		// Global endpoints sign as us-east-1 per the SigV4 spec.
		return "us-east-1"
	}
	return endpoint.Region
}

func digitalOceanHostResolver(endpoint Endpoint, _ string) string {
	if endpoint.Kind == Global {
		return "nyc3.digitaloceanspaces.com"
	}
	return endpoint.Region + ".digitaloceanspaces.com"
}

func digitalOceanRegionResolver(endpoint Endpoint) string {
	if endpoint.Kind == Global {
		return "nyc3"
	}
	return endpoint.Region
}

// Service is the immutable per-service descriptor: endpoint
// prefix, protocol, signer and the resolvers that compute host
// and region. Every mutator returns a new value; a Service is
// never modified in place, so it may be shared freely across
// concurrently executing requests.
type Service struct {
	EndpointPrefix   string
	APIVersion       string
	Protocol         Protocol
	Signer           Signer
	JSONVersion      string // empty means unset
	SigningName      string // empty means "use EndpointPrefix"
	TargetPrefix     string
	TimestampFormat  TimestampFormat
	XMLNamespace     string
	Endpoint         Endpoint
	HostResolverFn   HostResolver
	RegionResolverFn RegionResolver
}

func defaultTargetPrefix(endpointPrefix, apiVersion string) string {
	return "AWS" + strings.ToUpper(endpointPrefix) + "_" + strings.ReplaceAll(apiVersion, "-", "")
}

func defaultTimestampFormat(protocol Protocol) TimestampFormat {
	switch protocol {
	case JSON, RestJSON:
		return UnixTimestamp
	default:
		return ISO8601
	}
}

func newService(endpointPrefix, apiVersion string, protocol Protocol, signer Signer, endpoint Endpoint) Service {
	return Service{
		EndpointPrefix:   endpointPrefix,
		APIVersion:       apiVersion,
		Protocol:         protocol,
		Signer:           signer,
		TargetPrefix:     defaultTargetPrefix(endpointPrefix, apiVersion),
		TimestampFormat:  defaultTimestampFormat(protocol),
		Endpoint:         endpoint,
		HostResolverFn:   defaultHostResolver,
		RegionResolverFn: defaultRegionResolver,
	}
}

// DefineGlobal constructs a Service with a global (signed as
// us-east-1) endpoint.
func DefineGlobal(endpointPrefix, apiVersion string, protocol Protocol, signer Signer) Service {
	return newService(endpointPrefix, apiVersion, protocol, signer, Endpoint{Kind: Global})
}

// DefineRegional constructs a Service bound to a specific
// caller-chosen region.
func DefineRegional(endpointPrefix, apiVersion string, protocol Protocol, signer Signer, region string) Service {
	return newService(endpointPrefix, apiVersion, protocol, signer, Endpoint{Kind: Regional, Region: region})
}

// SetJSONVersion returns a copy of s with JSONVersion set.
func (s Service) SetJSONVersion(version string) Service {
	s.JSONVersion = version
	return s
}

// SetSigningName returns a copy of s with an explicit signing
// name, overriding EndpointPrefix for key-derivation purposes.
func (s Service) SetSigningName(name string) Service {
	s.SigningName = name
	return s
}

// SetTargetPrefix returns a copy of s with an explicit target
// prefix, overriding the derived default.
func (s Service) SetTargetPrefix(prefix string) Service {
	s.TargetPrefix = prefix
	return s
}

// SetTimestampFormat returns a copy of s with an explicit
// timestamp format, overriding the protocol-derived default.
func (s Service) SetTimestampFormat(format TimestampFormat) Service {
	s.TimestampFormat = format
	return s
}

// SetXMLNamespace returns a copy of s with an explicit XML
// namespace.
func (s Service) SetXMLNamespace(ns string) Service {
	s.XMLNamespace = ns
	return s
}

// ToDigitalOceanSpaces returns a copy of s rebound to DigitalOcean
// Spaces' host and region resolution.
func (s Service) ToDigitalOceanSpaces() Service {
	s.HostResolverFn = digitalOceanHostResolver
	s.RegionResolverFn = digitalOceanRegionResolver
	return s
}

// Host returns the bare host this service resolves to.
func (s Service) Host() string {
	return s.HostResolverFn(s.Endpoint, s.EndpointPrefix)
}

// Region returns the SigV4 signing region for this service.
func (s Service) Region() string {
	return s.RegionResolverFn(s.Endpoint)
}

// signingName returns the service segment used in the
// credential scope: the explicit override if set, else
// EndpointPrefix.
func (s Service) signingName() string {
	if s.SigningName != "" {
		return s.SigningName
	}
	return s.EndpointPrefix
}

// ContentType returns the Content-Type this service's protocol
// and JSON version (if any) require.
func (s Service) ContentType() string {
	if s.Protocol == RestXML {
		return "application/xml; charset=utf-8"
	}
	if s.JSONVersion != "" {
		return "application/x-amz-json-" + s.JSONVersion + "; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// AcceptType returns the Accept header value this service's
// protocol requires.
func (s Service) AcceptType() string {
	if s.Protocol == RestXML {
		return "application/xml"
	}
	return "application/json"
}
