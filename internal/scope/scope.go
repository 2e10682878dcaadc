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

// Package scope derives AWS SigV4 signing keys via the four-step
// HMAC-SHA256 chain and caches the derived keys for the lifetime
// of a calendar day.
package scope

import (
	"crypto/hmac"
	"crypto/sha256"
	"sync"

	"github.com/dchest/siphash"
)

// Credential is the <shortDate>/<region>/<service>/aws4_request
// string SigV4 calls the "credential scope".
func Credential(shortDate, region, service string) string {
	return shortDate + "/" + region + "/" + service + "/aws4_request"
}

func mac(key, msg []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(msg)
	return h.Sum(nil)
}

// Derive computes the kSigning key from AWS's four-round HMAC
// chain: kDate, kRegion, kService, kSigning. The returned bytes
// are opaque and must only be used as an HMAC-SHA256 key over the
// string-to-sign.
func Derive(secretAccessKey, shortDate, region, service string) []byte {
	k := append([]byte("AWS4"), secretAccessKey...)
	k = mac(k, []byte(shortDate))
	k = mac(k, []byte(region))
	k = mac(k, []byte(service))
	k = mac(k, []byte("aws4_request"))
	return k
}

// cacheKey is not a security boundary: SipHash is used purely
// to bucket the (accessKeyID, region, service, shortDate) tuple
// into a fast map key, the same way it's used elsewhere for
// table/shard keys. It is never used in place of the HMAC
// derivation.
const (
	cacheK0 = 0x9ae16a3b2f90404f
	cacheK1 = 0xc2b2ae3d27d4eb4f
)

func cacheKey(accessKeyID, region, service, shortDate string) uint64 {
	buf := make([]byte, 0, len(accessKeyID)+len(region)+len(service)+len(shortDate)+3)
	buf = append(buf, accessKeyID...)
	buf = append(buf, 0)
	buf = append(buf, region...)
	buf = append(buf, 0)
	buf = append(buf, service...)
	buf = append(buf, 0)
	buf = append(buf, shortDate...)
	return siphash.Hash(cacheK0, cacheK1, buf)
}

// Cache memoizes derived signing keys for the day they are
// valid, so repeated requests against the same service/region
// within a calendar day skip the HMAC chain. It is safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[uint64]cacheEntry
}

type cacheEntry struct {
	accessKeyID, region, service, shortDate string
	key                                      []byte
}

// NewCache returns an empty, ready-to-use Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[uint64]cacheEntry)}
}

// Derive returns the kSigning key for the given tuple, computing
// and caching it on first use. A SipHash collision between two
// distinct tuples is handled by falling back to a fresh
// derivation rather than trusting the cached value blindly.
func (c *Cache) Derive(secretAccessKey, accessKeyID, shortDate, region, service string) []byte {
	h := cacheKey(accessKeyID, region, service, shortDate)

	c.mu.Lock()
	if e, ok := c.entries[h]; ok && e.accessKeyID == accessKeyID && e.region == region &&
		e.service == service && e.shortDate == shortDate {
		c.mu.Unlock()
		return e.key
	}
	c.mu.Unlock()

	key := Derive(secretAccessKey, shortDate, region, service)

	c.mu.Lock()
	c.entries[h] = cacheEntry{
		accessKeyID: accessKeyID,
		region:      region,
		service:     service,
		shortDate:   shortDate,
		key:         key,
	}
	c.mu.Unlock()
	return key
}

// Sign computes the final lowercase-hex HMAC-SHA256 signature
// of stringToSign under the derived key.
func Sign(derivedKey []byte, stringToSign string) string {
	sum := mac(derivedKey, []byte(stringToSign))
	const hextable = "0123456789abcdef"
	out := make([]byte, len(sum)*2)
	for i, b := range sum {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0xf]
	}
	return string(out)
}
