//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: https://github.com/ooni/probe-engine/blob/v0.23.0/netx/resolver/encoder.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/dns/dnscore/query.go
//

package dnsconform

import (
	"slices"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

const (
	// queryMaxResponseSizeUDP is the maximum response size when using UDP
	// and is consistent with what the standard library uses.
	queryMaxResponseSizeUDP = 1232

	// queryMaxResponseSizeTCP is the maximum response size when using TCP
	// and is consistent with what the standard library uses.
	queryMaxResponseSizeTCP = 4096
)

// Query is a DNS query.
//
// This struct contains private fields used by the transports
// to control how to marshal the query.
//
// Construct using [NewQuery].
type Query struct {
	// Name is the MANDATORY domain name to query.
	Name string

	// Type is the query type.
	Type uint16

	// edns records whether [*Query.AttachEdns] was called.
	edns bool

	// ednsVersion is the EDNS version announced by the OPT pseudo-record.
	ednsVersion uint8

	// ednsOptions are the EDNS options carried by the OPT pseudo-record.
	ednsOptions []dns.EDNS0

	// id is the OPTIONAL query ID.
	id uint16

	// maxSize is the OPTIONAL maximum response size to announce
	// through the EDNS(0) OPT pseudo-record.
	maxSize uint16
}

// NewQuery constructs a new [*Query] for the given domain and query type.
//
// The query carries no EDNS0 OPT pseudo-record unless the caller also
// invokes [*Query.AttachEdns].
func NewQuery(name string, qtype uint16) *Query {
	return &Query{
		Name:        name,
		Type:        qtype,
		edns:        false,
		ednsVersion: 0,
		ednsOptions: nil,
		id:          0,
		maxSize:     queryMaxResponseSizeUDP,
	}
}

// AttachEdns attaches an EDNS0 OPT pseudo-record announcing the given
// version and carrying zero or more options. Returns the mutated query
// to allow for chaining.
func (q *Query) AttachEdns(version uint8, options ...dns.EDNS0) *Query {
	q.edns = true
	q.ednsVersion = version
	q.ednsOptions = options
	return q
}

// Clone returns a deep copy of the query.
func (q *Query) Clone() *Query {
	return &Query{
		Name:        q.Name,
		Type:        q.Type,
		edns:        q.edns,
		ednsVersion: q.ednsVersion,
		ednsOptions: slices.Clone(q.ednsOptions),
		id:          q.id,
		maxSize:     q.maxSize,
	}
}

// NewMsg creates a new [*dns.Msg] from the [*Query].
//
// This function is pure and performs no I/O. It fails only on invalid
// domain-name construction, which callers treat as a configuration
// error since the test domain is fixed at startup.
func (q *Query) NewMsg() (*dns.Msg, error) {
	// IDNA encode the domain name.
	punyName, err := idna.Lookup.ToASCII(q.Name)
	if err != nil {
		return nil, err
	}

	// Ensure the domain name is fully qualified.
	if !dns.IsFqdn(punyName) {
		punyName = dns.Fqdn(punyName)
	}

	// Create the query message.
	question := dns.Question{
		Name:   punyName,
		Qtype:  q.Type,
		Qclass: dns.ClassINET,
	}
	msg := new(dns.Msg)
	msg.Id = q.id
	msg.RecursionDesired = true
	msg.Question = make([]dns.Question, 1)
	msg.Question[0] = question

	// Set the EDNS(0) OPT pseudo-record, if requested.
	if q.edns {
		msg.SetEdns0(q.maxSize, false)
		opt := msg.IsEdns0()
		opt.SetVersion(q.ednsVersion)
		opt.Option = append(opt.Option, q.ednsOptions...)
	}

	return msg, nil
}
