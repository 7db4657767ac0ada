//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: https://github.com/ooni/probe-engine/blob/v0.23.0/netx/resolver/decoder.go
// Adapted from: https://github.com/golang/go/blob/go1.21.10/src/net/dnsclient_unix.go
//

package dnsconform

import (
	"errors"

	"github.com/miekg/dns"
)

// Errors emitted by [ParseResponse].
var (
	// ErrInvalidQuery means that the query does not contain a single question.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidResponse means that the response is not a response message
	// or does not correlate with the query that was sent.
	ErrInvalidResponse = errors.New("invalid DNS response")
)

// responseValidateQueryResp validates a DNS response for a given query.
func responseValidateQueryResp(query, resp *dns.Msg) error {
	// 1. make sure the message is actually a response
	if !resp.Response {
		return ErrInvalidResponse
	}

	// 2. make sure the response ID matches the query ID
	if resp.Id != query.Id {
		return ErrInvalidResponse
	}

	// 3. make sure the query and the response contain a question
	if len(query.Question) != 1 {
		return ErrInvalidQuery
	}
	if len(resp.Question) != 1 {
		return ErrInvalidResponse
	}
	resp0 := resp.Question[0]
	query0 := query.Question[0]

	// 4. make sure the question matches the query's question
	if !responseEqualASCIIName(resp0.Name, query0.Name) {
		return ErrInvalidResponse
	}
	if resp0.Qclass != query0.Qclass {
		return ErrInvalidResponse
	}
	if resp0.Qtype != query0.Qtype {
		return ErrInvalidResponse
	}
	return nil
}

func responseEqualASCIIName(x, y string) bool {
	if len(x) != len(y) {
		return false
	}
	for i := 0; i < len(x); i++ {
		a := x[i]
		b := y[i]
		if 'A' <= a && a <= 'Z' {
			a += 0x20
		}
		if 'A' <= b && b <= 'Z' {
			b += 0x20
		}
		if a != b {
			return false
		}
	}
	return true
}

// Response is a DNS response correlated with the query that caused it.
//
// Unlike a resolver, we do not map the response RCODE to an error: the
// conformance predicates classify whatever well-correlated reply the
// server under test produced, including NXDOMAIN and SERVFAIL.
//
// Construct a new instance using [ParseResponse].
type Response struct {
	// Query is the original query message.
	Query *dns.Msg

	// Msg is the response message.
	Msg *dns.Msg
}

// ParseResponse returns a [*Response] given a query and a response
// message, or [ErrInvalidResponse] when the response does not correlate
// with the query (wrong transaction ID, mismatched question, or not a
// response message at all).
func ParseResponse(query, resp *dns.Msg) (*Response, error) {
	if err := responseValidateQueryResp(query, resp); err != nil {
		return nil, err
	}
	return &Response{Query: query, Msg: resp}, nil
}

// Answers returns the records in the answer section.
func (r *Response) Answers() []dns.RR {
	return r.Msg.Answer
}

// Edns returns the EDNS0 OPT pseudo-record echoed by the server, or
// nil when the response does not carry one. Use [*dns.OPT.Version] to
// inspect the echoed EDNS version.
func (r *Response) Edns() *dns.OPT {
	return r.Msg.IsEdns0()
}
