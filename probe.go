// SPDX-License-Identifier: GPL-3.0-or-later

package dnsconform

import (
	"context"
	"errors"
	"os"

	"github.com/miekg/dns"
)

// DefaultTestDomain is the well-known existing domain queried by the
// probes unless the caller configures a different one. RFC 8027 suggests
// using a known existing domain such as good-a.test.example.com; we use
// the domain historically queried by roadblock-avoidance tooling.
const DefaultTestDomain = "dnssec-tools.org"

// Verdict is the outcome of a single probe execution: either success or
// failure with a human-readable reason.
//
// Construct using [Success] or [Failure]. The zero value is a failure
// with an empty reason and should not be used.
type Verdict struct {
	ok     bool
	reason string
}

// Success returns a successful [Verdict].
func Success() Verdict {
	return Verdict{ok: true}
}

// Failure returns a failed [Verdict] with the given reason.
func Failure(reason string) Verdict {
	return Verdict{ok: false, reason: reason}
}

// OK returns whether the probe succeeded.
func (v Verdict) OK() bool {
	return v.ok
}

// Reason returns the failure reason, or the empty string on success.
func (v Verdict) Reason() string {
	return v.reason
}

// String returns the clear-text representation of the verdict.
func (v Verdict) String() string {
	if v.ok {
		return "Success"
	}
	return "Fail(" + v.reason + ")"
}

// Probe is a single named conformance check. Running a probe issues
// exactly one query through the given transport and reduces the outcome
// to a [Verdict]. A probe never retries: a single transport failure is
// terminal for that invocation.
type Probe interface {
	// Name returns the probe name.
	Name() string

	// Run executes the probe through the given transport.
	Run(ctx context.Context, txp DNSTransport) Verdict
}

// verdictFromTransportError classifies a transport failure into a
// [Verdict]. Cancellation and deadline expiry get stable reasons so
// that callers can tell a torn-down probe from a resolver that never
// answered; everything else carries the error detail.
func verdictFromTransportError(ctx context.Context, err error) Verdict {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return Failure("cancelled")
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return Failure("transport error: timeout")
	}
	return Failure("transport error: " + err.Error())
}

// BasicAnswerProbe checks that the resolver under test returns at least
// one record in the answer section for an A query about a known existing
// domain (RFC 8027 Sections 3.1.1 and 3.1.2, depending on the transport
// it runs over). The record content is not validated.
//
// Construct using [NewBasicAnswerProbe].
type BasicAnswerProbe struct {
	// Domain is the well-known domain to query.
	//
	// Set by [NewBasicAnswerProbe] to the user-provided value.
	Domain string
}

// NewBasicAnswerProbe creates a new [*BasicAnswerProbe].
func NewBasicAnswerProbe(domain string) *BasicAnswerProbe {
	return &BasicAnswerProbe{Domain: domain}
}

// Ensure that [*BasicAnswerProbe] implements [Probe].
var _ Probe = &BasicAnswerProbe{}

// Name implements [Probe].
func (p *BasicAnswerProbe) Name() string {
	return "basic-answer"
}

// Run implements [Probe].
func (p *BasicAnswerProbe) Run(ctx context.Context, txp DNSTransport) Verdict {
	resp, err := txp.Exchange(ctx, NewQuery(p.Domain, dns.TypeA))
	if err != nil {
		return verdictFromTransportError(ctx, err)
	}
	if len(resp.Answers()) < 1 {
		return Failure("no answer")
	}
	return Success()
}

// EDNS0Probe checks that the resolver under test properly supports the
// EDNS0 extension (RFC 8027 Section 3.1.3): it sends an A query carrying
// an EDNS0 OPT pseudo-record with version 0 and a single code-zero
// option with an empty payload, then inspects the reply for an echoed
// OPT record with version 0.
//
// A transport failure yields a transport-error verdict, never
// "No EDNS option": a resolver that ignored EDNS and a harness that
// could not complete the exchange are different findings.
//
// Construct using [NewEDNS0Probe].
type EDNS0Probe struct {
	// Domain is the well-known domain to query.
	//
	// Set by [NewEDNS0Probe] to the user-provided value.
	Domain string
}

// NewEDNS0Probe creates a new [*EDNS0Probe].
func NewEDNS0Probe(domain string) *EDNS0Probe {
	return &EDNS0Probe{Domain: domain}
}

// Ensure that [*EDNS0Probe] implements [Probe].
var _ Probe = &EDNS0Probe{}

// Name implements [Probe].
func (p *EDNS0Probe) Name() string {
	return "edns0"
}

// Run implements [Probe].
func (p *EDNS0Probe) Run(ctx context.Context, txp DNSTransport) Verdict {
	query := NewQuery(p.Domain, dns.TypeA)
	query.AttachEdns(0, &dns.EDNS0_LOCAL{Code: 0, Data: []byte{}})
	resp, err := txp.Exchange(ctx, query)
	if err != nil {
		return verdictFromTransportError(ctx, err)
	}
	opt := resp.Edns()
	if opt == nil {
		return Failure("No EDNS option")
	}
	if opt.Version() != 0 {
		return Failure("Wrong EDNS option")
	}
	return Success()
}
