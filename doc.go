// SPDX-License-Identifier: GPL-3.0-or-later

// Package dnsconform contains DNS resolver conformance testing infrastructure.
//
// It implements the baseline resolver checks described by RFC 8027
// Section 3.1: given the endpoint of a resolver under test, it issues
// protocol-level probes over UDP and TCP and classifies each reply into a
// pass or fail [Verdict].
//
// The core abstractions are:
//
//  1. the [*Query], which builds outbound DNS messages for a well-known
//     test domain, optionally carrying an EDNS0 OPT pseudo-record;
//
//  2. the [DNSTransport], which delivers one query to the resolver under
//     test and returns exactly one correlated [*Response] or a transport
//     failure; we implement DNS over UDP with [*DNSOverUDPTransport] and
//     DNS over TCP with [*StreamTransport];
//
//  3. the [Probe], a named conformance check reducing a reply to a
//     [Verdict]; we implement [*BasicAnswerProbe] (RFC 8027
//     Sections 3.1.1 and 3.1.2) and [*EDNS0Probe] (Section 3.1.3);
//
//  4. the [*Runner], which executes an ordered list of [Check] against a
//     resolver endpoint and reports one [Result] per check, optionally in
//     parallel across several target endpoints.
//
// For example, to run the standard suite against a public resolver:
//
//	runner := dnsconform.NewRunner()
//	checks := dnsconform.NewStandardChecks(
//		dnsconform.DefaultTestDomain,
//		&net.Dialer{},
//		netip.MustParseAddrPort("8.8.8.8:53"),
//	)
//	for _, result := range runner.Run(context.Background(), checks) {
//		fmt.Printf("%s: %s\n", result.Name, result.Verdict)
//	}
//
// A failing verdict is the conformance signal this package exists to
// produce, not an exceptional condition: transport failures, missing
// answers, and wrong EDNS versions all surface as distinct [Verdict]
// reasons and never as panics or dropped results.
//
// The code in this package is an evolution of code originally written for
// [github.com/bassosimone/minest] and [github.com/ooni/probe-cli], where
// the resolution specifics have been removed, only leaving in place the
// basic infrastructure to exchange DNS messages with servers under test.
package dnsconform
