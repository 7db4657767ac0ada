//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/dns/dnscore/doudp.go
// Adapted from: https://github.com/ooni/probe-engine/blob/v0.23.0/netx/resolver/dnsoverudp.go
//

package dnsconform

import (
	"bytes"
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
)

// DNSOverUDPTransport implements [DNSTransport] for DNS over UDP.
//
// Construct using [NewDNSOverUDPTransport].
type DNSOverUDPTransport struct {
	// Dialer is the [NetDialer] to use to create connections.
	//
	// Set by [NewDNSOverUDPTransport] to the user-provided value.
	Dialer NetDialer

	// Endpoint is the resolver endpoint to use to query.
	//
	// Set by [NewDNSOverUDPTransport] to the user-provided value.
	Endpoint netip.AddrPort

	// ObserveRawQuery is an optional hook called with a copy of the raw DNS query.
	ObserveRawQuery func([]byte)

	// ObserveRawResponse is an optional hook called with a copy of each raw
	// datagram we read, including discarded uncorrelated datagrams.
	ObserveRawResponse func([]byte)
}

// NewDNSOverUDPTransport creates a new [*DNSOverUDPTransport].
func NewDNSOverUDPTransport(dialer NetDialer, endpoint netip.AddrPort) *DNSOverUDPTransport {
	return &DNSOverUDPTransport{
		Dialer:   dialer,
		Endpoint: endpoint,
	}
}

// Ensure that [*DNSOverUDPTransport] implements [DNSTransport].
var _ DNSTransport = &DNSOverUDPTransport{}

// Exchange implements [DNSTransport].
//
// Dialing binds a local ephemeral port and connects the socket, so the
// kernel only delivers datagrams originating from the resolver endpoint.
func (dt *DNSOverUDPTransport) Exchange(ctx context.Context, query *Query) (*Response, error) {
	// 1. create the connection
	conn, err := dt.Dialer.DialContext(ctx, "udp", dt.Endpoint.String())
	if err != nil {
		return nil, err
	}

	// 2. Use a single connection for the request, which is what the standard
	// library does as well.
	//
	// Make sure we react to context being canceled early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer conn.Close()
		<-ctx.Done()
	}()

	// 3. defer to ExchangeWithConn.
	return dt.ExchangeWithConn(ctx, conn, query)
}

// SendQuery serializes and sends a [*Query] using a [net.Conn].
//
// We only honor deadlines from the context; canceling the context without a
// deadline does not interrupt I/O. This behavior may change in the future.
func (dt *DNSOverUDPTransport) SendQuery(ctx context.Context, conn net.Conn, query *Query) (*dns.Msg, error) {
	// 1. Use the context deadline to limit the lifetime.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	// 2. Mutate and serialize the query.
	query = query.Clone()
	query.id = dns.Id()
	query.maxSize = queryMaxResponseSizeUDP
	queryMsg, err := query.NewMsg()
	if err != nil {
		return nil, err
	}
	rawQuery, err := queryMsg.Pack()
	if err != nil {
		return nil, err
	}
	if dt.ObserveRawQuery != nil {
		dt.ObserveRawQuery(bytes.Clone(rawQuery))
	}

	// 3. Send the query.
	if _, err := conn.Write(rawQuery); err != nil {
		return nil, err
	}
	return queryMsg, nil
}

// RecvResponse receives the [*Response] correlated with the given query
// message using a [net.Conn].
//
// Datagrams that fail to unpack or that do not correlate with the
// outstanding query (wrong transaction ID or question) are discarded, not
// surfaced as errors: we keep reading until a matching response arrives
// or the deadline expires.
//
// We only honor deadlines from the context; canceling the context without a
// deadline does not interrupt I/O. This behavior may change in the future.
func (dt *DNSOverUDPTransport) RecvResponse(
	ctx context.Context, conn net.Conn, queryMsg *dns.Msg) (*Response, error) {
	// 1. Use the context deadline to limit the lifetime.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	for {
		// 2. Read the next datagram.
		buff := make([]byte, queryMaxResponseSizeUDP)
		count, err := conn.Read(buff)
		if err != nil {
			return nil, err
		}
		rawResp := buff[:count]
		if dt.ObserveRawResponse != nil {
			dt.ObserveRawResponse(bytes.Clone(rawResp))
		}

		// 3. Parse the datagram and discard it unless it is the
		// response matching the outstanding query.
		respMsg := new(dns.Msg)
		if err := respMsg.Unpack(rawResp); err != nil {
			continue
		}
		resp, err := ParseResponse(queryMsg, respMsg)
		if err != nil {
			continue
		}
		return resp, nil
	}
}

// ExchangeWithConn sends a [*Query] and receives the correlated [*Response].
//
// This method allows tests to drive the exchange over a caller-provided
// connection.
func (dt *DNSOverUDPTransport) ExchangeWithConn(ctx context.Context,
	conn net.Conn, query *Query) (*Response, error) {
	queryMsg, err := dt.SendQuery(ctx, conn, query)
	if err != nil {
		return nil, err
	}
	return dt.RecvResponse(ctx, conn, queryMsg)
}
