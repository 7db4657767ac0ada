//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/dns/dnscore/dotcp.go
// Adapted from: https://github.com/ooni/probe-engine/blob/v0.23.0/netx/resolver/dnsovertcp.go
//

package dnsconform

import (
	"bufio"
	"context"
	"io"
	"math"
	"net"
	"net/netip"
	"time"

	"github.com/bassosimone/runtimex"
	"github.com/miekg/dns"
)

// StreamTransport implements [DNSTransport] for DNS over TCP.
//
// Messages are framed with the standard 2-byte big-endian length prefix
// (RFC 7766) both when sending and when reassembling the reply from the
// byte stream.
//
// Construct using [NewStreamTransport].
type StreamTransport struct {
	// Dialer is the [NetDialer] to use to create connections.
	//
	// Set by [NewStreamTransport] to the user-provided value.
	Dialer NetDialer

	// Endpoint is the resolver endpoint to use to query.
	//
	// Set by [NewStreamTransport] to the user-provided value.
	Endpoint netip.AddrPort
}

// NewStreamTransport creates a new [*StreamTransport].
func NewStreamTransport(dialer NetDialer, endpoint netip.AddrPort) *StreamTransport {
	return &StreamTransport{
		Dialer:   dialer,
		Endpoint: endpoint,
	}
}

// Ensure that [*StreamTransport] implements [DNSTransport].
var _ DNSTransport = &StreamTransport{}

// Exchange implements [DNSTransport].
func (st *StreamTransport) Exchange(ctx context.Context, query *Query) (*Response, error) {
	// 1. create the connection
	conn, err := st.Dialer.DialContext(ctx, "tcp", st.Endpoint.String())
	if err != nil {
		return nil, err
	}

	// 2. Use a single connection for the request.
	//
	// Make sure we react to context being canceled early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer conn.Close()
		<-ctx.Done()
	}()

	// 3. defer to ExchangeWithConn.
	return st.ExchangeWithConn(ctx, conn, query)
}

// ExchangeWithConn sends a [*Query] and receives the correlated
// [*Response] over a caller-provided stream connection.
//
// We only honor deadlines from the context; canceling the context without a
// deadline does not interrupt I/O. This behavior may change in the future.
func (st *StreamTransport) ExchangeWithConn(ctx context.Context,
	conn net.Conn, query *Query) (*Response, error) {
	// 1. Use the context deadline to limit the query lifetime.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	// 2. Mutate and serialize the query.
	query = query.Clone()
	query.id = dns.Id()
	query.maxSize = queryMaxResponseSizeTCP
	queryMsg, err := query.NewMsg()
	if err != nil {
		return nil, err
	}
	rawQuery, err := queryMsg.Pack()
	if err != nil {
		return nil, err
	}

	// 3. Wrap the query into a frame and send it.
	rawQueryFrame := newStreamMsgFrame(rawQuery)
	if _, err := conn.Write(rawQueryFrame); err != nil {
		return nil, err
	}

	// 4. Wrap the conn to avoid issuing too many reads, then read the
	// length prefix and the message, which the stream may deliver in
	// separate segments.
	br := bufio.NewReader(conn)
	header := make([]byte, 2)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, err
	}
	length := int(header[0])<<8 | int(header[1])
	rawResp := make([]byte, length)
	if _, err := io.ReadFull(br, rawResp); err != nil {
		return nil, err
	}

	// 5. Parse the response and return.
	respMsg := new(dns.Msg)
	if err := respMsg.Unpack(rawResp); err != nil {
		return nil, err
	}
	return ParseResponse(queryMsg, respMsg)
}

// newStreamMsgFrame creates a new raw frame for sending a message over a stream.
func newStreamMsgFrame(rawMsg []byte) []byte {
	// A packed DNS message never exceeds the 16-bit length prefix.
	runtimex.Assert(len(rawMsg) <= math.MaxUint16)
	rawMsgFrame := []byte{byte(len(rawMsg) >> 8)}
	rawMsgFrame = append(rawMsgFrame, byte(len(rawMsg)))
	rawMsgFrame = append(rawMsgFrame, rawMsg...)
	return rawMsgFrame
}
