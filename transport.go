// SPDX-License-Identifier: GPL-3.0-or-later

package dnsconform

import (
	"context"
	"net"
)

// NetDialer abstracts over [*net.Dialer].
type NetDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// DNSTransport delivers a single [*Query] to the resolver under test and
// returns exactly one correlated [*Response] or a transport failure.
//
// Implementations apply the context deadline to the whole round trip and
// close the underlying connection on every exit path. After a failure the
// exchange is over: callers retry by calling Exchange again, which opens
// a fresh connection.
type DNSTransport interface {
	Exchange(ctx context.Context, query *Query) (*Response, error)
}
