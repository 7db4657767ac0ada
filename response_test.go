// SPDX-License-Identifier: GPL-3.0-or-later

package dnsconform

import (
	"strings"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestQueryMsg builds a query message with a fixed transaction ID.
func newTestQueryMsg(t *testing.T, name string) *dns.Msg {
	t.Helper()
	queryMsg, err := NewQuery(name, dns.TypeA).NewMsg()
	require.NoError(t, err)
	queryMsg.Id = 44
	return queryMsg
}

// newTestReply builds a correlated reply carrying a single A record.
func newTestReply(queryMsg *dns.Msg) *dns.Msg {
	resp := new(dns.Msg)
	resp.SetReply(queryMsg)
	resp.Answer = append(resp.Answer, &dns.A{
		Hdr: dns.RR_Header{
			Name:   queryMsg.Question[0].Name,
			Rrtype: dns.TypeA,
			Class:  dns.ClassINET,
			Ttl:    1,
		},
		A: []byte{8, 8, 8, 8},
	})
	return resp
}

func TestParseResponseSuccess(t *testing.T) {
	queryMsg := newTestQueryMsg(t, "example.com")
	resp, err := ParseResponse(queryMsg, newTestReply(queryMsg))
	require.NoError(t, err)
	assert.Len(t, resp.Answers(), 1)
	assert.Nil(t, resp.Edns())
}

func TestParseResponseCaseInsensitiveName(t *testing.T) {
	queryMsg := newTestQueryMsg(t, "example.com")
	reply := newTestReply(queryMsg)
	reply.Question[0].Name = strings.ToUpper(reply.Question[0].Name)
	resp, err := ParseResponse(queryMsg, reply)
	require.NoError(t, err)
	assert.Len(t, resp.Answers(), 1)
}

func TestParseResponseEdns(t *testing.T) {
	queryMsg := newTestQueryMsg(t, "example.com")
	reply := newTestReply(queryMsg)
	reply.SetEdns0(1232, false)
	resp, err := ParseResponse(queryMsg, reply)
	require.NoError(t, err)
	opt := resp.Edns()
	require.NotNil(t, opt)
	assert.Equal(t, uint8(0), opt.Version())
}

func TestParseResponseErrors(t *testing.T) {
	type testCase struct {
		// name is the subtest name.
		name string

		// mutateQuery optionally corrupts the query message.
		mutateQuery func(*dns.Msg)

		// mutateReply optionally corrupts the reply message.
		mutateReply func(*dns.Msg)

		// wantErr is the error to match.
		wantErr error
	}

	tests := []testCase{
		{
			name:        "not a response",
			mutateReply: func(m *dns.Msg) { m.Response = false },
			wantErr:     ErrInvalidResponse,
		},

		{
			name:        "transaction ID mismatch",
			mutateReply: func(m *dns.Msg) { m.Id++ },
			wantErr:     ErrInvalidResponse,
		},

		{
			name:        "missing question",
			mutateReply: func(m *dns.Msg) { m.Question = nil },
			wantErr:     ErrInvalidResponse,
		},

		{
			name:        "question name mismatch",
			mutateReply: func(m *dns.Msg) { m.Question[0].Name = "other.example." },
			wantErr:     ErrInvalidResponse,
		},

		{
			name:        "question type mismatch",
			mutateReply: func(m *dns.Msg) { m.Question[0].Qtype = dns.TypeAAAA },
			wantErr:     ErrInvalidResponse,
		},

		{
			name:        "query without question",
			mutateQuery: func(m *dns.Msg) { m.Question = nil },
			wantErr:     ErrInvalidQuery,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			queryMsg := newTestQueryMsg(t, "example.com")
			reply := newTestReply(queryMsg)
			if tc.mutateQuery != nil {
				tc.mutateQuery(queryMsg)
			}
			if tc.mutateReply != nil {
				tc.mutateReply(reply)
			}
			resp, err := ParseResponse(queryMsg, reply)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, resp)
		})
	}
}
