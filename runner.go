// SPDX-License-Identifier: GPL-3.0-or-later

package dnsconform

import (
	"context"
	"net/netip"
	"time"

	"github.com/gammazero/workerpool"
)

// DefaultRunnerTimeout is the default per-check timeout used by [*Runner].
const DefaultRunnerTimeout = 10 * time.Second

// DefaultRunnerWorkers is the default number of targets that
// [*Runner.RunTargets] probes in parallel.
const DefaultRunnerWorkers = 5

// Check is a [Probe] bound to the [DNSTransport] it should exercise.
type Check struct {
	// Name identifies the check in the report.
	Name string

	// Probe is the conformance check to run.
	Probe Probe

	// Transport is the transport the probe runs over.
	Transport DNSTransport

	// Prerequisite marks the check as a prerequisite for the checks
	// that follow it. See [Runner.GatePrerequisites].
	Prerequisite bool
}

// Result pairs a check name with the [Verdict] it produced.
type Result struct {
	// Name is the check name.
	Name string

	// Verdict is the outcome.
	Verdict Verdict
}

// Runner executes an ordered list of [Check] against a resolver under
// test. Every check yields exactly one [Result]; a failing check never
// aborts the run.
//
// Construct using [NewRunner].
type Runner struct {
	// Timeout bounds each check's full round trip.
	//
	// Set by [NewRunner] to [DefaultRunnerTimeout].
	Timeout time.Duration

	// GatePrerequisites, when true, skips the checks following a failed
	// prerequisite check and reports them as failed with reason
	// "prerequisite not met". RFC 8027 says an implementation MAY skip
	// the remaining tests when basic answer delivery fails, hence this
	// is a policy knob rather than the default behavior.
	GatePrerequisites bool

	// Workers is the number of targets probed in parallel by
	// [*Runner.RunTargets].
	//
	// Set by [NewRunner] to [DefaultRunnerWorkers].
	Workers int
}

// NewRunner creates a new [*Runner] with default settings.
func NewRunner() *Runner {
	return &Runner{
		Timeout:           DefaultRunnerTimeout,
		GatePrerequisites: false,
		Workers:           DefaultRunnerWorkers,
	}
}

// Run executes the checks sequentially and returns one [Result] per
// check, in input order. Each check runs with its own timeout derived
// from [Runner.Timeout]; canceling the context causes the in-flight
// check to resolve to a "cancelled" failure and the remaining checks to
// resolve likewise, still producing one result each.
func (r *Runner) Run(ctx context.Context, checks []Check) []Result {
	results := make([]Result, 0, len(checks))
	gated := false
	for _, check := range checks {
		if gated {
			results = append(results, Result{
				Name:    check.Name,
				Verdict: Failure("prerequisite not met"),
			})
			continue
		}
		verdict := r.runCheck(ctx, check)
		if r.GatePrerequisites && check.Prerequisite && !verdict.OK() {
			gated = true
		}
		results = append(results, Result{Name: check.Name, Verdict: verdict})
	}
	return results
}

// runCheck runs a single check honoring the configured timeout.
func (r *Runner) runCheck(ctx context.Context, check Check) Verdict {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	return check.Probe.Run(ctx, check.Transport)
}

// NewStandardChecks assembles the RFC 8027 Section 3.1 suite for a
// single resolver endpoint: basic answer delivery over UDP (3.1.1) and
// TCP (3.1.2), then EDNS0 support (3.1.3) over both transports. The
// basic answer checks are marked as prerequisites.
func NewStandardChecks(domain string, dialer NetDialer, endpoint netip.AddrPort) []Check {
	udp := NewDNSOverUDPTransport(dialer, endpoint)
	tcp := NewStreamTransport(dialer, endpoint)
	return []Check{
		{Name: "basic-answer/udp", Probe: NewBasicAnswerProbe(domain), Transport: udp, Prerequisite: true},
		{Name: "basic-answer/tcp", Probe: NewBasicAnswerProbe(domain), Transport: tcp, Prerequisite: true},
		{Name: "edns0/udp", Probe: NewEDNS0Probe(domain), Transport: udp},
		{Name: "edns0/tcp", Probe: NewEDNS0Probe(domain), Transport: tcp},
	}
}

// TargetReport contains the results for a single target endpoint.
type TargetReport struct {
	// Target is the resolver endpoint that was probed.
	Target netip.AddrPort

	// Results contains one entry per check, in suite order.
	Results []Result
}

// RunTargets runs the standard suite against each target endpoint,
// probing up to [Runner.Workers] targets in parallel. Targets share no
// mutable state: each gets its own transports and checks. The returned
// reports are in the same order as the targets.
func (r *Runner) RunTargets(ctx context.Context, domain string,
	dialer NetDialer, targets []netip.AddrPort) []TargetReport {
	pool := workerpool.New(max(r.Workers, 1))
	reports := make([]TargetReport, len(targets))
	for idx, target := range targets {
		pool.Submit(func() {
			reports[idx] = TargetReport{
				Target:  target,
				Results: r.Run(ctx, NewStandardChecks(domain, dialer, target)),
			}
		})
	}
	pool.StopWait()
	return reports
}
