// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"os"

	"github.com/bassosimone/dnsconform"
)

// defaultResolverEndpoint is probed when no endpoint argument is given.
const defaultResolverEndpoint = "8.8.8.8:53"

// errProbeFailures signals that the run completed but at least one
// probe produced a failing verdict.
var errProbeFailures = errors.New("one or more probes failed")

// probeAndReport parses the target endpoints, runs the standard probe
// suite against each of them, and prints one line per verdict to stdout.
func probeAndReport(ctx context.Context, args []string) error {
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	// Parse the targets upfront: a bad endpoint is a configuration
	// error and aborts before any probe runs.
	if len(args) < 1 {
		args = []string{defaultResolverEndpoint}
	}
	targets := make([]netip.AddrPort, 0, len(args))
	for _, arg := range args {
		target, err := netip.ParseAddrPort(arg)
		if err != nil {
			return fmt.Errorf("invalid resolver endpoint %q: %w", arg, err)
		}
		targets = append(targets, target)
	}

	runner := dnsconform.NewRunner()
	runner.Timeout = *timeout
	runner.GatePrerequisites = *gate
	runner.Workers = int(*workers)

	log.Debug("starting probes", "domain", *domain, "targets", len(targets),
		"timeout", *timeout, "gate", *gate)
	reports := runner.RunTargets(ctx, *domain, &net.Dialer{}, targets)

	failed := false
	for _, report := range reports {
		for _, result := range report.Results {
			fmt.Printf("[%s] %s: %s\n", report.Target, result.Name, result.Verdict)
			if !result.Verdict.OK() {
				failed = true
			}
		}
	}
	if failed {
		return errProbeFailures
	}
	return nil
}
