// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"time"

	"github.com/bassosimone/dnsconform"
	"github.com/spf13/cobra"
)

var (
	domain  *string
	timeout *time.Duration
	gate    *bool
	workers *uint
	verbose *bool
)

func newRootCmd() (rootCmd *cobra.Command) {
	rootCmd = &cobra.Command{
		Use:     "dnsconform [flags] [resolver-endpoint...]",
		Short:   "dnsconform probes DNS resolvers for baseline RFC conformance",
		Long: `dnsconform issues the RFC 8027 section 3.1 probes (basic answer
delivery over UDP and TCP, EDNS0 option negotiation) against one or more
resolver endpoints and prints one verdict line per probe.

Endpoints are given as ip:port pairs; without arguments the tool probes
` + defaultResolverEndpoint + `. The exit code is 0 when all probes
succeed, 1 when any probe fails, and 2 on configuration errors.`,
		Version:       "0.1",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if *workers < 1 || *workers > 32 {
				return fmt.Errorf("--workers out of range [1..32]")
			}
			if *timeout < 10*time.Millisecond {
				return fmt.Errorf("--timeout must be at least 10ms")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return probeAndReport(cmd.Context(), args)
		},
	}
	// Sets up the flags.
	domain = rootCmd.PersistentFlags().String(
		"domain", dnsconform.DefaultTestDomain, "well-known existing domain to query")
	timeout = rootCmd.PersistentFlags().Duration(
		"timeout", dnsconform.DefaultRunnerTimeout, "per-probe round-trip timeout")
	gate = rootCmd.PersistentFlags().Bool(
		"gate", false, "skip remaining probes when basic answer delivery fails")
	workers = rootCmd.PersistentFlags().Uint(
		"workers", dnsconform.DefaultRunnerWorkers, "number of targets probed in parallel")
	verbose = rootCmd.PersistentFlags().Bool(
		"verbose", false, "enable debug logging")
	return
}
