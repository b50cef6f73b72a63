// Command `hostlook` resolves DNS hostnames to their public IP addresses.
//
// Resolution runs on a background worker owned by the resolution service;
// the CLI submits one request at a time and waits synchronously for the
// outcome before printing it.
//
// Usage:
//
//	hostlook resolve <hostname> [port]  - Resolve a hostname once and print its endpoints
//	hostlook shell                      - Start the interactive command loop
//	hostlook version                    - Show version information
//
// Examples:
//
//	hostlook resolve example.com        - Resolve example.com (port defaults to 80)
//	hostlook resolve example.com 443    - Resolve example.com with port 443
//	hostlook shell                      - Set hostname/port interactively, then resolve
//
// Upstream servers, the query timeout and the retry count come from
// ~/.hostlook/config.yaml when present.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lc/hostlook/internal/buildinfo"
	"github.com/lc/hostlook/internal/config"
	"github.com/lc/hostlook/internal/dnsquery"
	"github.com/lc/hostlook/internal/resolve"
	"github.com/lc/hostlook/internal/shell"
)

func main() {
	cfg, err := config.New().Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	newService := func() *resolve.Service {
		client := dnsquery.New(cfg.DNS.Timeout,
			dnsquery.WithServers(cfg.DNS.Servers),
			dnsquery.WithRetries(cfg.DNS.Retries),
		)
		return resolve.New(client)
	}

	root := &cobra.Command{
		Use:   "hostlook",
		Short: "hostlook DNS resolution CLI",
		Long: `hostlook resolves DNS hostnames to their public IPv4 and IPv6 addresses.
Resolution runs asynchronously on a background worker; each request is
submitted, awaited and printed before the next one starts.`,
	}

	// ---- version command ----
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show version information for the hostlook CLI.`,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("version: %s\n", buildinfo.Version)
			fmt.Printf("commit: %s\n", buildinfo.Commit)
		},
	}

	// ---- resolve command ----
	resolveCmd := &cobra.Command{
		Use:   "resolve <hostname> [port]",
		Short: "Resolve a hostname once and print its endpoints",
		Long: `Resolve a hostname to its IPv4 and IPv6 addresses and print them
as a table, one row per endpoint with its address family.

Examples:
  hostlook resolve example.com        Resolve example.com (port defaults to 80)
  hostlook resolve example.com 443    Resolve example.com with port 443`,
		Example: "hostlook resolve example.com 443",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			port := uint16(80)
			if len(args) == 2 {
				var err error
				port, err = shell.ParsePort(args[1])
				if err != nil {
					return fmt.Errorf("invalid port: %w", err)
				}
			}

			svc := newService()
			defer svc.Close()

			svc.SetTarget(args[0], port)

			ctx := context.Background()
			if err := svc.Resolve(ctx); err != nil {
				return err
			}
			out, err := svc.Wait(ctx)
			if err != nil {
				return err
			}
			if out.Err != nil {
				return fmt.Errorf("resolving %s: %w", out.Hostname, out.Err)
			}

			renderEndpoints(out)
			return nil
		},
	}

	// ---- shell command ----
	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive command loop",
		Long: `Start an interactive loop that reads numbered commands:
set a hostname, set a port number, resolve the current target, or exit.
Each resolve blocks until its result has been printed.`,
		Example: "hostlook shell",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := newService()
			defer svc.Close()

			return shell.New(svc, os.Stdin, os.Stdout).Run(cmd.Context())
		},
	}

	root.AddCommand(resolveCmd, shellCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// renderEndpoints prints a successful outcome as a colored table.
func renderEndpoints(out resolve.Outcome) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Address", "Family"})
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
	)
	table.SetBorder(false)
	table.SetColumnColor(
		tablewriter.Colors{tablewriter.FgHiWhiteColor},
		tablewriter.Colors{tablewriter.FgGreenColor},
		tablewriter.Colors{tablewriter.FgYellowColor},
	)

	for i, ep := range out.Endpoints {
		table.Append([]string{strconv.Itoa(i), ep.Address, ep.Family()})
	}

	color.New(color.Bold).Printf("ENDPOINTS FOR %s:%d\n", out.Hostname, out.Port)
	table.Render()
}
