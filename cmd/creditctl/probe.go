package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/EvanTenenbaum/TERP-sub019/internal/probe"
)

var probeCfg probe.Config

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check ranking invariants against a running API",
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := probe.Run(cmd.Context(), probeCfg)
		if perr := printJSON(cmd.OutOrStdout(), rep); perr != nil {
			return perr
		}
		if err != nil {
			return fmt.Errorf("probe: %w", err)
		}
		return nil
	},
}

func init() {
	f := probeCmd.Flags()
	f.StringVar(&probeCfg.BaseURL, "url", "http://localhost:8080", "base URL of the service")
	f.StringSliceVar(&probeCfg.ClientIDs, "clients", nil, "clients to probe (default: every active client)")
	f.StringSliceVar(&probeCfg.Types, "types", nil, "leaderboard types (default: all)")
	f.IntVar(&probeCfg.Limit, "limit", 0, "top entries per leaderboard")
	f.IntVar(&probeCfg.Workers, "workers", 0, "concurrent requests (default: CPU cores * 2)")
	f.DurationVar(&probeCfg.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
	f.StringVar(&probeCfg.OutputFile, "output", "", "write the JSON report to this file")
	f.BoolVar(&probeCfg.Verbose, "verbose", false, "log every violation")
	rootCmd.AddCommand(probeCmd)
}
