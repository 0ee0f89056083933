package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	lbType  string
	lbMode  string
	lbLimit int
)

var creditCmd = &cobra.Command{
	Use:   "credit <clientId>",
	Short: "Evaluate one client's credit capacity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := initEngine(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		res, err := eng.svc.EvaluateCreditCapacity(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("credit %s: %w", args[0], err)
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard <clientId>",
	Short: "Evaluate one client's leaderboard standing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := initEngine(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		res, err := eng.svc.EvaluateLeaderboard(cmd.Context(), args[0], lbType, lbMode, lbLimit)
		if err != nil {
			return fmt.Errorf("leaderboard %s: %w", args[0], err)
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var recalcCmd = &cobra.Command{
	Use:   "recalc [clientId...]",
	Short: "Recalculate credit capacity for the given or all active clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := initEngine(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		res, err := eng.svc.EvaluateBatch(cmd.Context(), args)
		if err != nil {
			return fmt.Errorf("recalc: %w", err)
		}
		if err := printJSON(cmd.OutOrStdout(), res.Report); err != nil {
			return err
		}
		if n := res.Failed(); n > 0 {
			return fmt.Errorf("recalc: %d of %d clients failed", n, res.Total)
		}
		return nil
	},
}

func init() {
	leaderboardCmd.Flags().StringVar(&lbType, "type", "ytd_spend", "leaderboard type")
	leaderboardCmd.Flags().StringVar(&lbMode, "mode", "transparent", "display mode: transparent or blackbox")
	leaderboardCmd.Flags().IntVar(&lbLimit, "limit", 0, "number of top entries (0 selects the configured top_k)")
	rootCmd.AddCommand(creditCmd, leaderboardCmd, recalcCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
