package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"breakout_bot/internal/config"
	"breakout_bot/internal/models"
	"breakout_bot/internal/storage"

	"github.com/spf13/cobra"
)

func openStore(ctx context.Context) (storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return storage.Open(ctx, cfg)
}

func newTradesCmd() *cobra.Command {
	var (
		limit  int
		symbol string
		status string
	)

	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List journal records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			recs, err := st.Trades(cmd.Context(), models.TradeFilter{
				Symbol: symbol,
				Status: models.Status(strings.ToUpper(status)),
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTRADE\tSYMBOL\tSTATUS\tQTY\tENTRY\tSL\tEXIT\tPNL\tSIM")
			for _, r := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.6f\t%.4f\t%.4f\t%.4f\t%.4f\t%v\n",
					r.Time.Format("2006-01-02 15:04:05"), r.TradeID, r.Symbol, r.Status,
					r.Qty, r.Entry, r.SL, r.Exit, r.PnL, r.Simulated)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "max records")
	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (OPEN|CLOSED)")
	return cmd
}

func newEquityCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "equity",
		Short: "Show equity history, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			snaps, err := st.EquityHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tEQUITY")
			for _, s := range snaps {
				fmt.Fprintf(w, "%s\t%.2f\n", s.Time.Format("2006-01-02 15:04:05"), s.Equity)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "max snapshots")
	return cmd
}
