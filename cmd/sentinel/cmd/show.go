package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
)

var showLimit int

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the latest saved run",
	RunE:  runShow,
}

func init() {
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 0, "print at most n rows (0 = all)")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sink, err := newSink(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init sink: %w", err)
	}
	defer sink.Close()
	if err := sink.EnsureSchema(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	run, err := sink.LatestRun(ctx)
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Fprintln(out, "no run recorded yet")
		return nil
	}
	fmt.Fprintf(out, "run %s finished %s (%s tickers, %d skipped)\n\n",
		run.RunID, humanize.Time(run.FinishedAt), humanize.Comma(int64(run.Universe)), run.Failed)

	rows, err := sink.LoadAll(ctx)
	if err != nil {
		return err
	}
	if showLimit > 0 && len(rows) > showLimit {
		rows = rows[:showLimit]
	}
	writeRows(tabwriter.NewWriter(out, 0, 0, 2, ' ', 0), rows)
	return nil
}

func writeRows(w *tabwriter.Writer, rows []model.AnalysisResult) {
	fmt.Fprintln(w, "TICKER\tNAME\tPRICE\tCHG\tMA20\tX-MA20\tBIAS\tRANK\tBOLL\tMACD\tKDJ\tVOLUME")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.TickerID, r.Name,
			notifier.FormatNumber(r.LastPrice), notifier.FormatSignedPct(r.ChangeRate),
			r.MA20Trend, r.CloseVsMA20,
			notifier.FormatSignedPct(r.BiasPct), notifier.FormatNumber(r.BiasRank),
			notifier.FormatSigned(r.BollScore),
			r.MACDLabel, r.KDJLabel,
			notifier.FormatVolume(r.Volume))
	}
	w.Flush()
}
