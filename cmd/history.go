package cmd

import (
	"context"
	"fmt"

	"github.com/BrunoRangell/app-muran-sub008/internal/cli"

	"github.com/spf13/cobra"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history <account>",
	Short: "Show past daily reviews of one account",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 30, "Number of days to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	acct, err := resolveAccount(ctx, st, args[0])
	if err != nil {
		return err
	}

	reviews, err := st.ReviewHistory(ctx, acct.ID, flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		fmt.Printf("\n  No reviews for %s yet. Run: muran review\n", acct.Name)
		return nil
	}

	rows := make([][]string, 0, len(reviews))
	avgSeries := make([]float64, len(reviews))
	idealSeries := make([]float64, len(reviews))
	for i, r := range reviews {
		rows = append(rows, []string{
			cli.FormatDate(r.ReviewDate),
			cli.FormatCycle(r),
			cli.FormatBRL(r.Spent),
			fmt.Sprintf("%d", r.RemainingDays),
			cli.FormatBRL(r.IdealDailyBudget),
			cli.FormatBRL(r.CurrentDailyBudget),
			cli.RenderRecommendation(r.Current),
			cli.FormatBRL(r.TrailingAverage),
			cli.RenderRecommendation(r.Average),
		})
		// Sparklines read left to right, oldest first.
		j := len(reviews) - 1 - i
		avgSeries[j] = r.TrailingAverage.InexactFloat64()
		idealSeries[j] = r.IdealDailyBudget.InexactFloat64()
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s · %s", acct.Name, acct.Platform.Label())))
	fmt.Println()
	fmt.Printf("  5-day avg  %s\n", cli.RenderSparkline(avgSeries))
	fmt.Printf("  Ideal/day  %s\n", cli.RenderSparkline(idealSeries))
	fmt.Printf("  Latest     %s\n\n", cli.FormatDirection(reviews[0].Current.Direction))
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:   []string{"Date", "Cycle", "Spent", "Days", "Ideal/day", "Configured", "Adjust", "5d avg", "Adjust"},
		LabelCols: 2,
		Rows:      rows,
	}))
	return nil
}
