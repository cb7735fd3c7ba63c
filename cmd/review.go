package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BrunoRangell/app-muran-sub008/internal/cli"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/review"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagReviewClient   string
	flagOnlyAdjustment bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Fetch live spend and review every account's daily budget",
	RunE:  runReview,
}

func init() {
	reviewCmd.Flags().StringVarP(&flagReviewClient, "client", "c", "", "Review a single client (ID or name)")
	reviewCmd.Flags().BoolVarP(&flagOnlyAdjustment, "needs-adjustment", "a", false, "Only show accounts needing adjustment")
	rootCmd.Flags().StringVarP(&flagReviewClient, "client", "c", "", "Filter by client name (substring)")
	rootCmd.Flags().BoolVarP(&flagOnlyAdjustment, "needs-adjustment", "a", false, "Only show accounts needing adjustment")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	platforms, err := selectedPlatforms(rt.svc.Platforms())
	if err != nil {
		return err
	}

	var clientID string
	if flagReviewClient != "" {
		c, err := resolveClient(ctx, rt.store, flagReviewClient)
		if err != nil {
			return err
		}
		clientID = c.ID
	}

	today := rt.svc.Today()
	for _, p := range platforms {
		var res *review.BatchResult
		if clientID != "" {
			res, err = rt.svc.ReviewClient(ctx, clientID, p, progressFn("Reviewing "+p.Label()))
		} else {
			res, err = rt.svc.ReviewAll(ctx, p, progressFn("Reviewing "+p.Label()))
		}
		if err != nil {
			return fmt.Errorf("reviewing %s: %w", p.Label(), err)
		}

		reviews := res.Reviews
		if flagOnlyAdjustment {
			reviews = review.FilterNeedsAdjustment(reviews)
		}
		review.SortByUrgency(reviews)

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("%s · %s", p.Label(), cli.FormatDate(today))))
		fmt.Println()
		fmt.Print(renderReviews(reviews))
		printTally(res)
	}
	return nil
}

// runLatest prints the most recent stored review of every account without
// calling the ad platforms.
func runLatest(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	platforms, err := selectedPlatforms(model.Platforms)
	if err != nil {
		return err
	}

	shown := 0
	for _, p := range platforms {
		reviews, err := st.LatestReviews(ctx, p)
		if err != nil {
			return err
		}
		if len(reviews) == 0 {
			continue
		}
		reviews = review.FilterByClient(reviews, flagReviewClient)
		if flagOnlyAdjustment {
			reviews = review.FilterNeedsAdjustment(reviews)
		}
		review.SortByUrgency(reviews)

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("%s · last review", p.Label())))
		fmt.Println()
		fmt.Print(renderReviews(reviews))
		shown++
	}

	if shown == 0 {
		fmt.Println("\n  No reviews yet. Add clients and accounts, then run: muran review")
	}
	return nil
}

func renderReviews(reviews []model.Review) string {
	if len(reviews) == 0 {
		return "  " + cli.RenderMuted("No accounts to show.") + "\n"
	}

	rows := make([][]string, 0, len(reviews))
	var budgetSum, spentSum, idealSum decimal.Decimal
	for _, r := range reviews {
		budgetSum = budgetSum.Add(r.TotalBudget)
		spentSum = spentSum.Add(r.Spent)
		idealSum = idealSum.Add(r.IdealDailyBudget)
		rows = append(rows, []string{
			r.ClientName,
			r.AccountName,
			cli.FormatCycle(r),
			cli.FormatBRL(r.TotalBudget),
			cli.FormatBRL(r.Spent),
			fmt.Sprintf("%d", r.RemainingDays),
			cli.FormatBRL(r.IdealDailyBudget),
			cli.FormatBRL(r.CurrentDailyBudget),
			cli.RenderRecommendation(r.Current),
			cli.FormatBRL(r.TrailingAverage),
			cli.RenderRecommendation(r.Average),
		})
	}

	return cli.RenderTable(cli.Table{
		Headers:   []string{"Client", "Account", "Cycle", "Budget", "Spent", "Days", "Ideal/day", "Configured", "Adjust", "5d avg", "Adjust"},
		LabelCols: 3,
		Rows:      rows,
		Footer: fmt.Sprintf("%d accounts · budget %s · spent %s · ideal %s/day",
			len(reviews), cli.FormatBRL(budgetSum), cli.FormatBRL(spentSum), cli.FormatBRL(idealSum)),
	})
}

func printTally(res *review.BatchResult) {
	fmt.Printf("\n  %d reviewed, %d need adjustment, %d failed (%s)\n",
		res.Succeeded, res.NeedsAdjustment, res.Failed, cli.FormatDuration(res.Duration))
	for _, e := range res.Errors {
		msg := e.Error()
		if errors.Is(e.Err, review.ErrNoBudget) {
			msg += " (set one with: muran accounts budget)"
		}
		fmt.Println("  " + cli.RenderWarning(msg))
	}
}
