package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/budget"
	"github.com/BrunoRangell/app-muran-sub008/internal/cli"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagCalcTotal   string
	flagCalcSpent   string
	flagCalcCurrent string
	flagCalcAverage string
	flagCalcStart   string
	flagCalcEnd     string
	flagCalcToday   string
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Compute the ideal daily budget offline from given figures",
	Example: "  muran calc --total 3000 --spent 1500 --current 100\n" +
		"  muran calc --total 600 --spent 200 --current 90 --start 2024-03-18 --end 2024-03-22 --today 2024-03-20",
	RunE: runCalc,
}

func init() {
	calcCmd.Flags().StringVar(&flagCalcTotal, "total", "", "Total budget of the period")
	calcCmd.Flags().StringVar(&flagCalcSpent, "spent", "0", "Amount spent so far in the period")
	calcCmd.Flags().StringVar(&flagCalcCurrent, "current", "0", "Configured daily budget")
	calcCmd.Flags().StringVar(&flagCalcAverage, "average", "0", "Average daily spend of the last 5 days")
	calcCmd.Flags().StringVar(&flagCalcStart, "start", "", "Custom period start (omit for the monthly cycle)")
	calcCmd.Flags().StringVar(&flagCalcEnd, "end", "", "Custom period end")
	calcCmd.Flags().StringVar(&flagCalcToday, "today", "", "Evaluate as of this date (default: today in the configured timezone)")
	_ = calcCmd.MarkFlagRequired("total")
	rootCmd.AddCommand(calcCmd)
}

func runCalc(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc := cfg.Location()

	figures := make([]decimal.Decimal, 4)
	for i, s := range []string{flagCalcTotal, flagCalcSpent, flagCalcCurrent, flagCalcAverage} {
		if figures[i], err = parseMoney(s); err != nil {
			return err
		}
	}
	total, spent, current, average := figures[0], figures[1], figures[2], figures[3]

	today := budget.Today(time.Now(), loc)
	if flagCalcToday != "" {
		t, err := time.ParseInLocation(budget.DateFormat, normalizeDate(flagCalcToday), loc)
		if err != nil {
			return fmt.Errorf("parsing --today: %w", err)
		}
		today = budget.Day(t)
	}

	period := budget.MonthlyPeriod(total, spent)
	switch {
	case flagCalcStart != "" && flagCalcEnd != "":
		rng, err := parseRange(flagCalcStart, flagCalcEnd, loc)
		if err != nil {
			return err
		}
		period = budget.CustomPeriod(total, spent, rng)
	case flagCalcStart != "" || flagCalcEnd != "":
		return errors.New("--start and --end go together")
	}

	ev, err := budget.Evaluate(budget.Input{
		Period:             period,
		Today:              today,
		CurrentDailyBudget: current,
		TrailingAverage:    average,
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s cycle · %s", ev.Cycle, cli.FormatDate(today))))
	fmt.Println()
	fmt.Printf("  Period:           %s (%s)\n", cli.FormatPeriod(ev.Bounds.Start, ev.Bounds.End), cli.FormatDays(ev.TotalDays))
	fmt.Printf("  Remaining days:   %d\n", ev.RemainingDays)
	fmt.Printf("  Remaining budget: %s\n", cli.FormatBRL(ev.RemainingBudget))
	fmt.Printf("  Ideal daily:      %s\n", cli.FormatBRL(ev.IdealDailyBudget))
	fmt.Println()
	fmt.Printf("  Configured %s: %s\n", cli.FormatBRL(current), cli.RenderRecommendation(ev.Current))
	fmt.Printf("  5-day avg  %s: %s\n", cli.FormatBRL(average), cli.RenderRecommendation(ev.Average))
	if !current.IsPositive() {
		fmt.Println(cli.RenderMuted("  No configured daily budget: nothing to compare."))
	}
	fmt.Println()
	return nil
}
