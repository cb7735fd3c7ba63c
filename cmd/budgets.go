package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/budget"
	"github.com/BrunoRangell/app-muran-sub008/internal/cli"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagBudgetAccount     string
	flagBudgetDescription string
	flagBudgetAmount      string
	flagBudgetStart       string
	flagBudgetEnd         string
	flagBudgetAll         bool
	flagBudgetInactive    bool
)

var budgetsCmd = &cobra.Command{
	Use:     "budgets",
	Aliases: []string{"budget"},
	Short:   "Manage date-bounded custom budgets that override the monthly budget",
	RunE:    runBudgetsList,
}

var budgetsListCmd = &cobra.Command{
	Use:   "list [client]",
	Short: "List custom budgets",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBudgetsList,
}

var budgetsAddCmd = &cobra.Command{
	Use:   "add <client> <amount> <start> <end>",
	Short: "Add a custom budget (needs --platform; dates as YYYY-MM-DD or DD/MM/YYYY)",
	Args:  cobra.ExactArgs(4),
	RunE:  runBudgetsAdd,
}

var budgetsEditCmd = &cobra.Command{
	Use:   "edit <budget-id>",
	Short: "Change a custom budget's amount, dates or description",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetsEdit,
}

var budgetsActivateCmd = &cobra.Command{
	Use:   "activate <budget-id>",
	Short: "Activate a custom budget",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setBudgetActive(args[0], true) },
}

var budgetsDeactivateCmd = &cobra.Command{
	Use:   "deactivate <budget-id>",
	Short: "Deactivate a custom budget",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setBudgetActive(args[0], false) },
}

var budgetsDeleteCmd = &cobra.Command{
	Use:   "delete <budget-id>",
	Short: "Delete a custom budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetsDelete,
}

var budgetsActiveCmd = &cobra.Command{
	Use:   "active <account>",
	Short: "Show which budget applies to an account today",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetsActive,
}

func init() {
	budgetsListCmd.Flags().BoolVar(&flagBudgetAll, "all", false, "Include inactive and expired budgets")
	budgetsCmd.Flags().BoolVar(&flagBudgetAll, "all", false, "Include inactive and expired budgets")

	budgetsAddCmd.Flags().StringVar(&flagBudgetAccount, "account", "", "Limit to one account (ID or external ID); default is every account of the client")
	budgetsAddCmd.Flags().StringVarP(&flagBudgetDescription, "description", "m", "", "Description")
	budgetsAddCmd.Flags().BoolVar(&flagBudgetInactive, "inactive", false, "Create without activating")

	budgetsEditCmd.Flags().StringVar(&flagBudgetAmount, "amount", "", "New amount")
	budgetsEditCmd.Flags().StringVar(&flagBudgetStart, "start", "", "New start date")
	budgetsEditCmd.Flags().StringVar(&flagBudgetEnd, "end", "", "New end date")
	budgetsEditCmd.Flags().StringVarP(&flagBudgetDescription, "description", "m", "", "New description")

	budgetsCmd.AddCommand(budgetsListCmd, budgetsAddCmd, budgetsEditCmd,
		budgetsActivateCmd, budgetsDeactivateCmd, budgetsDeleteCmd, budgetsActiveCmd)
	rootCmd.AddCommand(budgetsCmd)
}

func runBudgetsList(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	today := budget.Today(time.Now(), cfg.Location())
	f := store.CustomBudgetFilter{}
	if !flagBudgetAll {
		f.ActiveOnly = true
	}
	if len(args) == 1 {
		c, err := resolveClient(ctx, st, args[0])
		if err != nil {
			return err
		}
		f.ClientID = c.ID
	}
	if flagPlatform != "" {
		if f.Platform, err = model.ParsePlatform(flagPlatform); err != nil {
			return err
		}
	}

	budgets, err := st.ListCustomBudgets(ctx, f)
	if err != nil {
		return err
	}

	names, err := clientNames(ctx, st)
	if err != nil {
		return err
	}

	var rows [][]string
	for _, b := range budgets {
		if !flagBudgetAll && budget.DaysBetween(b.EndDate, today) > 0 {
			continue
		}
		scope := "all accounts"
		if !b.ClientWide() {
			scope = shortID(b.AccountID)
		}
		rows = append(rows, []string{
			shortID(b.ID),
			names[b.ClientID],
			b.Platform.Label(),
			scope,
			cli.FormatBRL(b.Amount),
			cli.FormatPeriod(b.StartDate, b.EndDate),
			budgetState(b, today),
			b.Description,
		})
	}

	if len(rows) == 0 {
		fmt.Println("\n  No custom budgets. Add one with: muran budgets add <client> <amount> <start> <end> -p meta")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("Custom budgets"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:   []string{"ID", "Client", "Platform", "Scope", "Amount", "Period", "State", "Description"},
		LabelCols: 4,
		Rows:      rows,
	}))
	return nil
}

func budgetState(b model.CustomBudget, today time.Time) string {
	switch {
	case !b.IsActive:
		return "inactive"
	case budget.DaysBetween(today, b.StartDate) > 0:
		return "scheduled"
	case budget.DaysBetween(b.EndDate, today) > 0:
		return "expired"
	}
	return "running"
}

func clientNames(ctx context.Context, st *store.Store) (map[string]string, error) {
	clients, err := st.ListClients(ctx, "")
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	return names, nil
}

func runBudgetsAdd(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	platform, err := requirePlatform()
	if err != nil {
		return err
	}
	amount, err := parseMoney(args[1])
	if err != nil {
		return err
	}

	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	rng, err := parseRange(args[2], args[3], cfg.Location())
	if err != nil {
		return err
	}

	c, err := resolveClient(ctx, st, args[0])
	if err != nil {
		return err
	}

	b := &model.CustomBudget{
		ClientID:    c.ID,
		Platform:    platform,
		Amount:      amount,
		StartDate:   rng.Start,
		EndDate:     rng.End,
		IsActive:    !flagBudgetInactive,
		Description: flagBudgetDescription,
	}
	if flagBudgetAccount != "" {
		acct, err := resolveAccount(ctx, st, flagBudgetAccount)
		if err != nil {
			return err
		}
		if acct.ClientID != c.ID || acct.Platform != platform {
			return fmt.Errorf("account %s does not belong to %s on %s", acct.Name, c.Name, platform.Label())
		}
		b.AccountID = acct.ID
	}

	if err := st.CreateCustomBudget(ctx, b); err != nil {
		return err
	}
	fmt.Printf("  Added %s custom budget of %s for %s (%s, %s)\n",
		platform.Label(), cli.FormatBRL(b.Amount), c.Name,
		cli.FormatPeriod(b.StartDate, b.EndDate), cli.FormatDays(rng.Days()))
	fmt.Printf("  ID: %s\n", b.ID)
	return nil
}

func runBudgetsEdit(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	b, err := resolveCustomBudget(ctx, st, args[0])
	if err != nil {
		return err
	}

	if flagBudgetAmount != "" {
		if b.Amount, err = parseMoney(flagBudgetAmount); err != nil {
			return err
		}
	}
	start, end := b.StartDate.Format(budget.DateFormat), b.EndDate.Format(budget.DateFormat)
	if flagBudgetStart != "" {
		start = flagBudgetStart
	}
	if flagBudgetEnd != "" {
		end = flagBudgetEnd
	}
	rng, err := parseRange(start, end, cfg.Location())
	if err != nil {
		return err
	}
	b.StartDate, b.EndDate = rng.Start, rng.End
	if flagBudgetDescription != "" {
		b.Description = flagBudgetDescription
	}

	if err := st.UpdateCustomBudget(ctx, b); err != nil {
		return err
	}
	fmt.Printf("  Updated budget %s: %s, %s\n", shortID(b.ID), cli.FormatBRL(b.Amount), cli.FormatPeriod(b.StartDate, b.EndDate))
	return nil
}

func setBudgetActive(ref string, active bool) error {
	ctx := context.Background()
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	b, err := resolveCustomBudget(ctx, st, ref)
	if err != nil {
		return err
	}
	if err := st.SetCustomBudgetActive(ctx, b.ID, active); err != nil {
		return err
	}
	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Printf("  Budget %s %s\n", shortID(b.ID), state)
	return nil
}

func runBudgetsDelete(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	b, err := resolveCustomBudget(ctx, st, args[0])
	if err != nil {
		return err
	}
	if err := st.DeleteCustomBudget(ctx, b.ID); err != nil {
		return err
	}
	fmt.Printf("  Deleted budget %s\n", shortID(b.ID))
	return nil
}

func runBudgetsActive(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	acct, err := resolveAccount(ctx, rt.store, args[0])
	if err != nil {
		return err
	}

	today := rt.svc.Today()
	b, err := rt.svc.ActiveCustomBudget(ctx, *acct)
	if err != nil {
		return err
	}

	var custom *budget.DateRange
	fmt.Printf("\n  %s (%s) on %s\n", acct.Name, acct.Platform.Label(), cli.FormatDate(today))
	if b == nil {
		fmt.Printf("  Monthly budget: %s\n", cli.FormatBRL(acct.MonthlyBudget))
	} else {
		custom = &budget.DateRange{Start: b.StartDate, End: b.EndDate}
		scope := "client-wide"
		if !b.ClientWide() {
			scope = "this account"
		}
		fmt.Printf("  Custom budget %s: %s for %s (%s)\n", shortID(b.ID), cli.FormatBRL(b.Amount),
			cli.FormatPeriod(b.StartDate, b.EndDate), scope)
		if b.Description != "" {
			fmt.Printf("  %s\n", cli.RenderMuted(b.Description))
		}
	}
	bounds := budget.Bounds(today, custom)
	fmt.Printf("  Period: %s, %s of %s left\n\n",
		cli.FormatPeriod(bounds.Start, bounds.End),
		cli.FormatDays(budget.RemainingDays(today, custom)),
		cli.FormatDays(budget.TotalDays(today, custom)))
	return nil
}

// resolveCustomBudget matches a budget by full ID or unique ID prefix.
func resolveCustomBudget(ctx context.Context, st *store.Store, ref string) (*model.CustomBudget, error) {
	if b, err := st.GetCustomBudget(ctx, ref); err == nil {
		return b, nil
	}
	if len(ref) < 4 {
		return nil, fmt.Errorf("custom budget %q not found", ref)
	}

	all, err := st.ListCustomBudgets(ctx, store.CustomBudgetFilter{})
	if err != nil {
		return nil, err
	}
	var matches []model.CustomBudget
	for _, b := range all {
		if strings.HasPrefix(b.ID, ref) {
			matches = append(matches, b)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("custom budget %q not found", ref)
	case 1:
		return &matches[0], nil
	}
	return nil, fmt.Errorf("custom budget %q is ambiguous (%d matches)", ref, len(matches))
}

// parseRange accepts YYYY-MM-DD or DD/MM/YYYY dates.
func parseRange(start, end string, loc *time.Location) (budget.DateRange, error) {
	return budget.ParseDateRange(normalizeDate(start), normalizeDate(end), loc)
}

func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return t.Format(budget.DateFormat)
	}
	return s
}
