package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrunoRangell/app-muran-sub008/internal/cli"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagAccountName    string
	flagAccountBudget  string
	flagAccountPrimary bool
	flagAccountFetch   bool
)

var accountsCmd = &cobra.Command{
	Use:     "accounts",
	Aliases: []string{"account"},
	Short:   "Manage ad accounts and their monthly budgets",
	RunE:    runAccountsList,
}

var accountsListCmd = &cobra.Command{
	Use:   "list [client]",
	Short: "List ad accounts, optionally of one client",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAccountsList,
}

var accountsAddCmd = &cobra.Command{
	Use:   "add <client> <external-id>",
	Short: "Attach an ad account to a client (needs --platform)",
	Args:  cobra.ExactArgs(2),
	RunE:  runAccountsAdd,
}

var accountsBudgetCmd = &cobra.Command{
	Use:   "budget <account> <monthly-amount>",
	Short: "Set an account's default monthly budget",
	Args:  cobra.ExactArgs(2),
	RunE:  runAccountsBudget,
}

func init() {
	accountsAddCmd.Flags().StringVar(&flagAccountName, "name", "", "Display name (defaults to the platform's account name)")
	accountsAddCmd.Flags().StringVar(&flagAccountBudget, "budget", "0", "Monthly budget")
	accountsAddCmd.Flags().BoolVar(&flagAccountPrimary, "primary", false, "Mark as the client's primary account")
	accountsAddCmd.Flags().BoolVar(&flagAccountFetch, "fetch", true, "Look the account name up on the platform")

	accountsCmd.AddCommand(accountsListCmd, accountsAddCmd, accountsBudgetCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runAccountsList(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	var f store.AccountFilter
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

	targets, err := st.ListReviewTargets(ctx, f)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Println("\n  No accounts. Add one with: muran accounts add <client> <external-id> -p meta")
		return nil
	}

	rows := make([][]string, 0, len(targets))
	for _, t := range targets {
		primary := ""
		if t.Account.IsPrimary {
			primary = "*"
		}
		rows = append(rows, []string{
			shortID(t.Account.ID),
			t.Client.Name,
			t.Account.Platform.Label(),
			t.Account.ExternalID,
			t.Account.Name + primary,
			cli.FormatBRL(t.Account.MonthlyBudget),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("Ad accounts"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:   []string{"ID", "Client", "Platform", "External ID", "Name", "Monthly"},
		LabelCols: 5,
		Rows:      rows,
	}))
	fmt.Println(cli.RenderMuted("  * primary account"))
	return nil
}

func runAccountsAdd(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	platform, err := requirePlatform()
	if err != nil {
		return err
	}
	amount, err := parseMoney(flagAccountBudget)
	if err != nil {
		return err
	}

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	c, err := resolveClient(ctx, rt.store, args[0])
	if err != nil {
		return err
	}

	a := &model.Account{
		ClientID:      c.ID,
		Platform:      platform,
		ExternalID:    strings.TrimSpace(args[1]),
		Name:          flagAccountName,
		MonthlyBudget: amount,
		IsPrimary:     flagAccountPrimary,
	}

	if a.Name == "" && flagAccountFetch {
		info, err := rt.svc.LookupAccount(ctx, platform, a.ExternalID)
		if err != nil {
			fmt.Println("  " + cli.RenderWarning("could not fetch account name: "+err.Error()))
		} else {
			a.Name = info.Name
			if info.Currency != "" && info.Currency != "BRL" {
				fmt.Println("  " + cli.RenderWarning("account currency is "+info.Currency+"; amounts are shown as BRL"))
			}
		}
	}
	if a.Name == "" {
		a.Name = a.ExternalID
	}

	if err := rt.store.CreateAccount(ctx, a); err != nil {
		return err
	}
	fmt.Printf("  Added %s account %s (%s) to %s\n", platform.Label(), a.Name, a.ExternalID, c.Name)
	return nil
}

func runAccountsBudget(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	amount, err := parseMoney(args[1])
	if err != nil {
		return err
	}

	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	acct, err := resolveAccount(ctx, st, args[0])
	if err != nil {
		return err
	}
	if err := st.SetAccountBudget(ctx, acct.ID, amount); err != nil {
		return err
	}
	fmt.Printf("  %s monthly budget set to %s\n", acct.Name, cli.FormatBRL(amount))
	return nil
}

// resolveAccount matches an account by ID, ID prefix or external ID.
func resolveAccount(ctx context.Context, st *store.Store, ref string) (*model.Account, error) {
	if a, err := st.GetAccount(ctx, ref); err == nil {
		return a, nil
	}

	targets, err := st.ListReviewTargets(ctx, store.AccountFilter{})
	if err != nil {
		return nil, err
	}

	var matches []model.Account
	for _, t := range targets {
		a := t.Account
		if a.ID == ref || a.ExternalID == ref {
			return &a, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(a.ID, ref) {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("account %q not found", ref)
	case 1:
		return &matches[0], nil
	}
	return nil, fmt.Errorf("account %q is ambiguous (%d matches)", ref, len(matches))
}
