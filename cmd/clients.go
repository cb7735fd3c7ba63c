package cmd

import (
	"context"
	"fmt"

	"github.com/BrunoRangell/app-muran-sub008/internal/cli"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"
	"github.com/BrunoRangell/app-muran-sub008/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagClientStatus  string
	flagClientContact string
)

var clientsCmd = &cobra.Command{
	Use:     "clients",
	Aliases: []string{"client"},
	Short:   "Manage agency clients",
	RunE:    runClientsList,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients with their account counts",
	RunE:  runClientsList,
}

var clientsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a client",
	Args:  cobra.ExactArgs(1),
	RunE:  runClientsAdd,
}

var clientsStatusCmd = &cobra.Command{
	Use:   "status <client> <active|paused|inactive>",
	Short: "Change a client's status; only active clients are reviewed",
	Args:  cobra.ExactArgs(2),
	RunE:  runClientsStatus,
}

func init() {
	clientsListCmd.Flags().StringVar(&flagClientStatus, "status", "", "Only clients with this status")
	clientsCmd.Flags().StringVar(&flagClientStatus, "status", "", "Only clients with this status")
	clientsAddCmd.Flags().StringVar(&flagClientContact, "contact", "", "Contact person")
	clientsAddCmd.Flags().StringVar(&flagClientStatus, "status", string(model.ClientActive), "Initial status")

	clientsCmd.AddCommand(clientsListCmd, clientsAddCmd, clientsStatusCmd)
	rootCmd.AddCommand(clientsCmd)
}

func runClientsList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	clients, err := st.ListClients(ctx, model.ClientStatus(flagClientStatus))
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		fmt.Println("\n  No clients yet. Add one with: muran clients add \"Name\"")
		return nil
	}

	targets, err := st.ListReviewTargets(ctx, store.AccountFilter{})
	if err != nil {
		return err
	}
	counts := make(map[string]map[model.Platform]int)
	for _, t := range targets {
		if counts[t.Client.ID] == nil {
			counts[t.Client.ID] = make(map[model.Platform]int)
		}
		counts[t.Client.ID][t.Account.Platform]++
	}

	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []string{
			shortID(c.ID),
			c.Name,
			string(c.Status),
			c.ContactName,
			fmt.Sprintf("%d", counts[c.ID][model.PlatformMeta]),
			fmt.Sprintf("%d", counts[c.ID][model.PlatformGoogle]),
			cli.FormatDate(c.CreatedAt),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("Clients"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:   []string{"ID", "Name", "Status", "Contact", "Meta", "Google", "Since"},
		LabelCols: 4,
		Rows:      rows,
	}))
	return nil
}

func runClientsAdd(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	c := &model.Client{
		Name:        args[0],
		Status:      model.ClientStatus(flagClientStatus),
		ContactName: flagClientContact,
	}
	if err := st.CreateClient(ctx, c); err != nil {
		return err
	}
	fmt.Printf("  Added client %s (%s)\n", c.Name, c.ID)
	return nil
}

func runClientsStatus(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	c, err := resolveClient(ctx, st, args[0])
	if err != nil {
		return err
	}
	status := model.ClientStatus(args[1])
	if err := st.SetClientStatus(ctx, c.ID, status); err != nil {
		return err
	}
	fmt.Printf("  %s is now %s\n", c.Name, status)
	return nil
}
