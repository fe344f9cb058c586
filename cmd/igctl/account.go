package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/maheshrc27/igscheduler/internal/repository"
	"github.com/maheshrc27/igscheduler/internal/service"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage connected Instagram accounts",
}

var accountConnectCmd = &cobra.Command{
	Use:   "connect <instagram-user-id>",
	Short: "Connect an Instagram business account",
	Long:  "Store an Instagram business account and its page access token, encrypted with SECRET_KEY.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountConnect,
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's connected accounts",
	RunE:  runAccountList,
}

// Flags
var (
	accountUserID    int64
	accountUsername  string
	accountToken     string
	accountExpiresIn time.Duration
)

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountConnectCmd)
	accountCmd.AddCommand(accountListCmd)

	accountCmd.PersistentFlags().Int64Var(&accountUserID, "user", 0, "Owning user id")
	_ = accountCmd.MarkPersistentFlagRequired("user")

	accountConnectCmd.Flags().StringVar(&accountUsername, "username", "", "Instagram username")
	accountConnectCmd.Flags().StringVar(&accountToken, "token", "", "Page access token")
	accountConnectCmd.Flags().DurationVar(&accountExpiresIn, "expires-in", 0, "Token lifetime, e.g. 1440h")
	_ = accountConnectCmd.MarkFlagRequired("token")
}

func newAccountService() (service.AccountService, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	return service.NewAccountService(*globalConfig, repository.NewSocialAccountRepository(db)), nil
}

func runAccountConnect(cmd *cobra.Command, args []string) error {
	s, err := newAccountService()
	if err != nil {
		return err
	}

	var expiresAt time.Time
	if accountExpiresIn > 0 {
		expiresAt = time.Now().Add(accountExpiresIn)
	}

	account, err := s.Connect(cmd.Context(), accountUserID, args[0], accountUsername, accountToken, expiresAt)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Connected account %d (%s)\n", account.ID, account.AccountID)
	return nil
}

func runAccountList(cmd *cobra.Command, args []string) error {
	s, err := newAccountService()
	if err != nil {
		return err
	}

	accounts, err := s.List(cmd.Context(), accountUserID)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No accounts connected.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tINSTAGRAM ID\tUSERNAME\tTOKEN EXPIRES")
	for _, a := range accounts {
		expires := "-"
		if !a.TokenExpiresAt.IsZero() {
			expires = a.TokenExpiresAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", a.ID, a.AccountID, a.AccountUsername, expires)
	}
	return w.Flush()
}
