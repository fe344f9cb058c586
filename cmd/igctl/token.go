package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/maheshrc27/igscheduler/pkg/utils"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a session token for the API",
	Long:  "Print a signed session token, usable as the session cookie or an Authorization bearer.",
	RunE:  runToken,
}

var (
	tokenUserID int64
	tokenTTL    time.Duration
)

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().Int64Var(&tokenUserID, "user", 0, "User id the token is issued for")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	if tokenUserID <= 0 {
		return errors.New("--user must be a positive id")
	}

	token, err := utils.GenerateToken(globalConfig.SecretKey, tokenUserID, tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
