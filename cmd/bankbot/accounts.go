package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"bankbot/internal/repo"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var accountNumberRegex = regexp.MustCompile(`^\d{6,16}$`)

// demoAccounts populate a fresh ledger when no seed file is given.
var demoAccounts = []repo.Account{
	{Number: "8123623741", Name: "Muruga S", Email: "muruga@example.com", Phone: "6513429873", Balance: 250000},
	{Number: "8912672463", Name: "Tharunika K", Email: "tharunika@example.com", Phone: "9812327638", Balance: 420000},
	{Number: "23647126543", Name: "Krishna P", Email: "krishna@example.com", Phone: "9856437865", Balance: 300000},
}

type seedAccount struct {
	Number  string `yaml:"number"`
	Name    string `yaml:"name"`
	Email   string `yaml:"email"`
	Phone   string `yaml:"phone"`
	Balance int64  `yaml:"balance"`
}

type accountWriter interface {
	UpsertAccount(ctx context.Context, acct repo.Account) error
}

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage ledger accounts",
	}
	cmd.AddCommand(newAccountsSeedCmd())
	return cmd
}

func newAccountsSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create or update ledger accounts from a YAML file, or the demo set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts := demoAccounts
			if file != "" {
				loaded, err := loadSeedFile(file)
				if err != nil {
					return err
				}
				accounts = loaded
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())
			store, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := seedAccounts(cmd.Context(), store, accounts); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d accounts\n", len(accounts))
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML list of accounts (number, name, email, phone, balance)")
	return cmd
}

func seedAccounts(ctx context.Context, store accountWriter, accounts []repo.Account) error {
	for _, acct := range accounts {
		if err := store.UpsertAccount(ctx, acct); err != nil {
			return fmt.Errorf("seed account %s: %w", acct.Number, err)
		}
	}
	return nil
}

func loadSeedFile(path string) ([]repo.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return parseSeed(f)
}

func parseSeed(r io.Reader) ([]repo.Account, error) {
	var rows []seedAccount
	if err := yaml.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	out := make([]repo.Account, 0, len(rows))
	for i, row := range rows {
		row.Number = strings.TrimSpace(row.Number)
		row.Name = strings.TrimSpace(row.Name)
		if !accountNumberRegex.MatchString(row.Number) || row.Name == "" {
			return nil, fmt.Errorf("seed row %d: a 6-16 digit number and a name are required", i)
		}
		if row.Balance < 0 {
			return nil, fmt.Errorf("seed row %d: balance must not be negative", i)
		}
		out = append(out, repo.Account{
			Number:  row.Number,
			Name:    row.Name,
			Email:   strings.TrimSpace(row.Email),
			Phone:   strings.TrimSpace(row.Phone),
			Balance: row.Balance,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("seed file has no accounts")
	}
	return out, nil
}
