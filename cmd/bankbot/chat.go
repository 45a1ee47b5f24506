package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"bankbot/internal/convo"
	"bankbot/internal/repo"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var quitWords = map[string]bool{"quit": true, ":q": true, "/quit": true}

func newChatCmd() *cobra.Command {
	var (
		account string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logOut := io.Discard
			if verbose {
				logOut = cmd.ErrOrStderr()
			}
			a, err := wireApp(cmd.Context(), logOut)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.chat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), account)
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "account number of the signed-in customer")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "write logs to stderr")
	return cmd
}

// chat runs one terminal session until EOF or a quit word.
func (a *app) chat(ctx context.Context, in io.Reader, out io.Writer, account string) error {
	sessionID := "cli-" + uuid.NewString()
	if _, err := fmt.Fprintln(out, "Type a message, or \"quit\" to leave."); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		if _, err := fmt.Fprint(out, "> "); err != nil {
			return err
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quitWords[strings.ToLower(line)] {
			break
		}
		res, err := a.manager.Turn(ctx, sessionID, account, line)
		if err != nil {
			return fmt.Errorf("process turn: %w", err)
		}
		if err := a.store.SaveChat(ctx, chatRecord(account, line, res)); err != nil {
			a.logger.Warn("failed saving chat", "error", err)
		}
		if _, err := fmt.Fprintf(out, "%s\n", res.Reply); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	_, err := fmt.Fprintln(out)
	return err
}

func chatRecord(account, message string, res convo.Result) repo.ChatRecord {
	return repo.ChatRecord{
		Account:     account,
		UserMessage: message,
		BotResponse: res.Reply,
		Intent:      res.Label,
		Confidence:  res.Confidence,
		CreatedAt:   time.Now().UTC(),
	}
}
