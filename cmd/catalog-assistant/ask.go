package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"catalog-assistant/internal/common/logger"
	"catalog-assistant/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var sessionID string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question, or start an interactive session when none is given",
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id (default: a new random id)")
}

// asker is the part of the assistant the CLI talks to.
type asker interface {
	Handle(ctx context.Context, sessionID, utterance string) (models.ChatResponse, error)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	// Keep stdout for answers.
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, "stderr")
	defer zapLog.Sync()

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, zapLog)
	if err != nil {
		return err
	}
	defer a.Close()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if len(args) > 0 {
		return askOnce(ctx, a.service, sessionID, cmd.OutOrStdout(), strings.Join(args, " "))
	}
	return repl(ctx, a.service, sessionID, cmd.InOrStdin(), cmd.OutOrStdout())
}

func askOnce(ctx context.Context, svc asker, sessionID string, out io.Writer, question string) error {
	resp, err := svc.Handle(ctx, sessionID, question)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, resp.Response)
	return nil
}

// repl reads one question per line until EOF or "exit".
func repl(ctx context.Context, svc asker, sessionID string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Session %s. Type \"exit\" to quit.\n", sessionID)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := askOnce(ctx, svc, sessionID, out, line); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}
