// Command ticketctl is the conversational front end for the ticketing API:
// an interactive agent shell, a one-shot prompt mode, a diff reviewer, and
// plain API queries.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/ticketd-io/ticketd/internal/agent"
	"github.com/ticketd-io/ticketd/internal/cli"
	"github.com/ticketd-io/ticketd/internal/client"
	"github.com/ticketd-io/ticketd/internal/config"
	"github.com/ticketd-io/ticketd/internal/provider"
	"github.com/ticketd-io/ticketd/internal/review"
	"github.com/ticketd-io/ticketd/internal/tool"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "chat":
		cmdChat(os.Args[2:])
	case "review":
		cmdReview(os.Args[2:])
	case "tickets":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: ticketctl tickets <list|show>")
			os.Exit(1)
		}
		switch os.Args[2] {
		case "list":
			cmdTicketsList(os.Args[3:])
		case "show":
			if len(os.Args) < 4 {
				fmt.Fprintln(os.Stderr, "usage: ticketctl tickets show <id>")
				os.Exit(1)
			}
			cmdTicketsShow(os.Args[3])
		default:
			fmt.Fprintf(os.Stderr, "unknown tickets subcommand: %s\n", os.Args[2])
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// setupLogger builds the default logger from LOG_LEVEL, pretty on terminals.
func setupLogger(cfg *config.Config, verbose bool) *slog.Logger {
	logLevel := cfg.Level(slog.LevelWarn)
	if verbose {
		logLevel = slog.LevelDebug
	}
	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// buildProvider selects Azure OpenAI when its credential pair is set,
// falling back to the direct OpenAI API. No credentials is fatal.
func buildProvider(cfg *config.Config, logger *slog.Logger) (provider.Provider, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}
	if cfg.HasAzure() {
		logger.Info("using Azure OpenAI", "endpoint", cfg.Azure.Endpoint, "deployment", cfg.Azure.Deployment)
		return provider.NewAzure(
			cfg.Azure.Endpoint,
			cfg.Azure.APIKey,
			cfg.Azure.Deployment,
			provider.WithAzureAPIVersion(cfg.Azure.APIVersion),
		), nil
	}
	logger.Info("using OpenAI API", "model", cfg.OpenAI.Model)
	return provider.NewOpenAI(cfg.OpenAI.APIKey, provider.WithModel(cfg.OpenAI.Model)), nil
}

func credentialsHint() {
	fmt.Fprintln(os.Stderr, "\nPlease set one of the following environment variables:")
	fmt.Fprintln(os.Stderr, "  - AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY")
	fmt.Fprintln(os.Stderr, "  - OPENAI_API_KEY")
}

// --- chat command ---

func cmdChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	prompt := fs.String("prompt", "", "Single prompt (omit for interactive)")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(args)

	cfg := config.Load()
	logger := setupLogger(cfg, *verbose)

	prov, err := buildProvider(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		credentialsHint()
		os.Exit(1)
	}

	apiClient := client.New(cfg.APIBaseURL, client.WithAPIKey(cfg.APIKey), client.WithLogger(logger))
	reg := tool.NewRegistry()
	tool.RegisterTicketTools(reg, apiClient)

	a := agent.New(prov, reg)
	a.Logger = logger
	logger.Info("agent initialized", "provider", prov.Name())

	ctx := context.Background()

	if *prompt != "" {
		response, err := a.Chat(ctx, *prompt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(response)
		return
	}

	shell := cli.New(a, cfg.APIBaseURL,
		cli.WithIO(os.Stdin, os.Stdout),
		cli.WithTTY(isatty.IsTerminal(os.Stdout.Fd())),
		cli.WithLogger(logger),
	)
	if err := shell.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// --- review command ---

func cmdReview(args []string) {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	output := fs.String("o", "review_comment.md", "Output file for the review comment")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: ticketctl review <diff-file>")
		os.Exit(1)
	}

	cfg := config.Load()
	logger := setupLogger(cfg, *verbose)

	diff, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	prov, err := buildProvider(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		credentialsHint()
		os.Exit(1)
	}

	r := review.New(prov)
	r.Logger = logger
	if n := envInt("MIN_DIFF_SIZE"); n > 0 {
		r.MinDiffSize = n
	}
	if n := envInt("MAX_DIFF_SIZE"); n > 0 {
		r.MaxDiffSize = n
	}

	comment := review.Comment(r.Review(context.Background(), string(diff)))

	if err := os.WriteFile(*output, []byte(comment), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Review generated successfully")
	fmt.Println("----------------------------------------")
	fmt.Println(comment)
}

// --- tickets commands (plain API queries, no agent) ---

func cmdTicketsList(args []string) {
	fs := flag.NewFlagSet("tickets list", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status (OPEN|RESOLVED|CLOSED)")
	fs.Parse(args)

	cfg := config.Load()
	setupLogger(cfg, false)

	apiClient := client.New(cfg.APIBaseURL, client.WithAPIKey(cfg.APIKey))
	result := apiClient.ListTickets(context.Background(), *status)
	if !result.Success {
		fmt.Fprintf(os.Stderr, "error: %s\n", result.Error)
		os.Exit(1)
	}

	tickets, _ := result.Data.([]any)
	for _, raw := range tickets {
		t, _ := raw.(map[string]any)
		fmt.Printf("%-36s %-10s %s\n", t["id"], t["status"], t["title"])
	}
}

func cmdTicketsShow(id string) {
	cfg := config.Load()
	setupLogger(cfg, false)

	apiClient := client.New(cfg.APIBaseURL, client.WithAPIKey(cfg.APIKey))
	result := apiClient.GetTicket(context.Background(), id)
	if !result.Success {
		fmt.Fprintf(os.Stderr, "error: %s\n", result.Error)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result.Data, "", "  ")
	fmt.Println(string(out))
}

// --- Helpers ---

func envInt(key string) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func printUsage() {
	fmt.Println("ticketctl — ticketing agent CLI")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  chat                 Talk to the agent (--prompt for one-shot)")
	fmt.Println("  review <diff-file>   Generate an AI review for a diff")
	fmt.Println("  tickets list         List tickets (--status)")
	fmt.Println("  tickets show <id>    Show ticket details")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  API_BASE_URL              Ticketing API URL (default: http://localhost:8000/v1)")
	fmt.Println("  API_KEY                   Shared secret for the X-API-Key header")
	fmt.Println("  OPENAI_API_KEY            API key for the OpenAI provider")
	fmt.Println("  AZURE_OPENAI_ENDPOINT     Azure OpenAI endpoint")
	fmt.Println("  AZURE_OPENAI_API_KEY      Azure OpenAI API key")
	fmt.Println("  AZURE_OPENAI_DEPLOYMENT   Azure deployment name (default: gpt-5-mini)")
	fmt.Println("  LOG_LEVEL                 DEBUG, INFO, WARN, or ERROR")
}
