// Command claudekit is a small chat frontend for the Claude Code CLI,
// built on the claudekit SDK. It supports one-shot prompts (-p) and an
// interactive line-based chat session.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/claudekit/claudekit"
)

var (
	promptText     string
	modelName      string
	permissionMode string
	configPath     string
	showCost       bool
)

func main() {
	root := &cobra.Command{
		Use:   "claudekit",
		Short: "Chat with Claude Code from the command line",
		Long: "claudekit drives a local Claude Code CLI process over its streaming\n" +
			"JSON interface. Run it with -p for a single prompt, or with no\n" +
			"arguments for an interactive session.",
		SilenceUsage: true,
		RunE:         run,
	}

	root.Flags().StringVarP(&promptText, "prompt", "p", "", "run a single prompt and exit")
	root.Flags().StringVarP(&modelName, "model", "m", "", "model to use")
	root.Flags().StringVar(&permissionMode, "permission-mode", "", "permission mode (default, acceptEdits, plan, bypassPermissions)")
	root.Flags().StringVarP(&configPath, "config", "c", "", "YAML options file")
	root.Flags().BoolVar(&showCost, "cost", false, "print cost and turn count after each response")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := buildOptions()
	if err != nil {
		return err
	}

	if promptText != "" {
		return oneShot(ctx, promptText, opts)
	}
	return interactive(ctx, opts)
}

func buildOptions() ([]claudekit.Option, error) {
	var opts []claudekit.Option
	if configPath != "" {
		fileOpts, err := claudekit.LoadOptionsFile(configPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileOpts...)
	}
	if modelName != "" {
		opts = append(opts, claudekit.WithModel(modelName))
	}
	if permissionMode != "" {
		opts = append(opts, claudekit.WithPermissionMode(claudekit.PermissionMode(permissionMode)))
	}
	return opts, nil
}

func oneShot(ctx context.Context, prompt string, opts []claudekit.Option) error {
	msgs, errs := claudekit.Query(ctx, prompt, opts...)
	return render(msgs, errs)
}

func interactive(ctx context.Context, opts []claudekit.Option) error {
	client := claudekit.NewClient(opts...)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	banner := color.New(color.FgCyan, color.Bold)
	banner.Println("claudekit — interactive session (/quit to exit)")

	promptColor := color.New(color.FgGreen, color.Bold)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		promptColor.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/interrupt":
			if err := client.Interrupt(ctx); err != nil {
				printError(err)
			}
			continue
		case strings.HasPrefix(line, "/model "):
			if err := client.SetModel(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/model"))); err != nil {
				printError(err)
			}
			continue
		}

		if err := client.Query(ctx, line); err != nil {
			printError(err)
			continue
		}
		msgs, errs := client.ReceiveResponseWithErrors(ctx)
		if err := render(msgs, errs); err != nil {
			printError(err)
		}
	}
}

// render drains one response worth of messages, printing assistant text
// as it arrives and a result line at the end.
func render(msgs <-chan claudekit.Message, errs <-chan error) error {
	dim := color.New(color.Faint)
	for msg := range msgs {
		switch m := msg.(type) {
		case *claudekit.AssistantMessage:
			for _, block := range m.Content {
				switch b := block.(type) {
				case *claudekit.TextBlock:
					fmt.Println(b.Text)
				case *claudekit.ToolUseBlock:
					dim.Printf("[tool: %s]\n", b.Name)
				}
			}
		case *claudekit.ResultMessage:
			if m.IsError {
				color.Red("error: %s", m.Result)
			}
			if showCost {
				cost := "n/a"
				if m.TotalCostUSD != nil {
					cost = fmt.Sprintf("$%.4f", *m.TotalCostUSD)
				}
				dim.Printf("(%d turns, %s, %dms)\n", m.NumTurns, cost, m.DurationMS)
			}
		}
	}
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func printError(err error) {
	color.Red("error: %v", err)
}
