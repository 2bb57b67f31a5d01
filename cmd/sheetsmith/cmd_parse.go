package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Marpuchy/dnd-manager-sub001/internal/heuristic"
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
	"github.com/Marpuchy/dnd-manager-sub001/internal/store"
)

var (
	parseTarget string
	parseSheet  string
	parseFile   string
)

var parseCmd = &cobra.Command{
	Use:   "parse [prompt]",
	Short: "Run the local parser on a prompt and preview the result",
	Long: `Parses a prompt with the rule-based parser only and shows the actions it
would propose plus what the engine would do with them. Nothing is written.

The character comes from the database (--target) or a JSON file (--sheet).
Use --file - to read a long structured prompt from stdin.`,
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseTarget, "target", "t", "", "Character id in the database")
	parseCmd.Flags().StringVar(&parseSheet, "sheet", "", "Character JSON file")
	parseCmd.Flags().StringVarP(&parseFile, "file", "f", "", "Read the prompt from a file (- for stdin)")
}

func runParse(cmd *cobra.Command, args []string) error {
	prompt, err := readPrompt(cmd.InOrStdin(), args, parseFile)
	if err != nil {
		return err
	}
	target, err := loadTarget()
	if err != nil {
		return err
	}

	plan := heuristic.NewParser().Plan(prompt, target)
	actions := patch.SanitizeActions(patch.ToRaw(plan.Actions), target.ID)
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, map[string]any{
			"strong":  plan.Strong,
			"reply":   plan.Reply,
			"actions": actions,
		})
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Plan for %s (strong=%v)", target.Name, plan.Strong)))
	fmt.Fprintln(out, formatActions(actions))
	if plan.Reply != "" {
		fmt.Fprintln(out, mutedStyle.Render(plan.Reply))
	}

	engine := sheet.NewEngine()
	current := target
	var lines []string
	for _, a := range actions {
		if a.Operation != patch.OperationUpdate || a.CharacterID != target.ID {
			lines = append(lines, fmt.Sprintf("%s: would create %q", a.Operation, a.Data.Name))
			continue
		}
		next, outcome := engine.ApplyAction(current, &a.Data)
		if outcome.Applied {
			current = next
		}
		lines = append(lines, fmt.Sprintf("applied=%v %s", outcome.Applied, outcome.Message))
	}
	if len(lines) > 0 {
		fmt.Fprintln(out, boxStyle.Render(strings.Join(lines, "\n")))
	}
	return nil
}

func readPrompt(stdin io.Reader, args []string, file string) (string, error) {
	switch {
	case file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read prompt: %w", err)
		}
		return string(b), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}
	return "", fmt.Errorf("a prompt argument or --file is required")
}

func loadTarget() (*sheet.Character, error) {
	if parseSheet != "" {
		b, err := os.ReadFile(parseSheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet: %w", err)
		}
		var c sheet.Character
		if err := json.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse sheet: %w", err)
		}
		if c.ID == "" {
			c.ID = "sheet"
		}
		return &c, nil
	}
	if parseTarget == "" {
		return nil, fmt.Errorf("--target or --sheet is required")
	}

	ctx, cancel := commandContext()
	defer cancel()
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.GetCharacter(ctx, parseTarget)
}
