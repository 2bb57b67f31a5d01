package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Marpuchy/dnd-manager-sub001/internal/assistant"
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7a8599"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2a3850")).
			Padding(0, 1)

	statusStyles = map[assistant.Status]lipgloss.Style{
		assistant.StatusApplied: lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true),
		assistant.StatusSkipped: lipgloss.NewStyle().Foreground(lipgloss.Color("#e0b341")),
		assistant.StatusBlocked: lipgloss.NewStyle().Foreground(lipgloss.Color("#e06c41")).Bold(true),
		assistant.StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#e04141")).Bold(true),
	}
)

// renderMarkdown renders the reply for a terminal, falling back to the raw
// text when no renderer can be built.
func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderResponse prints a response for humans, or as JSON with --json.
func renderResponse(w io.Writer, resp *assistant.Response) error {
	if jsonOutput {
		return writeJSON(w, resp)
	}

	meta := fmt.Sprintf("provider=%s intent=%s role=%s", resp.Provider, resp.Intent, resp.Permissions.Role)
	fmt.Fprintln(w, mutedStyle.Render(meta))
	fmt.Fprintln(w, renderMarkdown(resp.Reply, 80))

	if len(resp.Results) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Changes"))
		fmt.Fprintln(w, boxStyle.Render(formatResults(resp.Results)))
	}
	if len(resp.RAG) > 0 {
		ids := make([]string, 0, len(resp.RAG))
		for _, s := range resp.RAG {
			ids = append(ids, s.ID)
		}
		fmt.Fprintln(w, mutedStyle.Render("context: "+strings.Join(ids, ", ")))
	}
	return nil
}

func formatResults(results []assistant.MutationResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		style, ok := statusStyles[r.Status]
		if !ok {
			style = mutedStyle
		}
		target := r.CharacterID
		if target == "" {
			target = "new"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s  %s",
			style.Render(fmt.Sprintf("%-7s", r.Status)), r.Operation, target, r.Message))
	}
	return strings.Join(lines, "\n")
}

// formatActions lists actions one per line for the parse command.
func formatActions(actions []patch.Action) string {
	if len(actions) == 0 {
		return mutedStyle.Render("(no changes)")
	}
	lines := make([]string, 0, len(actions))
	for i, a := range actions {
		desc := string(a.Operation)
		if v := a.Data.Variant(); v != nil {
			desc += " " + string(v.Kind())
		}
		if ip := a.Data.ItemPatch; ip != nil {
			desc += " " + ip.TargetItemName
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, desc))
	}
	return strings.Join(lines, "\n")
}
