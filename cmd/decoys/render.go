package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/TuftsBCB/decoys/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFD7"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF005F")).Bold(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3A3A3A")).
			Padding(0, 1)
)

func renderReport(r *pipeline.Report) string {
	var b strings.Builder
	line := func(label string, v any) {
		fmt.Fprintf(&b, "%s %v\n", labelStyle.Render(fmt.Sprintf("%-10s", label)), v)
	}

	b.WriteString(titleStyle.Render("Decoys "+r.RunID) + "\n")
	if len(r.Jobs) > 0 {
		line("workers", len(r.Jobs))
	}
	line("models", fmt.Sprintf("%d in %s", len(r.Models), r.ModelsDir))
	line("elapsed", r.Elapsed.Round(time.Millisecond))

	spreads := make(map[int]pipeline.Spread, len(r.Spreads))
	for _, s := range r.Spreads {
		spreads[s.Cluster] = s
	}

	var clusters []string
	for _, c := range r.Clusters {
		var cb strings.Builder
		fmt.Fprintf(&cb, "%s\n", titleStyle.Render(fmt.Sprintf("Cluster %d", c.Index)))
		size := fmt.Sprintf("%d", c.Size)
		if c.Capped {
			size += fmt.Sprintf(" (%d kept)", len(c.Members))
		}
		fmt.Fprintf(&cb, "%s %s\n", labelStyle.Render("size    "), size)
		fmt.Fprintf(&cb, "%s %s\n", labelStyle.Render("centroid"), c.Centroid)
		if s, ok := spreads[c.Index]; ok && len(c.Members) > 1 {
			fmt.Fprintf(&cb, "%s mean %.3f, max %.3f\n",
				labelStyle.Render("rmsd    "), s.Mean, s.Max)
		}
		fmt.Fprintf(&cb, "%s %s", labelStyle.Render("list    "), c.ListFile)
		clusters = append(clusters, boxStyle.Render(cb.String()))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, clusters...))
	b.WriteString("\n")

	for _, s := range r.Scores {
		fmt.Fprintf(&b, "%s\n", s)
	}
	b.WriteString(okStyle.Render("done") + "\n")
	return b.String()
}
