package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/christopherklint97/preflight/internal/rules"
	"github.com/christopherklint97/preflight/internal/validate"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

func severityLabel(s validate.Severity) string {
	if s == validate.SeverityError {
		return errorStyle.Render("error")
	}
	return warningStyle.Render("warning")
}

func renderDiagnostic(d validate.Diagnostic) string {
	target := string(d.Entity)
	if d.EntityID != validate.CollectionWide {
		target += " " + d.EntityID
	}
	if d.Field != "" {
		target += "." + d.Field
	}

	line := fmt.Sprintf("  %s  %s  %s", severityLabel(d.Severity), dimStyle.Render(target), d.Message)
	if d.Suggestion != "" {
		line += "\n          " + dimStyle.Render("hint: "+d.Suggestion)
	}
	return line
}

func renderReport(rep *validate.Report) string {
	sum := rep.Summary()
	if sum.Total == 0 {
		return successStyle.Render("No validation issues found.")
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Validation report"))
	sb.WriteString("\n")

	for _, g := range rep.Groups() {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("%s (%d)", g.Type, len(g.Diagnostics))))
		sb.WriteString("\n")
		for _, d := range g.Diagnostics {
			sb.WriteString(renderDiagnostic(d))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s, %s (%d total)",
		errorStyle.Render(fmt.Sprintf("%d errors", sum.Errors)),
		warningStyle.Render(fmt.Sprintf("%d warnings", sum.Warnings)),
		sum.Total,
	))
	return sb.String()
}

func renderRule(r rules.Rule) string {
	state := successStyle.Render("enabled")
	if !r.Enabled {
		state = dimStyle.Render("disabled")
	}

	params, _ := json.Marshal(r.Params)
	return fmt.Sprintf("  %s  %-16s %s  %s\n          %s %s",
		dimStyle.Render(r.ID),
		r.Params.Type(),
		state,
		r.Description,
		dimStyle.Render(fmt.Sprintf("source=%s confidence=%.2f", r.Source, r.Confidence)),
		dimStyle.Render(string(params)),
	)
}

func renderRuleList(title string, list []rules.Rule) string {
	if len(list) == 0 {
		return dimStyle.Render("No " + strings.ToLower(title) + ".")
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", title, len(list))))
	sb.WriteString("\n")
	for _, r := range list {
		sb.WriteString(renderRule(r))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderRejected(rejected []rules.Rejected) string {
	if len(rejected) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(warningStyle.Render(fmt.Sprintf("%d rule(s) rejected:", len(rejected))))
	sb.WriteString("\n")
	for _, rej := range rejected {
		sb.WriteString(fmt.Sprintf("  %s %s: %s\n",
			dimStyle.Render(rej.Rule.ID),
			rej.Rule.Params.Type(),
			strings.Join(rej.Errors, "; "),
		))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderMatches(matches []map[string]any) string {
	if len(matches) == 0 {
		return dimStyle.Render("No matching records.")
	}
	var sb strings.Builder
	for _, m := range matches {
		b, _ := json.Marshal(m)
		sb.WriteString("  ")
		sb.Write(b)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
