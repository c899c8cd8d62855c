// Package report renders deployment listings and prune results for the
// terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"

	"tasnim.dev/deployment-cleaner/internal/deploy"
	"tasnim.dev/deployment-cleaner/internal/utils"
)

// WriteDeployments prints summaries as a table, newest first. When keep is
// non-negative a STATUS column marks which deployments a clean with that
// retention count would keep.
func WriteDeployments(w io.Writer, bucket string, summaries []deploy.DeploymentSummary, keep int) error {
	if len(summaries) == 0 {
		_, err := lipgloss.Fprintln(w, MutedStyle.Render(fmt.Sprintf("No deployments in bucket %q", bucket)))
		return err
	}

	header := []string{"DEPLOYMENT", "CREATED", "OBJECTS", "SIZE"}
	if keep >= 0 {
		header = append(header, "STATUS")
	}

	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		row := []string{
			s.DeploymentID,
			utils.TimeOrDash(s.RepresentativeTime, utils.DateTimeSec),
			fmt.Sprint(s.Objects),
			utils.Bytes(s.Size),
		}
		if keep >= 0 {
			if i < keep {
				row = append(row, "keep")
			} else {
				row = append(row, "delete")
			}
		}
		rows[i] = row
	}

	widths := columnWidths(header, rows)
	if _, err := lipgloss.Fprintln(w, HeaderStyle.Render(formatRow(header, widths))); err != nil {
		return err
	}
	for i, row := range rows {
		line := formatRow(row, widths)
		style := lipgloss.NewStyle()
		if keep >= 0 {
			style = KeepStyle
			if i >= keep {
				style = DeleteStyle
			}
		}
		if _, err := lipgloss.Fprintln(w, style.Render(line)); err != nil {
			return err
		}
	}
	return nil
}

// WritePrune prints the outcome of a prune. Dry runs list every key that
// would have been deleted.
func WritePrune(w io.Writer, r *deploy.PruneReport) error {
	var b strings.Builder

	n := len(r.Deployments)
	if r.DryRun {
		fmt.Fprintln(&b, HeaderStyle.Render(fmt.Sprintf("Dry run: %s would be deleted from bucket %q",
			countDeployments(n), r.Bucket)))
	} else {
		fmt.Fprintln(&b, HeaderStyle.Render(fmt.Sprintf("Deleted %d of %s from bucket %q",
			n-r.Failed(), countDeployments(n), r.Bucket)))
	}

	for _, d := range r.Deployments {
		detail := MutedStyle.Render(fmt.Sprintf("(created %s, %s, %s)",
			utils.TimeOrDash(d.Summary.RepresentativeTime, utils.DateTimeSec),
			utils.Plural(len(d.Keys), "object"),
			utils.Bytes(d.Size)))

		switch {
		case r.DryRun:
			fmt.Fprintf(&b, "  %s %s\n", DeleteStyle.Render(d.Summary.DeploymentID), detail)
			for _, k := range d.Keys {
				fmt.Fprintf(&b, "    %s\n", k)
			}
		case d.Err != nil:
			fmt.Fprintf(&b, "  %s %s %s\n", ErrorStyle.Render(d.Summary.DeploymentID), detail,
				ErrorStyle.Render("failed: "+d.Err.Error()))
		default:
			fmt.Fprintf(&b, "  %s %s\n", DeleteStyle.Render(d.Summary.DeploymentID), detail)
		}
	}

	if len(r.Kept) > 0 {
		ids := make([]string, len(r.Kept))
		for i, k := range r.Kept {
			ids[i] = k.DeploymentID
		}
		fmt.Fprintf(&b, "%s %s\n", KeepStyle.Render(fmt.Sprintf("Kept %s:", countDeployments(len(r.Kept)))),
			strings.Join(ids, ", "))
	}

	_, err := lipgloss.Fprint(w, b.String())
	return err
}

func countDeployments(n int) string {
	if n == 1 {
		return "1 deployment"
	}
	return fmt.Sprintf("%d deployments", n)
}

func columnWidths(header []string, rows [][]string) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	return widths
}

func formatRow(cells []string, widths []int) string {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(c)
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(c)))
		}
	}
	return b.String()
}
