package commands

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jakechorley/exam-allocator/pkg/core/allocation"
	"github.com/jakechorley/exam-allocator/pkg/core/services"
	"github.com/jakechorley/exam-allocator/pkg/db"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

// statusColor picks the colour of a bucket status cell
func statusColor(status allocation.FillStatus, green, yellow, red string) string {
	switch status {
	case allocation.FillStatusMet:
		return green
	case allocation.FillStatusUnderfilled:
		return yellow
	default:
		return red
	}
}

// percentOf returns achieved as a percentage of target. A zero target counts as fully met.
func percentOf(achieved, target int) float64 {
	if target <= 0 {
		return 100
	}
	return float64(achieved) * 100 / float64(target)
}

func writePaper(w io.Writer, paper *services.PaperResult) {
	result := paper.Result

	fmt.Fprintf(w, "\nPaper %s", paper.ID)
	if !result.Curated {
		fmt.Fprintf(w, " (seed %d)", paper.Seed)
	} else {
		fmt.Fprint(w, " (curated)")
	}
	fmt.Fprintf(w, "\nTotal: %d / %d marks, %d questions\n\n", result.AchievedWeight, result.TargetWeight, result.ItemCount())

	for _, bucket := range result.Buckets {
		label := bucket.Label
		if label == "" {
			label = bucket.ID
		}
		color := statusColor(bucket.Status, colorGreen, colorYellow, colorRed)
		fmt.Fprintf(w, "%s  %s%d/%d %s%s\n", label, color, bucket.AchievedWeight, bucket.TargetWeight, bucket.Status, colorReset)
		for i, item := range bucket.Items {
			fmt.Fprintf(w, "  %2d. %-12s %-20s %-11s %-8s %3d\n", i+1, item.ID, item.Category, item.Tier, item.Difficulty, item.Weight)
		}
		fmt.Fprintln(w)
	}

	writeSummaries(w, "Categories", result.Categories)
	writeSummaries(w, "Difficulty", result.Difficulties)

	if len(result.Tiers) > 0 {
		fmt.Fprintln(w, "Tiers:")
		for _, tier := range result.Tiers {
			fmt.Fprintf(w, "  %-20s %3d questions %4d marks\n", tier.Tier, tier.ItemCount, tier.Weight)
		}
		fmt.Fprintln(w)
	}

	for _, warning := range result.Warnings() {
		fmt.Fprintf(w, "%s⚠ %s%s\n", colorYellow, warning.Notice(), colorReset)
	}
	for _, issue := range result.Issues {
		fmt.Fprintf(w, "%s⚠ [%s] %s%s\n", colorYellow, issue.CriterionName, issue.Description, colorReset)
	}
	if len(result.UnknownIDs) > 0 {
		fmt.Fprintf(w, "%sUnknown ids: %s%s\n", colorRed, strings.Join(result.UnknownIDs, ", "), colorReset)
	}
	if len(result.UnplacedIDs) > 0 {
		fmt.Fprintf(w, "%sNot placed (bucket not in paper): %s%s\n", colorDim, strings.Join(result.UnplacedIDs, ", "), colorReset)
	}
}

func writeSummaries(w io.Writer, title string, summaries []allocation.AttributeSummary) {
	if len(summaries) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, s := range summaries {
		fmt.Fprintf(w, "  %-20s %4d / %-4d (%5.1f%%) %3d questions\n",
			s.Key, s.AchievedWeight, s.TargetWeight, percentOf(s.AchievedWeight, s.TargetWeight), s.ItemCount)
	}
	fmt.Fprintln(w)
}

func writePlan(w io.Writer, plan *services.StudyPlan) {
	fmt.Fprintf(w, "\nStudy plan: %.1f hours\n\n", plan.Budget)
	fmt.Fprintf(w, "%-24s %-11s %9s %9s\n", "Category", "Tier", "Weight %", "Hours")
	fmt.Fprintln(w, strings.Repeat("-", 56))
	for _, row := range plan.Rows {
		fmt.Fprintf(w, "%-24s %-11s %9.1f %9.1f\n", row.Label, row.Tier, row.DeclaredWeight, row.Allocated)
	}
	fmt.Fprintln(w, strings.Repeat("-", 56))
	fmt.Fprintf(w, "%-24s %-11s %9s %9.1f\n", "Total", "", "", allocation.TotalAllocated(plan.Rows))

	if len(plan.Sessions) == 0 {
		return
	}

	fmt.Fprintf(w, "\nSessions:\n")
	for _, session := range plan.Sessions {
		fmt.Fprintf(w, "  %s  %.1fh\n", session.Date.Format("2006-01-02 (Mon)"), session.TotalHours())
		for _, topic := range session.Topics {
			fmt.Fprintf(w, "    %-24s %.1fh\n", topic.Label, topic.Hours)
		}
	}
}

// writeApportionment prints the shares in key order of the input weights
func writeApportionment(w io.Writer, keys []string, shares map[string]int) {
	total := 0
	for _, key := range keys {
		fmt.Fprintf(w, "%-24s %d\n", key, shares[key])
		total += shares[key]
	}
	fmt.Fprintf(w, "%-24s %d\n", "Total", total)
}

func writePaperList(w io.Writer, papers []db.Paper) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No papers recorded.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-20s  %-9s  %13s  %s\n", "ID", "Created", "Mode", "Marks", "Complete")
	for _, p := range papers {
		complete := colorRed + "no" + colorReset
		if p.Complete {
			complete = colorGreen + "yes" + colorReset
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-9s  %6d/%-6d  %s\n", p.ID, p.CreatedAt, p.Mode, p.AchievedWeight, p.TargetWeight, complete)
	}
}

func writeRecordedPaper(w io.Writer, recorded *services.RecordedPaper) {
	p := recorded.Paper
	fmt.Fprintf(w, "\nPaper %s (%s, seed %d, created %s)\n", p.ID, p.Mode, p.Seed, p.CreatedAt)
	fmt.Fprintf(w, "Total: %d / %d marks\n\n", p.AchievedWeight, p.TargetWeight)

	// Group by bucket in order of first appearance
	var buckets []string
	for _, item := range recorded.Items {
		if !slices.Contains(buckets, item.BucketID) {
			buckets = append(buckets, item.BucketID)
		}
	}

	for _, bucket := range buckets {
		fmt.Fprintf(w, "%s\n", bucket)
		n := 0
		for _, item := range recorded.Items {
			if item.BucketID != bucket {
				continue
			}
			n++
			fmt.Fprintf(w, "  %2d. %-12s %-20s %-11s %3d\n", n, item.ItemID, item.Category, item.Tier, item.Weight)
		}
	}
}
