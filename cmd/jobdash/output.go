package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/project-tktt/job-dashboard/internal/analysis"
	"github.com/project-tktt/job-dashboard/internal/domain"
	"github.com/project-tktt/job-dashboard/internal/worker"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	t.AppendHeader(header)
	return t
}

func printValueCounts(w io.Writer, title, column string, rows []domain.ValueCount) {
	t := newTable(w, title, table.Row{column, "Count"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Value, r.Count})
	}
	t.Render()
}

// printDashboard renders every dataset as a terminal table
func printDashboard(w io.Writer, d *domain.Dashboard, region string) {
	fmt.Fprintf(w, "%d listings for %q\n", d.Listings, d.Query)

	popularTitle := "Popular jobs"
	if region != "" {
		popularTitle = "Jobs in " + region
	}
	t := newTable(w, popularTitle, table.Row{"Job Title", "Count", "Company", "Location"})
	for _, p := range d.PopularJobs {
		t.AppendRow(table.Row{p.Title, p.Count, p.Company, p.Location})
	}
	t.Render()

	printValueCounts(w, "Distribution of category", "Category", d.Categories)
	printValueCounts(w, "Number of Jobs per Company", "Company", d.Companies)
	printValueCounts(w, "Number of Jobs per Location", "Location", d.Locations)

	t = newTable(w, fmt.Sprintf("Top %d Job Skills Frequency", len(d.Skills)), table.Row{"#", "Skill", "Count"})
	for i, s := range d.Skills {
		t.AppendRow(table.Row{i + 1, s.Skill, s.Count})
	}
	t.Render()
}

func printBatch(w io.Writer, results []worker.Result) {
	t := newTable(w, "Batch", table.Row{"Query", "Listings", "Top Skill", "Most Popular", "Duration", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 6, WidthMax: 60},
	})
	for _, r := range results {
		if r.Err != nil {
			t.AppendRow(table.Row{r.Query, "", "", "", r.Duration.Round(time.Millisecond), r.Err.Error()})
			continue
		}
		t.AppendRow(table.Row{
			r.Query,
			strconv.Itoa(r.Dashboard.Listings),
			topSkill(r.Dashboard.Skills),
			topPopular(r.Dashboard.PopularJobs),
			r.Duration.Round(time.Millisecond),
			"",
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "failed", worker.Failed(results)})
	t.Render()
}

func printVocabulary(w io.Writer, vocab analysis.Vocabulary) {
	t := newTable(w, "Skill vocabulary", table.Row{"#", "Skill"})
	for i, s := range vocab {
		t.AppendRow(table.Row{i + 1, s})
	}
	t.Render()
}

func topSkill(skills []domain.SkillCount) string {
	if len(skills) == 0 || skills[0].Count == 0 {
		return "-"
	}
	return fmt.Sprintf("%s (%d)", skills[0].Skill, skills[0].Count)
}

func topPopular(jobs []domain.PopularJob) string {
	if len(jobs) == 0 {
		return "-"
	}
	return fmt.Sprintf("%s (%d)", jobs[0].Title, jobs[0].Count)
}
