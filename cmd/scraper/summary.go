package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/aluiziolira/go-page-scraper/models"
)

// printSummary renders the run counters as a table on stderr.
func printSummary(result *models.Result, outputDir string) {
	if result == nil || result.Stats == nil {
		return
	}
	stats := result.Stats

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stderr)
	t.SetTitle("Scrape complete")

	status := "ok"
	if !result.Success {
		status = "failed"
	}
	t.AppendRows([]table.Row{
		{"Status", status},
		{"Run ID", stats.RunID},
		{"URL", stats.TargetURL},
		{"Items scraped", stats.ItemsScraped},
	})

	entities := []struct {
		name  string
		count int
	}{
		{"Links", stats.LinksFound},
		{"Images", stats.ImagesFound},
		{"Variants", stats.VariantsFound},
		{"Reviews", stats.ReviewsFound},
		{"Related products", stats.RelatedFound},
	}
	for _, e := range entities {
		if e.count > 0 {
			t.AppendRow(table.Row{e.name, e.count})
		}
	}

	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Warnings", stats.Warnings},
		{"Errors", stats.Errors},
		{"Downloaded", fmt.Sprintf("%d bytes", stats.BytesDownloaded)},
		{"Duration", time.Duration(stats.ElapsedSeconds * float64(time.Second)).Round(time.Millisecond)},
		{"Output", outputDir},
	})
	if result.Error != "" {
		t.AppendFooter(table.Row{"Error", result.Error})
	}
	t.Render()
}
