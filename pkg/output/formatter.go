package output

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/AnniekStok/track-curator/pkg/model"
)

// Summary aggregates a solved track table for console reporting.
type Summary struct {
	Nodes     int
	Tracks    int
	Lineages  int
	Divisions int
	Endpoints int
	Annotated int
	Edits     int
}

// Summarize computes the report counts from the table rows.
func Summarize(rows []model.TrackNode, edits int) Summary {
	s := Summary{Nodes: len(rows), Edits: edits}

	tracks := make(map[int]bool)
	for _, row := range rows {
		tracks[row.TrackID] = true
		if row.IsRoot() {
			s.Lineages++
		}
		switch row.State {
		case model.StateFork:
			s.Divisions++
		case model.StateEndpoint:
			s.Endpoints++
		}
		if row.Annotated {
			s.Annotated++
		}
	}
	s.Tracks = len(tracks)
	return s
}

// PrintRunReport prints a nicely formatted run report with colors
func PrintRunReport(name string, s Summary) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("Track Curator - Run Report")
	bold.Println("==========================")
	if name != "" {
		fmt.Printf("Run: %s\n", name)
	}
	fmt.Printf("Nodes: %d\n", s.Nodes)
	cyan.Printf("Tracks: %d in %d lineage(s)\n", s.Tracks, s.Lineages)
	fmt.Printf("Divisions: %d\n", s.Divisions)
	fmt.Printf("Endpoints: %d\n", s.Endpoints)
	fmt.Println()

	if s.Annotated > 0 || s.Edits > 0 {
		yellow.Printf("Annotated nodes: %d\n", s.Annotated)
		yellow.Printf("Pending edge edits: %d\n", s.Edits)
		fmt.Println("Re-solve to fold the pending edits into the tracks.")
	} else {
		green.Println("No pending annotations, tracks are clean.")
	}
}
