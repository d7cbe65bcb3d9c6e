package workload

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"perftracker/internal/domain"
)

// Report renders one row per tracked key over window.
func Report(w io.Writer, l domain.Ledger, window time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header("Function", "Calls", "CPM", "Avg ms", "Min ms", "Max ms", "P95 ms")

	for _, key := range l.Keys() {
		s, ok := l.Summary(key, window)
		if !ok {
			continue
		}
		if err := table.Append([]string{
			key,
			strconv.Itoa(s.Count),
			formatFloat(s.Cpm),
			formatFloat(s.AvgMs),
			formatFloat(s.MinMs),
			formatFloat(s.MaxMs),
			formatFloat(s.P95Ms),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

// Compare renders the cost of tracking as the difference between a tracked
// and an untracked run of the same workload.
func Compare(w io.Writer, untracked, tracked Result) error {
	table := tablewriter.NewWriter(w)
	table.Header("Run", "Iterations", "Events", "Total", "Per iteration")

	rows := [][]string{
		resultRow("untracked", untracked),
		resultRow("tracked", tracked),
		{"overhead", "", "", overhead(untracked.Elapsed, tracked.Elapsed), ""},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func resultRow(name string, r Result) []string {
	per := time.Duration(0)
	if r.Iterations > 0 {
		per = r.Elapsed / time.Duration(r.Iterations)
	}
	return []string{name, strconv.Itoa(r.Iterations), strconv.Itoa(r.Stored), r.Elapsed.String(), per.String()}
}

func overhead(base, tracked time.Duration) string {
	diff := tracked - base
	if base <= 0 {
		return diff.String()
	}
	return fmt.Sprintf("%s (%+.2f%%)", diff, float64(diff)/float64(base)*100)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
