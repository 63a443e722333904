package main

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// renderLatencyChart reads back the sweep's own CSV output and renders a
// bar chart of mean OLTP-workload latency per structure, so a reviewer can
// eyeball the sweep without opening a spreadsheet.
func renderLatencyChart(csvPath, outPath string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return errors.Wrap(err, "plot: open csv")
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return errors.Wrap(err, "plot: read csv")
	}
	if len(rows) < 2 {
		return errors.New("plot: no data rows")
	}

	sums := map[string]int64{}
	counts := map[string]int{}
	var order []string
	for _, row := range rows[1:] {
		if len(row) < 4 || row[2] != "Workload_OLTP" {
			continue
		}
		structure := row[0]
		latency, err := strconv.ParseInt(row[3], 10, 64)
		if err != nil {
			continue
		}
		if _, seen := sums[structure]; !seen {
			order = append(order, structure)
		}
		sums[structure] += latency
		counts[structure]++
	}

	p := plot.New()
	p.Title.Text = "Mean OLTP latency by structure"
	p.Y.Label.Text = "ns/op"

	values := make(plotter.Values, len(order))
	for i, s := range order {
		values[i] = float64(sums[s]) / float64(counts[s])
	}
	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return errors.Wrap(err, "plot: new bar chart")
	}
	p.Add(bars)
	p.NominalX(order...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, outPath); err != nil {
		return errors.Wrap(err, "plot: save")
	}
	return nil
}
