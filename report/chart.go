// Package report turns the rolling success series of a run into charts and
// terminal output.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// NewChart builds a line chart of the rolling success series, one point
// per episode
func NewChart(title string, rolling []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Theme:     "shine",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d episodes", len(rolling)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Successes in window"}),
	)

	episodes := make([]string, len(rolling))
	items := make([]opts.LineData, len(rolling))
	for i, v := range rolling {
		episodes[i] = strconv.Itoa(i)
		items[i] = opts.LineData{Value: v}
	}
	line.SetXAxis(episodes).AddSeries("rolling successes", items)
	return line
}

// RenderChart writes the chart as a standalone HTML page
func RenderChart(w io.Writer, title string, rolling []float64) error {
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(NewChart(title, rolling))
	return page.Render(w)
}

// WriteChart renders the chart into the file at path, creating parent
// directories as needed. A reader of path sees either the old or the new
// chart.
func WriteChart(path, title string, rolling []float64) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	f, err := os.CreateTemp(dir, ".chart-*")
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	tmp := f.Name()
	if err := RenderChart(f, title, rolling); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move chart into place: %w", err)
	}
	return nil
}
