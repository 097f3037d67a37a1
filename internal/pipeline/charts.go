package pipeline

import (
	"fmt"
	"os"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var noiseDotColor = drawing.Color{R: 160, G: 160, B: 160, A: 255}

func renderBarChart(title, yLabel string, labels []string, values []float64, path string) error {
	if len(labels) == 0 || len(labels) != len(values) {
		return fmt.Errorf("bar chart needs matching labels and values, got %d/%d", len(labels), len(values))
	}

	bars := make([]chart.Value, 0, len(labels))
	maxValue := 0.0
	for i, label := range labels {
		bars = append(bars, chart.Value{Label: label, Value: values[i]})
		if values[i] > maxValue {
			maxValue = values[i]
		}
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	bc := chart.BarChart{
		Title:    title,
		Width:    1000,
		Height:   600,
		BarWidth: 30,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Bottom: 30},
		},
		XAxis: chart.Style{TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Name: yLabel,
			// An explicit range keeps rendering valid when every bar holds
			// the same value (single-day activity, equal sender counts).
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue * 1.1},
		},
		Bars: bars,
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file %s: %w", path, err)
	}
	defer f.Close()

	if err := bc.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("rendering bar chart: %w", err)
	}
	return nil
}

// renderClusterScatter draws the 2D projection with one series per cluster
// label so each cluster gets its own color. Noise (-1) is drawn gray.
func renderClusterScatter(title string, points [][2]float64, labels []int, path string) error {
	if len(points) == 0 || len(points) != len(labels) {
		return fmt.Errorf("scatter chart needs matching points and labels, got %d/%d", len(points), len(labels))
	}

	byLabel := make(map[int][][2]float64)
	for i, p := range points {
		byLabel[labels[i]] = append(byLabel[labels[i]], p)
	}

	ordered := make([]int, 0, len(byLabel))
	for label := range byLabel {
		ordered = append(ordered, label)
	}
	sort.Ints(ordered)

	series := make([]chart.Series, 0, len(ordered))
	colorIdx := 0
	for _, label := range ordered {
		pts := byLabel[label]
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for i, p := range pts {
			xs[i] = p[0]
			ys[i] = p[1]
		}

		dotColor := noiseDotColor
		if label != -1 {
			dotColor = chart.GetDefaultColor(colorIdx)
			colorIdx++
		}
		series = append(series, chart.ContinuousSeries{
			Name: fmt.Sprintf("cluster %d", label),
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    5,
				DotColor:    dotColor,
			},
			XValues: xs,
			YValues: ys,
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1000,
		Height: 600,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		Series: series,
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file %s: %w", path, err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("rendering scatter chart: %w", err)
	}
	return nil
}
