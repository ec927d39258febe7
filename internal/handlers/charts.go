package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/metrics"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var chartStatuses = []models.InterviewStatus{
	models.StatusScheduled,
	models.StatusPending,
	models.StatusCompleted,
	models.StatusCancelled,
}

func generateStatusChart(interviews []models.Interview) *charts.Pie {
	counts := make(map[models.InterviewStatus]int)
	for _, iv := range interviews {
		counts[iv.Status]++
	}

	items := make([]opts.PieData, 0, len(chartStatuses))
	for _, s := range chartStatuses {
		items = append(items, opts.PieData{Name: models.FormatStatus(s), Value: counts[s]})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
	)
	pie.AddSeries("Interviews", items).SetSeriesOptions(
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}),
	)
	return pie
}

// generateMetricChart plots one metric across the questions of an interview.
func generateMetricChart(summaries []metrics.QuestionSummary, option metrics.MetricOption) *charts.Bar {
	labels := make([]string, 0, len(summaries))
	items := make([]opts.BarData, 0, len(summaries))
	for i, s := range summaries {
		labels = append(labels, "Q"+strconv.Itoa(i+1))
		items = append(items, opts.BarData{Name: s.QuestionText, Value: s.Metrics[option.Value].Value})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Per-question metrics", Subtitle: option.Label}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: labels}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
	)
	bar.SetXAxis(labels).AddSeries(option.Label, items)
	return bar
}

// chartJSON renders chart options for the inline echarts script.
func chartJSON(chart interface{ JSON() map[string]interface{} }) string {
	data, err := json.Marshal(chart.JSON())
	if err != nil {
		return "{}"
	}
	return string(data)
}
