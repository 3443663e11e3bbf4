package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/wesleyorama2/pubstress/internal/stress/latency"
)

// htmlData contains everything the HTML template renders.
type htmlData struct {
	*Result
	Output         Structured
	ThroughputTier Tier
	LatencyTier    Tier
	SeriesJSON     template.JS
}

// seriesPoint is one monitor interval in the chart data.
type seriesPoint struct {
	ElapsedSecs float64 `json:"elapsedSecs"`
	Sent        uint64  `json:"sent"`
	Received    uint64  `json:"received"`
	SendRate    float64 `json:"sendRate"`
	ReceiveRate float64 `json:"receiveRate"`
}

// GenerateHTML renders the HTML report and writes it to outputPath.
func GenerateHTML(r *Result, outputPath string) error {
	html, err := GenerateHTMLString(r)
	if err != nil {
		return fmt.Errorf("failed to generate HTML: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}

	return nil
}

// GenerateHTMLString renders the HTML report.
func GenerateHTMLString(r *Result) (string, error) {
	if r == nil {
		return "", fmt.Errorf("result cannot be nil")
	}

	tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	series, err := seriesJSON(r)
	if err != nil {
		return "", fmt.Errorf("failed to convert series: %w", err)
	}

	data := htmlData{
		Result:         r,
		Output:         r.Structured(),
		ThroughputTier: ThroughputTier(r.Throughput),
		LatencyTier:    LatencyTier(latency.Micros(r.Latency.P99)),
		SeriesJSON:     template.JS(series),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

func seriesJSON(r *Result) (string, error) {
	if len(r.Series) == 0 {
		return "[]", nil
	}

	points := make([]seriesPoint, len(r.Series))
	for i, s := range r.Series {
		points[i] = seriesPoint{
			ElapsedSecs: s.Elapsed.Seconds(),
			Sent:        s.Sent,
			Received:    s.Received,
			SendRate:    s.SendRate,
			ReceiveRate: s.ReceiveRate,
		}
	}

	data, err := json.Marshal(points)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatNumber":   formatNumber,
		"formatDuration": formatDuration,
		"formatTime":     func(t time.Time) string { return t.Format(time.RFC1123) },
		"micros":         func(d time.Duration) string { return fmt.Sprintf("%.1f", latency.Micros(d)) },
		"tierClass":      tierClass,
	}
}

func tierClass(t Tier) string {
	switch t.Level {
	case LevelBest:
		return "best"
	case LevelGood:
		return "good"
	default:
		return "warn"
	}
}
