package report

// htmlTemplate is the single-page HTML report.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Stress Test Report - {{.RunID}}</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f8fafc;
            --text-primary: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
            --accent-primary: #3b82f6;
            --accent-success: #22c55e;
            --accent-warning: #f59e0b;
            --shadow: 0 1px 3px rgba(0, 0, 0, 0.1);
        }

        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background-color: var(--bg-secondary);
            color: var(--text-primary);
            line-height: 1.6;
        }

        .container {
            max-width: 1200px;
            margin: 0 auto;
            padding: 2rem;
        }

        .header {
            margin-bottom: 2rem;
        }

        .header h1 {
            font-size: 1.75rem;
        }

        .meta {
            color: var(--text-secondary);
            font-size: 0.9rem;
        }

        .cards {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
            gap: 1rem;
            margin-bottom: 2rem;
        }

        .card {
            background: var(--bg-primary);
            border: 1px solid var(--border-color);
            border-radius: 0.5rem;
            box-shadow: var(--shadow);
            padding: 1rem 1.25rem;
        }

        .card .label {
            color: var(--text-secondary);
            font-size: 0.8rem;
            text-transform: uppercase;
            letter-spacing: 0.05em;
        }

        .card .value {
            font-size: 1.5rem;
            font-weight: 600;
        }

        .section {
            background: var(--bg-primary);
            border: 1px solid var(--border-color);
            border-radius: 0.5rem;
            box-shadow: var(--shadow);
            padding: 1.5rem;
            margin-bottom: 2rem;
        }

        .section h2 {
            font-size: 1.1rem;
            margin-bottom: 1rem;
        }

        table {
            width: 100%;
            border-collapse: collapse;
        }

        th, td {
            text-align: left;
            padding: 0.5rem;
            border-bottom: 1px solid var(--border-color);
        }

        th {
            color: var(--text-secondary);
            font-weight: 500;
        }

        .tier {
            display: inline-block;
            padding: 0.25rem 0.75rem;
            border-radius: 999px;
            font-weight: 600;
            margin-right: 0.5rem;
        }

        .tier.best { background: #dcfce7; color: #166534; }
        .tier.good { background: #e0f2fe; color: #075985; }
        .tier.warn { background: #fef3c7; color: #92400e; }

        .chart-container {
            position: relative;
            height: 320px;
        }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h1>Pub/Sub Stress Test Report</h1>
        <div class="meta">
            Run {{.RunID}} &middot; started {{formatTime .StartedAt}} &middot; transport {{.Transport}}
        </div>
    </div>

    <div class="section">
        <span class="tier {{tierClass .ThroughputTier}}">{{.ThroughputTier.Message}}</span>
        <span class="tier {{tierClass .LatencyTier}}">{{.LatencyTier.Message}}</span>
    </div>

    <div class="cards">
        <div class="card">
            <div class="label">Messages Sent</div>
            <div class="value">{{formatNumber .TotalMessages}}</div>
        </div>
        <div class="card">
            <div class="label">Messages Received</div>
            <div class="value">{{formatNumber .MessagesReceived}}</div>
        </div>
        <div class="card">
            <div class="label">Throughput</div>
            <div class="value">{{printf "%.0f" .Throughput}} msg/s</div>
        </div>
        <div class="card">
            <div class="label">Duration</div>
            <div class="value">{{printf "%.2f" .Output.DurationSecs}} s</div>
        </div>
        <div class="card">
            <div class="label">p99 Latency</div>
            <div class="value">{{micros .Latency.P99}} µs</div>
        </div>
    </div>

    <div class="section">
        <h2>Latency Distribution (microseconds)</h2>
        <table>
            <tr><th>p50</th><th>p95</th><th>p99</th><th>p99.9</th><th>max</th><th>samples</th></tr>
            <tr>
                <td>{{micros .Latency.P50}}</td>
                <td>{{micros .Latency.P95}}</td>
                <td>{{micros .Latency.P99}}</td>
                <td>{{micros .Latency.P999}}</td>
                <td>{{micros .Latency.Max}}</td>
                <td>{{.Latency.Count}}</td>
            </tr>
        </table>
    </div>

    <div class="section">
        <h2>Message Rate</h2>
        {{if .Series}}
        <div class="chart-container"><canvas id="rateChart"></canvas></div>
        {{else}}
        <p class="meta">The run was shorter than one monitor period; no interval data.</p>
        {{end}}
    </div>

    <div class="section">
        <h2>Configuration</h2>
        <table>
            <tr><th>Publishers</th><td>{{.Config.PublisherCount}}</td></tr>
            <tr><th>Subscribers</th><td>{{.Config.SubscriberCount}}</td></tr>
            <tr><th>Rate per publisher</th><td>{{.Config.RateHz}} Hz</td></tr>
            <tr><th>Topics</th><td>{{.Config.TopicFanOut}} &times; {{.Config.TopicBase}}_N</td></tr>
            <tr><th>Message size</th><td>{{.Config.MessageProfile}}</td></tr>
            <tr><th>Serializer</th><td>{{.Config.Format}}</td></tr>
            <tr><th>Pacing</th><td>{{.Config.Pacing}}</td></tr>
            <tr><th>Latency mode</th><td>{{.Config.Latency.Mode}}</td></tr>
        </table>
    </div>

    <div class="section">
        <h2>Resource Usage</h2>
        <table>
            <tr><th>Avg CPU</th><td>{{printf "%.1f" .Resources.CPUPercentAvg}}%</td></tr>
            <tr><th>Peak Memory</th><td>{{printf "%.1f" .Resources.MemoryMBPeak}} MB</td></tr>
        </table>
    </div>
</div>

<script>
    const series = {{.SeriesJSON}};
    if (series.length > 0) {
        new Chart(document.getElementById('rateChart'), {
            type: 'line',
            data: {
                labels: series.map(p => p.elapsedSecs.toFixed(0) + 's'),
                datasets: [
                    {
                        label: 'Sent msg/s',
                        data: series.map(p => p.sendRate),
                        borderColor: '#3b82f6',
                        tension: 0.2
                    },
                    {
                        label: 'Received msg/s',
                        data: series.map(p => p.receiveRate),
                        borderColor: '#22c55e',
                        tension: 0.2
                    }
                ]
            },
            options: {
                responsive: true,
                maintainAspectRatio: false,
                scales: { y: { beginAtZero: true } }
            }
        });
    }
</script>
</body>
</html>
`
