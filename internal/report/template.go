package report

// ExportTemplate is the HTML template for a full one-pager export.
// It is embedded as a Go constant so exports need no external files.
const ExportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --yellow: #ca8a04;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3 { font-size: 1rem; margin: 16px 0 8px; }
  p { margin: 6px 0; }
  ul { margin: 6px 0 6px 20px; }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .header { display: flex; justify-content: space-between; border-bottom: 3px solid var(--accent); padding-bottom: 12px; margin-bottom: 16px; }
  .ticker-badge { display: inline-block; background: var(--accent); color: white; padding: 2px 12px; border-radius: 4px; font-weight: 700; margin-right: 8px; }
  .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(160px, 1fr)); gap: 8px; margin: 10px 0; }
  .card { background: var(--section-bg); padding: 10px; border-radius: 6px; }
  .card .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .card .value { font-size: 1.1rem; font-weight: 600; }
  .positive { color: var(--green); }
  .negative { color: var(--red); }
  .caution { color: var(--yellow); }
  .neutral { color: var(--muted); }
  .badge { display: inline-block; padding: 1px 8px; border-radius: 3px; font-size: 0.8rem; font-weight: 600; background: #f3f4f6; }
  .news-item { border-bottom: 1px solid var(--border); padding: 8px 0; }
  blockquote { border-left: 4px solid var(--accent); padding-left: 12px; font-style: italic; margin: 8px 0; }
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); }
  .chart-container { margin: 12px 0; overflow-x: auto; }
  .chart-container svg { max-width: 100%; height: auto; }
  .section { margin: 20px 0; }
  .empty { background: var(--section-bg); padding: 12px; border-radius: 6px; color: var(--muted); }
  .footer { margin-top: 30px; padding-top: 12px; border-top: 2px solid var(--border); font-size: 0.8rem; color: var(--muted); text-align: center; }
  @media print {
    body { max-width: 100%; padding: 10px; }
    .section { page-break-inside: avoid; }
  }
</style>
</head>
<body>

<div class="header">
  <div>
    <h1><span class="ticker-badge">{{.Company.Symbol}}</span> {{.Company.Name}}</h1>
    {{with .Company.Sector}}<p class="muted">{{.}}</p>{{end}}
  </div>
  <div><p class="muted">{{.GeneratedAt}}</p></div>
</div>
{{if .Partial}}<p class="muted">Some data was unavailable: {{range $i, $p := .Partial}}{{if $i}}, {{end}}{{$p}}{{end}}</p>{{end}}

{{range .Sections}}
<div class="section" id="section-{{.Number}}">
  <h2>{{.Number}}. {{.Title}}</h2>
  {{if and .Empty (not .Body)}}
  <div class="empty">No data available for this section.</div>
  {{else if eq .Kind "overview"}}{{with .Body}}
  <p><strong>{{.Price}}</strong> <span class="{{.Tone}}">{{.Change}} ({{.ChangePercent}})</span></p>
  <div class="grid">{{range .Metrics}}<div class="card"><div class="label">{{.Label}}</div><div class="value">{{.Value}}</div></div>{{end}}</div>
  {{end}}
  {{else if eq .Kind "news_analysis"}}{{with .Body}}
  <p class="muted">Overall tone: {{.Summary.Label}}</p>
  {{range .Groups}}
  <h3 class="{{.Tone}}">{{.Title}}</h3>
  {{range .Items}}<div class="news-item"><strong>{{.Title}}</strong><p>{{.Summary}}</p><span class="muted">{{.Source}}</span> <span class="badge {{.BadgeTone}}">{{.Badge}}</span></div>{{end}}
  {{end}}
  {{end}}
  {{else if eq .Kind "news_feed"}}{{with .Body}}
  {{range .Items}}<div class="news-item"><span class="{{.Tone}}">●</span> <strong>{{.Title}}</strong><p>{{.Summary}}</p><span class="muted">{{.Source}} · {{.Published}}</span></div>{{end}}
  {{end}}
  {{else if eq .Kind "earnings"}}{{with .Body}}
  <h3>{{.Heading}}</h3>
  <p class="muted">Call Date: {{.CallDate}}</p>
  {{with .NextCallDate}}<p class="muted">Next Call: {{.}}</p>{{end}}
  <h3>Key Management Quotes</h3>
  {{range .KeyQuotes}}<blockquote>"{{.}}"</blockquote>{{end}}
  <h3>Analyst Q&amp;A Highlights</h3>
  <ul>{{range .AnalystHighlights}}<li>{{.}}</li>{{end}}</ul>
  {{end}}
  {{else if eq .Kind "competitive"}}{{with .Body}}
  <table><thead><tr><th>Competitor</th><th>Market Share</th><th>Trend</th></tr></thead><tbody>
  {{range .Competitors}}<tr><td>{{.Name}}</td><td>{{.Share}}</td><td class="{{.Tone}}">{{.Trend}}</td></tr>{{end}}
  </tbody></table>
  <h3>Competitive Advantages</h3>
  <ul>{{range .Advantages}}<li>{{.}}</li>{{end}}</ul>
  {{end}}
  {{else if eq .Kind "revenue"}}{{with .Body}}
  <div class="grid">
    <div class="card"><div class="label">Revenue Growth</div><div class="value {{.GrowthTone}}">{{.Growth}}</div><div class="muted">Year-over-year</div></div>
    <div class="card"><div class="label">Current Revenue</div><div class="value">{{.Current}}</div><div class="muted">Annual</div></div>
  </div>
  <table><thead><tr><th>Quarter</th><th>Revenue</th></tr></thead><tbody>
  {{range .Quarters}}<tr><td>{{.Quarter}}</td><td>{{.Revenue}}</td></tr>{{end}}
  </tbody></table>
  <h3>Key Growth Drivers</h3>
  <ul>{{range .Drivers}}<li>{{.}}</li>{{end}}</ul>
  {{end}}
  {{else if eq .Kind "profitability"}}{{with .Body}}
  <div class="grid">{{range .Margins}}<div class="card"><div class="label">{{.Label}}</div><div class="value">{{.Value}}</div></div>{{end}}</div>
  <h3 class="{{.Tone}}">Profitability Trend: {{.Trend}}</h3>
  <p>{{.Narrative}}</p>
  {{end}}
  {{else if eq .Kind "financial_health"}}{{with .Body}}
  <div class="grid">
    <div class="card"><div class="label">{{.CashFlow.Label}}</div><div class="value">{{.CashFlow.Value}}</div><div class="muted">{{.CashFlow.Caption}}</div></div>
    <div class="card"><div class="label">{{.CurrentRatio.Label}}</div><div class="value">{{.CurrentRatio.Value}}</div><div class="muted">{{.CurrentRatio.Caption}}</div></div>
    <div class="card"><div class="label">{{.Debt.Label}}</div><div class="value">{{.Debt.Value}}</div></div>
    <div class="card"><div class="label">{{.DebtToEquity.Label}}</div><div class="value">{{.DebtToEquity.Value}}</div></div>
  </div>
  <h3 class="{{.Tone}}">Financial Health Rating: {{.Rating}}</h3>
  {{end}}
  {{else if eq .Kind "risk"}}{{with .Body}}
  <table><thead><tr><th>Category</th><th>Description</th><th>Severity</th></tr></thead><tbody>
  {{range .Risks}}<tr><td>{{.Category}}</td><td>{{.Description}}</td><td class="{{.Tone}}">{{.Severity}}</td></tr>{{end}}
  </tbody></table>
  {{end}}
  {{else if eq .Kind "outlook"}}{{with .Body}}
  <h3>Management Guidance</h3><p>{{.Guidance}}</p>
  <h3>Market Expectations</h3><p>{{.MarketExpectations}}</p>
  <h3>Key Growth Drivers</h3>
  <ul>{{range .KeyDrivers}}<li>{{.}}</li>{{end}}</ul>
  {{end}}
  {{end}}
  {{with .Chart}}<div class="chart-container">{{.}}</div>{{end}}
</div>
{{end}}

<div class="footer">
  <p>Figures are supplied pre-computed by data providers. Not financial advice.</p>
</div>

</body>
</html>
`
