package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/seenimoa/onepager/pkg/models"
	"github.com/seenimoa/onepager/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Export
// ════════════════════════════════════════════════════════════════════

// Format specifies the export output format.
type Format string

const (
	FormatHTML Format = "html"
	FormatText Format = "text"
)

// ParseFormat validates an export format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHTML, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q: want html or text", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// ExportOptions controls export rendering.
type ExportOptions struct {
	Format      Format
	GeneratedAt time.Time   // defaults to the record set's load time
	Charts      bool        // embed SVG charts (HTML only)
	ChartCfg    ChartConfig // chart rendering config
}

// DefaultExportOptions returns sensible defaults.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:   FormatHTML,
		Charts:   true,
		ChartCfg: DefaultChartConfig(),
	}
}

var exportTmpl = template.Must(template.New("export").Parse(ExportTemplate))

// exportView is the template model.
type exportView struct {
	Title       string
	Company     models.Company
	GeneratedAt string
	Partial     []string
	Sections    []sectionView
}

type sectionView struct {
	Payload
	Number int
	Chart  template.HTML
}

// Export renders every section of the record set to w.
func Export(w io.Writer, rs models.RecordSet, opts ExportOptions) error {
	if rs.Company.Symbol == "" {
		return fmt.Errorf("export: record set has no company")
	}
	view := buildExportView(rs, opts)

	switch opts.Format {
	case FormatHTML:
		var buf bytes.Buffer
		if err := exportTmpl.Execute(&buf, view); err != nil {
			return fmt.Errorf("executing template: %w", err)
		}
		_, err := buf.WriteTo(w)
		return err
	case FormatText:
		_, err := io.WriteString(w, renderText(view))
		return err
	default:
		return fmt.Errorf("unsupported export format %q", opts.Format)
	}
}

func buildExportView(rs models.RecordSet, opts ExportOptions) exportView {
	at := opts.GeneratedAt
	if at.IsZero() {
		at = rs.LoadedAt
	}
	view := exportView{
		Title:   fmt.Sprintf("%s (%s) One-Pager", rs.Company.Name, rs.Company.Symbol),
		Company: rs.Company,
		Partial: rs.Partial,
	}
	if !at.IsZero() {
		view.GeneratedAt = "Generated " + utils.FormatTimestamp(at)
	}

	cfg := opts.ChartCfg
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	for _, p := range ComposeAll(rs) {
		sv := sectionView{Payload: p, Number: int(p.SectionID)}
		if opts.Charts && opts.Format == FormatHTML {
			sv.Chart = sectionChart(p, cfg)
		}
		view.Sections = append(view.Sections, sv)
	}
	return view
}

// sectionChart returns the SVG for sections that carry a chart. The SVG is
// built from escaped labels only, so it is safe to embed as HTML.
func sectionChart(p Payload, cfg ChartConfig) template.HTML {
	switch b := p.Body.(type) {
	case *OverviewBody:
		if len(b.Chart) > 1 {
			return template.HTML(PriceChart(b.Chart, b.Direction, cfg))
		}
	case *CompetitiveBody:
		if len(b.Competitors) > 0 {
			return template.HTML(ShareChart(b.Competitors, cfg))
		}
	case *RevenueBody:
		if len(b.Quarters) > 0 {
			return template.HTML(RevenueChart(b.Quarters, cfg))
		}
	}
	return ""
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

func renderText(v exportView) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString(line + "\n")
	fmt.Fprintf(&sb, "  %s\n", v.Title)
	if v.GeneratedAt != "" {
		fmt.Fprintf(&sb, "  %s\n", v.GeneratedAt)
	}
	sb.WriteString(line + "\n")
	if len(v.Partial) > 0 {
		fmt.Fprintf(&sb, "  Some data was unavailable: %s\n", strings.Join(v.Partial, ", "))
	}

	for _, s := range v.Sections {
		writeTextSection(&sb, s.Payload)
		sb.WriteString(thinLine + "\n")
	}
	return sb.String()
}

// WriteSection renders a single composed section as plain text.
func WriteSection(w io.Writer, p Payload) error {
	var sb strings.Builder
	writeTextSection(&sb, p)
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeTextSection(sb *strings.Builder, p Payload) {
	fmt.Fprintf(sb, "\n  ■ %d. %s\n", int(p.SectionID), strings.ToUpper(p.Title))
	if p.Body == nil {
		sb.WriteString("    No data available for this section.\n")
		return
	}
	writeTextBody(sb, p.Body)
}

func writeTextBody(sb *strings.Builder, body any) {
	bullets := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(sb, "    %s:\n", title)
		for _, it := range items {
			fmt.Fprintf(sb, "      • %s\n", it)
		}
	}
	metrics := func(ms ...Metric) {
		for _, m := range ms {
			fmt.Fprintf(sb, "    %-20s %s\n", m.Label, m.Value)
		}
	}

	switch b := body.(type) {
	case *OverviewBody:
		fmt.Fprintf(sb, "    Price: %s (%s, %s)\n", b.Price, b.Change, b.ChangePercent)
		metrics(b.Metrics...)
	case *NewsAnalysisBody:
		fmt.Fprintf(sb, "    Overall tone: %s\n", b.Summary.Label)
		for _, g := range b.Groups {
			fmt.Fprintf(sb, "    %s\n", g.Title)
			for _, it := range g.Items {
				fmt.Fprintf(sb, "      - %s [%s] (%s)\n", it.Title, it.Badge, it.Source)
			}
		}
	case *NewsFeedBody:
		for _, it := range b.Items {
			fmt.Fprintf(sb, "    [%s] %s (%s, %s)\n", it.Sentiment, it.Title, it.Source, it.Published)
		}
	case *EarningsBody:
		fmt.Fprintf(sb, "    %s\n    Call Date: %s\n", b.Heading, b.CallDate)
		if b.NextCallDate != "" {
			fmt.Fprintf(sb, "    Next Call: %s\n", b.NextCallDate)
		}
		bullets("Key Management Quotes", b.KeyQuotes)
		bullets("Analyst Q&A Highlights", b.AnalystHighlights)
	case *CompetitiveBody:
		for _, c := range b.Competitors {
			fmt.Fprintf(sb, "    %-20s %8s  %s\n", c.Name, c.Share, c.Trend)
		}
		bullets("Competitive Advantages", b.Advantages)
	case *RevenueBody:
		fmt.Fprintf(sb, "    Revenue Growth: %s YoY | Current Revenue: %s\n", b.Growth, b.Current)
		for _, q := range b.Quarters {
			fmt.Fprintf(sb, "    %-20s %s\n", q.Quarter, q.Revenue)
		}
		bullets("Key Growth Drivers", b.Drivers)
	case *ProfitabilityBody:
		metrics(b.Margins...)
		fmt.Fprintf(sb, "    Profitability Trend: %s\n    %s\n", b.Trend, b.Narrative)
	case *HealthBody:
		metrics(b.CashFlow, b.CurrentRatio, b.Debt, b.DebtToEquity)
		fmt.Fprintf(sb, "    Financial Health Rating: %s\n", b.Rating)
	case *RiskBody:
		for _, r := range b.Risks {
			fmt.Fprintf(sb, "    [%s] %s: %s\n", strings.ToUpper(string(r.Severity)), r.Category, r.Description)
		}
	case *OutlookBody:
		fmt.Fprintf(sb, "    Management Guidance: %s\n", b.Guidance)
		fmt.Fprintf(sb, "    Market Expectations: %s\n", b.MarketExpectations)
		bullets("Key Growth Drivers", b.KeyDrivers)
	}
}
