package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/onepager/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// SVG Chart Generator
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 720)
	Height       int    // SVG height in pixels (default: 320)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 30)
	MarginBottom int    // bottom margin (default: 40)
	MarginLeft   int    // left margin (default: 70)
	BgColor      string // background color
	GridColor    string // grid line color
	TextColor    string // axis label color
	FontSize     int    // axis label font size
	Title        string // chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        720,
		Height:       320,
		MarginTop:    40,
		MarginRight:  30,
		MarginBottom: 40,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

const (
	colorUp   = "#16a34a"
	colorDown = "#dc2626"
	colorFlat = "#6b7280"
	colorBar  = "#2563eb"
)

// ════════════════════════════════════════════════════════════════════
// Price Chart
// ════════════════════════════════════════════════════════════════════

// PriceChart draws the intraday price line. The stroke follows the day's
// direction so the chart reads the same way as the quote header.
func PriceChart(points []models.ChartPoint, dir models.Direction, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if len(points) < 2 {
		return emptySVG(cfg, "No chart data")
	}
	if cfg.Title == "" {
		cfg.Title = "Intraday Price"
	}

	px, py, pw, ph := cfg.plotArea()

	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	for _, p := range points {
		minVal = math.Min(minVal, p.Price)
		maxVal = math.Max(maxVal, p.Price)
	}
	vRange := maxVal - minVal
	if vRange < 0.001 {
		vRange = 1
	}
	minVal -= vRange * 0.05
	maxVal += vRange * 0.05
	vRange = maxVal - minVal

	var sb strings.Builder
	sb.WriteString(chartFrame(cfg))

	// Y-axis grid
	const gridLines = 4
	for i := 0; i <= gridLines; i++ {
		val := minVal + vRange*float64(i)/gridLines
		y := py + ph - ph*i/gridLines
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor)
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%.2f</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, val)
	}

	color := colorUp
	if dir == models.DirectionDown {
		color = colorDown
	}
	step := float64(pw) / float64(len(points)-1)
	path := make([]string, len(points))
	for i, p := range points {
		cx := float64(px) + float64(i)*step
		cy := float64(py+ph) - (p.Price-minVal)/vRange*float64(ph)
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		path[i] = fmt.Sprintf("%s%.1f,%.1f", cmd, cx, cy)
	}
	fmt.Fprintf(&sb, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`, strings.Join(path, " "), color)

	// X-axis labels, at most six
	interval := len(points) / 6
	if interval < 1 {
		interval = 1
	}
	for i := 0; i < len(points); i += interval {
		cx := float64(px) + float64(i)*step
		fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			cx, py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(points[i].Time))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Bar Chart (Horizontal)
// ════════════════════════════════════════════════════════════════════

// BarItem represents a single bar in a horizontal bar chart.
type BarItem struct {
	Label string
	Value float64
	Text  string // value label; defaults to %.1f
	Color string // optional
}

// HorizontalBarChart generates an SVG horizontal bar chart of non-negative
// values, used for market share and quarterly revenue.
func HorizontalBarChart(items []BarItem, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if len(items) == 0 {
		return emptySVG(cfg, "No data")
	}
	cfg.MarginLeft = 140 // wider for labels

	px, py, pw, ph := cfg.plotArea()

	maxVal := 0.0
	for _, item := range items {
		maxVal = math.Max(maxVal, item.Value)
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	barH := math.Min(float64(ph)/float64(len(items))*0.7, 28)
	gap := (float64(ph) - barH*float64(len(items))) / float64(len(items)+1)

	var sb strings.Builder
	sb.WriteString(chartFrame(cfg))

	for i, item := range items {
		by := float64(py) + gap + float64(i)*(barH+gap)
		bw := math.Max(item.Value, 0) / maxVal * float64(pw-50)
		color := item.Color
		if color == "" {
			color = colorBar
		}
		text := item.Text
		if text == "" {
			text = fmt.Sprintf("%.1f", item.Value)
		}
		fmt.Fprintf(&sb, `<rect x="%d" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="2"/>`,
			px, by, bw, barH, color)
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(item.Label))
		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%s</text>`,
			float64(px)+bw+5, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(text))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ShareChart plots competitor market share, colored by share trend.
func ShareChart(rows []CompetitorRow, cfg ChartConfig) string {
	if cfg.Title == "" {
		cfg.Title = "Market Share"
	}
	items := make([]BarItem, len(rows))
	for i, r := range rows {
		items[i] = BarItem{Label: r.Name, Value: r.MarketShare, Text: r.Share, Color: toneColor(r.Tone)}
	}
	return HorizontalBarChart(items, cfg)
}

// RevenueChart plots quarterly revenue.
func RevenueChart(rows []QuarterRow, cfg ChartConfig) string {
	if cfg.Title == "" {
		cfg.Title = "Quarterly Revenue"
	}
	items := make([]BarItem, len(rows))
	for i, r := range rows {
		items[i] = BarItem{Label: r.Quarter, Value: r.Value, Text: r.Revenue}
	}
	return HorizontalBarChart(items, cfg)
}

func toneColor(t Tone) string {
	switch t {
	case TonePositive:
		return colorUp
	case ToneNegative:
		return colorDown
	default:
		return colorFlat
	}
}

// ════════════════════════════════════════════════════════════════════
// SVG helpers
// ════════════════════════════════════════════════════════════════════

func chartFrame(cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`, cfg.Width, cfg.Height, cfg.BgColor)
	fmt.Fprintf(&sb, `<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title))
	return sb.String()
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
