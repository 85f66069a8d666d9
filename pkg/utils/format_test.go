package utils

import "testing"

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"aapl", "AAPL"},
		{" msft ", "MSFT"},
		{"$TSLA", "TSLA"},
		{"apple", "AAPL"},
		{"Google", "GOOGL"},
		{"brk-b", "BRK.B"},
		{"UNKNOWN", "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeSymbol(tt.input); got != tt.expected {
				t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsValidSymbol(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"AAPL", true},
		{"BRK.B", true},
		{"A", true},
		{"", false},
		{"aapl", false},
		{"1ABC", false},
		{"TOOLONGSYMBOL", false},
		{"AA PL", false},
	}
	for _, tt := range tests {
		if got := IsValidSymbol(tt.input); got != tt.want {
			t.Errorf("IsValidSymbol(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(189.8412); got != "$189.84" {
		t.Errorf("FormatPrice = %q", got)
	}
	if got := FormatPrice(-3); got != "-$3.00" {
		t.Errorf("FormatPrice(-3) = %q", got)
	}
}

func TestFormatChange(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{2.45, "+2.45"},
		{0, "+0.00"},
		{-1.234, "-1.23"},
	}
	for _, tt := range tests {
		if got := FormatChange(tt.input); got != tt.expected {
			t.Errorf("FormatChange(%f) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatChangePercent(t *testing.T) {
	tests := []struct {
		change, pct float64
		expected    string
	}{
		{2.5, 1.32, "+1.32%"},
		{0, 0, "+0.00%"},
		{-1.2, -0.41, "-0.41%"},
	}
	for _, tt := range tests {
		if got := FormatChangePercent(tt.change, tt.pct); got != tt.expected {
			t.Errorf("FormatChangePercent(%f, %f) = %q, want %q", tt.change, tt.pct, got, tt.expected)
		}
	}
}

func TestFormatGrowth(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{8.1, "+8.1%"},
		{0, "0%"},
		{-2.5, "-2.5%"},
		{12, "+12%"},
	}
	for _, tt := range tests {
		if got := FormatGrowth(tt.input); got != tt.expected {
			t.Errorf("FormatGrowth(%f) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{2.8e12, "2.8T"},
		{383.29e9, "383.29B"},
		{12.5e6, "12.5M"},
		{1500, "1.5K"},
		{42, "42"},
		{-2e9, "-2B"},
	}
	for _, tt := range tests {
		if got := FormatCompact(tt.input); got != tt.expected {
			t.Errorf("FormatCompact(%f) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatPctAndRatio(t *testing.T) {
	if got := FormatPct(25.3); got != "25.3%" {
		t.Errorf("FormatPct = %q", got)
	}
	if got := FormatRatio(29.24); got != "29.2" {
		t.Errorf("FormatRatio = %q", got)
	}
}

func TestFormatBillions(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{383.3, "$383.3B"},
		{110, "$110B"},
		{-4.25, "-$4.25B"},
	}
	for _, tt := range tests {
		if got := FormatBillions(tt.input); got != tt.expected {
			t.Errorf("FormatBillions(%f) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
