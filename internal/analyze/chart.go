// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"math"
	"regexp"
	"strings"

	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// Indicator names recorded on a page when a chart signal fires.
const (
	IndicatorLargeImage   = "large_chart_image"
	IndicatorMediumImage  = "medium_image"
	IndicatorBarPattern   = "bar_pattern"
	IndicatorNumericData  = "numeric_data"
	IndicatorChartWords   = "chart_keywords"
	IndicatorPercentages  = "percentages"
	IndicatorVisualLayout = "visual_layout"
)

var (
	numericToken = regexp.MustCompile(`\d+(?:[.,]\d+)*%?`)

	chartKeywords = []string{
		"chart", "graph", "figure", "performance", "growth", "trend",
		"allocation", "distribution", "gráfico", "evolução",
	}
)

// ChartScore is the weighted evidence that a page presents a chart.
type ChartScore struct {
	Value      float64
	Confidence types.Confidence
	Indicators []string
}

// ScoreChart weighs image geometry, vector rectangles and text cues. The
// result is capped at 1.0 and rounded to three decimals.
func ScoreChart(p types.Page, rects int) ChartScore {
	var s ChartScore
	add := func(weight float64, indicator string) {
		s.Value += weight
		for _, have := range s.Indicators {
			if have == indicator {
				return
			}
		}
		s.Indicators = append(s.Indicators, indicator)
	}

	large := false
	for _, img := range p.Images {
		px := img.Pixels()
		switch {
		case px > 100_000 && chartShaped(img):
			add(0.4, IndicatorLargeImage)
			large = true
		case px > 20_000 && px <= 100_000:
			add(0.2, IndicatorMediumImage)
		}
	}

	if rects >= 3 {
		add(0.2, IndicatorBarPattern)
	}
	if len(numericToken.FindAllString(p.Text, -1)) >= 4 {
		add(0.15, IndicatorNumericData)
	}

	lower := strings.ToLower(p.Text)
	for _, k := range chartKeywords {
		if strings.Contains(lower, k) {
			add(0.1, IndicatorChartWords)
			break
		}
	}
	if strings.Contains(lower, "%") || strings.Contains(lower, "percent") {
		add(0.1, IndicatorPercentages)
	}
	if p.WordCount < 100 && large {
		add(0.15, IndicatorVisualLayout)
	}

	s.Value = math.Round(math.Min(s.Value, 1.0)*1000) / 1000
	s.Confidence = confidence(s.Value)
	return s
}

// chartShaped requires two of: moderate pixel count, chart-like aspect
// ratio, and minimum chart dimensions.
func chartShaped(img types.ImageInfo) bool {
	px := img.Pixels()
	aspect := img.AspectRatio()
	hits := 0
	if px >= 50_000 && px <= 800_000 {
		hits++
	}
	if aspect >= 0.6 && aspect <= 2.5 {
		hits++
	}
	if img.Width > 300 && img.Height > 200 {
		hits++
	}
	return hits >= 2
}

func confidence(v float64) types.Confidence {
	switch {
	case v >= 0.7:
		return types.ConfidenceHigh
	case v >= 0.4:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}
