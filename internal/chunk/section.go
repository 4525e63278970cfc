// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunk

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Section contexts reported for a chunk.
const (
	SectionHeader      = "document_header"
	SectionSummary     = "executive_summary"
	SectionFinancial   = "financial_data"
	SectionInvestment  = "investment_content"
	SectionRisk        = "risk_section"
	SectionLegal       = "legal_regulatory"
	SectionGovernance  = "governance"
	SectionContact     = "contact_info"
	SectionPerformance = "performance_data"
	SectionGeneral     = "general_content"
)

// sectionOrder breaks ties between equal scores.
var sectionOrder = []string{
	SectionHeader, SectionSummary, SectionFinancial, SectionInvestment, SectionRisk,
	SectionLegal, SectionGovernance, SectionContact, SectionPerformance, SectionGeneral,
}

// indicatorSet scores a section by the number of its phrases present,
// times weight, capped at limit.
type indicatorSet struct {
	section string
	weight  float64
	limit   float64
	phrases []string
}

var indicatorSets = []indicatorSet{
	{SectionHeader, 3, math.Inf(1), []string{
		"confidential", "memorandum", "prospectus", "offering", "circular",
		"annual report", "interim report", "quarterly report", "half year",
		"private placement", "supplement", "addendum", "amendment",
	}},
	{SectionSummary, 2, math.Inf(1), []string{
		"executive summary", "overview", "highlights", "key points",
		"summary", "introduction", "at a glance", "snapshot",
	}},
	{SectionInvestment, 0.3, 3, []string{
		"investment", "portfolio", "fund", "asset", "allocation", "strategy",
		"manager", "management", "performance", "returns", "benchmark",
		"equity", "fixed income", "alternative", "derivative", "hedge",
		"position", "holding", "security", "instrument",
	}},
	{SectionRisk, 0.4, 3, []string{
		"risk", "warning", "caution", "disclaimer", "limitation",
		"uncertainty", "volatile", "loss", "adverse", "fluctuation",
		"market risk", "credit risk", "liquidity risk", "operational risk",
		"concentration risk", "currency risk", "interest rate risk",
	}},
	{SectionRisk, 0.5, 2, []string{
		"past performance", "not guarantee", "may lose", "no assurance",
		"should not rely", "consult", "advisor", "professional advice",
	}},
	{SectionLegal, 0.4, 3, []string{
		"legal", "regulatory", "compliance", "regulation", "law", "statute",
		"sec", "cftc", "finra", "mifid", "ucits", "aifmd", "fatca",
		"tax", "taxation", "withholding", "jurisdiction", "governing law",
		"litigation", "proceeding", "audit", "examination",
	}},
	{SectionGovernance, 0.4, 3, []string{
		"board", "director", "governance", "committee", "shareholder",
		"voting", "election", "appointment", "remuneration", "compensation",
		"independence", "oversight", "fiduciary", "stewardship",
	}},
	{SectionPerformance, 0.3, 3, []string{
		"return", "yield", "gain", "loss", "outperform", "underperform",
		"benchmark", "alpha", "beta", "sharpe", "volatility", "tracking",
		"attribution", "contribution", "drawdown", "recovery",
	}},
}

var (
	companySuffixes = []string{"ltd", "llc", "inc", "corp", "plc", "gmbh"}

	financialPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\$[\d,]+(?:\.\d{2})?(?:\s*(?:million|billion|thousand))?`),
		regexp.MustCompile(`[\d,]+\.\d+%`),
		regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+\b`),
		regexp.MustCompile(`\b(?:USD|EUR|GBP|JPY|CHF|AUD|CAD)\b`),
		regexp.MustCompile(`\(\$?[\d,]+\)`),
		regexp.MustCompile(`(?i)\b(?:NAV|AUM|assets under management)\b`),
		regexp.MustCompile(`(?i)\b(?:basis points|bps)\b`),
		regexp.MustCompile(`\b(?:P/E|ROE|ROA|EBITDA|WACC)\b`),
	}

	contactPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)www\.[\w.-]+\.\w+`),
		regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`),
		regexp.MustCompile(`\+?\d{1,4}[-.\s]?\d{3,4}[-.\s]?\d{4,6}`),
		regexp.MustCompile(`(?i)\b(?:address|contact|phone|email|website|fax)\b`),
	}

	numberToken = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
)

// Section guesses what part of a financial document text comes from. Each
// section is scored from indicator phrases and patterns; the best score
// wins, and text scoring below 1 everywhere is general content.
func Section(text string) string {
	if strings.TrimSpace(text) == "" {
		return SectionGeneral
	}
	words := normalize(text)
	padded := " " + strings.Join(words, " ") + " "
	scores := make(map[string]float64, len(sectionOrder))

	for _, set := range indicatorSets {
		n := 0
		for _, phrase := range set.phrases {
			if strings.Contains(padded, " "+phrase+" ") {
				n++
			}
		}
		scores[set.section] += math.Min(float64(n)*set.weight, set.limit)
	}

	length := utf8.RuneCountInString(strings.Join(strings.Fields(text), " "))
	if length < 200 {
		for _, s := range companySuffixes {
			if strings.Contains(padded, " "+s+" ") {
				scores[SectionHeader] += 2
				break
			}
		}
	}

	matches := 0
	for _, re := range financialPatterns {
		matches += len(re.FindAllStringIndex(text, -1))
	}
	scores[SectionFinancial] += math.Min(float64(matches)*0.5, 3)

	contact := 0
	for _, re := range contactPatterns {
		if re.MatchString(text) {
			contact++
		}
	}
	scores[SectionContact] += math.Min(float64(contact)*0.5, 2)

	if fields := len(strings.Fields(text)); fields > 0 {
		if float64(len(numberToken.FindAllStringIndex(text, -1)))/float64(fields) > 0.1 {
			scores[SectionFinancial]++
			scores[SectionPerformance]++
		}
	}

	switch {
	case length < 100:
		scores[SectionHeader]++
	case length > 1000:
		scores[SectionGeneral]++
	}

	best, bestScore := SectionGeneral, 0.0
	for _, s := range sectionOrder {
		if scores[s] > bestScore {
			best, bestScore = s, scores[s]
		}
	}
	if bestScore < 1 {
		return SectionGeneral
	}
	return best
}

// normalize lower-cases text and splits it into words, treating every rune
// that is not a letter or digit as a separator.
func normalize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
