// Package prompt renders a normalized market snapshot into a long-form
// forecasting prompt. Rendering never fails for a structurally valid payload:
// a missing price defaults to 0.5, missing numeric fields to 0, and missing
// metadata to "Not specified".
package prompt

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/wolonglabs/marketsnap/internal/domain"
)

// historyTail caps how many trailing history points the prompt shows.
const historyTail = 30

// promptData is the template context assembled from one payload.
type promptData struct {
	Question         string
	PricePct         string // "62.0"
	PriceFrac        string // "0.620"
	Volume           string
	Liquidity        string
	CloseTime        string
	ResolutionSource string
	MarketURL        string
	HistoryLines     []string
}

// BuildAnalysisPrompt renders the analysis prompt for one market snapshot.
func BuildAnalysisPrompt(p *domain.MarketPayload) string {
	prior := p.PriorProbability()

	data := promptData{
		Question:         p.Facts.Question,
		PricePct:         fmt.Sprintf("%.1f", prior*100),
		PriceFrac:        fmt.Sprintf("%.3f", prior),
		Volume:           fmt.Sprintf("%.0f", p.Facts.Volume),
		Liquidity:        fmt.Sprintf("%.0f", p.Facts.Liquidity),
		CloseTime:        "Not specified",
		ResolutionSource: "Not specified",
		MarketURL:        p.URL,
	}
	if p.Facts.CloseTime > 0 {
		data.CloseTime = time.Unix(p.Facts.CloseTime, 0).UTC().Format(time.RFC3339)
	}
	if p.Facts.ResolutionSource != "" {
		data.ResolutionSource = p.Facts.ResolutionSource
	}
	data.HistoryLines = historyLines(p.History)

	var b strings.Builder
	// The template only references promptData fields; execution cannot fail
	// on a valid payload.
	if err := analysisTemplate.Execute(&b, data); err != nil {
		return fmt.Sprintf("# Prediction Market Analysis Task\n\n**Question:** %s\n**Current Market Price:** %s%%\n**Market URL:** %s\n", data.Question, data.PricePct, data.MarketURL)
	}
	return b.String()
}

// historyLines formats the trailing points of the primary outcome's series as
// "- YYYY-MM-DD: NN.N%" lines.
func historyLines(history []domain.HistorySeries) []string {
	if len(history) == 0 || len(history[0].Points) == 0 {
		return nil
	}
	points := history[0].Points
	if len(points) > historyTail {
		points = points[len(points)-historyTail:]
	}
	lines := make([]string, 0, len(points))
	for _, pt := range points {
		date := time.Unix(pt.T, 0).UTC().Format("2006-01-02")
		lines = append(lines, fmt.Sprintf("- %s: %.1f%%", date, pt.P*100))
	}
	return lines
}

var analysisTemplate = template.Must(template.New("analysis").Parse(`# Prediction Market Analysis Task

You are an expert forecaster analyzing a prediction market. Your goal is to provide a rigorous, evidence-based probabilistic forecast.

## Market Information

**Question:** {{.Question}}

**Current Market Price:** {{.PricePct}}% ({{.PriceFrac}} probability)

**Market Metrics:**
- Trading Volume: ${{.Volume}}
- Liquidity: ${{.Liquidity}}
- Close Time: {{.CloseTime}}
- Resolution Source: {{.ResolutionSource}}

**Market URL:** {{.MarketURL}}
{{if .HistoryLines}}
Price History (Last {{len .HistoryLines}} Points):
{{range .HistoryLines}}{{.}}
{{end}}{{end}}
---

## Your Analysis Framework

### Phase 1: Strategic Planning (Research Design)

Break down this forecasting question into:

1. **Causal Pathways** (3-8 mechanisms that could lead to the outcome)
   - Focus on WHAT COULD CAUSE the outcome, not just the final state

2. **Key Variables** (5-15 leading indicators to monitor)
   - Observable metrics that would change BEFORE the outcome occurs

3. **Search Strategy** (Design 15-20 specific search queries)
   - Target primary sources and high-quality secondary sources
   - Include temporal constraints; avoid generic searches

4. **Decision Criteria** (3-8 clear criteria for evidence evaluation)
   - What would constitute strong evidence for/against?

### Phase 2: Evidence Research (Bilateral Investigation)

Research both sides systematically. Classify each piece of evidence by
quality:
- **Type A** (Primary Sources): Official documents, press releases, regulatory filings
- **Type B** (High-Quality Secondary): Reuters, Bloomberg, WSJ, FT, AP, expert analysis
- **Type C** (Standard Secondary): Reputable news with citations, industry publications
- **Type D** (Weak/Speculative): Social media, unverified claims, rumors

For each piece of evidence, note the claim, source URL and date, evidence
type, verifiability (0-1), independent corroborations, and logical
consistency (0-1). Strongly prefer sources from the last 30 days.

### Phase 3: Critical Analysis (Gap Identification)

Review your evidence collection and identify missing evidence areas,
duplication concerns, data quality issues, and correlated evidence clusters.

### Phase 4: Bayesian Probability Aggregation

**Starting Point:**
- Prior probability (p0): {{.PricePct}}% (from current market price)

**Evidence Weighting:**
1. Base Log-Likelihood Ratio (LLR): Type A up to ±2.0, Type B up to ±1.6, Type C up to ±0.8, Type D up to ±0.3
2. Multiply by verifiability; boost recency (last 30 days: +35%, 31-180 days: +20%, older: -15%)
3. Group correlated evidence into clusters with effective sample size m_eff = m / (1 + (m-1) * rho)
4. Apply Bayesian updates: p_new = p_old * exp(LLR) / (p_old * exp(LLR) + (1-p_old))

**Final Probabilities:**
- **p_neutral**: Pure evidence-based probability (ignoring market)
- **p_aware**: Blend with market (90% p_neutral + 10% market price)

### Phase 5: Comprehensive Report

Generate a structured forecast report:

## Prediction: [YES/NO] (XX.X%)

### Executive Summary
- Core thesis in 2-3 sentences, key drivers, confidence level

### Evidence Analysis
For each major piece of evidence (top 10-15 by influence): source, type,
claim, influence (delta in percentage points, LLR), correlation cluster,
and assessment.

### Probability Breakdown

| Metric | Value | Explanation |
|--------|-------|-------------|
| Prior (p0) | {{.PricePct}}% | Current market price |
| Evidence-Based (p_neutral) | XX.X% | Pure Bayesian aggregation |
| Market-Aware (p_aware) | XX.X% | 90% evidence + 10% market |

### What Would Change This Forecast
List 3-5 specific events that would materially shift the probability.

### Caveats & Limitations
Potential biases, correlation assumptions, data quality concerns, and
sources of uncertainty.

### Key Takeaways
Main conclusion, risk factors, confidence assessment, and recommended
monitoring points.

---

## Special Instructions

1. **Use your native search/browsing capabilities** for recent news, official sources, expert analysis, and market data
2. **Be thorough but efficient** - aim for 15-30 high-quality evidence items
3. **Show your work** - make the Bayesian reasoning transparent
4. **Be honest about uncertainty** - if evidence is limited or conflicting, say so
5. **Focus on mechanisms, not just outcomes** - explain WHY things might happen

Begin your analysis now.
`))
