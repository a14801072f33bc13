package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DegradedNote is appended when a fallback model produced the answer.
const DegradedNote = "(備註：使用相容模式生成)"

// Analysis is the per-headline LLM output, split into the two sections the
// prompt asks for. Raw keeps the full model text so unparseable output can
// still be rendered as-is.
type Analysis struct {
	Headline        string `json:"headline"`
	Model           string `json:"model"`
	Degraded        bool   `json:"degraded"`
	Raw             string `json:"raw"`
	IndustryView    string `json:"industry_view,omitempty"`
	AudienceProfile string `json:"audience_profile,omitempty"`
}

var (
	sectionRe      = regexp.MustCompile(`【(產業觀點|受眾畫像)】[:：]?`)
	trailingJunkRe = regexp.MustCompile(`(?:[\s*#]+|\d+[.、)）]\s*\**)+$`)
	leadingJunkRe  = regexp.MustCompile(`^[\s*:：]+`)
)

// NewAnalysis parses the raw model output into an Analysis. When degraded,
// the compatibility-mode note is appended after section parsing so it never
// leaks into the audience section.
func NewAnalysis(headline, raw, model string, degraded bool) *Analysis {
	a := &Analysis{
		Headline: headline,
		Model:    model,
		Degraded: degraded,
		Raw:      raw,
	}
	a.IndustryView, a.AudienceProfile = ParseSections(raw)
	if degraded {
		a.Raw = raw + "\n\n" + DegradedNote
	}
	return a
}

// ParseSections splits model output on the 【產業觀點】/【受眾畫像】 markers.
// Each section runs until the next marker or end of text. Output without
// markers yields two empty strings.
func ParseSections(raw string) (industry, audience string) {
	locs := sectionRe.FindAllStringSubmatchIndex(raw, -1)
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := cleanSection(raw[loc[1]:end])
		switch raw[loc[2]:loc[3]] {
		case "產業觀點":
			industry = body
		case "受眾畫像":
			audience = body
		}
	}
	return industry, audience
}

func cleanSection(s string) string {
	s = leadingJunkRe.ReplaceAllString(s, "")
	s = trailingJunkRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// StrategyRow is one entry of the marketing-strategy table, matched back to
// a headline by its 1-based index in the batch prompt.
type StrategyRow struct {
	Index    int    `json:"index"`
	Headline string `json:"headline"`
	Angle    string `json:"angle"`
	Audience string `json:"audience"`
}

type StrategyTable struct {
	Rows     []StrategyRow `json:"rows"`
	Model    string        `json:"model"`
	Degraded bool          `json:"degraded"`
}

// StrategyKey identifies a headline batch. A cached strategy table is only
// valid for the exact batch it was built from, so the key changes whenever
// the headline list does.
func StrategyKey(headlines []string) string {
	sum := sha256.Sum256([]byte(strings.Join(headlines, "\n")))
	return hex.EncodeToString(sum[:])
}

var (
	rowSplitRe = regexp.MustCompile(`(?m)^\s*(\d+)[.、)）]\s*`)
	angleRe    = regexp.MustCompile(`【行銷切角】[:：]?`)
	audienceRe = regexp.MustCompile(`【目標客群】[:：]?`)
)

// ParseStrategyRows splits the batch model output into numbered blocks and
// maps each block back to its headline. Blocks whose number falls outside
// the headline list are dropped.
func ParseStrategyRows(raw string, headlines []string) []StrategyRow {
	locs := rowSplitRe.FindAllStringSubmatchIndex(raw, -1)
	rows := make([]StrategyRow, 0, len(locs))
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		idx, err := strconv.Atoi(raw[loc[2]:loc[3]])
		if err != nil || idx < 1 || idx > len(headlines) {
			continue
		}
		block := raw[loc[1]:end]
		angle, audience := splitStrategyBlock(block)
		if angle == "" && audience == "" {
			continue
		}
		rows = append(rows, StrategyRow{
			Index:    idx,
			Headline: headlines[idx-1],
			Angle:    angle,
			Audience: audience,
		})
	}
	return rows
}

func splitStrategyBlock(block string) (angle, audience string) {
	angleLoc := angleRe.FindStringIndex(block)
	audienceLoc := audienceRe.FindStringIndex(block)

	switch {
	case angleLoc != nil && audienceLoc != nil && angleLoc[0] < audienceLoc[0]:
		angle = cleanSection(block[angleLoc[1]:audienceLoc[0]])
		audience = cleanSection(block[audienceLoc[1]:])
	case angleLoc != nil:
		angle = cleanSection(block[angleLoc[1]:])
		if audienceLoc != nil {
			audience = cleanSection(block[audienceLoc[1]:angleLoc[0]])
		}
	case audienceLoc != nil:
		audience = cleanSection(block[audienceLoc[1]:])
	default:
		// No markers at all: treat the whole block as the angle.
		angle = cleanSection(block)
	}
	return angle, audience
}

// Card pairs a headline with its analysis for rendering. AnalysisErr holds
// the diagnostic text shown inside the card when every model failed.
type Card struct {
	News        *NewsItem `json:"news"`
	Analysis    *Analysis `json:"analysis,omitempty"`
	AnalysisErr string    `json:"analysis_error,omitempty"`
}

type Briefing struct {
	Cards       []*Card        `json:"cards"`
	Strategy    *StrategyTable `json:"strategy,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}
