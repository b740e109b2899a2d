// Package validation scores an episode draft against fixed editorial targets.
package validation

import (
	"fmt"
	"regexp"

	"github.com/MJbae/novel-craft/internal/prose"
)

// Severity distinguishes fatal violations from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

const (
	minWordCount          = 7000
	maxWordCount          = 9000
	minSceneCount         = 3
	minAvgSentenceLength  = 15
	maxAvgSentenceLength  = 35
	minDialogueRatio      = 0.40
	maxDialogueRatio      = 0.60
	maxExplanationDensity = 0.05
	maxRepetitionRate     = 0.03
)

var sceneMarker = regexp.MustCompile(`(?m)^###`)

// Metrics is the style snapshot persisted with an episode.
type Metrics struct {
	WordCount          int     `json:"wordCount"`
	SceneCount         int     `json:"sceneCount"`
	EndingHookValid    bool    `json:"endingHookValid"`
	AvgSentenceLength  float64 `json:"avgSentenceLength"`
	DialogueRatio      float64 `json:"dialogueRatio"`
	ExplanationDensity float64 `json:"explanationDensity"`
	RepetitionRate     float64 `json:"repetitionRate"`
}

// Warning is one target violation.
type Warning struct {
	Metric     string   `json:"metric"`
	Actual     float64  `json:"actual"`
	Expected   string   `json:"expected"`
	Severity   Severity `json:"severity"`
	Suggestion string   `json:"suggestion"`
}

// Result is the outcome of Validate.
type Result struct {
	Metrics  Metrics   `json:"metrics"`
	Warnings []Warning `json:"warnings"`
	Passed   bool      `json:"passed"`
}

// Validate measures content and compares it with the episode targets. Only
// error-severity warnings fail the result.
func Validate(content string) Result {
	m := Collect(content)
	warnings := warningsFor(m)
	passed := true
	for _, w := range warnings {
		if w.Severity == SeverityError {
			passed = false
			break
		}
	}
	return Result{Metrics: m, Warnings: warnings, Passed: passed}
}

// Collect computes Metrics without judging them.
func Collect(content string) Metrics {
	style := prose.Analyze(content)
	return Metrics{
		WordCount:          prose.NonSpaceLength(content),
		SceneCount:         len(sceneMarker.Split(content, -1)),
		EndingHookValid:    prose.AnalyzeEndingHook(content).Valid,
		AvgSentenceLength:  style.AvgSentenceLength,
		DialogueRatio:      style.DialogueRatio,
		ExplanationDensity: style.ExplanationDensity,
		RepetitionRate:     style.RepetitionRate,
	}
}

func warningsFor(m Metrics) []Warning {
	warnings := []Warning{}
	wordRange := fmt.Sprintf("%d~%d", minWordCount, maxWordCount)

	switch {
	case m.WordCount < minWordCount:
		warnings = append(warnings, Warning{
			Metric:     "wordCount",
			Actual:     float64(m.WordCount),
			Expected:   wordRange,
			Severity:   SeverityError,
			Suggestion: fmt.Sprintf("분량이 %d자 부족합니다. 장면 묘사나 대화를 추가하세요.", minWordCount-m.WordCount),
		})
	case m.WordCount > maxWordCount:
		warnings = append(warnings, Warning{
			Metric:     "wordCount",
			Actual:     float64(m.WordCount),
			Expected:   wordRange,
			Severity:   SeverityWarning,
			Suggestion: fmt.Sprintf("분량이 %d자 초과했습니다. 불필요한 설명을 줄여보세요.", m.WordCount-maxWordCount),
		})
	}

	if m.SceneCount < minSceneCount {
		warnings = append(warnings, Warning{
			Metric:     "sceneCount",
			Actual:     float64(m.SceneCount),
			Expected:   fmt.Sprintf(">= %d", minSceneCount),
			Severity:   SeverityError,
			Suggestion: fmt.Sprintf("장면이 %d개 이상 필요합니다. ### 구분자로 장면을 나누세요.", minSceneCount),
		})
	}

	if !m.EndingHookValid {
		warnings = append(warnings, Warning{
			Metric:     "endingHookValid",
			Actual:     0,
			Expected:   "유효한 엔딩 훅",
			Severity:   SeverityWarning,
			Suggestion: "엔딩이 대화로 끝나거나 훅이 부족합니다. 반전/질문/긴장감 있는 서술로 마무리하세요.",
		})
	}

	sentenceRange := fmt.Sprintf("%d~%d", minAvgSentenceLength, maxAvgSentenceLength)
	switch {
	case m.AvgSentenceLength < minAvgSentenceLength:
		warnings = append(warnings, Warning{
			Metric:     "avgSentenceLength",
			Actual:     m.AvgSentenceLength,
			Expected:   sentenceRange,
			Severity:   SeverityWarning,
			Suggestion: "문장이 너무 짧습니다. 묘사를 추가해 문장 길이를 늘려보세요.",
		})
	case m.AvgSentenceLength > maxAvgSentenceLength:
		warnings = append(warnings, Warning{
			Metric:     "avgSentenceLength",
			Actual:     m.AvgSentenceLength,
			Expected:   sentenceRange,
			Severity:   SeverityWarning,
			Suggestion: "문장이 너무 깁니다. 긴 문장을 나누어 가독성을 높이세요.",
		})
	}

	dialogueRange := "0.4~0.6"
	switch {
	case m.DialogueRatio < minDialogueRatio:
		warnings = append(warnings, Warning{
			Metric:     "dialogueRatio",
			Actual:     m.DialogueRatio,
			Expected:   dialogueRange,
			Severity:   SeverityWarning,
			Suggestion: fmt.Sprintf("대화 비율이 %s%%로 낮습니다. 대화를 추가하세요.", percent(m.DialogueRatio)),
		})
	case m.DialogueRatio > maxDialogueRatio:
		warnings = append(warnings, Warning{
			Metric:     "dialogueRatio",
			Actual:     m.DialogueRatio,
			Expected:   dialogueRange,
			Severity:   SeverityWarning,
			Suggestion: fmt.Sprintf("대화 비율이 %s%%로 높습니다. 서술/묘사를 추가하세요.", percent(m.DialogueRatio)),
		})
	}

	if m.ExplanationDensity > maxExplanationDensity {
		warnings = append(warnings, Warning{
			Metric:     "explanationDensity",
			Actual:     m.ExplanationDensity,
			Expected:   "< 0.05",
			Severity:   SeverityWarning,
			Suggestion: fmt.Sprintf(`설명체 밀도가 %s%%입니다. "것이다/때문이다" 등의 표현을 줄이세요.`, percent(m.ExplanationDensity)),
		})
	}

	if m.RepetitionRate > maxRepetitionRate {
		warnings = append(warnings, Warning{
			Metric:     "repetitionRate",
			Actual:     m.RepetitionRate,
			Expected:   "< 0.03",
			Severity:   SeverityWarning,
			Suggestion: fmt.Sprintf("반복률이 %s%%입니다. 다양한 표현을 사용하세요.", percent(m.RepetitionRate)),
		})
	}

	return warnings
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f", ratio*100)
}

// FormatActual renders a warning value the way it is shown inside correction prompts.
func FormatActual(w Warning) string {
	if w.Actual == float64(int64(w.Actual)) {
		return fmt.Sprintf("%d", int64(w.Actual))
	}
	return fmt.Sprintf("%g", w.Actual)
}
