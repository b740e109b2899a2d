// Package prose computes deterministic style measurements over Korean web-novel
// prose. Every function here is pure.
package prose

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ExplanationPatterns are phrasings that read as expository or machine-written.
var ExplanationPatterns = []string{
	"것이다",
	"때문이다",
	"할 수 있다",
	"하는 것이",
	"되는 것이",
	"인 것이다",
	"라고 할 수 있다",
	"라는 것이다",
	"것으로 보인다",
	"가능성이 있다",
}

// HookKeywords signal tension near an episode's close.
var HookKeywords = []string{
	"그런데", "하지만", "그때", "갑자기", "순간",
	"설마", "아직", "과연", "비밀", "진실",
	"다시", "처음으로", "마지막", "반드시", "결국",
	"그러나", "뜻밖에", "예상치 못한", "알 수 없는", "불길한",
	"떨림", "숨겨진", "감춰진", "위험", "경고",
	"의문", "수상한", "이상한", "낯선", "돌연",
}

const (
	bigramRepeatThreshold = 3

	hookMinLength   = 500
	hookTailLength  = 500
	hookPunctWindow = 200
	hookValidScore  = 30
)

var (
	sentenceTerminal = regexp.MustCompile(`[.!?。]`)
	doubleQuoted     = regexp.MustCompile(`"[^"]*"`)
	cornerQuoted     = regexp.MustCompile(`「[^」]*」`)
	explanationRe    = regexp.MustCompile(quoteAlternation(ExplanationPatterns))

	cliffhangerRe       = regexp.MustCompile(`[…—]+\s*$|\.{3,}\s*$`)
	simpleConclusionRe  = regexp.MustCompile(`[가-힣]+했다\.\s*$`)
	dialogueClosureRe   = regexp.MustCompile(`["」]\s*[.。]?\s*$`)
	questionOrExclaimRe = regexp.MustCompile(`[?!？！]`)
)

// Metrics are the four rounded style ratios of a text.
type Metrics struct {
	AvgSentenceLength  float64 `json:"avgSentenceLength"`
	DialogueRatio      float64 `json:"dialogueRatio"`
	ExplanationDensity float64 `json:"explanationDensity"`
	RepetitionRate     float64 `json:"repetitionRate"`
}

// Analyze computes Metrics for content. Sentence length is rounded to two
// decimals and ratios to three.
func Analyze(content string) Metrics {
	return Metrics{
		AvgSentenceLength:  round(avgSentenceLength(content), 100),
		DialogueRatio:      round(dialogueRatio(content), 1000),
		ExplanationDensity: round(explanationDensity(content), 1000),
		RepetitionRate:     round(repetitionRate(content), 1000),
	}
}

// NonSpaceLength counts the characters of s that are not whitespace.
func NonSpaceLength(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func sentences(content string) []string {
	parts := sentenceTerminal.Split(content, -1)
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func avgSentenceLength(content string) float64 {
	segs := sentences(content)
	if len(segs) == 0 {
		return 0
	}
	total := 0
	for _, s := range segs {
		total += NonSpaceLength(s)
	}
	return float64(total) / float64(len(segs))
}

func dialogueRatio(content string) float64 {
	total := NonSpaceLength(content)
	if total == 0 {
		return 0
	}
	dialogue := 0
	for _, m := range doubleQuoted.FindAllString(content, -1) {
		dialogue += utf8.RuneCountInString(m)
	}
	for _, m := range cornerQuoted.FindAllString(content, -1) {
		dialogue += utf8.RuneCountInString(m)
	}
	return float64(dialogue) / float64(total)
}

func explanationDensity(content string) float64 {
	segs := sentences(content)
	if len(segs) == 0 {
		return 0
	}
	matches := len(explanationRe.FindAllStringIndex(content, -1))
	return float64(matches) / float64(len(segs))
}

func repetitionRate(content string) float64 {
	chars := []rune(stripSpace(content))
	if len(chars) < 2 {
		return 0
	}
	counts := make(map[string]int, len(chars))
	for i := 0; i < len(chars)-1; i++ {
		counts[string(chars[i:i+2])]++
	}
	repeated := 0
	for _, c := range counts {
		if c > bigramRepeatThreshold {
			repeated++
		}
	}
	return float64(repeated) / float64(len(counts))
}

// HookAnalysis is the additive ending-hook score of an episode.
type HookAnalysis struct {
	Valid   bool     `json:"valid"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// AnalyzeEndingHook scores how strongly content closes on an open question.
// Texts shorter than 500 non-whitespace characters are never valid.
func AnalyzeEndingHook(content string) HookAnalysis {
	if NonSpaceLength(content) < hookMinLength {
		return HookAnalysis{
			Valid:   false,
			Score:   0,
			Reasons: []string{"콘텐츠가 500자 미만으로 엔딩 훅 판정 불가"},
		}
	}

	var reasons []string
	score := 0

	tail := lastRunes(content, hookTailLength)
	trimmedEnd := strings.TrimRightFunc(tail, unicode.IsSpace)

	if dialogueClosureRe.MatchString(trimmedEnd) {
		reasons = append(reasons, "대화문으로 끝남 — 서술적 훅이 필요합니다")
	} else {
		score += 15
		reasons = append(reasons, "대화문으로 끝나지 않음 (양호)")
	}

	var matched []string
	for _, kw := range HookKeywords {
		if strings.Contains(tail, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) > 0 {
		score += min(len(matched)*10, 30)
		reasons = append(reasons, "긴장감 키워드 발견: "+strings.Join(matched[:min(len(matched), 3)], ", "))
	} else {
		reasons = append(reasons, "긴장감 키워드 없음")
	}

	if questionOrExclaimRe.MatchString(lastRunes(content, hookPunctWindow)) {
		score += 20
		reasons = append(reasons, "마지막 200자 내 물음표/느낌표 존재")
	} else {
		reasons = append(reasons, "마지막 200자 내 물음표/느낌표 없음")
	}

	if simpleConclusionRe.MatchString(trimmedEnd) {
		score -= 15
		reasons = append(reasons, `단순 서술 종결("~했다.")로 끝남 — 긴장감 부족`)
	} else {
		score += 10
		reasons = append(reasons, "단순 서술 종결이 아님 (양호)")
	}

	if cliffhangerRe.MatchString(trimmedEnd) {
		score += 25
		reasons = append(reasons, "클리프행어 패턴 발견 (말줄임/대시)")
	}

	score = max(0, min(100, score))
	valid := score >= hookValidScore
	if valid {
		reasons = append(reasons, fmt.Sprintf("종합 점수 %d/100 — 유효한 엔딩 훅", score))
	} else {
		reasons = append(reasons, fmt.Sprintf("종합 점수 %d/100 — 엔딩 훅 보강 필요", score))
	}
	return HookAnalysis{Valid: valid, Score: score, Reasons: reasons}
}

func lastRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[len(r)-n:])
}

func quoteAlternation(patterns []string) string {
	quoted := make([]string, len(patterns))
	for i, p := range patterns {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(quoted, "|")
}

// round mirrors half-up rounding at the given scale (100 for two decimals).
func round(v, scale float64) float64 {
	return math.Floor(v*scale+0.5) / scale
}
