// Package contextpack assembles prompt context from project state within a
// fixed character budget.
package contextpack

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/MJbae/novel-craft/internal/domain"
)

// Section names one block of assembled context.
type Section string

const (
	SectionRules             Section = "rules"
	SectionWorldbuilding     Section = "worldbuilding"
	SectionCharacters        Section = "characters"
	SectionPreviousSummaries Section = "previousSummaries"
	SectionEventLog          Section = "eventLog"
	SectionPlotPosition      Section = "plotPosition"
	SectionOutline           Section = "outline"
	SectionUserInstructions  Section = "userInstructions"
	SectionReserve           Section = "reserve"
)

// DefaultBudget is the total character allowance when none is configured.
const DefaultBudget = 12000

const unlimited = math.MaxInt

var contentSections = []Section{
	SectionRules,
	SectionWorldbuilding,
	SectionCharacters,
	SectionPreviousSummaries,
	SectionEventLog,
	SectionPlotPosition,
	SectionOutline,
	SectionUserInstructions,
}

// sharePercent is each section's default slice of the total budget.
var sharePercent = map[Section]int{
	SectionRules:             10,
	SectionWorldbuilding:     10,
	SectionCharacters:        15,
	SectionPreviousSummaries: 20,
	SectionEventLog:          10,
	SectionPlotPosition:      5,
	SectionOutline:           15,
	SectionUserInstructions:  5,
	SectionReserve:           10,
}

var defaultPriorities = map[Section]int{
	SectionRules:             10,
	SectionCharacters:        9,
	SectionPreviousSummaries: 8,
	SectionOutline:           7,
	SectionEventLog:          6,
	SectionWorldbuilding:     5,
	SectionPlotPosition:      4,
	SectionUserInstructions:  3,
	SectionReserve:           1,
}

var labels = map[Section]string{
	SectionRules:             "작성 규칙",
	SectionWorldbuilding:     "세계관",
	SectionCharacters:        "캐릭터 프로파일",
	SectionPreviousSummaries: "이전 에피소드 요약",
	SectionEventLog:          "이벤트 로그",
	SectionPlotPosition:      "플롯 위치",
	SectionOutline:           "아웃라인",
	SectionUserInstructions:  "추가 지시",
}

// Input is the project state a context block is built from.
type Input struct {
	Project          domain.Project
	Characters       []domain.Character
	RecentEpisodes   []domain.Episode
	ActiveEvents     []domain.EpisodeEvent
	PlotPosition     string
	Outline          string
	UserInstructions string
}

// Options tunes a single assembly. Zero values select the defaults.
type Options struct {
	TotalBudget int
	// Priorities replaces the weight of the named sections only.
	Priorities map[Section]int
}

// SectionUsage reports how one section fared.
type SectionUsage struct {
	Name              Section `json:"name"`
	DefaultAllocation int     `json:"defaultAllocation"`
	ActualSize        int     `json:"actualSize"`
	FinalAllocation   int     `json:"finalAllocation"`
	Truncated         bool    `json:"truncated"`
}

// Report is the machine-readable usage summary of an assembly.
type Report struct {
	TotalBudget int            `json:"totalBudget"`
	UsedChars   int            `json:"usedChars"`
	Sections    []SectionUsage `json:"sections"`
}

// Assemble renders every section, allocates the budget by priority and joins
// the non-empty results under markdown headings.
func Assemble(in Input, opts Options) (string, Report) {
	total := opts.TotalBudget
	if total <= 0 {
		total = DefaultBudget
	}
	priorities := make(map[Section]int, len(defaultPriorities))
	for k, v := range defaultPriorities {
		priorities[k] = v
	}
	for k, v := range opts.Priorities {
		if _, ok := defaultPriorities[k]; ok {
			priorities[k] = v
		}
	}

	measured := measure(in)
	allocated := Allocate(measured, priorities, total)
	built := buildAll(in, allocated)

	report := Report{TotalBudget: total, Sections: make([]SectionUsage, 0, len(contentSections))}
	parts := make([]string, 0, len(contentSections))
	for _, name := range contentSections {
		report.Sections = append(report.Sections, SectionUsage{
			Name:              name,
			DefaultAllocation: defaultAllocation(name, total),
			ActualSize:        measured[name],
			FinalAllocation:   allocated[name],
			Truncated:         measured[name] > allocated[name],
		})
		if content := built[name]; content != "" {
			parts = append(parts, "## "+labels[name]+"\n\n"+content)
		}
	}
	joined := strings.Join(parts, "\n\n---\n\n")
	report.UsedChars = utf8.RuneCountInString(joined)
	return joined, report
}

func defaultAllocation(name Section, total int) int {
	return total * sharePercent[name] / 100
}

func measure(in Input) map[Section]int {
	limits := make(map[Section]int, len(contentSections))
	for _, name := range contentSections {
		limits[name] = unlimited
	}
	built := buildAll(in, limits)
	sizes := make(map[Section]int, len(contentSections))
	for _, name := range contentSections {
		sizes[name] = utf8.RuneCountInString(built[name])
	}
	return sizes
}

// Allocate computes the final character allowance of every content section.
// Sections that fit their default share keep their natural size; the unused
// remainder plus the reserve is handed to over-budget sections in descending
// priority, proportionally to weight, then in a second best-effort pass.
func Allocate(measured map[Section]int, priorities map[Section]int, total int) map[Section]int {
	allocated := make(map[Section]int, len(contentSections))
	savings := defaultAllocation(SectionReserve, total)
	deficit := make(map[Section]int)
	var over []Section

	for _, name := range contentSections {
		def := defaultAllocation(name, total)
		actual := measured[name]
		if actual <= def {
			allocated[name] = actual
			savings += def - actual
			continue
		}
		allocated[name] = def
		deficit[name] = actual - def
		over = append(over, name)
	}

	sort.SliceStable(over, func(i, j int) bool {
		return priorities[over[i]] > priorities[over[j]]
	})

	remaining := 0
	for _, name := range over {
		remaining += priorities[name]
	}

	for _, name := range over {
		if savings <= 0 || remaining <= 0 {
			break
		}
		share := min(deficit[name], savings*priorities[name]/remaining)
		allocated[name] += share
		savings -= share
		remaining -= priorities[name]
	}

	if savings > 0 {
		for _, name := range over {
			need := measured[name] - allocated[name]
			if need <= 0 {
				continue
			}
			extra := min(need, savings)
			allocated[name] += extra
			savings -= extra
			if savings <= 0 {
				break
			}
		}
	}
	return allocated
}

// Truncate shortens text to at most limit characters. When a sentence
// terminator appears past the halfway point the cut lands right after it;
// otherwise the text is hard-cut and an ellipsis appended.
func Truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	cut := []rune(text)[:max(limit, 0)]
	last := -1
	for i := len(cut) - 1; i >= 0; i-- {
		if isSentenceEnd(cut[i]) {
			last = i
			break
		}
	}
	if float64(last) > float64(limit)*0.5 {
		return string(cut[:last+1])
	}
	return string(cut) + "…"
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '。', '!', '?':
		return true
	}
	return false
}
