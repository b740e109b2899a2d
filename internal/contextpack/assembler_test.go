package contextpack

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/MJbae/novel-craft/internal/domain"
)

func TestTruncateKeepsShortText(t *testing.T) {
	if got := Truncate("짧은 문장.", 20); got != "짧은 문장." {
		t.Fatalf("Truncate = %q", got)
	}
}

func TestTruncateCutsAtLateSentenceEnd(t *testing.T) {
	got := Truncate("가나다라마바사. 아자차카", 10)
	if got != "가나다라마바사." {
		t.Fatalf("Truncate = %q, want %q", got, "가나다라마바사.")
	}
}

func TestTruncateHardCutsWhenTerminatorTooEarly(t *testing.T) {
	got := Truncate("가나. 다라마바사아자차카타", 10)
	want := "가나. 다라마바사아" + "…"
	if got != want {
		t.Fatalf("Truncate = %q, want %q", got, want)
	}
}

func TestAllocateKeepsNaturalSizes(t *testing.T) {
	measured := map[Section]int{
		SectionRules:             50,
		SectionWorldbuilding:     300,
		SectionCharacters:        1000,
		SectionPreviousSummaries: 0,
		SectionEventLog:          10,
		SectionPlotPosition:      20,
		SectionOutline:           400,
		SectionUserInstructions:  0,
	}
	got := Allocate(measured, defaultPriorities, DefaultBudget)
	for name, size := range measured {
		if got[name] != size {
			t.Fatalf("%s allocated %d, want %d", name, got[name], size)
		}
	}
}

func atDefaults(total int) map[Section]int {
	m := make(map[Section]int, len(contentSections))
	for _, name := range contentSections {
		m[name] = defaultAllocation(name, total)
	}
	return m
}

func TestAllocateDistributesByPriority(t *testing.T) {
	measured := atDefaults(DefaultBudget)
	measured[SectionCharacters] += 1000
	measured[SectionPreviousSummaries] += 1000

	got := Allocate(measured, defaultPriorities, DefaultBudget)
	// reserve 1200 split 9:8; 1200*9/17 = 635, the remaining 565 goes to summaries.
	if got[SectionCharacters] != 1800+635 {
		t.Fatalf("characters = %d, want %d", got[SectionCharacters], 1800+635)
	}
	if got[SectionPreviousSummaries] != 2400+565 {
		t.Fatalf("previousSummaries = %d, want %d", got[SectionPreviousSummaries], 2400+565)
	}
}

func TestAllocateSecondPassGrantsLeftovers(t *testing.T) {
	measured := atDefaults(DefaultBudget)
	measured[SectionCharacters] += 5000
	measured[SectionPreviousSummaries] += 10

	got := Allocate(measured, defaultPriorities, DefaultBudget)
	if got[SectionPreviousSummaries] != 2410 {
		t.Fatalf("previousSummaries = %d, want 2410", got[SectionPreviousSummaries])
	}
	// first pass 635, second pass the remaining 555
	if got[SectionCharacters] != 1800+1190 {
		t.Fatalf("characters = %d, want %d", got[SectionCharacters], 1800+1190)
	}
	sum := 0
	for _, v := range got {
		sum += v
	}
	if sum > DefaultBudget {
		t.Fatalf("allocations %d exceed budget", sum)
	}
}

func TestAssembleOmitsEmptySectionsButReportsThem(t *testing.T) {
	out, report := Assemble(Input{Project: domain.Project{Genre: "판타지"}}, Options{})
	if !strings.HasPrefix(out, "## 작성 규칙\n\n장르: 판타지\n") {
		t.Fatalf("unexpected context %q", out)
	}
	if strings.Contains(out, "---") || strings.Contains(out, "세계관") {
		t.Fatalf("expected a single section, got %q", out)
	}
	if len(report.Sections) != 8 {
		t.Fatalf("expected 8 reported sections, got %d", len(report.Sections))
	}
	if report.TotalBudget != DefaultBudget {
		t.Fatalf("TotalBudget = %d", report.TotalBudget)
	}
	if report.UsedChars != utf8.RuneCountInString(out) {
		t.Fatalf("UsedChars = %d, want %d", report.UsedChars, utf8.RuneCountInString(out))
	}
	for _, s := range report.Sections {
		if s.Truncated {
			t.Fatalf("section %s unexpectedly truncated", s.Name)
		}
	}
}

func TestAssembleJoinsSectionsInFixedOrder(t *testing.T) {
	in := Input{
		Project:          domain.Project{Genre: "무협", Tone: "진지함", Worldbuilding: "강호의 세계."},
		PlotPosition:     "1부 초반.",
		UserInstructions: "전투 장면을 늘려라.",
	}
	out, report := Assemble(in, Options{})
	want := "## 작성 규칙\n\n장르: 무협\n톤: 진지함\n한국 웹소설 형식으로 작성\n### 구분자로 장면 전환\n대화는 쌍따옴표(\"\") 사용\n7,000~9,000자 분량\n엔딩 훅 필수" +
		"\n\n---\n\n## 세계관\n\n강호의 세계." +
		"\n\n---\n\n## 플롯 위치\n\n1부 초반." +
		"\n\n---\n\n## 추가 지시\n\n전투 장면을 늘려라."
	if out != want {
		t.Fatalf("context mismatch:\n got %q\nwant %q", out, want)
	}
	if report.UsedChars > report.TotalBudget {
		t.Fatalf("used %d exceeds budget %d", report.UsedChars, report.TotalBudget)
	}
}

func TestAssemblePriorityOverride(t *testing.T) {
	in := Input{
		Project:          domain.Project{Genre: "판타지", Worldbuilding: strings.Repeat("가", 2000)},
		UserInstructions: strings.Repeat("나", 2000),
	}
	usage := func(r Report, name Section) SectionUsage {
		for _, s := range r.Sections {
			if s.Name == name {
				return s
			}
		}
		t.Fatalf("section %s missing", name)
		return SectionUsage{}
	}

	_, def := Assemble(in, Options{TotalBudget: 1000})
	if usage(def, SectionWorldbuilding).FinalAllocation <= usage(def, SectionUserInstructions).FinalAllocation {
		t.Fatalf("expected worldbuilding to win by default: %+v", def.Sections)
	}

	out, over := Assemble(in, Options{TotalBudget: 1000, Priorities: map[Section]int{SectionUserInstructions: 10, "bogus": 99}})
	if usage(over, SectionUserInstructions).FinalAllocation <= usage(over, SectionWorldbuilding).FinalAllocation {
		t.Fatalf("expected override to favor user instructions: %+v", over.Sections)
	}
	wb := usage(over, SectionWorldbuilding)
	if !wb.Truncated || wb.ActualSize != 2000 || wb.DefaultAllocation != 100 {
		t.Fatalf("unexpected worldbuilding usage %+v", wb)
	}
	if !strings.Contains(out, "…") {
		t.Fatal("expected hard-cut ellipsis in output")
	}
	if !strings.Contains(out, "장르: 판타지\n한국 웹소설 형식으로 작성") {
		t.Fatal("rules section should be untouched")
	}
}

func TestSummariesSectionTakesLatestThree(t *testing.T) {
	eps := []domain.Episode{
		{EpisodeNumber: 1, Summary: "첫 화."},
		{EpisodeNumber: 3, Summary: "셋째 화."},
		{EpisodeNumber: 2, Summary: ""},
		{EpisodeNumber: 4, Summary: "넷째 화."},
		{EpisodeNumber: 5, Summary: "다섯째 화."},
	}
	got := summariesSection(eps, unlimited)
	want := "[5화] 다섯째 화.\n\n[4화] 넷째 화.\n\n[3화] 셋째 화."
	if got != want {
		t.Fatalf("summariesSection = %q, want %q", got, want)
	}
}

func TestEventLogSection(t *testing.T) {
	events := []domain.EpisodeEvent{
		{EventType: domain.EventPlot, Description: "성문이 무너졌다", CharactersInvolved: []string{"서윤", "도하"}},
		{EventType: domain.EventForeshadow, Description: "검은 깃털", CharactersInvolved: nil},
	}
	got := eventLogSection(events, unlimited)
	want := "[plot] 성문이 무너졌다 (서윤, 도하)\n[foreshadow] 검은 깃털 ()"
	if got != want {
		t.Fatalf("eventLogSection = %q, want %q", got, want)
	}
}
