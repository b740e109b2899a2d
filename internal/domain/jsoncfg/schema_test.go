package jsoncfg

import (
	"errors"
	"testing"

	"github.com/MJbae/novel-craft/internal/domain"
)

func TestBootstrapResultDefaults(t *testing.T) {
	res := BootstrapResult{Characters: []BootstrapCharacter{{Name: "서연", Role: "main"}}}
	res.Normalize()
	if err := Validate(&res); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	style := res.Characters[0].SpeechStyle
	if style.Formality != DefaultFormality || style.EmotionStyle != DefaultEmotionStyle || style.AvgDialogueLength != DefaultAvgDialogueLength {
		t.Fatalf("speech style defaults not applied: %+v", style)
	}
	if res.Characters[0].BehavioralRules.ConflictStyle != DefaultConflictStyle {
		t.Fatalf("conflict style = %q", res.Characters[0].BehavioralRules.ConflictStyle)
	}
}

func TestBootstrapResultRejects(t *testing.T) {
	tests := []struct {
		name string
		res  BootstrapResult
	}{
		{"no characters", BootstrapResult{}},
		{"bad role", BootstrapResult{Characters: []BootstrapCharacter{{Name: "a", Role: "villain"}}}},
		{"missing name", BootstrapResult{Characters: []BootstrapCharacter{{Role: "minor"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.res.Normalize()
			if err := Validate(&tt.res); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestOutlineBounds(t *testing.T) {
	scene := Scene{SceneNumber: 1, Goal: "g", Conflict: "c", EmotionIntensity: 5}
	o := Outline{Scenes: []Scene{scene, scene, scene, scene, scene, scene}, EndingHook: "h"}
	if err := Validate(&o); err == nil {
		t.Fatalf("six scenes should be rejected")
	}
	o.Scenes = o.Scenes[:3]
	o.Scenes[1].EmotionIntensity = 11
	if err := Validate(&o); err == nil {
		t.Fatalf("emotion intensity 11 should be rejected")
	}
	o.Scenes[1].EmotionIntensity = 10
	if err := Validate(&o); err != nil {
		t.Fatalf("valid outline rejected: %v", err)
	}
}

func TestEventListValidation(t *testing.T) {
	l := EventList{Events: []Event{{EventType: "foreshadow", Description: "붉은 달"}}}
	l.Normalize()
	if err := Validate(&l); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if l.Events[0].CharactersInvolved == nil {
		t.Fatalf("characters_involved should default to empty slice")
	}
	l.Events = append(l.Events, Event{EventType: "weather", Description: "비"})
	if err := Validate(&l); err == nil {
		t.Fatalf("unknown event type should be rejected")
	}
}
