package script

import (
	"testing"
	"time"
)

func TestSplitRowsPipeAndTab(t *testing.T) {
	input := "| 5 | Hello | Xin chào | knife |\n" +
		"6\tBye\tTạm biệt\tdoor\n" +
		"\n" +
		"|---|---|---|---|\n"
	rows := SplitRows(input)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][0] != "5" || rows[0][1] != "Hello" || rows[0][2] != "Xin chào" || rows[0][3] != "knife" {
		t.Fatalf("pipe row parsed wrong: %v", rows[0])
	}
	if rows[1][0] != "6" || rows[1][3] != "door" {
		t.Fatalf("tab row parsed wrong: %v", rows[1])
	}
}

func TestConvertFiltersAndNormalizes(t *testing.T) {
	rows := [][]string{
		{"abc", "x", "y", "z"},        // first column not a code
		{"3", "x", "y", "z"},          // eligible
		{"2", "too", "few"},           // fewer than 4 columns
		{"---", "a", "b", "c"},        // markdown separator
		{"1.10", "en", "vi", "kw"},    // eligible
		{"1.9", "en9", "vi9", "kw9"},  // eligible, sorts before 1.10
	}
	scenes := Convert(rows)
	if len(scenes) != 3 {
		t.Fatalf("got %d scenes, want 3", len(scenes))
	}
	// Sorted by code: 001.9, 001.10, 003
	if scenes[0].Code != "001.9" || scenes[1].Code != "001.10" || scenes[2].Code != "003" {
		t.Fatalf("unexpected code order: %q %q %q", scenes[0].Code, scenes[1].Code, scenes[2].Code)
	}
	s := scenes[2]
	if s.EnText != "x" || s.ViText != "y" || s.Keywords != "z" {
		t.Fatalf("text columns not copied verbatim: %+v", s)
	}
	if s.PrimaryImagePath != nil {
		t.Fatalf("new scene has an image path")
	}
	if s.HasCharacterImage {
		t.Fatalf("new scene has character flag set")
	}
	if s.ID == "" {
		t.Fatalf("new scene missing identifier")
	}
}

func TestConvertAssignsUniqueIDsAndTimestamps(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	origNow := now
	now = func() time.Time { return fixed }
	defer func() { now = origNow }()

	scenes := Convert([][]string{
		{"1", "a", "b", "c"},
		{"2", "d", "e", "f"},
	})
	if len(scenes) != 2 {
		t.Fatalf("got %d scenes, want 2", len(scenes))
	}
	if scenes[0].ID == scenes[1].ID {
		t.Fatalf("duplicate scene identifiers: %q", scenes[0].ID)
	}
	for _, s := range scenes {
		if !s.UpdatedAt.Equal(fixed) {
			t.Fatalf("UpdatedAt = %v, want %v", s.UpdatedAt, fixed)
		}
	}
}

func TestConvertTextSingleRow(t *testing.T) {
	scenes := ConvertText("| 5 | Hello | Xin chào | knife |")
	if len(scenes) != 1 {
		t.Fatalf("got %d scenes, want 1", len(scenes))
	}
	s := scenes[0]
	if s.Code != "005" {
		t.Errorf("code = %q, want 005", s.Code)
	}
	if s.EnText != "Hello" || s.ViText != "Xin chào" || s.Keywords != "knife" {
		t.Errorf("texts not preserved: %+v", s)
	}
}
