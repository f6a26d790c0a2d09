package capture

import (
	"reflect"
	"testing"
	"time"

	"kanri/internal/model"
)

// A Wednesday.
var ref = time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

func TestParse_FullLine(t *testing.T) {
	c := ParseAt("fix the door collider #engine @physics @quick-win !2 ~code due:2026-07-01", ref)

	if c.Title != "fix the door collider" {
		t.Errorf("title = %q", c.Title)
	}
	if c.ProjectName != "engine" {
		t.Errorf("project = %q", c.ProjectName)
	}
	if !reflect.DeepEqual(c.TagNames, []string{"physics", "quick-win"}) {
		t.Errorf("tags = %v", c.TagNames)
	}
	if c.Priority != 2 {
		t.Errorf("priority = %d", c.Priority)
	}
	if c.Discipline != model.DisciplineCode {
		t.Errorf("discipline = %q", c.Discipline)
	}
	if c.DueDate != "2026-07-01" {
		t.Errorf("due = %q", c.DueDate)
	}
}

func TestParse_TitleOnly(t *testing.T) {
	c := ParseAt("  just   a   title  ", ref)
	if c.Title != "just a title" {
		t.Errorf("title = %q", c.Title)
	}
	if c.ProjectName != "" || c.Priority != 0 || c.DueDate != "" || c.Discipline != "" || len(c.TagNames) != 0 {
		t.Errorf("unexpected markers parsed: %+v", c)
	}
}

func TestParse_MarkersInAnyOrder(t *testing.T) {
	c := ParseAt("!1 due:today #inbox polish menu", ref)
	if c.Title != "polish menu" {
		t.Errorf("title = %q", c.Title)
	}
	if c.Priority != 1 || c.ProjectName != "inbox" {
		t.Errorf("markers = %+v", c)
	}
	if c.DueDate != "2026-06-10" {
		t.Errorf("due today = %q", c.DueDate)
	}
}

func TestParse_DueKeywords(t *testing.T) {
	cases := map[string]string{
		"due:today":      "2026-06-10",
		"due:tomorrow":   "2026-06-11",
		"due:friday":     "2026-06-12",
		"due:wednesday":  "2026-06-17", // same weekday rolls a week forward
		"due:monday":     "2026-06-15",
		"due:2026-12-24": "2026-12-24",
		"due:whenever":   "",
	}
	for in, want := range cases {
		c := ParseAt("x "+in, ref)
		if c.DueDate != want {
			t.Errorf("%s: due = %q, want %q", in, c.DueDate, want)
		}
		if c.Title != "x" {
			t.Errorf("%s: marker leaked into title %q", in, c.Title)
		}
	}
}

func TestParse_InvalidDisciplineConsumed(t *testing.T) {
	c := ParseAt("paint tileset ~sculpting", ref)
	if c.Discipline != "" {
		t.Errorf("discipline = %q", c.Discipline)
	}
	if c.Title != "paint tileset" {
		t.Errorf("title = %q", c.Title)
	}
}

func TestParse_PriorityOutOfRangeIgnored(t *testing.T) {
	c := ParseAt("deploy !9", ref)
	if c.Priority != 0 {
		t.Errorf("priority = %d", c.Priority)
	}
	// !9 is not a priority marker, so it stays in the title.
	if c.Title != "deploy !9" {
		t.Errorf("title = %q", c.Title)
	}
}
