// Package capture parses quick-capture input lines of the form
//
//	fix the door collider #engine @physics @quick-win !2 ~code due:friday
//
// into a structured capture. Markers can appear anywhere in the line; the
// remaining text is the title.
package capture

import (
	"regexp"
	"strings"
	"time"

	"kanri/internal/model"
)

// Capture is the parsed form of a quick-capture line.
type Capture struct {
	Title       string
	ProjectName string
	TagNames    []string
	Priority    int // 0 when unset
	DueDate     string
	Discipline  model.Discipline
}

var (
	projectRe    = regexp.MustCompile(`#(\S+)`)
	tagRe        = regexp.MustCompile(`@(\S+)`)
	priorityRe   = regexp.MustCompile(`!([1-4])`)
	disciplineRe = regexp.MustCompile(`~(\S+)`)
	dueRe        = regexp.MustCompile(`due:(\S+)`)
	spaceRe      = regexp.MustCompile(`\s+`)
	isoDateRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Parse parses a quick-capture line, resolving relative due keywords
// against time.Now.
func Parse(input string) Capture {
	return ParseAt(input, time.Now())
}

// ParseAt is Parse with an explicit reference time for due-date keywords.
func ParseAt(input string, now time.Time) Capture {
	text := strings.TrimSpace(input)
	var c Capture

	if m := projectRe.FindStringSubmatch(text); m != nil {
		c.ProjectName = m[1]
		text = strings.Replace(text, m[0], "", 1)
	}

	for _, m := range tagRe.FindAllStringSubmatch(text, -1) {
		c.TagNames = append(c.TagNames, m[1])
	}
	text = tagRe.ReplaceAllString(text, "")

	if m := priorityRe.FindStringSubmatch(text); m != nil {
		c.Priority = int(m[1][0] - '0')
		text = strings.Replace(text, m[0], "", 1)
	}

	if m := disciplineRe.FindStringSubmatch(text); m != nil {
		d := model.Discipline(strings.ToLower(m[1]))
		for _, valid := range model.Disciplines {
			if d == valid {
				c.Discipline = d
				break
			}
		}
		text = strings.Replace(text, m[0], "", 1)
	}

	if m := dueRe.FindStringSubmatch(text); m != nil {
		c.DueDate = resolveDue(strings.ToLower(m[1]), now)
		text = strings.Replace(text, m[0], "", 1)
	}

	c.Title = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	return c
}

// resolveDue turns a due keyword into a YYYY-MM-DD date. Unknown keywords
// resolve to empty; the marker is still consumed from the title.
func resolveDue(keyword string, now time.Time) string {
	switch keyword {
	case "today":
		return now.Format("2006-01-02")
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02")
	}
	if day, ok := weekdays[keyword]; ok {
		// Next occurrence, always in the future: "friday" on a Friday
		// means a week out.
		delta := int(day) - int(now.Weekday())
		if delta <= 0 {
			delta += 7
		}
		return now.AddDate(0, 0, delta).Format("2006-01-02")
	}
	if isoDateRe.MatchString(keyword) {
		return keyword
	}
	return ""
}
