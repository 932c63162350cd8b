// Package entity defines the closed set of record kinds that participate in search.
package entity

import (
	"fmt"

	"github.com/kailas-cloud/chronik/internal/domain"
)

// Type is a searchable entity kind.
type Type string

// Searchable entity types.
const (
	JournalEntry  Type = "journal_entry"
	Contact       Type = "contact"
	Location      Type = "location"
	Taxonomy      Type = "taxonomy"
	Task          Type = "task"
	ActValue      Type = "act_value"
	ActGoal       Type = "act_goal"
	Habit         Type = "habit"
	Bookmark      Type = "bookmark"
	CalendarEvent Type = "calendar_event"
	Consumption   Type = "consumption"
)

// all is the canonical display order. day_entry and media_asset exist in the
// schema but are never searchable.
var all = [...]Type{
	JournalEntry,
	Contact,
	Location,
	Taxonomy,
	Task,
	ActValue,
	ActGoal,
	Habit,
	Bookmark,
	CalendarEvent,
	Consumption,
}

type meta struct {
	label string
	icon  string
}

var metas = map[Type]meta{
	JournalEntry:  {label: "Journal", icon: "book-open"},
	Contact:       {label: "Contacts", icon: "users"},
	Location:      {label: "Locations", icon: "map-pin"},
	Taxonomy:      {label: "Tags", icon: "tag"},
	Task:          {label: "Tasks", icon: "check-square"},
	ActValue:      {label: "Values", icon: "compass"},
	ActGoal:       {label: "Goals", icon: "target"},
	Habit:         {label: "Habits", icon: "repeat"},
	Bookmark:      {label: "Bookmarks", icon: "bookmark"},
	CalendarEvent: {label: "Calendar", icon: "calendar"},
	Consumption:   {label: "Consumption", icon: "film"},
}

// All returns every searchable type in canonical order.
func All() []Type {
	out := make([]Type, len(all))
	copy(out, all[:])
	return out
}

// IsValid checks if the type is one of the searchable codes.
func (t Type) IsValid() bool {
	_, ok := metas[t]
	return ok
}

// Label returns the human-readable group label.
func (t Type) Label() string { return metas[t].label }

// Icon returns the UI icon name.
func (t Type) Icon() string { return metas[t].icon }

// Order returns the position of t in the canonical order, or len(All()) for unknown types.
func (t Type) Order() int {
	for i, v := range all {
		if v == t {
			return i
		}
	}
	return len(all)
}

// Parse converts a raw code into a Type.
func Parse(code string) (Type, error) {
	t := Type(code)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownEntityType, code)
	}
	return t, nil
}

// ParseList converts codes into a de-duplicated list in canonical order.
// Any unknown code fails the whole list. An empty input yields All().
func ParseList(codes []string) ([]Type, error) {
	if len(codes) == 0 {
		return All(), nil
	}
	seen := make(map[Type]struct{}, len(codes))
	for _, c := range codes {
		t, err := Parse(c)
		if err != nil {
			return nil, err
		}
		seen[t] = struct{}{}
	}
	out := make([]Type, 0, len(seen))
	for _, t := range all {
		if _, ok := seen[t]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
