package search

import (
	"context"
	"net/url"

	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
	"github.com/kailas-cloud/chronik/internal/domain/search/query"
	"github.com/kailas-cloud/chronik/internal/domain/search/result"
)

// JournalEntries searches diary entries by title and content.
type JournalEntries struct{ base }

func (JournalEntries) Type() entity.Type { return entity.JournalEntry }
func (JournalEntries) sealed()           {}

// Search runs the journal entry query.
func (s JournalEntries) Search(ctx context.Context, q query.Scoped) ([]result.Item, error) {
	return s.run(ctx, journalTable, q)
}

// Contacts searches people by name, company, email and notes.
type Contacts struct{ base }

func (Contacts) Type() entity.Type { return entity.Contact }
func (Contacts) sealed()           {}

// Search runs the contact query.
func (s Contacts) Search(ctx context.Context, q query.Scoped) ([]result.Item, error) {
	return s.run(ctx, contactTable, q)
}

// Locations searches places by name and address.
type Locations struct{ base }

func (Locations) Type() entity.Type { return entity.Location }
func (Locations) sealed()           {}

// Search runs the location query.
func (s Locations) Search(ctx context.Context, q query.Scoped) ([]result.Item, error) {
	return s.run(ctx, locationTable, q)
}

// Tags searches taxonomy labels.
type Tags struct{ base }

func (Tags) Type() entity.Type { return entity.Taxonomy }
func (Tags) sealed()           {}

// Search runs the taxonomy query.
func (s Tags) Search(ctx context.Context, q query.Scoped) ([]result.Item, error) {
	return s.run(ctx, taxonomyTable, q)
}

// Tasks searches todo items.
type Tasks struct{ base }

func (Tasks) Type() entity.Type { return entity.Task }
func (Tasks) sealed()           {}

// Search runs the task query.
func (s Tasks) Search(ctx context.Context, q query.Scoped) ([]result.Item, error) {
	return s.run(ctx, taskTable, q)
}

// Values searches ACT values.
type Values struct{ base }

func (Values) Type() entity.Type { return entity.ActValue }
func (Values) sealed()           {}

// Search runs the value query.
func (s Values) Search(ctx context.Context, q query.Scoped) ([]result.Item, error) {
	return s.run(ctx, valueTable, q)
}

// Goals searches ACT goals.
type Goals struct{ base }

func (Goals) Type() entity.Type { return entity.ActGoal }
func (Goals) sealed()           {}

// Search runs the goal query.
func (s Goals) Search(ctx context.Context, q query.Scoped) ([]result.Item, error) {
	return s.run(ctx, goalTable, q)
}

// Habits searches tracked habits.
type Habits struct{ base }

func (Habits) Type() entity.Type { return entity.Habit }
func (Habits) sealed()           {}

// Search runs the habit query.
func (s Habits) Search(ctx context.Context, q query.Scoped) ([]result.Item, error) {
	return s.run(ctx, habitTable, q)
}

// Bookmarks searches saved links.
type Bookmarks struct{ base }

func (Bookmarks) Type() entity.Type { return entity.Bookmark }
func (Bookmarks) sealed()           {}

// Search runs the bookmark query.
func (s Bookmarks) Search(ctx context.Context, q query.Scoped) ([]result.Item, error) {
	return s.run(ctx, bookmarkTable, q)
}

// CalendarEvents searches synced calendar events.
type CalendarEvents struct{ base }

func (CalendarEvents) Type() entity.Type { return entity.CalendarEvent }
func (CalendarEvents) sealed()           {}

// Search runs the calendar event query.
func (s CalendarEvents) Search(ctx context.Context, q query.Scoped) ([]result.Item, error) {
	return s.run(ctx, calendarTable, q)
}

// ConsumptionLogs searches logged books, films and the like.
type ConsumptionLogs struct{ base }

func (ConsumptionLogs) Type() entity.Type { return entity.Consumption }
func (ConsumptionLogs) sealed()           {}

// Search runs the consumption query.
func (s ConsumptionLogs) Search(ctx context.Context, q query.Scoped) ([]result.Item, error) {
	return s.run(ctx, consumptionTable, q)
}

var journalTable = newTable(table{
	typ:     entity.JournalEntry,
	name:    "JournalEntry",
	title:   `coalesce(nullif(t."title", ''), to_char(t."occurredAt", 'YYYY-MM-DD'))`,
	body:    `coalesce(t."content", '')`,
	vector:  vector([]string{"title"}, []string{"content"}),
	date:    `t."occurredAt"`,
	trigram: `coalesce(t."title", '')`,
	url: func(r row) string {
		v := url.Values{"highlight": {r.ID}}
		if d := day(r.Date); d != "" {
			v.Set("date", d)
		}
		return "/journal?" + v.Encode()
	},
})

var contactTable = newTable(table{
	typ:     entity.Contact,
	name:    "Contact",
	title:   `coalesce(t."name", '')`,
	body:    `concat_ws(' ', t."company", t."email", t."notes")`,
	vector:  vector([]string{"name"}, []string{"company", "email"}, []string{"notes"}),
	trigram: `coalesce(t."name", '')`,
	slug:    `coalesce(t."slug", '')`,
	url: func(r row) string {
		if r.Slug == "" {
			return "/prm/" + url.PathEscape(r.ID)
		}
		return "/prm/" + url.PathEscape(r.Slug)
	},
})

var locationTable = newTable(table{
	typ:     entity.Location,
	name:    "Location",
	title:   `coalesce(t."name", '')`,
	body:    `concat_ws(', ', t."address", t."city", t."country")`,
	vector:  vector([]string{"name"}, []string{"city", "country"}, []string{"address"}),
	trigram: `coalesce(t."name", '')`,
	url:     pathURL("/locations/"),
})

var taxonomyTable = newTable(table{
	typ:     entity.Taxonomy,
	name:    "Taxonomy",
	title:   `coalesce(t."label", '')`,
	body:    `coalesce(t."description", '')`,
	vector:  vector([]string{"label"}, []string{"kind"}, []string{"description"}),
	trigram: `coalesce(t."label", '')`,
	url:     pathURL("/taxonomy/"),
})

var taskTable = newTable(table{
	typ:     entity.Task,
	name:    "Task",
	title:   `coalesce(t."title", '')`,
	body:    `coalesce(t."description", '')`,
	vector:  vector([]string{"title"}, []string{"description"}),
	date:    `t."dueDate"`,
	trigram: `coalesce(t."title", '')`,
	url:     queryURL("/tasks", "task"),
})

var valueTable = newTable(table{
	typ:     entity.ActValue,
	name:    "ActValue",
	title:   `coalesce(t."title", '')`,
	body:    `coalesce(t."description", '')`,
	vector:  vector([]string{"title"}, []string{"description"}),
	trigram: `coalesce(t."title", '')`,
	url:     pathURL("/act/values/"),
})

var goalTable = newTable(table{
	typ:     entity.ActGoal,
	name:    "ActGoal",
	title:   `coalesce(t."title", '')`,
	body:    `coalesce(t."description", '')`,
	vector:  vector([]string{"title"}, []string{"description"}),
	date:    `t."targetDate"`,
	trigram: `coalesce(t."title", '')`,
	url:     pathURL("/act/goals/"),
})

var habitTable = newTable(table{
	typ:     entity.Habit,
	name:    "Habit",
	title:   `coalesce(t."title", '')`,
	body:    `coalesce(t."description", '')`,
	vector:  vector([]string{"title"}, []string{"description"}),
	trigram: `coalesce(t."title", '')`,
	url:     pathURL("/habits/"),
})

var bookmarkTable = newTable(table{
	typ:     entity.Bookmark,
	name:    "Bookmark",
	title:   `coalesce(nullif(t."title", ''), t."url", '')`,
	body:    `concat_ws(' ', t."description", t."url")`,
	vector:  vector([]string{"title"}, []string{"description"}, []string{"url"}),
	trigram: `coalesce(t."title", '')`,
	url:     queryURL("/bookmarks", "bookmark"),
})

var calendarTable = newTable(table{
	typ:     entity.CalendarEvent,
	name:    "CalendarEvent",
	title:   `coalesce(t."title", '')`,
	body:    `concat_ws(' ', t."description", t."location")`,
	vector:  vector([]string{"title"}, []string{"location"}, []string{"description"}),
	date:    `t."startedAt"`,
	trigram: `coalesce(t."title", '')`,
	url: func(r row) string {
		v := url.Values{"event": {r.ID}}
		if d := day(r.Date); d != "" {
			v.Set("date", d)
		}
		return "/calendar?" + v.Encode()
	},
})

var consumptionTable = newTable(table{
	typ:     entity.Consumption,
	name:    "ConsumptionLog",
	title:   `coalesce(t."title", '')`,
	body:    `concat_ws(' ', t."creator", t."notes")`,
	vector:  vector([]string{"title"}, []string{"creator"}, []string{"notes"}),
	date:    `t."consumedAt"`,
	trigram: `coalesce(t."title", '')`,
	url:     pathURL("/consumption/"),
})
