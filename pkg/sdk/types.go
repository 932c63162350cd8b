package chronik

import (
	"time"

	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
	"github.com/kailas-cloud/chronik/internal/domain/search/snippet"
)

// EntityType identifies a searchable kind of record.
type EntityType = entity.Type

// Searchable entity types, in the order groups are returned.
const (
	JournalEntry  = entity.JournalEntry
	Contact       = entity.Contact
	Location      = entity.Location
	Taxonomy      = entity.Taxonomy
	Task          = entity.Task
	ActValue      = entity.ActValue
	ActGoal       = entity.ActGoal
	Habit         = entity.Habit
	Bookmark      = entity.Bookmark
	CalendarEvent = entity.CalendarEvent
	Consumption   = entity.Consumption
)

// EntityTypes returns every searchable type in canonical order.
func EntityTypes() []EntityType { return entity.All() }

// Query is a search request. Empty Types searches everything; zero Limit
// uses the server default.
type Query struct {
	Q     string
	Types []EntityType
	Limit int
}

// Response is the answer to one search.
type Response struct {
	Query string `json:"query"`
	// TotalCount is the number of returned items, not of database matches.
	TotalCount int     `json:"totalCount"`
	Results    []Group `json:"results"`
}

// Group holds the hits of one entity type.
type Group struct {
	Type  EntityType `json:"type"`
	Label string     `json:"label"`
	Icon  string     `json:"icon"`
	Count int        `json:"count"`
	Items []Item     `json:"items"`
}

// Item is a single hit.
type Item struct {
	ID   string     `json:"id"`
	Type EntityType `json:"type"`
	// Title is plain text.
	Title string `json:"title"`
	// Snippet is text with <mark> highlights; see RenderSnippet and PlainSnippet.
	Snippet string     `json:"snippet"`
	URL     string     `json:"url"`
	Date    *time.Time `json:"date,omitempty"`
	Rank    float64    `json:"rank"`
}

// RenderSnippet returns s as HTML where only <mark> and </mark> are markup.
// Everything else is escaped.
func RenderSnippet(s string) string { return snippet.Render(s) }

// PlainSnippet strips the highlight markers, for clients that render plain text.
func PlainSnippet(s string) string { return snippet.Plain(s) }
