package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chronik/internal/config"
	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
	searchrepo "github.com/kailas-cloud/chronik/internal/repository/search"
)

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/search", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "SERVER_ERROR" {
		t.Errorf("code = %q", body["code"])
	}
}

func TestSearchRepoOptions(t *testing.T) {
	off := false
	strict := 0.5
	sc := config.SearchConfig{
		TrigramThreshold:  0.3,
		TrigramMinResults: 2,
		Types: map[string]config.SearchTypeConfig{
			"contact":        {Trigram: &off},
			"calendar_event": {PrefixMatch: &off, TrigramThreshold: &strict},
		},
	}
	repo := searchrepo.New(nil, searchRepoOptions(sc)...)

	contact := repo.Tuning(entity.Contact)
	if contact.Trigram {
		t.Error("contact trigram should be disabled by override")
	}
	if contact.Threshold != 0.3 || contact.MinResults != 2 {
		t.Errorf("contact tuning = %+v", contact)
	}

	cal := repo.Tuning(entity.CalendarEvent)
	if cal.PrefixMatch || cal.Threshold != 0.5 {
		t.Errorf("calendar tuning = %+v", cal)
	}

	if !repo.Tuning(entity.Location).Trigram {
		t.Error("location keeps its default trigram fallback")
	}
}
