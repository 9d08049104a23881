package api

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/wricardo/klondike/game/service"
)

func TestParseSessionList(t *testing.T) {
	tests := []struct {
		query string
		want  sessionList
	}{
		{"", sessionList{by: "accessed", order: "desc"}},
		{"sort=created&order=asc&limit=5", sessionList{by: "created", order: "asc", limit: 5}},
		{"sort=name&order=up&limit=-2", sessionList{by: "accessed", order: "desc"}},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		if got := parseSessionList(q); got != tt.want {
			t.Errorf("parseSessionList(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestParseHistory(t *testing.T) {
	q, _ := url.ParseQuery("page=0&limit=7")
	want := service.HistoryOptions{Page: 1, Limit: 7, Order: "desc"}
	if got := parseHistory(q); got != want {
		t.Errorf("parseHistory() = %+v, want %+v", got, want)
	}
}

func TestSplitIDs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , ,", nil},
		{"a, b ,,c", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		if got := splitIDs(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitIDs(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
