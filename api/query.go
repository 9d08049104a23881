package api

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/wricardo/klondike/game/service"
)

// positiveInt reads key as an integer above zero, falling back to def
func positiveInt(q url.Values, key string, def int) int {
	if n, err := strconv.Atoi(q.Get(key)); err == nil && n > 0 {
		return n
	}
	return def
}

// oneOf reads key when it is one of allowed, the first of which is the default
func oneOf(q url.Values, key string, allowed ...string) string {
	v := q.Get(key)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return allowed[0]
}

// sessionList is the query of GET /api/sessions
type sessionList struct {
	by    string // accessed, created
	order string // desc, asc
	limit int    // 0 keeps every session
}

func parseSessionList(q url.Values) sessionList {
	return sessionList{
		by:    oneOf(q, "sort", "accessed", "created"),
		order: oneOf(q, "order", "desc", "asc"),
		limit: positiveInt(q, "limit", 0),
	}
}

// apply sorts sessions in place and cuts them to the limit
func (l sessionList) apply(sessions []*service.SessionInfo) []*service.SessionInfo {
	key := func(s *service.SessionInfo) int64 {
		if l.by == "created" {
			return s.CreatedAt.UnixNano()
		}
		return s.LastAccessedAt.UnixNano()
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if l.order == "asc" {
			return key(sessions[i]) < key(sessions[j])
		}
		return key(sessions[i]) > key(sessions[j])
	})
	if l.limit > 0 && l.limit < len(sessions) {
		sessions = sessions[:l.limit]
	}
	return sessions
}

func parseHistory(q url.Values) service.HistoryOptions {
	return service.HistoryOptions{
		Page:  positiveInt(q, "page", 1),
		Limit: positiveInt(q, "limit", 20),
		Order: oneOf(q, "order", "desc", "asc"),
	}
}

// splitIDs parses a comma separated id list, dropping blanks
func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
