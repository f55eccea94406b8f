package http

import (
	"encoding/json"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"

	"findash/internal/core"
	"findash/internal/history"
)

const (
	maxFilenameLength = 255
	maxHistoryLimit   = 200
)

// wantsJSON reports whether the client asked for JSON over HTML.
func wantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == "application/json" {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON error payload.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// parseLimit reads ?limit=, falling back to the history default and capped at maxHistoryLimit.
func parseLimit(r *http.Request) int {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return history.DefaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return history.DefaultLimit
	}
	return min(history.NormalizeLimit(n), maxHistoryLimit)
}

// sanitizeInput drops control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// sanitizeFilename keeps the base name of an uploaded file.
func sanitizeFilename(name string) string {
	name = sanitizeInput(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, name)
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	for len(name) > maxFilenameLength {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return name
}

// periodOptions is the selector content, in display order.
var periodOptions = []struct {
	Value core.Granularity
	Label string
}{
	{core.GranularityOverall, "Overall"},
	{core.GranularityMonth, "Month"},
	{core.GranularityQuarter, "Quarter"},
	{core.GranularityYear, "Year"},
}
