package repositories

import (
	"strconv"
	"strings"
	"time"

	"github.com/cardnight/tournament-system/sheets"
)

// Ячейки листа — строки; кодеки ниже прощают мусор на чтении
// (неразобранное число — 0, неразобранная дата — nil) и пишут
// канонические представления.

func parseBool(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func parseInt(cell string) int {
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return 0
	}
	return n
}

func formatInt(n int) string {
	return strconv.Itoa(n)
}

func parseTime(cell string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(cell))
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(cell string) *time.Time {
	t := parseTime(cell)
	if t.IsZero() {
		return nil
	}
	return &t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// resolveKeyColumn возвращает фактическое имя ключевой колонки листа
// из списка кандидатов.
func resolveKeyColumn(schema *sheets.Schema, candidates ...string) (string, error) {
	idx := schema.IndexOf(candidates...)
	if idx < 0 {
		return "", &sheets.SchemaError{Sheet: schema.Sheet(), Column: candidates[0]}
	}
	return schema.Headers()[idx], nil
}

func parseStringPtr(cell string) *string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	return &cell
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
