package main

import (
	"strconv"
	"strings"
)

// nowDefault is the default expression for current-timestamp sentinels.
const nowDefault = "now()"

// simplifyDefaultValue turns a raw source default into a PostgreSQL default
// expression. ok is false when no default should be emitted.
func simplifyDefaultValue(raw *string, rawType string) (expr string, ok bool) {
	if raw == nil {
		return "", false
	}
	v := strings.TrimSpace(*raw)
	if v == "" && !isStringLikeDefault(rawType) {
		return "", false
	}
	if strings.EqualFold(v, "null") {
		return "", false
	}
	if isCurrentTimestampDefault(v) {
		return nowDefault, true
	}

	base := baseType(rawType)
	switch {
	case isNarrowIntOrBit(base):
		lower := strings.ToLower(v)
		if strings.Contains(lower, "1") || strings.Contains(lower, "true") {
			return "true", true
		}
		return "false", true
	case isNumericSourceType(base):
		f, err := strconv.ParseFloat(sourceDefaultUnquote(v), 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return pgQuote(sourceDefaultUnquote(v)), true
}

func isStringLikeDefault(rawType string) bool {
	_, ok := targetTypeFor(baseType(rawType), rawType)
	return ok && !isNumericSourceType(baseType(rawType)) && !isNarrowIntOrBit(baseType(rawType))
}

func isCurrentTimestampDefault(v string) bool {
	lower := strings.ToLower(v)
	switch lower {
	case "current_timestamp", "current_timestamp()", "now()", "localtimestamp", "localtimestamp()":
		return true
	}
	return strings.HasPrefix(lower, "current_timestamp(") && strings.HasSuffix(lower, ")")
}

// sourceDefaultUnquote strips one pair of surrounding single or double quotes
// and collapses doubled quotes inside.
func sourceDefaultUnquote(v string) string {
	if len(v) >= 2 {
		q := v[0]
		if (q == '\'' || q == '"') && v[len(v)-1] == q {
			inner := v[1 : len(v)-1]
			return strings.ReplaceAll(inner, string([]byte{q, q}), string(q))
		}
	}
	return v
}

// pgQuote renders s as a single-quoted SQL string literal.
func pgQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
