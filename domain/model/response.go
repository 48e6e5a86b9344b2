package model

import (
	"fmt"
	"regexp"
	"strings"
)

// markerPair is one accepted vocabulary for labelling the two response parts.
type markerPair struct {
	sql      string
	template string
}

// markerPairs are tried in order.
var markerPairs = []markerPair{
	{sql: "SQL:", template: "TEMPLATE:"},
	{sql: "SQL Query:", template: "Template:"},
}

var (
	codeFence     = "```"
	lineNumbering = regexp.MustCompile(`(?m)^\d+\.\s*`)
)

// ParsedResponse is a model response split into its SQL and template parts.
type ParsedResponse struct {
	SQL      string
	Template string
}

// ParseResponse extracts the SQL and template spans from a raw model response.
func ParseResponse(raw string) (*ParsedResponse, error) {
	var pair *markerPair
	for i := range markerPairs {
		if strings.Contains(raw, markerPairs[i].sql) && strings.Contains(raw, markerPairs[i].template) {
			pair = &markerPairs[i]
			break
		}
	}
	if pair == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResponseFormat, raw)
	}

	sqlPart := segmentAfter(raw, pair.sql)
	if i := strings.Index(sqlPart, pair.template); i >= 0 {
		sqlPart = sqlPart[:i]
	}
	sqlPart = strings.TrimSpace(sqlPart)
	templatePart := strings.TrimSpace(segmentAfter(raw, pair.template))

	return &ParsedResponse{
		SQL:      stripNumbering(stripFence(sqlPart)),
		Template: templatePart,
	}, nil
}

// segmentAfter returns the text between the first and second occurrence of
// marker, or everything after the first when it occurs once.
func segmentAfter(s, marker string) string {
	i := strings.Index(s, marker)
	if i < 0 {
		return ""
	}
	rest := s[i+len(marker):]
	if j := strings.Index(rest, marker); j >= 0 {
		return rest[:j]
	}
	return rest
}

// stripFence removes a markdown code fence around the SQL.
func stripFence(s string) string {
	if !strings.HasPrefix(s, codeFence) {
		return s
	}
	lines := strings.Split(s, "\n")
	if strings.HasPrefix(lines[0], codeFence) {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), codeFence) {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// stripNumbering removes "1. " style prefixes from every line.
func stripNumbering(s string) string {
	return lineNumbering.ReplaceAllString(s, "")
}
