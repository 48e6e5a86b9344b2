package model

import "strings"

// OperationKind is a coarse classification of what a question asks for.
type OperationKind string

const (
	// OperationSelect reads data
	OperationSelect OperationKind = "select"
	// OperationInsert adds data
	OperationInsert OperationKind = "insert"
	// OperationUpdate changes data
	OperationUpdate OperationKind = "update"
	// OperationDelete removes data
	OperationDelete OperationKind = "delete"
	// OperationOther is anything without a recognized keyword
	OperationOther OperationKind = "other"
)

// operationKeywords is checked in order; the first kind with a matching
// keyword wins.
var operationKeywords = []struct {
	kind     OperationKind
	keywords []string
}{
	{OperationDelete, []string{"delete", "remove", "drop"}},
	{OperationUpdate, []string{"update", "modify", "change"}},
	{OperationInsert, []string{"insert", "add", "create"}},
	{OperationSelect, []string{"join", "select", "find", "list", "show", "retrieve", "get"}},
}

// Classify returns the operation kind of a natural-language question.
// Matching is a case-insensitive substring search.
func Classify(text string) OperationKind {
	lower := strings.ToLower(text)
	for _, group := range operationKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.kind
			}
		}
	}
	return OperationOther
}
