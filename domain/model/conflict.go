package model

import "fmt"

// ConflictAction is the decision taken when an ingested dataset collides
// with an existing table.
type ConflictAction string

const (
	// ActionOverwrite drops the table and recreates it from the dataset
	ActionOverwrite ConflictAction = "overwrite"
	// ActionRename writes the dataset to a new timestamped table
	ActionRename ConflictAction = "rename"
	// ActionSkip leaves the store untouched
	ActionSkip ConflictAction = "skip"
	// ActionPrompt defers the choice to the caller
	ActionPrompt ConflictAction = "prompt"
)

// ParseConflictAction parses an action name.
func ParseConflictAction(s string) (ConflictAction, error) {
	switch a := ConflictAction(s); a {
	case ActionOverwrite, ActionRename, ActionSkip, ActionPrompt:
		return a, nil
	default:
		return "", fmt.Errorf("unknown conflict action %q (want overwrite, rename, skip or prompt)", s)
	}
}

// ConflictReport describes mismatches between an existing table and a new schema.
type ConflictReport struct {
	Exists    bool
	Conflicts []string
}

// CompareSchemas reports type mismatches on shared columns and columns the
// existing table has but the new schema lacks. Columns only present in the
// new schema are not conflicts.
func CompareSchemas(existing, incoming InferredSchema) *ConflictReport {
	var conflicts []string
	for _, col := range incoming {
		if existingType, ok := existing.Lookup(col.Name); ok && existingType != col.Type {
			conflicts = append(conflicts, fmt.Sprintf(
				"Column '%s' type mismatch: existing=%s, new=%s", col.Name, existingType, col.Type))
		}
	}
	for _, col := range existing {
		if _, ok := incoming.Lookup(col.Name); !ok {
			conflicts = append(conflicts, fmt.Sprintf(
				"Column '%s' exists in table but not in new schema", col.Name))
		}
	}
	return &ConflictReport{
		Exists:    len(conflicts) > 0,
		Conflicts: conflicts,
	}
}
