package model

import "strings"

// SplitStatements splits SQL text on ';' and drops empty pieces.
//
// The split is naive: a ';' inside a string literal or a comment also ends
// a statement.
func SplitStatements(sqlText string) []string {
	var statements []string
	for _, piece := range strings.Split(sqlText, ";") {
		if piece = strings.TrimSpace(piece); piece != "" {
			statements = append(statements, piece)
		}
	}
	return statements
}

// IsSelect reports whether a statement starts with SELECT.
func IsSelect(statement string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(statement)), "SELECT")
}

// ExecutionPlan is how one SQL text is executed.
type ExecutionPlan struct {
	// Script runs first as one script. Empty means nothing to run.
	Script string
	// Query is the trailing SELECT, empty when there is none.
	Query string
}

// HasQuery reports whether the plan ends with a SELECT.
func (p ExecutionPlan) HasQuery() bool {
	return p.Query != ""
}

// PlanExecution routes SQL text. When the last statement is a SELECT the
// statements before it form the script and the SELECT is the query.
// Otherwise the whole original text is the script.
func PlanExecution(sqlText string) ExecutionPlan {
	statements := SplitStatements(sqlText)
	if len(statements) == 0 || !IsSelect(statements[len(statements)-1]) {
		return ExecutionPlan{Script: sqlText}
	}

	plan := ExecutionPlan{Query: statements[len(statements)-1]}
	if len(statements) > 1 {
		plan.Script = strings.Join(statements[:len(statements)-1], "; ") + ";"
	}
	return plan
}

var transactionKeywords = []string{"BEGIN", "COMMIT", "END", "ROLLBACK", "SAVEPOINT", "RELEASE"}

// HasTransactionControl reports whether any statement of the script opens,
// ends or marks a transaction itself.
func HasTransactionControl(script string) bool {
	for _, statement := range SplitStatements(script) {
		fields := strings.Fields(strings.ToUpper(statement))
		if len(fields) == 0 {
			continue
		}
		for _, keyword := range transactionKeywords {
			if fields[0] == keyword {
				return true
			}
		}
	}
	return false
}
