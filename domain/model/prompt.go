package model

import (
	"fmt"
	"strings"
)

// SystemMessage is sent as the system role alongside every prompt.
const SystemMessage = "You are a helpful assistant that generates SQL queries and corresponding result templates. " +
	"Ensure your templates only use column names that appear in your SQL query."

var operationExamples = map[OperationKind]string{
	OperationSelect: `Example 1: Generic Data Retrieval
SQL: SELECT * FROM items WHERE type = 'example';
TEMPLATE: There are {row_count} items of type 'example'. For instance, the item with id {id} is named {name}.

Example 2: Count Operation
SQL: SELECT COUNT(*) AS total_items FROM items;
TEMPLATE: There are {total_items} items in the table.`,
	OperationInsert: `Example: Data Insertion
SQL: INSERT INTO items (name, value) VALUES ('Sample Item', 100);
TEMPLATE: The item 'Sample Item' with value 100 has been added.`,
	OperationUpdate: `Example: Data Update
SQL: UPDATE items SET value = value + 10 WHERE id = 1;
TEMPLATE: The item with id {id} has been updated.`,
	OperationDelete: `Example: Data Deletion
SQL: DELETE FROM items WHERE id = 1;
TEMPLATE: The item with id {id} has been deleted.`,
	OperationOther: `Example: Join Operation
SQL: SELECT a.col1, b.col2 FROM table_a a JOIN table_b b ON a.id = b.a_id;
TEMPLATE: The record for {col1} has detail {col2}.`,
}

// Examples returns the worked examples used for an operation kind.
// Unknown kinds get the join example.
func Examples(kind OperationKind) string {
	if ex, ok := operationExamples[kind]; ok {
		return ex
	}
	return operationExamples[OperationOther]
}

const promptTemplate = `Given the following SQLite database schema:

%s

For the following question: "%s"

Using the examples below as guidance, generate two parts in your response:
1. A SQL query that performs the requested operation.
2. A natural language template that describes the result.
Ensure that:
- The SQL query uses table and column names exactly as they appear in the schema.
- The template uses placeholders in single curly braces (e.g., {name}) that exactly match the columns returned by your SQL query.
- The template is generic and does not assume a specific data domain.
- The template should only reference columns present in the SQL query output.
- If the SQL query returns multiple rows, include a placeholder {results} in the template representing the full list of values (e.g., as a comma-separated string).
- Do not include any additional commentary or numbering in your response.

%s

Important:
- If the operation is not a SELECT query, the template should describe the outcome of the operation (e.g., confirmation message).
`

// BuildPrompt assembles the instruction prompt for one question.
func BuildPrompt(schemaText, question string, kind OperationKind) string {
	return fmt.Sprintf(promptTemplate,
		strings.TrimRight(schemaText, "\n"),
		question,
		Examples(kind),
	)
}
