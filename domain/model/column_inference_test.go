package model

import (
	"errors"
	"testing"
)

func TestInferColumnType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		values   []string
		kind     ValueKind
		expected ColumnType
	}{
		{
			name:     "all integers",
			values:   []string{"1", "2", "3"},
			expected: ColumnTypeInteger,
		},
		{
			name:     "all floats",
			values:   []string{"1.1", "2.2"},
			expected: ColumnTypeReal,
		},
		{
			name:     "mixed integers and floats",
			values:   []string{"123", "45.6", "789"},
			expected: ColumnTypeReal,
		},
		{
			name:     "whole floats are integers",
			values:   []string{"1.0", "2.0", "3e2"},
			expected: ColumnTypeInteger,
		},
		{
			name:     "text",
			values:   []string{"foo", "bar"},
			expected: ColumnTypeText,
		},
		{
			name:     "mixed numbers and text",
			values:   []string{"123", "hello", "789"},
			expected: ColumnTypeText,
		},
		{
			name:     "all missing is numeric",
			values:   []string{"", "NA", "null"},
			expected: ColumnTypeInteger,
		},
		{
			name:     "no values at all",
			values:   nil,
			expected: ColumnTypeInteger,
		},
		{
			name:     "integers with missing values",
			values:   []string{"123", "", "789", "NaN"},
			expected: ColumnTypeInteger,
		},
		{
			name:     "negative floats",
			values:   []string{"-12.3", "45.6", "-78.9"},
			expected: ColumnTypeReal,
		},
		{
			name:     "hex is text",
			values:   []string{"0x1p-2"},
			expected: ColumnTypeText,
		},
		{
			name:     "underscored digits are text",
			values:   []string{"1_000"},
			expected: ColumnTypeText,
		},
		{
			name:     "dates are text",
			values:   []string{"2023-01-15", "2023-02-20"},
			expected: ColumnTypeText,
		},
		{
			name:     "declared text stays text",
			values:   []string{"1", "2"},
			kind:     ValueKindText,
			expected: ColumnTypeText,
		},
		{
			name:     "declared numeric all null",
			values:   []string{"", ""},
			kind:     ValueKindNumeric,
			expected: ColumnTypeInteger,
		},
		{
			name:     "declared numeric with fractions",
			values:   []string{"1", "2.5"},
			kind:     ValueKindNumeric,
			expected: ColumnTypeReal,
		},
		{
			name:     "infinity is not whole",
			values:   []string{"1", "inf"},
			expected: ColumnTypeReal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := InferColumnType(tt.values, tt.kind); got != tt.expected {
				t.Errorf("InferColumnType(%v) = %v, want %v", tt.values, got, tt.expected)
			}
		})
	}
}

func TestInferSchema(t *testing.T) {
	t.Parallel()

	t.Run("one entry per column in order", func(t *testing.T) {
		t.Parallel()

		d := NewDataset(
			NewHeader([]string{"id", "price", "name", "first name"}),
			[]Record{
				{"1", "1.5", "apple", "Ann"},
				{"2", "2", "banana", "Bob"},
			},
		)
		schema, err := InferSchema(d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := InferredSchema{
			{Name: "id", Type: "INTEGER"},
			{Name: "price", Type: "REAL"},
			{Name: "name", Type: "TEXT"},
			{Name: "first_name", Type: "TEXT"},
		}
		if len(schema) != len(want) {
			t.Fatalf("got %d columns, want %d", len(schema), len(want))
		}
		for i := range want {
			if schema[i] != want[i] {
				t.Errorf("column %d = %+v, want %+v", i, schema[i], want[i])
			}
		}
	})

	t.Run("duplicate names after sanitizing", func(t *testing.T) {
		t.Parallel()

		d := NewDataset(NewHeader([]string{"a b", "a_b"}), nil)
		if _, err := InferSchema(d); !errors.Is(err, ErrDuplicateColumnName) {
			t.Errorf("expected ErrDuplicateColumnName, got %v", err)
		}
	})

	t.Run("no header", func(t *testing.T) {
		t.Parallel()

		if _, err := InferSchema(NewDataset(nil, nil)); !errors.Is(err, ErrNoColumns) {
			t.Errorf("expected ErrNoColumns, got %v", err)
		}
	})

	t.Run("short records are padded", func(t *testing.T) {
		t.Parallel()

		d := NewDataset(NewHeader([]string{"a", "b"}), []Record{{"1"}})
		schema, err := InferSchema(d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if schema[1].Type != "INTEGER" {
			t.Errorf("padded column type = %s, want INTEGER", schema[1].Type)
		}
	})
}

func TestConvertValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		value      string
		columnType string
		expected   any
	}{
		{name: "integer", value: "42", columnType: "INTEGER", expected: int64(42)},
		{name: "whole float as integer", value: "42.0", columnType: "INTEGER", expected: int64(42)},
		{name: "real", value: "4.5", columnType: "REAL", expected: 4.5},
		{name: "text", value: "hi", columnType: "TEXT", expected: "hi"},
		{name: "numeric text kept as text", value: "007", columnType: "TEXT", expected: "007"},
		{name: "missing", value: "NA", columnType: "INTEGER", expected: nil},
		{name: "empty text", value: "", columnType: "TEXT", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ConvertValue(tt.value, tt.columnType); got != tt.expected {
				t.Errorf("ConvertValue(%q, %s) = %#v, want %#v", tt.value, tt.columnType, got, tt.expected)
			}
		})
	}
}
