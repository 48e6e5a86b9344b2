package chatsheet

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/chatsheet/domain/model"
)

// parseParquet reads a Parquet file through Arrow. Numeric Arrow columns are
// declared numeric so that inference does not depend on string rendering.
func (f *inputFile) parseParquet() (*model.Dataset, error) {
	// Parquet requires random access
	data, err := f.readAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty parquet file %s", ErrEmptyData, f.path)
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create parquet reader: %w", ErrInvalidData, err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	tbl, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer tbl.Release()

	schema := tbl.Schema()
	header := make([]string, schema.NumFields())
	kinds := make([]model.ValueKind, schema.NumFields())
	for i, field := range schema.Fields() {
		header[i] = field.Name
		kinds[i] = arrowValueKind(field.Type)
	}

	tableReader := array.NewTableReader(tbl, 0)
	defer tableReader.Release()

	records := make([]model.Record, 0, tbl.NumRows())
	for tableReader.Next() {
		batch := tableReader.Record()
		for i := range int(batch.NumRows()) {
			row := make(model.Record, batch.NumCols())
			for j, col := range batch.Columns() {
				row[j] = arrowValueString(col, i)
			}
			records = append(records, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("error reading table records: %w", err)
	}

	d := model.NewDataset(model.NewHeader(header), records)
	d.Kinds = kinds
	return d, nil
}

// arrowValueKind maps an Arrow type to a storage kind
func arrowValueKind(dt arrow.DataType) model.ValueKind {
	id := dt.ID()
	if arrow.IsInteger(id) || arrow.IsFloating(id) || arrow.IsDecimal(id) {
		return model.ValueKindNumeric
	}
	return model.ValueKindText
}

// arrowValueString renders one cell; nulls become empty cells
func arrowValueString(col arrow.Array, i int) string {
	if col.IsNull(i) {
		return ""
	}
	return col.ValueStr(i)
}
