package chatsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/chatsheet/domain/model"
	"github.com/xuri/excelize/v2"
)

// FileType represents supported input file types
type FileType int

const (
	// FileTypeCSV represents CSV file type
	FileTypeCSV FileType = iota
	// FileTypeTSV represents TSV file type
	FileTypeTSV
	// FileTypeLTSV represents LTSV file type
	FileTypeLTSV
	// FileTypeXLSX represents Excel XLSX file type
	FileTypeXLSX
	// FileTypeParquet represents Parquet file type
	FileTypeParquet
	// FileTypeUnsupported represents unsupported file type
	FileTypeUnsupported
)

// File extensions
const (
	extCSV     = ".csv"
	extTSV     = ".tsv"
	extLTSV    = ".ltsv"
	extXLSX    = ".xlsx"
	extParquet = ".parquet"
)

// File format delimiters
const (
	csvDelimiter = ','
	tsvDelimiter = '\t'
)

const utf8BOM = "\uFEFF"

// String returns the file type name.
func (ft FileType) String() string {
	switch ft {
	case FileTypeCSV:
		return "csv"
	case FileTypeTSV:
		return "tsv"
	case FileTypeLTSV:
		return "ltsv"
	case FileTypeXLSX:
		return "xlsx"
	case FileTypeParquet:
		return "parquet"
	default:
		return "unsupported"
	}
}

// inputFile is a tabular file to be ingested. When src is set the content
// is read from it and path only names the format.
type inputFile struct {
	path        string
	fileType    FileType
	compression CompressionType
	src         io.Reader
}

// newInputFile creates an inputFile, detecting type and compression from the name
func newInputFile(path string) *inputFile {
	base, compression := splitCompression(path)
	return &inputFile{
		path:        path,
		fileType:    detectFileType(base),
		compression: compression,
	}
}

// newReaderInput creates an inputFile reading from r. name carries the
// format and compression extensions, for example "data.csv.gz".
func newReaderInput(name string, r io.Reader) *inputFile {
	f := newInputFile(name)
	f.src = r
	return f
}

// detectFileType detects the file type from an uncompressed path
func detectFileType(path string) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case extCSV:
		return FileTypeCSV
	case extTSV:
		return FileTypeTSV
	case extLTSV:
		return FileTypeLTSV
	case extXLSX:
		return FileTypeXLSX
	case extParquet:
		return FileTypeParquet
	default:
		return FileTypeUnsupported
	}
}

// IsSupportedFile reports whether path has a supported extension, optionally
// followed by a compression extension.
func IsSupportedFile(path string) bool {
	return newInputFile(path).fileType != FileTypeUnsupported
}

// SupportedExtensions lists the accepted input extensions.
func SupportedExtensions() []string {
	return []string{extCSV, extTSV, extLTSV, extXLSX, extParquet}
}

// TableNameFromPath returns the table name a load derives from a file path
// when none is given.
func TableNameFromPath(path string) string {
	return model.NewTableName(tableFromFilePath(path)).Sanitize().String()
}

// tableFromFilePath derives a table name from a file name by removing the
// compression and format extensions
func tableFromFilePath(path string) string {
	base, _ := splitCompression(filepath.Base(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// openReader opens the file and returns a reader that handles compression
func (f *inputFile) openReader() (io.Reader, func() error, error) {
	if f.src != nil {
		return newDecompressReader(f.src, f.compression)
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, nil, err
	}

	reader, closeDecompressor, err := newDecompressReader(file, f.compression)
	if err != nil {
		_ = file.Close() // Ignore close error during error handling
		return nil, nil, err
	}
	return reader, func() error {
		_ = closeDecompressor() // Ignore close error in cleanup
		return file.Close()
	}, nil
}

// readAll reads the whole decompressed content
func (f *inputFile) readAll() ([]byte, error) {
	reader, closer, err := f.openReader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = closer() }()
	return io.ReadAll(reader)
}

// toDataset reads the file into a dataset
func (f *inputFile) toDataset() (*model.Dataset, error) {
	var (
		d   *model.Dataset
		err error
	)
	switch f.fileType {
	case FileTypeCSV:
		d, err = f.parseDelimited(csvDelimiter)
	case FileTypeTSV:
		d, err = f.parseDelimited(tsvDelimiter)
	case FileTypeLTSV:
		d, err = f.parseLTSV()
	case FileTypeXLSX:
		d, err = f.parseXLSX()
	case FileTypeParquet:
		d, err = f.parseParquet()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.path)
	}
	if err != nil {
		return nil, err
	}
	if len(d.Header) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, f.path)
	}
	return d, nil
}

// parseDelimited parses CSV or TSV content. Short rows are padded, rows
// with more fields than the header are malformed.
func (f *inputFile) parseDelimited(delimiter rune) (*model.Dataset, error) {
	reader, closer, err := f.openReader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = closer() }()

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1
	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, f.path)
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	records := make([]model.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) > len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d",
				ErrInvalidData, i+2, len(row), len(header))
		}
		records = append(records, model.NewRecord(row))
	}
	return model.NewDataset(model.NewHeader(header), records), nil
}

// parseLTSV parses LTSV content; columns appear in first-seen order
func (f *inputFile) parseLTSV() (*model.Dataset, error) {
	content, err := f.readAll()
	if err != nil {
		return nil, err
	}

	var (
		header  []string
		index   = make(map[string]int)
		entries []map[string]string
	)
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entry := make(map[string]string)
		for _, pair := range strings.Split(line, "\t") {
			kv := strings.SplitN(pair, ":", 2)
			if len(kv) != 2 {
				continue
			}
			key := strings.TrimSpace(kv[0])
			if _, ok := index[key]; !ok {
				index[key] = len(header)
				header = append(header, key)
			}
			entry[key] = strings.TrimSpace(kv[1])
		}
		if len(entry) > 0 {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no valid records: %s", ErrEmptyData, f.path)
	}

	records := make([]model.Record, 0, len(entries))
	for _, entry := range entries {
		row := make(model.Record, len(header))
		for key, value := range entry {
			row[index[key]] = value
		}
		records = append(records, row)
	}
	return model.NewDataset(model.NewHeader(header), records), nil
}

// parseXLSX parses the first sheet of an XLSX workbook
func (f *inputFile) parseXLSX() (*model.Dataset, error) {
	var (
		xlsxFile *excelize.File
		err      error
	)
	if f.compression != CompressionNone || f.src != nil {
		data, readErr := f.readAll()
		if readErr != nil {
			return nil, readErr
		}
		xlsxFile, err = excelize.OpenReader(bytes.NewReader(data))
	} else {
		xlsxFile, err = excelize.OpenFile(f.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	defer func() {
		_ = xlsxFile.Close() // Ignore close error
	}()

	sheets := xlsxFile.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets in %s", ErrEmptyData, f.path)
	}
	rows, err := xlsxFile.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %s is empty in %s", ErrEmptyData, sheets[0], f.path)
	}

	records := make([]model.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, model.NewRecord(row))
	}
	return model.NewDataset(model.NewHeader(rows[0]), records), nil
}

// validatePath checks that an input file exists and has a supported type
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("failed to stat path %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrUnsupportedFormat, path)
	}
	if !IsSupportedFile(path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}
