package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/datatidy-cli/internal/utils"
	"golang.org/x/text/unicode/norm"
)

// LoadOptions controls how a dataset file is read.
type LoadOptions struct {
	// Delimiter for CSV. If 0, sniffed from the file extension.
	Delimiter rune
	// SheetName selects an XLSX sheet by name; SheetIndex (1-based) is used otherwise.
	SheetName  string
	SheetIndex int
	// Raw keeps every column as String instead of inferring numeric columns.
	Raw bool
}

// Load reads a CSV, TSV or XLSX file into a Table.
func Load(path string, opt LoadOptions) (*Table, error) {
	var (
		t   *Table
		err error
	)
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		t, err = loadXLSX(path, opt.SheetName, opt.SheetIndex)
	} else {
		t, err = loadCSV(path, opt.Delimiter)
	}
	if err != nil {
		return nil, err
	}
	if !opt.Raw {
		t.InferTypes()
	}
	return t, nil
}

func loadCSV(path string, delim rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, sniffDelimiter(path, delim))
}

// ReadCSV parses delimited text with a header row.
func ReadCSV(src io.Reader, delim rune) (*Table, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	if delim != 0 {
		r.Comma = delim
	}
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := New(cleanHeader(header)...)
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", t.Len()+1, err)
		}
		t.AppendRecord(rec)
	}
	return t, nil
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = norm.NFC.String(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	return out
}

func sniffDelimiter(path string, delim rune) rune {
	if delim != 0 {
		return delim
	}
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// WriteCSV renders t as comma-separated text with a header row and no index column.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for c, v := range r.Values {
			rec[c] = v.Format(t.Columns[c].Type)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", r.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes t to path as CSV using an atomic rename.
func (t *Table) Save(path string) error {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
