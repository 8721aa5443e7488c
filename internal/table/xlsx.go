package table

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// workbook is the subset of an OOXML spreadsheet needed to read one sheet.
type workbook struct {
	zr     *zip.Reader
	sheets []sheetEntry
	rels   map[string]string
	shared []string
}

type sheetEntry struct {
	Name    string
	SheetID int
	RID     string
}

// loadXLSX reads one worksheet. The first row is the header. If sheetName is
// empty the 1-based sheetIndex is used (default 1).
func loadXLSX(p, sheetName string, sheetIndex int) (*Table, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	wb, err := openWorkbook(b)
	if err != nil {
		return nil, err
	}
	target, err := wb.sheetPath(sheetName, sheetIndex)
	if err != nil {
		return nil, fmt.Errorf("%w (workbook %s)", err, filepath.Base(p))
	}
	data := wb.file(target)
	if data == nil {
		return nil, fmt.Errorf("worksheet %s missing from %s", target, filepath.Base(p))
	}
	rr := &rowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: wb.shared}
	header, ok := rr.next()
	if !ok || len(header) == 0 {
		return &Table{}, nil
	}
	t := New(cleanHeader(header)...)
	for {
		rec, ok := rr.next()
		if !ok {
			break
		}
		t.AppendRecord(rec)
	}
	return t, nil
}

func openWorkbook(b []byte) (*workbook, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	wb := &workbook{zr: zr, rels: map[string]string{}}
	wb.sheets = parseSheets(wb.file("xl/workbook.xml"))
	wb.rels = parseRels(wb.file("xl/_rels/workbook.xml.rels"))
	wb.shared = parseShared(wb.file("xl/sharedStrings.xml"))
	return wb, nil
}

func (wb *workbook) file(name string) []byte {
	for _, f := range wb.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

func (wb *workbook) sheetPath(name string, index int) (string, error) {
	if name != "" {
		names := make([]string, 0, len(wb.sheets))
		for _, s := range wb.sheets {
			if strings.EqualFold(s.Name, name) {
				if rel, ok := wb.rels[s.RID]; ok {
					return relPath(rel), nil
				}
			}
			names = append(names, s.Name)
		}
		return "", fmt.Errorf("sheet %q not found; available sheets: %s", name, strings.Join(names, ", "))
	}
	if index <= 0 {
		index = 1
	}
	for _, s := range wb.sheets {
		if s.SheetID == index {
			if rel, ok := wb.rels[s.RID]; ok {
				return relPath(rel), nil
			}
		}
	}
	return path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", index)), nil
}

// relPath maps a relationship target ("worksheets/sheet1.xml" or
// "/xl/worksheets/sheet1.xml") to its zip entry name.
func relPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}

func eachStart(data []byte, fn func(dec *xml.Decoder, se xml.StartElement)) {
	if len(data) == 0 {
		return
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		if se, ok := tok.(xml.StartElement); ok {
			fn(dec, se)
		}
	}
}

func parseSheets(data []byte) []sheetEntry {
	var out []sheetEntry
	eachStart(data, func(_ *xml.Decoder, se xml.StartElement) {
		if se.Name.Local != "sheet" {
			return
		}
		var s sheetEntry
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID, _ = strconv.Atoi(a.Value)
			case "id":
				s.RID = a.Value
			}
		}
		out = append(out, s)
	})
	return out
}

func parseRels(data []byte) map[string]string {
	out := map[string]string{}
	eachStart(data, func(_ *xml.Decoder, se xml.StartElement) {
		if se.Name.Local != "Relationship" {
			return
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	})
	return out
}

func parseShared(data []byte) []string {
	var out []string
	eachStart(data, func(dec *xml.Decoder, se xml.StartElement) {
		if se.Name.Local != "si" {
			return
		}
		var sb strings.Builder
		inT := false
		for {
			tok, err := dec.Token()
			if err != nil {
				break
			}
			switch el := tok.(type) {
			case xml.StartElement:
				inT = el.Name.Local == "t"
			case xml.EndElement:
				if el.Name.Local == "t" {
					inT = false
				}
				if el.Name.Local == "si" {
					out = append(out, sb.String())
					return
				}
			case xml.CharData:
				if inT {
					sb.Write(el)
				}
			}
		}
		out = append(out, sb.String())
	})
	return out
}

// rowReader streams <row> elements of a worksheet as text records.
type rowReader struct {
	dec    *xml.Decoder
	shared []string
}

func (r *rowReader) next() ([]string, bool) {
	var rec []string
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "row":
				inRow = true
				rec = rec[:0]
			case "c":
				if !inRow {
					continue
				}
				var ref, typ string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := len(rec)
				if ref != "" {
					if c := columnFromRef(ref); c >= 0 {
						col = c
					}
				}
				for len(rec) <= col {
					rec = append(rec, "")
				}
				rec[col] = r.cellValue(typ)
			}
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				return rec, true
			}
		}
	}
}

// cellValue consumes tokens up to </c> and returns the cell text.
func (r *rowReader) cellValue(typ string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				val = r.text(se.Name.Local)
			}
		case xml.EndElement:
			if se.Name.Local != "c" {
				continue
			}
			if typ == "s" {
				idx, err := strconv.Atoi(strings.TrimSpace(val))
				if err != nil || idx < 0 || idx >= len(r.shared) {
					return ""
				}
				return r.shared[idx]
			}
			return val
		}
	}
}

func (r *rowReader) text(elem string) string {
	var sb strings.Builder
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return sb.String()
		}
		if ed, ok := tok.(xml.EndElement); ok && ed.Name.Local == elem {
			return sb.String()
		}
		if ch, ok := tok.(xml.CharData); ok {
			sb.Write(ch)
		}
	}
}

// columnFromRef maps "C12" to 2.
func columnFromRef(ref string) int {
	idx := 0
	for _, c := range strings.ToUpper(ref) {
		if c < 'A' || c > 'Z' {
			break
		}
		idx = idx*26 + int(c-'A'+1)
	}
	return idx - 1
}
