// Package storage reads and writes labelled tweet corpora and keeps
// collected tweets in a SQLite dataset store.
package storage

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Row is one labelled document of a corpus file: id,text,label.
type Row struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Label string `json:"label"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadLabelledSet reads a UTF-8 CSV corpus of id,text,label rows.
func ReadLabelledSet(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := ReadLabelled(f)
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", path, err)
	}
	return rows, nil
}

// ReadLabelled reads id,text,label rows from r. A leading byte order mark
// is skipped and extra columns are ignored.
func ReadLabelled(r io.Reader) ([]Row, error) {
	var rows []Row
	err := readRecords(r, 3, "id,text,label", func(rec []string) {
		rows = append(rows, Row{ID: rec[0], Text: rec[1], Label: rec[2]})
	})
	return rows, err
}

// ReadIDLabels reads id,label rows from r, the format of corpora that are
// published without their texts. Text is left empty.
func ReadIDLabels(r io.Reader) ([]Row, error) {
	var rows []Row
	err := readRecords(r, 2, "id,label", func(rec []string) {
		rows = append(rows, Row{ID: rec[0], Label: rec[1]})
	})
	return rows, err
}

func readRecords(r io.Reader, fields int, want string, fn func([]string)) error {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(rec) < fields {
			line, _ := cr.FieldPos(0)
			return fmt.Errorf("line %d: want %s, got %d fields", line, want, len(rec))
		}
		fn(rec)
	}
}

// WriteLabelledSet writes rows to a CSV corpus file.
func WriteLabelledSet(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := WriteLabelled(f, rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("storage: %s: %w", path, err)
	}
	return f.Close()
}

// WriteLabelled writes rows to w as id,text,label records.
func WriteLabelled(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	for _, r := range rows {
		if err := cw.Write([]string{r.ID, r.Text, r.Label}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Split returns the texts and labels of rows.
func Split(rows []Row) (documents, labels []string) {
	documents = make([]string, len(rows))
	labels = make([]string, len(rows))
	for i, r := range rows {
		documents[i] = r.Text
		labels[i] = r.Label
	}
	return documents, labels
}
