package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"slices"
)

// ErrCSVRow is returned when a row cannot be built from, or read into, an entry.
var ErrCSVRow = errors.New("csv: bad row")

// CSV stores one entry per row. Without BuildRow/ReadRow it handles
// map[string]string as two-column key,value rows; other key or value types
// need both funcs. Rows are written sorted so unchanged contents encode to
// identical bytes.
type CSV[K comparable, V any] struct {
	// BuildRow turns an entry into a record. nil => [key, value].
	BuildRow func(key K, value V) ([]string, error)
	// ReadRow turns a record back into an entry. nil => row[0], row[1].
	ReadRow func(row []string) (K, V, error)
}

var _ Codec[map[string]string] = CSV[string, string]{}

func (c CSV[K, V]) Encode(m map[K]V) ([]byte, error) {
	rows := make([][]string, 0, len(m))
	for k, v := range m {
		row, err := c.build(k, v)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	slices.SortFunc(rows, slices.Compare)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("csv: write: %w", err)
	}
	return buf.Bytes(), nil
}

func (c CSV[K, V]) Decode(b []byte) (map[K]V, error) {
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1 // custom rows may vary in width
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: read: %w", err)
	}
	out := make(map[K]V, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		k, v, err := c.read(row)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func (c CSV[K, V]) build(k K, v V) ([]string, error) {
	if c.BuildRow != nil {
		return c.BuildRow(k, v)
	}
	ks, kok := any(k).(string)
	vs, vok := any(v).(string)
	if !kok || !vok {
		return nil, fmt.Errorf("%w: %T,%T needs BuildRow", ErrCSVRow, k, v)
	}
	return []string{ks, vs}, nil
}

func (c CSV[K, V]) read(row []string) (K, V, error) {
	if c.ReadRow != nil {
		return c.ReadRow(row)
	}
	var (
		k K
		v V
	)
	if len(row) < 2 {
		return k, v, fmt.Errorf("%w: want 2 fields, got %d", ErrCSVRow, len(row))
	}
	k, kok := any(row[0]).(K)
	v, vok := any(row[1]).(V)
	if !kok || !vok {
		return k, v, fmt.Errorf("%w: %T,%T needs ReadRow", ErrCSVRow, k, v)
	}
	return k, v, nil
}
