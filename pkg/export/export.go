package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/C-Sto/goesedb/pkg/esent"
	"github.com/Velocidex/ordereddict"
)

//Value converts a single value to something json can carry without losing the column's meaning.
//Dates, guids and binary data become their formatted strings, numbers stay numbers.
func Value(v esent.Value, o esent.FormatOptions) interface{} {
	if v.IsNull() {
		return nil
	}
	switch {
	case v.Type().IsText():
		s, _ := v.Text()
		return s
	case v.Type() == esent.ColumnTypeDateTime, v.Type() == esent.ColumnTypeGUID, v.Type().IsBinary():
		return v.Format(o)
	}
	return v.Interface()
}

//Record builds a document for one record with keys in column order. Multi valued columns become lists.
func Record(r *esent.Record, o esent.FormatOptions) (*ordereddict.Dict, error) {
	d := ordereddict.NewDict()
	t := r.Table()
	for i := 0; i < r.ValueCount(); i++ {
		c, err := t.Column(i)
		if err != nil {
			return nil, err
		}
		if r.IsMulti(i) {
			mv, err := r.MultiValue(i)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Name(), err)
			}
			items := make([]interface{}, 0, mv.Count())
			vals := mv.Values()
			for vals.Next() {
				items = append(items, Value(vals.Value(), o))
			}
			if err := vals.Err(); err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Name(), err)
			}
			d.Set(c.Name(), items)
			continue
		}
		v, err := r.Value(i)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name(), err)
		}
		d.Set(c.Name(), Value(v, o))
	}
	return d, nil
}

//Schema describes a table and its columns
func Schema(t *esent.Table) *ordereddict.Dict {
	cols := []*ordereddict.Dict{}
	cur := t.Columns()
	for cur.Next() {
		c := cur.Value()
		cols = append(cols, ordereddict.NewDict().
			Set("id", c.ID()).
			Set("name", c.Name()).
			Set("type", c.Type().String()).
			Set("storage", c.Storage().String()).
			Set("codepage", c.CodePage()).
			Set("multivalued", c.IsMultiValued()))
	}
	idx := []string{}
	for _, i := range t.Indexes() {
		idx = append(idx, i.Name())
	}
	return ordereddict.NewDict().
		Set("name", t.Name()).
		Set("objid", t.ObjectID()).
		Set("root", t.RootPage()).
		Set("template", t.TemplateName()).
		Set("columns", cols).
		Set("indexes", idx)
}

//Line renders a document as key=value pairs in key order
func Line(d *ordereddict.Dict) string {
	var sb strings.Builder
	for i, k := range d.Keys() {
		if i > 0 {
			sb.WriteString(" ")
		}
		v, _ := d.Get(k)
		sb.WriteString(k)
		sb.WriteString("=")
		switch x := v.(type) {
		case nil:
		case string:
			sb.WriteString(x)
		case []interface{}:
			parts := make([]string, len(x))
			for j := range x {
				parts[j] = fmt.Sprint(x[j])
			}
			sb.WriteString("[" + strings.Join(parts, ",") + "]")
		default:
			sb.WriteString(fmt.Sprint(x))
		}
	}
	return sb.String()
}

//JSONWriter writes one document per line
type JSONWriter struct {
	w     *bufio.Writer
	count int
}

//NewJSONWriter wraps w, call Flush when done
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: bufio.NewWriter(w)}
}

//Write marshals d and appends a newline
func (j *JSONWriter) Write(d *ordereddict.Dict) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	j.count++
	return j.w.WriteByte('\n')
}

//Count is the number of documents written so far
func (j *JSONWriter) Count() int { return j.count }

//Flush pushes buffered lines to the underlying writer
func (j *JSONWriter) Flush() error { return j.w.Flush() }
