package esent

import (
	"encoding/binary"
)

//Table is a handle on one catalog table. It is cheap, the definition is shared.
type Table struct {
	db   *Database
	info *tableInfo
}

//Name of the table
func (t *Table) Name() string { return t.info.name }

//ObjectID is the table's catalog object identifier
func (t *Table) ObjectID() uint32 { return t.info.objectID }

//RootPage is the first page of the table's record tree
func (t *Table) RootPage() uint32 { return t.info.root }

//LongValueRootPage is the root of the long value tree, 0 when the table has none
func (t *Table) LongValueRootPage() uint32 { return t.info.lvRoot }

//TemplateName is the table the column definitions were inherited from, if any
func (t *Table) TemplateName() string { return t.info.template }

//ColumnCount is the number of columns, inherited template columns included
func (t *Table) ColumnCount() int { return len(t.info.columns) }

//Column returns column i in identifier order
func (t *Table) Column(i int) (*Column, error) {
	if i < 0 || i >= len(t.info.columns) {
		return nil, outOfRange("column", i, len(t.info.columns))
	}
	return t.info.columns[i], nil
}

//ColumnIndex is the ordinal of the column called name
func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.info.byName[name]
	if !ok {
		return -1, notFound("column", "no column named "+name+" in "+t.info.name)
	}
	return i, nil
}

//ColumnByName finds a column by its exact name
func (t *Table) ColumnByName(name string) (*Column, error) {
	i, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	return t.info.columns[i], nil
}

//Columns iterates over the columns in identifier order
func (t *Table) Columns() *Cursor[*Column] {
	return newCursor(func() (int, error) { return t.ColumnCount(), nil }, t.Column)
}

//Indexes lists the secondary indexes defined on the table
func (t *Table) Indexes() []*Index { return t.info.indexes }

func (t *Table) tree() (*tree, error) {
	if t.info.root == 0 {
		return nil, corruptf("table "+t.info.name, 0, "no root page")
	}
	return t.db.openTree(t.info.root)
}

//leafSpans indexes the table's leaves once so ordinal access doesn't rescan the tree
func (t *Table) leafSpans() (*tree, []leafSpan, error) {
	tr, err := t.tree()
	if err != nil {
		return nil, nil, err
	}
	t.info.spansOnce.Do(func() {
		t.info.spans, t.info.spansErr = tr.leafSpans()
	})
	return tr, t.info.spans, t.info.spansErr
}

//RecordCount is the number of records in the table
func (t *Table) RecordCount() (int, error) {
	_, spans, err := t.leafSpans()
	if err != nil {
		return 0, err
	}
	return spansTotal(spans), nil
}

//Record returns record i in key order
func (t *Table) Record(i int) (*Record, error) {
	tr, spans, err := t.leafSpans()
	if err != nil {
		return nil, err
	}
	p, e, err := tr.nth(spans, i)
	if err != nil {
		return nil, err
	}
	return t.newRecord(i, p, e)
}

func (t *Table) newRecord(i int, p *page, e treeEntry) (*Record, error) {
	l, err := parseRecordLayout(t.db.header, t.info.columns, e.data, p.number)
	if err != nil {
		return nil, err
	}
	return &Record{table: t, ordinal: i, key: e.key, layout: l}, nil
}

//Records iterates over the records in key order
func (t *Table) Records() *Cursor[*Record] {
	return newCursor(t.RecordCount, t.Record)
}

//Walk calls fn for every record in key order in a single pass over the tree, stopping when fn
//returns false or an error
func (t *Table) Walk(fn func(*Record) (bool, error)) error {
	tr, err := t.tree()
	if err != nil {
		return err
	}
	i := 0
	return tr.walk(func(p *page, tag int, e treeEntry) (bool, error) {
		r, err := t.newRecord(i, p, e)
		if err != nil {
			return false, err
		}
		i++
		return fn(r)
	})
}

func (t *Table) longValue(ref []byte) (*LongValue, error) {
	if len(ref) != 4 {
		return nil, corruptf("long value", 0, "reference of %d bytes in table %s", len(ref), t.info.name)
	}
	if t.info.lvRoot == 0 {
		return nil, corruptf("long value", 0, "table %s has no long value tree", t.info.name)
	}
	tr, err := t.db.openTree(t.info.lvRoot)
	if err != nil {
		return nil, err
	}
	return openLongValue(tr, binary.LittleEndian.Uint32(ref))
}
