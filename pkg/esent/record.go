package esent

import (
	"encoding/binary"
	"errors"

	"go.uber.org/zap"
)

//recordLayout locates column values inside one record without decoding them
type recordLayout struct {
	hdr  *Header
	page uint32
	data []byte
	dd   dataDefinitionHeader

	varCount    int
	varValues   int
	taggedStart int
	//end of the fixed values according to the catalog, for the null bitmap check
	fixedEnd int

	taggedDone bool
	tagged     []taggedEntry
	taggedErr  error
}

func parseRecordLayout(h *Header, cols []*Column, data []byte, page uint32) (*recordLayout, error) {
	if len(data) < 4 {
		return nil, corruptf("record", page, "record of %d bytes", len(data))
	}
	r := &recordLayout{hdr: h, page: page, data: data}
	r.dd.LastFixedColumn = data[0]
	r.dd.LastVariableColumn = data[1]
	r.dd.VariableSizeOffset = binary.LittleEndian.Uint16(data[2:])
	vo := int(r.dd.VariableSizeOffset)
	if vo < 4 || vo > len(data) {
		return nil, corruptf("record", page, "variable offset %d outside record of %d bytes", vo, len(data))
	}
	if last := int(r.dd.LastVariableColumn); last > lastFixedColumnID {
		r.varCount = last - lastFixedColumnID
	}
	r.varValues = vo + 2*r.varCount
	if r.varValues > len(data) {
		return nil, corruptf("record", page, "%d variable offsets overrun record", r.varCount)
	}
	end := 0
	for i := 0; i < r.varCount; i++ {
		if e := r.varEntry(i); e&0x8000 == 0 && int(e) > end {
			end = int(e)
		}
	}
	r.taggedStart = r.varValues + end
	if r.taggedStart > len(data) {
		return nil, corruptf("record", page, "variable values end at %d past record of %d bytes", r.taggedStart, len(data))
	}
	r.fixedEnd = 4
	for _, c := range cols {
		if c.Storage() == StorageFixed && c.id <= uint32(r.dd.LastFixedColumn) {
			r.fixedEnd += int(c.size)
		}
	}
	return r, nil
}

func (r *recordLayout) varEntry(i int) uint16 {
	return binary.LittleEndian.Uint16(r.data[int(r.dd.VariableSizeOffset)+2*i:])
}

//fixedNull checks the null bitmap following the fixed values. The bitmap is only trusted when
//it exactly fills the gap before the variable offsets.
func (r *recordLayout) fixedNull(id uint32) bool {
	nb := (int(r.dd.LastFixedColumn) + 7) / 8
	if r.fixedEnd+nb != int(r.dd.VariableSizeOffset) {
		return false
	}
	bit := int(id) - 1
	return r.data[r.fixedEnd+bit/8]&(1<<(uint(bit)%8)) != 0
}

//column returns the stored bytes of c, present is false for null or absent values
func (r *recordLayout) column(c *Column) (rawValue, error) {
	switch c.Storage() {
	case StorageFixed:
		if c.id > uint32(r.dd.LastFixedColumn) || r.fixedNull(c.id) {
			return rawValue{}, nil
		}
		end := c.offset + int(c.size)
		if c.offset < 4 || end > int(r.dd.VariableSizeOffset) {
			return rawValue{}, corruptf("record", r.page, "fixed column %d at %d..%d overruns fixed data", c.id, c.offset, end)
		}
		return rawValue{data: r.data[c.offset:end], present: true}, nil
	case StorageVariable:
		idx := int(c.id) - firstVariableColumn
		if idx >= r.varCount {
			return rawValue{}, nil
		}
		e := r.varEntry(idx)
		if e&0x8000 != 0 {
			return rawValue{}, nil
		}
		prev := 0
		for j := idx - 1; j >= 0; j-- {
			if pe := r.varEntry(j); pe&0x8000 == 0 {
				prev = int(pe)
				break
			}
		}
		if int(e) < prev {
			return rawValue{}, corruptf("record", r.page, "variable column %d ends at %d before %d", c.id, e, prev)
		}
		return rawValue{data: r.data[r.varValues+prev : r.varValues+int(e)], present: true}, nil
	default:
		return r.taggedValue(c.id)
	}
}

//inlineValue decodes a value stored in the record itself
func inlineValue(c *Column, rv rawValue, log *zap.Logger) (Value, error) {
	if !rv.present {
		return NullValue(c.typ), nil
	}
	b := rv.data
	cp := c.codePage
	if rv.flags&taggedFlagCompressed != 0 {
		d, scheme, err := decompress(b)
		if err != nil {
			return Value{}, &Error{Kind: ErrCorrupt, Op: "decompress " + c.name, Err: err}
		}
		if log != nil {
			log.Debug("decompressed value", zap.String("column", c.name), zap.Stringer("scheme", scheme), zap.Int("stored", len(b)), zap.Int("bytes", len(d)))
		}
		b = d
		if c.typ.IsText() {
			cp = scheme.textCodePage(d, cp)
		}
	}
	return decodeValue(c.typ, cp, b, log)
}

//Record is one row of a table. Values are decoded on request, nothing is kept between calls.
type Record struct {
	table   *Table
	ordinal int
	key     []byte
	layout  *recordLayout
}

//Table is the table the record belongs to
func (r *Record) Table() *Table { return r.table }

//Ordinal is the record's position in key order
func (r *Record) Ordinal() int { return r.ordinal }

//Key is the record's key in the table's primary B-tree
func (r *Record) Key() []byte { return r.key }

//ValueCount is the number of columns of the table
func (r *Record) ValueCount() int { return len(r.table.info.columns) }

func (r *Record) column(i int) (*Column, rawValue, error) {
	c, err := r.table.Column(i)
	if err != nil {
		return nil, rawValue{}, err
	}
	rv, err := r.layout.column(c)
	if err != nil {
		return nil, rawValue{}, err
	}
	return c, rv, nil
}

//Value decodes column i. Absent values come back as a null Value of the column's type, a
//multi-valued column yields its first value.
func (r *Record) Value(i int) (Value, error) {
	c, rv, err := r.column(i)
	if err != nil {
		return Value{}, err
	}
	if !rv.present {
		return NullValue(c.typ), nil
	}
	if rv.flags&(taggedFlagMultiValue|taggedFlagTwoValues) != 0 {
		mv, err := r.newMultiValue(c, rv)
		if err != nil {
			return Value{}, err
		}
		if mv.Count() == 0 {
			return NullValue(c.typ), nil
		}
		return mv.Value(0)
	}
	if rv.flags&taggedFlagLongValue == 0 {
		return inlineValue(c, rv, r.table.db.log)
	}
	b, err := r.longBytes(rv.data)
	if err != nil {
		return Value{}, err
	}
	return inlineValue(c, rawValue{data: b, flags: rv.flags &^ taggedFlagLongValue, present: true}, r.table.db.log)
}

//ValueByName decodes the column with the given name
func (r *Record) ValueByName(name string) (Value, error) {
	i, err := r.table.ColumnIndex(name)
	if err != nil {
		return Value{}, err
	}
	return r.Value(i)
}

func (r *Record) flags(i int) (uint8, bool) {
	_, rv, err := r.column(i)
	if err != nil || !rv.present {
		return 0, false
	}
	return rv.flags, true
}

//IsLong reports a value stored in the table's long value tree
func (r *Record) IsLong(i int) bool {
	f, ok := r.flags(i)
	return ok && f&taggedFlagLongValue != 0
}

//IsMulti reports a column holding several values in this record
func (r *Record) IsMulti(i int) bool {
	f, ok := r.flags(i)
	return ok && f&(taggedFlagMultiValue|taggedFlagTwoValues) != 0
}

//IsCompressed reports a value stored compressed
func (r *Record) IsCompressed(i int) bool {
	f, ok := r.flags(i)
	return ok && f&taggedFlagCompressed != 0
}

//IsNull reports a column that is absent from the record
func (r *Record) IsNull(i int) (bool, error) {
	_, rv, err := r.column(i)
	return !rv.present, err
}

//Raw returns the stored bytes of column i without any decoding. Long values give their
//reference, multi-values their packed form.
func (r *Record) Raw(i int) ([]byte, error) {
	_, rv, err := r.column(i)
	if err != nil {
		return nil, err
	}
	if !rv.present {
		return nil, ErrNull
	}
	return rv.data, nil
}

//LongValue opens the long value referenced by column i
func (r *Record) LongValue(i int) (*LongValue, error) {
	c, rv, err := r.column(i)
	if err != nil {
		return nil, err
	}
	if !rv.present {
		return nil, ErrNull
	}
	if rv.flags&taggedFlagLongValue == 0 || rv.flags&(taggedFlagMultiValue|taggedFlagTwoValues) != 0 {
		return nil, &Error{Kind: ErrTypeMismatch, Op: "long value " + c.name, Err: errors.New("column is not stored as a long value")}
	}
	return r.table.longValue(rv.data)
}

//MultiValue returns the values of column i. A single stored value is a multi-value of one.
func (r *Record) MultiValue(i int) (*MultiValue, error) {
	c, rv, err := r.column(i)
	if err != nil {
		return nil, err
	}
	if !rv.present {
		return nil, ErrNull
	}
	return r.newMultiValue(c, rv)
}

//Values iterates over the decoded values in column order
func (r *Record) Values() *Cursor[Value] {
	return newCursor(func() (int, error) { return r.ValueCount(), nil }, r.Value)
}

func (r *Record) longBytes(ref []byte) ([]byte, error) {
	lv, err := r.table.longValue(ref)
	if err != nil {
		return nil, err
	}
	return lv.Bytes()
}
