package esent

import "encoding/binary"

type mvItem struct {
	data []byte
	long bool
}

//MultiValue holds the values of a multi-valued column in one record
type MultiValue struct {
	rec   *Record
	col   *Column
	flags uint8
	items []mvItem
}

func (r *Record) newMultiValue(c *Column, rv rawValue) (*MultiValue, error) {
	m := &MultiValue{rec: r, col: c, flags: rv.flags}
	d := rv.data
	switch {
	case rv.flags&taggedFlagTwoValues != 0:
		//the first byte is the size of the first value
		if len(d) < 1 || int(d[0]) > len(d)-1 {
			return nil, corruptf("multi value", r.layout.page, "two value column %d of %d bytes", c.id, len(d))
		}
		s := 1 + int(d[0])
		m.items = []mvItem{{data: d[1:s]}, {data: d[s:]}}
	case rv.flags&taggedFlagMultiValue != 0:
		if len(d) < 2 {
			return nil, corruptf("multi value", r.layout.page, "multi value column %d of %d bytes", c.id, len(d))
		}
		first := int(binary.LittleEndian.Uint16(d) & 0x7fff)
		if first < 2 || first%2 != 0 || first > len(d) {
			return nil, corruptf("multi value", r.layout.page, "multi value column %d offset table of %d bytes", c.id, first)
		}
		n := first / 2
		m.items = make([]mvItem, n)
		for i := 0; i < n; i++ {
			o := binary.LittleEndian.Uint16(d[2*i:])
			start := int(o & 0x7fff)
			end := len(d)
			if i+1 < n {
				end = int(binary.LittleEndian.Uint16(d[2*(i+1):]) & 0x7fff)
			}
			if start < first || start > end || end > len(d) {
				return nil, corruptf("multi value", r.layout.page, "multi value column %d value %d spans %d..%d", c.id, i, start, end)
			}
			m.items[i] = mvItem{data: d[start:end], long: o&0x8000 != 0}
		}
	default:
		m.items = []mvItem{{data: d, long: rv.flags&taggedFlagLongValue != 0}}
	}
	return m, nil
}

//Column is the column the values belong to
func (m *MultiValue) Column() *Column { return m.col }

//Count is the number of values
func (m *MultiValue) Count() int { return len(m.items) }

//IsLong reports value i being stored in the long value tree
func (m *MultiValue) IsLong(i int) bool {
	return i >= 0 && i < len(m.items) && m.items[i].long
}

//Value decodes value i with the column's type
func (m *MultiValue) Value(i int) (Value, error) {
	if i < 0 || i >= len(m.items) {
		return Value{}, outOfRange("multi value", i, len(m.items))
	}
	it := m.items[i]
	b := it.data
	if it.long {
		lb, err := m.rec.longBytes(b)
		if err != nil {
			return Value{}, err
		}
		b = lb
	}
	rv := rawValue{data: b, flags: m.flags & taggedFlagCompressed, present: true}
	//only a single stored value carries the compression flag for itself
	if len(m.items) > 1 {
		rv.flags = 0
	}
	return inlineValue(m.col, rv, m.rec.table.db.log)
}

//Values iterates over the values in stored order
func (m *MultiValue) Values() *Cursor[Value] {
	return newCursor(func() (int, error) { return m.Count(), nil }, m.Value)
}
