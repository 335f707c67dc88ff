//Package esetest writes small database files in memory for tests of code built on the esent
//package. Every table fits a single leaf page, the file uses 4K pages with XOR checksums.
package esetest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"unicode/utf16"

	"github.com/C-Sto/goesedb/pkg/esent"
)

const (
	pageSize  = 4096
	signature = 0x89abcdef

	flagRoot = 0x0001
	flagLeaf = 0x0002

	catalogPage = 4
	catalogFDP  = 2

	taggedMultiValue = 0x08
)

//Column declares one column of a table. Size is only needed for variable sized types.
type Column struct {
	ID       uint32
	Name     string
	Type     esent.ColumnType
	Size     uint32
	CodePage uint32
	Flags    uint32
}

//Value is a stored column value. Flags only apply to tagged columns.
type Value struct {
	Data  []byte
	Flags uint8
}

//Row maps column ids to their stored values, missing ids are null
type Row map[uint32]Value

//Table is one table and its rows, stored in order under keys 1, 2, 3...
type Table struct {
	Name    string
	Columns []Column
	Rows    []Row
}

//Long encodes a Long column value
func Long(v int32) Value {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return Value{Data: b}
}

//Text encodes s for a codepage 1252 text column
func Text(s string) Value { return Value{Data: []byte(s)} }

//Unicode encodes s for a codepage 1200 text column
func Unicode(s string) Value {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		b = append(b, byte(u), byte(u>>8))
	}
	return Value{Data: b}
}

//Multi packs several values of a tagged multi-valued column
func Multi(vals ...Value) Value {
	hdr := make([]byte, 2*len(vals))
	var body []byte
	for i, v := range vals {
		binary.LittleEndian.PutUint16(hdr[2*i:], uint16(len(hdr)+len(body)))
		body = append(body, v.Data...)
	}
	return Value{Data: append(hdr, body...), Flags: taggedMultiValue}
}

//Build returns the image of a database holding tables. It panics when a table does not fit its
//page, which is a mistake in the test.
func Build(tables ...Table) []byte {
	pages := map[uint32][]byte{}
	var catalog [][2][]byte
	next := uint32(catalogPage + 1)
	objid := uint32(10)
	for _, t := range tables {
		root := next
		next++
		catalog = append(catalog, catalogRow(objid, 1, objid, root, 0, 0, 0, t.Name))
		for _, c := range t.Columns {
			catalog = append(catalog, catalogRow(objid, 2, c.ID, uint32(c.Type), c.Size, c.Flags, c.CodePage, c.Name))
		}
		var rows [][2][]byte
		for i, r := range t.Rows {
			rows = append(rows, [2][]byte{be32(uint32(i + 1)), encodeRecord(t.Columns, r)})
		}
		pages[root] = leafPage(root, objid, rows)
		objid++
	}
	sort.Slice(catalog, func(i, j int) bool { return bytes.Compare(catalog[i][0], catalog[j][0]) < 0 })
	pages[catalogPage] = leafPage(catalogPage, catalogFDP, catalog)

	out := make([]byte, (int(next)+1)*pageSize)
	h := esent.Header{
		Signature:      signature,
		FormatVersion:  0x620,
		FormatRevision: 0x09,
		PageSize:       pageSize,
		FileType:       esent.FileTypeDatabase,
		DBState:        esent.DBStateCleanShutdown,
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &h)
	hb := buf.Bytes()
	binary.LittleEndian.PutUint32(hb, xor32(hb[4:]))
	copy(out, hb)
	copy(out[pageSize:], hb)
	for n, d := range pages {
		copy(out[(int(n)+1)*pageSize:], d)
	}
	return out
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func xor32(b []byte) uint32 {
	r := uint32(signature)
	i := 0
	for ; i+4 <= len(b); i += 4 {
		r ^= binary.LittleEndian.Uint32(b[i:])
	}
	if i < len(b) {
		var tail [4]byte
		copy(tail[:], b[i:])
		r ^= binary.LittleEndian.Uint32(tail[:])
	}
	return r
}

var catalogSchema = []Column{
	{ID: 1, Type: esent.ColumnTypeLong},
	{ID: 2, Type: esent.ColumnTypeShort},
	{ID: 3, Type: esent.ColumnTypeLong},
	{ID: 4, Type: esent.ColumnTypeLong},
	{ID: 5, Type: esent.ColumnTypeLong},
	{ID: 6, Type: esent.ColumnTypeLong},
	{ID: 7, Type: esent.ColumnTypeLong},
	{ID: 8, Type: esent.ColumnTypeBit},
	{ID: 128, Type: esent.ColumnTypeText},
}

func catalogRow(objid uint32, typ uint16, id, coltypOrFDP, space, flags, pagesOrLocale uint32, name string) [2][]byte {
	key := append(be32(objid), byte(typ>>8), byte(typ))
	key = append(key, be32(id)...)
	r := Row{
		1:   {Data: le32(objid)},
		2:   {Data: le16(typ)},
		3:   {Data: le32(id)},
		4:   {Data: le32(coltypOrFDP)},
		5:   {Data: le32(space)},
		6:   {Data: le32(flags)},
		7:   {Data: le32(pagesOrLocale)},
		128: Text(name),
	}
	if typ == 1 {
		r[8] = Value{Data: []byte{1}}
	}
	return [2][]byte{key, encodeRecord(catalogSchema, r)}
}

func fixedSize(c Column) int {
	if w := c.Type.Width(); w > 0 {
		return w
	}
	return int(c.Size)
}

//encodeRecord writes the fixed values and their null bitmap, the variable offsets and values,
//then the tagged directory
func encodeRecord(cols []Column, r Row) []byte {
	cols = append([]Column(nil), cols...)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].ID < cols[j].ID })
	lastFixed, lastVar := 0, 127
	var tagged []int
	for id := range r {
		switch {
		case id <= 127:
			if int(id) > lastFixed {
				lastFixed = int(id)
			}
		case id <= 255:
			if int(id) > lastVar {
				lastVar = int(id)
			}
		default:
			tagged = append(tagged, int(id))
		}
	}
	nulls := make([]byte, (lastFixed+7)/8)
	rec := []byte{byte(lastFixed), byte(lastVar), 0, 0}
	for _, c := range cols {
		if c.ID > 127 || int(c.ID) > lastFixed {
			continue
		}
		v, ok := r[c.ID]
		if !ok {
			rec = append(rec, make([]byte, fixedSize(c))...)
			nulls[(c.ID-1)/8] |= 1 << ((c.ID - 1) % 8)
			continue
		}
		if len(v.Data) != fixedSize(c) {
			panic(fmt.Sprintf("esetest: column %d value of %d bytes, want %d", c.ID, len(v.Data), fixedSize(c)))
		}
		rec = append(rec, v.Data...)
	}
	rec = append(rec, nulls...)
	binary.LittleEndian.PutUint16(rec[2:], uint16(len(rec)))

	var varData []byte
	for id := 128; id <= lastVar; id++ {
		v, ok := r[uint32(id)]
		if !ok {
			rec = append(rec, le16(0x8000|uint16(len(varData)))...)
			continue
		}
		varData = append(varData, v.Data...)
		rec = append(rec, le16(uint16(len(varData)))...)
	}
	rec = append(rec, varData...)

	sort.Ints(tagged)
	var area []byte
	for _, id := range tagged {
		v := r[uint32(id)]
		off := uint16(4*len(tagged) + len(area))
		if v.Flags != 0 {
			off |= 0x4000
			area = append(area, v.Flags)
		}
		area = append(area, v.Data...)
		rec = append(rec, le16(uint16(id))...)
		rec = append(rec, le16(off)...)
	}
	return append(rec, area...)
}

//leafPage writes a root leaf page, tag 0 holds the root header
func leafPage(number, objid uint32, entries [][2][]byte) []byte {
	tags := [][]byte{make([]byte, 16)}
	binary.LittleEndian.PutUint32(tags[0], 1)
	for _, e := range entries {
		v := append(le16(uint16(len(e[0]))), e[0]...)
		tags = append(tags, append(v, e[1]...))
	}
	d := make([]byte, pageSize)
	binary.LittleEndian.PutUint32(d[4:], number)
	binary.LittleEndian.PutUint64(d[8:], 1)
	binary.LittleEndian.PutUint32(d[24:], objid)
	binary.LittleEndian.PutUint16(d[34:], uint16(len(tags)))
	binary.LittleEndian.PutUint32(d[36:], flagRoot|flagLeaf)
	off := 0
	for i, v := range tags {
		if 40+off+len(v) > pageSize-4*len(tags) {
			panic(fmt.Sprintf("esetest: page %d overflows", number))
		}
		copy(d[40+off:], v)
		at := pageSize - 4*(i+1)
		binary.LittleEndian.PutUint16(d[at:], uint16(len(v)))
		binary.LittleEndian.PutUint16(d[at+2:], uint16(off))
		off += len(v)
	}
	binary.LittleEndian.PutUint16(d[28:], uint16(pageSize-40-off-4*len(tags)))
	binary.LittleEndian.PutUint16(d[32:], uint16(off))
	binary.LittleEndian.PutUint32(d[0:], xor32(d[4:]))
	return d
}
