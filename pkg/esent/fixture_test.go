package esent

import (
	"bytes"
	"encoding/binary"
	"sort"
	"testing"
	"unicode/utf16"

	"go.uber.org/zap"
)

//the fixture builder writes complete database files in memory: header and shadow, catalog
//(and its backup), table trees with branch levels, long value trees, valid checksums

type kv struct {
	key     []byte
	data    []byte
	defunct bool
}

//fv is a stored column value and its tagged flags
type fv struct {
	data  []byte
	flags uint8
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func i32(v int32) fv    { return fv{data: le32(uint32(v))} }
func ascii(s string) fv { return fv{data: []byte(s)} }

func utf16le(s string) []byte {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		b = append(b, le16(u)...)
	}
	return b
}

type fixtureTable struct {
	name     string
	objid    uint32
	template string
	columns  []*Column
	records  []kv
	lvs      []kv
	perLeaf  int
	fanout   int

	//filled in by build
	root   uint32
	lvRoot uint32
}

func (ft *fixtureTable) addLongValue(id uint32, data []byte, segment int) {
	ft.lvs = append(ft.lvs, kv{key: lvKey(id), data: append(le32(1), le32(uint32(len(data)))...)})
	for off := 0; off < len(data); off += segment {
		end := off + segment
		if end > len(data) {
			end = len(data)
		}
		ft.lvs = append(ft.lvs, kv{key: lvSegmentKey(id, uint32(off)), data: data[off:end]})
	}
}

type fixture struct {
	pageSize int
	version  uint32
	revision uint32
	ecc      bool
	dirty    bool
	//rows per catalog leaf, 0 keeps the catalog on its root page
	catalogPerLeaf int

	tables []*fixtureTable
	pages  map[uint32][]byte
	next   uint32
	objid  uint32
	//raw overrides pages after the trees are built
	raw map[uint32][]byte
}

func newFixture() *fixture {
	return &fixture{
		pageSize: 4096,
		version:  formatVersion,
		revision: 0x0c,
		ecc:      true,
		objid:    10,
		raw:      map[uint32][]byte{},
	}
}

func (f *fixture) large() bool    { return f.revision >= revisionExtendedHeader && f.pageSize >= 16384 }
func (f *fixture) linear() bool   { return f.version == formatVersion && f.revision <= revisionLinearTaggedLast }
func (f *fixture) header() Header { return Header{FormatVersion: f.version, FormatRevision: f.revision, PageSize: uint32(f.pageSize)} }

func (f *fixture) addTable(name string, cols []*Column) *fixtureTable {
	ft := &fixtureTable{name: name, objid: f.objid, columns: cols}
	f.objid++
	f.tables = append(f.tables, ft)
	return ft
}

func (f *fixture) table(name string) *fixtureTable {
	for _, ft := range f.tables {
		if ft.name == name {
			return ft
		}
	}
	return nil
}

//recordColumns is the column list records of ft are laid out with
func (f *fixture) recordColumns(ft *fixtureTable) []*Column {
	var cols []*Column
	if tmpl := f.table(ft.template); ft.template != "" && tmpl != nil {
		cols = append(cols, tmpl.columns...)
	}
	cols = append(cols, ft.columns...)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].id < cols[j].id })
	return cols
}

func (f *fixture) record(ft *fixtureTable, key []byte, vals map[uint32]fv) {
	ft.records = append(ft.records, kv{key: key, data: encodeRecord(f.recordColumns(ft), vals, f.large(), f.linear())})
}

func fixedSize(c *Column) int {
	if w := c.typ.Width(); w > 0 {
		return w
	}
	return int(c.size)
}

//encodeRecord lays out vals the way the record decoder expects them
func encodeRecord(cols []*Column, vals map[uint32]fv, large, linear bool) []byte {
	lastFixed, lastVar := 0, lastFixedColumnID
	for id := range vals {
		switch storageClassOf(id) {
		case StorageFixed:
			if int(id) > lastFixed {
				lastFixed = int(id)
			}
		case StorageVariable:
			if int(id) > lastVar {
				lastVar = int(id)
			}
		}
	}
	nulls := make([]byte, (lastFixed+7)/8)
	rec := []byte{byte(lastFixed), byte(lastVar), 0, 0}
	for _, c := range cols {
		if c.Storage() != StorageFixed || int(c.id) > lastFixed {
			continue
		}
		if v, ok := vals[c.id]; ok {
			if len(v.data) != fixedSize(c) {
				panic("fixture: fixed value of the wrong size")
			}
			rec = append(rec, v.data...)
			continue
		}
		rec = append(rec, make([]byte, fixedSize(c))...)
		nulls[(c.id-1)/8] |= 1 << ((c.id - 1) % 8)
	}
	rec = append(rec, nulls...)
	binary.LittleEndian.PutUint16(rec[2:], uint16(len(rec)))

	var varData []byte
	for id := firstVariableColumn; id <= lastVar; id++ {
		v, ok := vals[uint32(id)]
		if !ok {
			rec = append(rec, le16(0x8000|uint16(len(varData)))...)
			continue
		}
		varData = append(varData, v.data...)
		rec = append(rec, le16(uint16(len(varData)))...)
	}
	rec = append(rec, varData...)

	var ids []int
	for id := range vals {
		if storageClassOf(id) == StorageTagged {
			ids = append(ids, int(id))
		}
	}
	sort.Ints(ids)
	if linear {
		for _, id := range ids {
			v := vals[uint32(id)]
			size := uint16(len(v.data))
			if v.flags != 0 {
				size = (size + 1) | 0x8000
			}
			rec = append(rec, le16(uint16(id))...)
			rec = append(rec, le16(size)...)
			if v.flags != 0 {
				rec = append(rec, v.flags)
			}
			rec = append(rec, v.data...)
		}
		return rec
	}
	dir := 4 * len(ids)
	var tagged []byte
	for _, id := range ids {
		v := vals[uint32(id)]
		off := uint16(dir + len(tagged))
		if large {
			tagged = append(tagged, v.flags)
		} else if v.flags != 0 {
			off |= 0x4000
			tagged = append(tagged, v.flags)
		}
		tagged = append(tagged, v.data...)
		rec = append(rec, le16(uint16(id))...)
		rec = append(rec, le16(off)...)
	}
	return append(rec, tagged...)
}

func (f *fixture) alloc() uint32 {
	n := f.next
	f.next++
	return n
}

func commonPrefix(entries []kv) []byte {
	if len(entries) < 2 {
		return nil
	}
	p := entries[0].key
	for _, e := range entries[1:] {
		n := 0
		for n < len(p) && n < len(e.key) && p[n] == e.key[n] {
			n++
		}
		p = p[:n]
	}
	return p
}

//writePage encodes a tree page. Root pages get a root header in tag 0, the others the common
//key prefix of their entries.
func (f *fixture) writePage(number, objid, flags, prev, next uint32, entries []kv) {
	var tags [][]byte
	var tagFlags []uint16
	var prefix []byte
	if flags&pageFlagRoot != 0 {
		tags = append(tags, append(le32(1), append(le32(0), append(le32(0), le32(0)...)...)...))
	} else {
		prefix = commonPrefix(entries)
		tags = append(tags, prefix)
	}
	tagFlags = append(tagFlags, 0)
	for _, e := range entries {
		var v []byte
		var fl uint16
		if len(prefix) > 0 {
			fl |= tagFlagCommonKey
			v = append(v, le16(uint16(len(prefix)))...)
			v = append(v, le16(uint16(len(e.key)-len(prefix)))...)
			v = append(v, e.key[len(prefix):]...)
		} else {
			v = append(v, le16(uint16(len(e.key)))...)
			v = append(v, e.key...)
		}
		v = append(v, e.data...)
		if e.defunct {
			fl |= tagFlagDefunct
		}
		tags = append(tags, v)
		tagFlags = append(tagFlags, fl)
	}
	f.pages[number] = f.encodePage(number, objid, flags, prev, next, tags, tagFlags)
}

func (f *fixture) encodePage(number, objid, flags, prev, next uint32, tags [][]byte, tagFlags []uint16) []byte {
	ps := f.pageSize
	d := make([]byte, ps)
	hl := pageHeaderSize
	if f.large() {
		hl += extendedPageHeaderSize
	} else if f.ecc && f.revision >= revisionNewRecordFormat {
		flags |= pageFlagNewRecordFormat
	}
	binary.LittleEndian.PutUint64(d[8:], 0x1234)
	binary.LittleEndian.PutUint32(d[16:], prev)
	binary.LittleEndian.PutUint32(d[20:], next)
	binary.LittleEndian.PutUint32(d[24:], objid)
	binary.LittleEndian.PutUint16(d[34:], uint16(len(tags)))
	binary.LittleEndian.PutUint32(d[36:], flags)
	off := 0
	for i, v := range tags {
		if hl+off+len(v) > ps-4*len(tags) {
			panic("fixture: page overflow")
		}
		copy(d[hl+off:], v)
		at := ps - 4*(i+1)
		binary.LittleEndian.PutUint16(d[at:], uint16(len(v)))
		if f.pageSize >= 16384 {
			if i > 0 && len(v) >= 2 {
				d[hl+off+1] |= byte(tagFlags[i] << 5)
			}
			binary.LittleEndian.PutUint16(d[at+2:], uint16(off))
		} else {
			binary.LittleEndian.PutUint16(d[at+2:], uint16(off)|tagFlags[i]<<13)
		}
		off += len(v)
	}
	binary.LittleEndian.PutUint16(d[28:], uint16(ps-hl-off-4*len(tags)))
	binary.LittleEndian.PutUint16(d[32:], uint16(off))
	switch {
	case f.large():
		binary.LittleEndian.PutUint32(d[4:], number)
		binary.LittleEndian.PutUint64(d[pageHeaderSize+24:], uint64(number))
		binary.LittleEndian.PutUint32(d[0:], xor32(d[4:], checksumSeed))
	case flags&pageFlagNewRecordFormat != 0:
		ecc, x := ecc32(d, 8, number)
		binary.LittleEndian.PutUint32(d[0:], x)
		binary.LittleEndian.PutUint32(d[4:], ecc)
	default:
		binary.LittleEndian.PutUint32(d[4:], number)
		binary.LittleEndian.PutUint32(d[0:], xor32(d[4:], checksumSeed))
	}
	return d
}

type childRef struct {
	page uint32
	last []byte
}

//buildTree writes entries as a tree rooted at root. perLeaf 0 keeps everything on the root.
func (f *fixture) buildTree(objid, root uint32, entries []kv, perLeaf, fanout int, extra uint32) {
	sort.SliceStable(entries, func(i, j int) bool { return bytes.Compare(entries[i].key, entries[j].key) < 0 })
	if perLeaf <= 0 || len(entries) <= perLeaf {
		f.writePage(root, objid, pageFlagRoot|pageFlagLeaf|extra, 0, 0, entries)
		return
	}
	if fanout < 2 {
		fanout = 1 << 30
	}
	var chunks [][]kv
	for i := 0; i < len(entries); i += perLeaf {
		end := i + perLeaf
		if end > len(entries) {
			end = len(entries)
		}
		chunks = append(chunks, entries[i:end])
	}
	nums := make([]uint32, len(chunks))
	for i := range chunks {
		nums[i] = f.alloc()
	}
	var level []childRef
	for i, c := range chunks {
		var prev, next uint32
		if i > 0 {
			prev = nums[i-1]
		}
		if i+1 < len(nums) {
			next = nums[i+1]
		}
		f.writePage(nums[i], objid, pageFlagLeaf|extra, prev, next, c)
		level = append(level, childRef{page: nums[i], last: c[len(c)-1].key})
	}
	for len(level) > fanout {
		var up []childRef
		for i := 0; i < len(level); i += fanout {
			end := i + fanout
			if end > len(level) {
				end = len(level)
			}
			n := f.alloc()
			f.writePage(n, objid, pageFlagParent|extra, 0, 0, branchEntries(level[i:end], false))
			up = append(up, childRef{page: n, last: level[end-1].last})
		}
		level = up
	}
	f.writePage(root, objid, pageFlagRoot|pageFlagParent|extra, 0, 0, branchEntries(level, true))
}

//branchEntries separate children by their last key, the root's final entry has an empty key
func branchEntries(children []childRef, root bool) []kv {
	var r []kv
	for i, c := range children {
		key := c.last
		if root && i == len(children)-1 {
			key = nil
		}
		r = append(r, kv{key: key, data: le32(c.page)})
	}
	return r
}

func catalogKey(objid uint32, typ uint16, id uint32) []byte {
	k := be32(objid)
	k = append(k, byte(typ>>8), byte(typ))
	return append(k, be32(id)...)
}

func (f *fixture) catalogRow(objid uint32, typ uint16, id, coltypOrFDP, space, flags, pagesOrLocale uint32, name, template string) kv {
	vals := map[uint32]fv{
		1:   {data: le32(objid)},
		2:   {data: le16(typ)},
		3:   {data: le32(id)},
		4:   {data: le32(coltypOrFDP)},
		5:   {data: le32(space)},
		6:   {data: le32(flags)},
		7:   {data: le32(pagesOrLocale)},
		128: ascii(name),
	}
	if typ == catalogTypeTable {
		vals[8] = fv{data: []byte{1}}
	}
	if template != "" {
		vals[130] = ascii(template)
	}
	return kv{key: catalogKey(objid, typ, id), data: encodeRecord(catalogColumns, vals, f.large(), f.linear())}
}

//build lays out every page and returns the file image
func (f *fixture) build() []byte {
	f.pages = map[uint32][]byte{}
	f.next = 30
	var rows []kv
	for _, ft := range f.tables {
		ft.root = f.alloc()
		rows = append(rows, f.catalogRow(ft.objid, catalogTypeTable, ft.objid, ft.root, 0, 0, 0, ft.name, ft.template))
		for _, c := range ft.columns {
			rows = append(rows, f.catalogRow(ft.objid, catalogTypeColumn, c.id, uint32(c.typ), c.size, c.flags, c.codePage, c.name, ""))
		}
		if len(ft.lvs) > 0 {
			lvObjid := f.objid
			f.objid++
			ft.lvRoot = f.alloc()
			rows = append(rows, f.catalogRow(ft.objid, catalogTypeLongValue, lvObjid, ft.lvRoot, 0, 0, 0, "LV", ""))
			f.buildTree(lvObjid, ft.lvRoot, append([]kv(nil), ft.lvs...), 3, 0, pageFlagLongValue)
		}
		rows = append(rows, f.catalogRow(ft.objid, catalogTypeIndex, f.objid, 0, 0, 0, 0, ft.name+"_pk", ""))
		f.objid++
		f.buildTree(ft.objid, ft.root, append([]kv(nil), ft.records...), ft.perLeaf, ft.fanout, 0)
	}
	f.buildTree(catalogFDP, catalogPageNumber, append([]kv(nil), rows...), f.catalogPerLeaf, 0, 0)
	f.buildTree(catalogBackupFDP, catalogBackupPageNumber, append([]kv(nil), rows...), f.catalogPerLeaf, 0, 0)
	for n, d := range f.raw {
		f.pages[n] = d
	}

	last := uint32(0)
	for n := range f.pages {
		if n > last {
			last = n
		}
	}
	out := make([]byte, (int(last)+2)*f.pageSize)
	h := f.header()
	h.Signature = headerSignature
	h.FileType = FileTypeDatabase
	h.DBState = DBStateCleanShutdown
	if f.dirty {
		h.DBState = DBStateDirtyShutdown
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &h)
	hb := buf.Bytes()
	binary.LittleEndian.PutUint32(hb, xor32(hb[4:], checksumSeed))
	copy(out, hb)
	copy(out[f.pageSize:], hb)
	for n, d := range f.pages {
		copy(out[(int(n)+1)*f.pageSize:], d)
	}
	return out
}

func pageOffset(f *fixture, n uint32) int { return (int(n) + 1) * f.pageSize }

func openBytes(t *testing.T, data []byte, opts *Options) *Database {
	t.Helper()
	db, err := tryOpenBytes(data, opts)
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func tryOpenBytes(data []byte, opts *Options) (*Database, error) {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return OpenReader(bytes.NewReader(data), int64(len(data)), &o)
}

//simpleFixture is the two row table T{id Long, name Text}
func simpleFixture() *fixture {
	f := newFixture()
	ft := f.addTable("T", []*Column{
		{name: "id", id: 1, typ: ColumnTypeLong},
		{name: "name", id: 128, typ: ColumnTypeText, size: 255, codePage: CodePageWestern},
	})
	f.record(ft, be32(1), map[uint32]fv{1: i32(1), 128: ascii("alice")})
	f.record(ft, be32(2), map[uint32]fv{1: i32(2), 128: ascii("bob")})
	return f
}
