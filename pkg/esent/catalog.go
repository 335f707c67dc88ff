package esent

import (
	"sort"
	"sync"

	"github.com/google/btree"
	"go.uber.org/zap"
)

//the fixed schema of the catalog table itself
var catalogColumns = layoutColumns([]*Column{
	{name: "ObjidTable", id: 1, typ: ColumnTypeLong, size: 4},
	{name: "Type", id: 2, typ: ColumnTypeShort, size: 2},
	{name: "Id", id: 3, typ: ColumnTypeLong, size: 4},
	{name: "ColtypOrPgnoFDP", id: 4, typ: ColumnTypeLong, size: 4},
	{name: "SpaceUsage", id: 5, typ: ColumnTypeLong, size: 4},
	{name: "Flags", id: 6, typ: ColumnTypeLong, size: 4},
	{name: "PagesOrLocale", id: 7, typ: ColumnTypeLong, size: 4},
	{name: "RootFlag", id: 8, typ: ColumnTypeBit, size: 1},
	{name: "RecordOffset", id: 9, typ: ColumnTypeShort, size: 2},
	{name: "LCMapFlags", id: 10, typ: ColumnTypeLong, size: 4},
	{name: "KeyMost", id: 11, typ: ColumnTypeUnsignedShort, size: 2},
	{name: "Name", id: 128, typ: ColumnTypeText, size: 255, codePage: CodePageWestern},
	{name: "Stats", id: 129, typ: ColumnTypeBinary, size: 255},
	{name: "TemplateTable", id: 130, typ: ColumnTypeText, size: 255, codePage: CodePageWestern},
	{name: "DefaultValue", id: 131, typ: ColumnTypeBinary, size: 255},
	{name: "KeyFldIDs", id: 132, typ: ColumnTypeBinary, size: 255},
	{name: "VarSegMac", id: 133, typ: ColumnTypeBinary, size: 255},
	{name: "ConditionalColumns", id: 134, typ: ColumnTypeBinary, size: 255},
	{name: "TupleLimits", id: 135, typ: ColumnTypeBinary, size: 255},
	{name: "Version", id: 136, typ: ColumnTypeBinary, size: 255},
	{name: "SortID", id: 137, typ: ColumnTypeBinary, size: 255},
	{name: "CallbackData", id: 256, typ: ColumnTypeLongBinary},
	{name: "CallbackDependencies", id: 257, typ: ColumnTypeLongBinary},
	{name: "SeparateLV", id: 258, typ: ColumnTypeLongBinary},
	{name: "SpaceHints", id: 259, typ: ColumnTypeLongBinary},
	{name: "SpaceDeferredLVHints", id: 260, typ: ColumnTypeLongBinary},
	{name: "LocaleName", id: 261, typ: ColumnTypeLongText, codePage: CodePageUnicode},
})

//positions in catalogColumns
const (
	catObjidTable = iota
	catType
	catID
	catColtypOrFDP
	catSpaceUsage
	catFlags
	catPagesOrLocale
	catRootFlag
	catRecordOffset
	catLCMapFlags
	catKeyMost
	catName
	catStats
	catTemplateTable
)

//layoutColumns orders columns by identifier and works out the offset of each fixed column
func layoutColumns(cols []*Column) []*Column {
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].id < cols[j].id })
	off := 4
	for _, c := range cols {
		if c.Storage() == StorageFixed {
			c.offset = off
			off += int(c.size)
		}
	}
	return cols
}

//catalogEntry is one row of the catalog
type catalogEntry struct {
	objidTable    uint32
	typ           uint16
	id            uint32
	coltypOrFDP   uint32
	spaceUsage    uint32
	flags         uint32
	pagesOrLocale uint32
	name          string
	template      string
}

func readCatalogEntry(h *Header, p *page, data []byte, log *zap.Logger) (catalogEntry, error) {
	ce := catalogEntry{}
	l, err := parseRecordLayout(h, catalogColumns, data, p.number)
	if err != nil {
		return ce, err
	}
	get := func(i int) (Value, error) {
		rv, err := l.column(catalogColumns[i])
		if err != nil {
			return Value{}, err
		}
		return inlineValue(catalogColumns[i], rv, log)
	}
	u32 := func(i int, dst *uint32) error {
		v, err := get(i)
		if err != nil || v.IsNull() {
			return err
		}
		n, err := v.Int32()
		*dst = uint32(n)
		return err
	}
	for _, f := range []struct {
		i   int
		dst *uint32
	}{
		{catObjidTable, &ce.objidTable},
		{catID, &ce.id},
		{catColtypOrFDP, &ce.coltypOrFDP},
		{catSpaceUsage, &ce.spaceUsage},
		{catFlags, &ce.flags},
		{catPagesOrLocale, &ce.pagesOrLocale},
	} {
		if err := u32(f.i, f.dst); err != nil {
			return ce, err
		}
	}
	v, err := get(catType)
	if err != nil {
		return ce, err
	}
	if !v.IsNull() {
		t, _ := v.Int16()
		ce.typ = uint16(t)
	}
	if v, err = get(catName); err != nil {
		return ce, err
	}
	ce.name, _ = v.Text()
	if v, err = get(catTemplateTable); err != nil {
		return ce, err
	}
	ce.template, _ = v.Text()
	return ce, nil
}

//Index is a secondary index definition. Indexes are listed for completeness, lookups through
//them are not supported.
type Index struct {
	name     string
	objectID uint32
	root     uint32
	flags    uint32
}

//Name of the index
func (i *Index) Name() string { return i.name }

//ObjectID of the index tree
func (i *Index) ObjectID() uint32 { return i.objectID }

//RootPage of the index tree
func (i *Index) RootPage() uint32 { return i.root }

//Flags are the JET_bitIndex* flags
func (i *Index) Flags() uint32 { return i.flags }

//tableInfo is the resolved catalog definition of a table. It is immutable once the catalog is
//loaded, except for the lazily built leaf index.
type tableInfo struct {
	name     string
	objectID uint32
	root     uint32
	lvRoot   uint32
	template string
	flags    uint32
	own      []*Column
	columns  []*Column
	byName   map[string]int
	indexes  []*Index

	spansOnce sync.Once
	spans     []leafSpan
	spansErr  error
}

func (t *tableInfo) Less(than btree.Item) bool {
	return t.objectID < than.(*tableInfo).objectID
}

type catalog struct {
	tables  []*tableInfo
	byName  map[string]*tableInfo
	byObjid *btree.BTree
}

func (c *catalog) table(objid uint32) *tableInfo {
	it := c.byObjid.Get(&tableInfo{objectID: objid})
	if it == nil {
		return nil
	}
	return it.(*tableInfo)
}

func (c *catalog) add(ti *tableInfo, log *zap.Logger) {
	if _, dup := c.byName[ti.name]; dup {
		log.Warn("duplicate table name in catalog", zap.String("table", ti.name), zap.Uint32("objid", ti.objectID))
		return
	}
	if c.byObjid.Has(ti) {
		log.Warn("duplicate table object id in catalog", zap.String("table", ti.name), zap.Uint32("objid", ti.objectID))
		return
	}
	c.tables = append(c.tables, ti)
	c.byName[ti.name] = ti
	c.byObjid.ReplaceOrInsert(ti)
}

//loadCatalog reads every catalog row and groups columns, indexes and long value trees under
//their table
func loadCatalog(db *Database, root uint32) (*catalog, error) {
	tr, err := db.openTree(root)
	if err != nil {
		return nil, err
	}
	cat := &catalog{byName: map[string]*tableInfo{}, byObjid: btree.New(8)}
	log := db.log
	rows := 0
	err = tr.walk(func(p *page, tag int, e treeEntry) (bool, error) {
		ce, err := readCatalogEntry(db.header, p, e.data, log)
		if err != nil {
			return false, err
		}
		rows++
		if ce.typ == catalogTypeTable {
			cat.add(&tableInfo{
				name:     ce.name,
				objectID: ce.objidTable,
				root:     ce.coltypOrFDP,
				template: ce.template,
				flags:    ce.flags,
			}, log)
			return true, nil
		}
		ti := cat.table(ce.objidTable)
		if ti == nil {
			log.Warn("catalog entry for unknown table", zap.String("name", ce.name), zap.Uint32("objid", ce.objidTable))
			return true, nil
		}
		switch ce.typ {
		case catalogTypeColumn:
			c := &Column{
				name:  ce.name,
				id:    ce.id,
				typ:   ColumnType(ce.coltypOrFDP),
				size:  ce.spaceUsage,
				flags: ce.flags,
			}
			if c.typ.IsText() {
				c.codePage = ce.pagesOrLocale
				if !KnownCodePage(c.codePage) {
					log.Warn("unsupported codepage, decoding as 1252", zap.String("table", ti.name), zap.String("column", c.name), zap.Uint32("codepage", c.codePage))
				}
			}
			if w := c.typ.Width(); w > 0 {
				c.size = uint32(w)
			}
			ti.own = append(ti.own, c)
		case catalogTypeIndex:
			ti.indexes = append(ti.indexes, &Index{name: ce.name, objectID: ce.id, root: ce.coltypOrFDP, flags: ce.flags})
		case catalogTypeLongValue:
			ti.lvRoot = ce.coltypOrFDP
		case catalogTypeCallback:
		default:
			log.Warn("unknown catalog entry type", zap.Uint16("type", ce.typ), zap.String("name", ce.name))
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	for _, ti := range cat.tables {
		var cols []*Column
		if ti.template != "" {
			tmpl, ok := cat.byName[ti.template]
			if !ok {
				log.Warn("template table not found", zap.String("table", ti.name), zap.String("template", ti.template))
			} else {
				for _, c := range tmpl.own {
					cc := *c
					cc.template = true
					cols = append(cols, &cc)
				}
			}
		}
		for _, c := range ti.own {
			cc := *c
			cols = append(cols, &cc)
		}
		ti.columns = layoutColumns(cols)
		ti.byName = make(map[string]int, len(cols))
		for i, c := range ti.columns {
			if _, dup := ti.byName[c.name]; dup {
				return nil, corruptf("catalog", root, "table %s has two columns named %s", ti.name, c.name)
			}
			ti.byName[c.name] = i
		}
	}
	log.Debug("loaded catalog", zap.Int("rows", rows), zap.Int("tables", len(cat.tables)))
	return cat, nil
}
