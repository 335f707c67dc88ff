package esent

import (
	"io"

	"github.com/C-Sto/goesedb/pkg/logger"
	"github.com/C-Sto/goesedb/pkg/store"
	"go.uber.org/zap"
)

//Database is an open, read only ESE database. Tables, records and values derived from it must
//not be used after Close. A Database may be shared between goroutines for reading; the page
//cache and the lazily built record indexes are synchronised.
type Database struct {
	store     store.Store
	header    *Header
	opts      Options
	log       *zap.Logger
	cache     *pageCache
	pageCount uint32
	catalog   *catalog
}

//Open opens the database file at path
func Open(path string, opts *Options) (*Database, error) {
	o := opts.withDefaults()
	var s store.Store
	var err error
	if o.InMemory {
		s, err = store.Load(path)
	} else {
		s, err = store.Open(path, o.Mmap)
	}
	if err != nil {
		return nil, ioError("open", 0, err)
	}
	db, err := OpenStore(s, &o)
	if err != nil {
		s.Close()
		return nil, err
	}
	return db, nil
}

//OpenReader opens a database held by r, size is the total length in bytes
func OpenReader(r io.ReaderAt, size int64, opts *Options) (*Database, error) {
	return OpenStore(store.FromReaderAt(r, size), opts)
}

//OpenStore opens a database on an already opened backing store. The database takes ownership
//of s and closes it on Close.
func OpenStore(s store.Store, opts *Options) (*Database, error) {
	o := opts.withDefaults()
	db := &Database{store: s, opts: o, log: o.Logger}
	if db.log == nil {
		db.log = logger.Logger
	}
	h, err := ReadHeader(s, !o.SkipChecksums)
	if err != nil {
		return nil, err
	}
	db.header = h
	if n := s.Size()/int64(h.PageSize) - 2; n > 0 {
		db.pageCount = uint32(n)
	}
	if o.CacheSize > 0 {
		db.cache = newPageCache(o.CacheSize)
	}
	db.log.Debug("opened database",
		zap.Uint32("pagesize", h.PageSize),
		zap.Uint32("pages", db.pageCount),
		zap.Uint32("version", h.FormatVersion),
		zap.Uint32("revision", h.FormatRevision),
	)

	cat, err := loadCatalog(db, catalogPageNumber)
	if err != nil {
		//the backup catalog is a copy kept for exactly this case
		db.log.Warn("catalog unreadable, trying the backup copy", zap.Error(err))
		var berr error
		if cat, berr = loadCatalog(db, catalogBackupPageNumber); berr != nil {
			return nil, err
		}
	}
	db.catalog = cat
	return db, nil
}

//Close releases the backing store
func (db *Database) Close() error {
	db.cache.clear()
	return db.store.Close()
}

//Header is the decoded file header
func (db *Database) Header() *Header { return db.header }

//PageSize in bytes
func (db *Database) PageSize() uint32 { return db.header.PageSize }

//PageCount is the number of database pages, not counting the two header pages
func (db *Database) PageCount() uint32 { return db.pageCount }

//CacheStats reports page cache use
func (db *Database) CacheStats() CacheStats { return db.cache.stats() }

//readPage fetches and validates page n. Page n is stored one page past its number because
//of the header and its shadow.
func (db *Database) readPage(n uint32) (*page, error) {
	if n == 0 || n > db.pageCount {
		return nil, corruptf("read", n, "page outside 1..%d", db.pageCount)
	}
	if p, ok := db.cache.get(n); ok {
		return p, nil
	}
	ps := int64(db.header.PageSize)
	data := make([]byte, ps)
	if k, err := db.store.ReadAt(data, (int64(n)+1)*ps); k != len(data) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, ioError("read", n, err)
	}
	p, err := parsePage(db.header, n, data, !db.opts.SkipChecksums)
	if err != nil {
		return nil, err
	}
	db.cache.put(p)
	return p, nil
}

//TableCount is the number of tables in the catalog, the catalog's own entry included
func (db *Database) TableCount() int { return len(db.catalog.tables) }

//Table returns table i in catalog order
func (db *Database) Table(i int) (*Table, error) {
	if i < 0 || i >= len(db.catalog.tables) {
		return nil, outOfRange("table", i, len(db.catalog.tables))
	}
	return &Table{db: db, info: db.catalog.tables[i]}, nil
}

//TableByName finds a table by its exact, case sensitive name
func (db *Database) TableByName(name string) (*Table, error) {
	ti, ok := db.catalog.byName[name]
	if !ok {
		return nil, notFound("table", "no table named "+name)
	}
	return &Table{db: db, info: ti}, nil
}

//Tables iterates over the tables in catalog order
func (db *Database) Tables() *Cursor[*Table] {
	return newCursor(func() (int, error) { return db.TableCount(), nil }, db.Table)
}
