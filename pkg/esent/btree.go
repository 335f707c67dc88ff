package esent

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sort"
)

//tree is one B-tree of the file: the catalog, a table, an index or a long value store
type tree struct {
	db       *Database
	root     uint32
	objectID uint32
}

//leafSpan is a leaf page and the number of live entries before it in key order
type leafSpan struct {
	page  uint32
	first int
	count int
}

func (db *Database) openTree(root uint32) (*tree, error) {
	p, err := db.readPage(root)
	if err != nil {
		return nil, err
	}
	if !p.isRoot() {
		return nil, corruptf("open tree", root, "not a root page (flags 0x%x)", p.header.PageFlags)
	}
	t := &tree{db: db, root: root, objectID: p.objectID()}
	if err := t.checkPage(p); err != nil {
		return nil, err
	}
	return t, nil
}

//checkPage verifies that p can be a page of this tree
func (t *tree) checkPage(p *page) error {
	if p.objectID() != t.objectID {
		return corruptf("tree", p.number, "page belongs to object %d, tree is object %d", p.objectID(), t.objectID)
	}
	if p.isLeaf() == p.isParent() {
		return corruptf("tree", p.number, "page is neither a leaf nor a branch (flags 0x%x)", p.header.PageFlags)
	}
	if p.header.PageFlags&pageFlagEmpty != 0 {
		return corruptf("tree", p.number, "empty page linked into the tree")
	}
	return nil
}

func (t *tree) page(n uint32, depth int) (*page, error) {
	if depth > t.db.opts.MaxDepth {
		return nil, corruptf("tree", n, "depth exceeds %d", t.db.opts.MaxDepth)
	}
	p, err := t.db.readPage(n)
	if err != nil {
		return nil, err
	}
	if depth > 0 && p.isRoot() {
		return nil, corruptf("tree", n, "root page reached below the root")
	}
	if err := t.checkPage(p); err != nil {
		return nil, err
	}
	return p, nil
}

func childPage(p *page, e treeEntry) (uint32, error) {
	if len(e.data) < 4 {
		return 0, corruptf("tree", p.number, "branch entry without a child page")
	}
	return binary.LittleEndian.Uint32(e.data), nil
}

//visitFunc is called for leaf entries in key order, returning false stops the walk
type visitFunc func(p *page, tag int, e treeEntry) (bool, error)

//walk visits every live leaf entry in ascending key order
func (t *tree) walk(fn visitFunc) error {
	_, err := t.walkPage(t.root, 0, fn)
	return err
}

func (t *tree) walkPage(n uint32, depth int, fn visitFunc) (bool, error) {
	p, err := t.page(n, depth)
	if err != nil {
		return false, err
	}
	if p.isLeaf() {
		for i := 1; i < len(p.tags); i++ {
			if p.tags[i].flags&tagFlagDefunct != 0 {
				continue
			}
			e, err := p.entry(i)
			if err != nil {
				return false, err
			}
			more, err := fn(p, i, e)
			if err != nil || !more {
				return false, err
			}
		}
		return true, nil
	}
	return t.walkChildren(p, depth, func(child uint32) (bool, error) {
		return t.walkPage(child, depth+1, fn)
	})
}

//walkChildren calls fn for each child of branch page p, checking the children agree on being
//leaves or branches
func (t *tree) walkChildren(p *page, depth int, fn func(child uint32) (bool, error)) (bool, error) {
	leafLevel := -1
	for i := 1; i < len(p.tags); i++ {
		if p.tags[i].flags&tagFlagDefunct != 0 {
			continue
		}
		e, err := p.entry(i)
		if err != nil {
			return false, err
		}
		child, err := childPage(p, e)
		if err != nil {
			return false, err
		}
		c, err := t.page(child, depth+1)
		if err != nil {
			return false, err
		}
		isLeaf := 0
		if c.isLeaf() {
			isLeaf = 1
		}
		if leafLevel >= 0 && leafLevel != isLeaf {
			return false, corruptf("tree", child, "children of branch %d disagree on their level", p.number)
		}
		leafLevel = isLeaf
		more, err := fn(child)
		if err != nil || !more {
			return false, err
		}
	}
	return true, nil
}

//leafSpans lists the leaf pages in key order with their entry counts
func (t *tree) leafSpans() ([]leafSpan, error) {
	var spans []leafSpan
	total := 0
	var visit func(n uint32, depth int) (bool, error)
	visit = func(n uint32, depth int) (bool, error) {
		p, err := t.page(n, depth)
		if err != nil {
			return false, err
		}
		if p.isLeaf() {
			c := p.entryCount()
			if c > 0 {
				spans = append(spans, leafSpan{page: n, first: total, count: c})
				total += c
			}
			return true, nil
		}
		return t.walkChildren(p, depth, func(child uint32) (bool, error) {
			return visit(child, depth+1)
		})
	}
	if _, err := visit(t.root, 0); err != nil {
		return nil, err
	}
	return spans, nil
}

func spansTotal(spans []leafSpan) int {
	if len(spans) == 0 {
		return 0
	}
	last := spans[len(spans)-1]
	return last.first + last.count
}

//nth returns the i-th leaf entry given the spans of this tree
func (t *tree) nth(spans []leafSpan, i int) (*page, treeEntry, error) {
	n := spansTotal(spans)
	if i < 0 || i >= n {
		return nil, treeEntry{}, outOfRange("entry", i, n)
	}
	s := sort.Search(len(spans), func(j int) bool { return spans[j].first+spans[j].count > i })
	span := spans[s]
	p, err := t.db.readPage(span.page)
	if err != nil {
		return nil, treeEntry{}, err
	}
	tag := p.liveTag(i - span.first)
	if tag < 0 {
		return nil, treeEntry{}, corruptf("tree", span.page, "entry %d vanished from leaf", i-span.first)
	}
	e, err := p.entry(tag)
	return p, e, err
}

//lookup finds the leaf entry with exactly key
func (t *tree) lookup(key []byte) (treeEntry, error) {
	return t.lookupIn(t.root, key, 0)
}

func (t *tree) lookupIn(n uint32, key []byte, depth int) (treeEntry, error) {
	p, err := t.page(n, depth)
	if err != nil {
		return treeEntry{}, err
	}
	if p.isLeaf() {
		for i := 1; i < len(p.tags); i++ {
			if p.tags[i].flags&tagFlagDefunct != 0 {
				continue
			}
			e, err := p.entry(i)
			if err != nil {
				return treeEntry{}, err
			}
			switch c := bytes.Compare(e.key, key); {
			case c == 0:
				return e, nil
			case c > 0:
				return treeEntry{}, notFound("lookup", "key not in tree")
			}
		}
		return treeEntry{}, notFound("lookup", "key not in tree")
	}

	last := 0
	for i := 1; i < len(p.tags); i++ {
		if p.tags[i].flags&tagFlagDefunct == 0 {
			last = i
		}
	}
	for i := 1; i <= last; i++ {
		if p.tags[i].flags&tagFlagDefunct != 0 {
			continue
		}
		e, err := p.entry(i)
		if err != nil {
			return treeEntry{}, err
		}
		//the last branch has no upper bound
		c := bytes.Compare(key, e.key)
		if i != last && c > 0 {
			continue
		}
		child, err := childPage(p, e)
		if err != nil {
			return treeEntry{}, err
		}
		r, err := t.lookupIn(child, key, depth+1)
		//a key equal to the separator may live at the start of the next subtree
		if err != nil && errors.Is(err, ErrNotFound) && c == 0 && i != last {
			continue
		}
		return r, err
	}
	return treeEntry{}, notFound("lookup", "key not in tree")
}
