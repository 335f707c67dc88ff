package esent

import (
	"encoding/binary"
	"errors"
	"io"
)

//LongValue is a value stored out of line in the table's long value tree, split into segments
//keyed by their byte offset. The segments are only read when the data is asked for.
type LongValue struct {
	tree *tree
	id   uint32
	size uint32
	refs uint32
}

func lvKey(id uint32) []byte {
	k := make([]byte, 4)
	binary.BigEndian.PutUint32(k, id)
	return k
}

func lvSegmentKey(id, offset uint32) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint32(k, id)
	binary.BigEndian.PutUint32(k[4:], offset)
	return k
}

func openLongValue(tr *tree, id uint32) (*LongValue, error) {
	e, err := tr.lookup(lvKey(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, corruptf("long value", tr.root, "long value %d referenced but missing", id)
		}
		return nil, err
	}
	if len(e.data) != 8 {
		return nil, corruptf("long value", tr.root, "long value %d header of %d bytes", id, len(e.data))
	}
	return &LongValue{
		tree: tr,
		id:   id,
		refs: binary.LittleEndian.Uint32(e.data),
		size: binary.LittleEndian.Uint32(e.data[4:]),
	}, nil
}

//ID is the long value identifier stored in the record
func (lv *LongValue) ID() uint32 { return lv.id }

//Size is the declared total length in bytes
func (lv *LongValue) Size() int64 { return int64(lv.size) }

//RefCount is the number of records sharing this long value
func (lv *LongValue) RefCount() uint32 { return lv.refs }

func (lv *LongValue) segment(offset uint32) ([]byte, error) {
	e, err := lv.tree.lookup(lvSegmentKey(lv.id, offset))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, corruptf("long value", lv.tree.root, "long value %d has no segment at %d of %d", lv.id, offset, lv.size)
		}
		return nil, err
	}
	if len(e.data) == 0 {
		return nil, corruptf("long value", lv.tree.root, "long value %d has an empty segment at %d", lv.id, offset)
	}
	if uint64(offset)+uint64(len(e.data)) > uint64(lv.size) {
		return nil, corruptf("long value", lv.tree.root, "long value %d segment at %d overruns size %d", lv.id, offset, lv.size)
	}
	return e.data, nil
}

//Bytes assembles the whole value. A declared size larger than the database itself is corrupt.
func (lv *LongValue) Bytes() ([]byte, error) {
	if int64(lv.size) > lv.tree.db.store.Size() {
		return nil, corruptf("long value", lv.tree.root, "long value %d declares %d bytes in a %d byte database", lv.id, lv.size, lv.tree.db.store.Size())
	}
	//grown per segment, the declared size is only a hint
	buf := make([]byte, 0)
	for uint32(len(buf)) < lv.size {
		seg, err := lv.segment(uint32(len(buf)))
		if err != nil {
			return nil, err
		}
		buf = append(buf, seg...)
	}
	return buf, nil
}

//Reader streams the value one segment at a time
func (lv *LongValue) Reader() io.Reader {
	return &lvReader{lv: lv}
}

type lvReader struct {
	lv     *LongValue
	offset uint32
	cur    []byte
	err    error
}

func (r *lvReader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if len(r.cur) == 0 {
		if r.offset >= r.lv.size {
			return 0, io.EOF
		}
		seg, err := r.lv.segment(r.offset)
		if err != nil {
			r.err = err
			return 0, err
		}
		r.cur = seg
		r.offset += uint32(len(seg))
	}
	n := copy(p, r.cur)
	r.cur = r.cur[n:]
	return n, nil
}
