package esent

import "encoding/binary"

//rawValue is the stored form of one column in a record
type rawValue struct {
	data    []byte
	flags   uint8
	present bool
}

type taggedEntry struct {
	id    uint16
	value rawValue
}

//parseTagged reads the tagged column area once, on first use
func (r *recordLayout) parseTagged() error {
	if r.taggedDone {
		return r.taggedErr
	}
	r.taggedDone = true
	area := r.data[r.taggedStart:]
	if len(area) == 0 {
		return nil
	}
	if r.hdr.linearTagged() {
		r.tagged, r.taggedErr = r.parseLinearTagged(area)
	} else {
		r.tagged, r.taggedErr = r.parseTaggedDirectory(area)
	}
	return r.taggedErr
}

//parseTaggedDirectory reads the (id, offset) directory at the start of the tagged area. The
//first offset doubles as the directory size.
func (r *recordLayout) parseTaggedDirectory(area []byte) ([]taggedEntry, error) {
	large := r.hdr.extendedPageHeader()
	mask := uint16(0x3fff)
	if large {
		mask = 0x7fff
	}
	if len(area) < 4 {
		return nil, corruptf("tagged", r.page, "tagged area of %d bytes", len(area))
	}
	dirSize := int(binary.LittleEndian.Uint16(area[2:]) & mask)
	if dirSize < 4 || dirSize%4 != 0 || dirSize > len(area) {
		return nil, corruptf("tagged", r.page, "tagged directory size %d in %d bytes", dirSize, len(area))
	}
	n := dirSize / 4
	entries := make([]taggedEntry, 0, n)
	for i := 0; i < n; i++ {
		id := binary.LittleEndian.Uint16(area[4*i:])
		off := binary.LittleEndian.Uint16(area[4*i+2:])
		start := int(off & mask)
		end := len(area)
		if i+1 < n {
			end = int(binary.LittleEndian.Uint16(area[4*(i+1)+2:]) & mask)
		}
		if start < dirSize || start > end || end > len(area) {
			return nil, corruptf("tagged", r.page, "tagged column %d spans %d..%d of %d", id, start, end, len(area))
		}
		v := rawValue{present: true}
		if (large || off&0x4000 != 0) && end > start {
			v.flags = area[start]
			start++
		}
		v.data = area[start:end]
		entries = append(entries, taggedEntry{id: id, value: v})
	}
	return entries, nil
}

//parseLinearTagged reads the early layout of consecutive (id, size) headers each followed by
//its value
func (r *recordLayout) parseLinearTagged(area []byte) ([]taggedEntry, error) {
	var entries []taggedEntry
	pos := 0
	for pos+4 <= len(area) {
		id := binary.LittleEndian.Uint16(area[pos:])
		size := binary.LittleEndian.Uint16(area[pos+2:])
		pos += 4
		n := int(size & 0x5fff)
		v := rawValue{present: true}
		if size&0x8000 != 0 {
			if n == 0 || pos >= len(area) {
				return nil, corruptf("tagged", r.page, "tagged column %d missing its flags", id)
			}
			v.flags = area[pos]
			pos++
			n--
		}
		if pos+n > len(area) {
			return nil, corruptf("tagged", r.page, "tagged column %d of %d bytes overruns record", id, n)
		}
		v.data = area[pos : pos+n]
		pos += n
		entries = append(entries, taggedEntry{id: id, value: v})
	}
	if pos != len(area) {
		return nil, corruptf("tagged", r.page, "%d trailing bytes after tagged columns", len(area)-pos)
	}
	return entries, nil
}

func (r *recordLayout) taggedValue(id uint32) (rawValue, error) {
	if err := r.parseTagged(); err != nil {
		return rawValue{}, err
	}
	for _, t := range r.tagged {
		if uint32(t.id) == id {
			return t.value, nil
		}
	}
	return rawValue{}, nil
}
