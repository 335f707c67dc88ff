package esent

import (
	"encoding/binary"
)

const (
	pageHeaderSize         = 40
	extendedPageHeaderSize = 40
)

type pageTag struct {
	flags  uint16
	offset int //relative to the end of the page header
	size   int
}

type page struct {
	number uint32
	data   []byte
	header pageHeader
	tags   []pageTag
	large  bool
}

func (p *page) isLeaf() bool   { return p.header.PageFlags&pageFlagLeaf != 0 }
func (p *page) isParent() bool { return p.header.PageFlags&pageFlagParent != 0 }
func (p *page) isRoot() bool   { return p.header.PageFlags&pageFlagRoot != 0 }

func (p *page) objectID() uint32 { return p.header.FatherDataPageObjectID }

//parsePage decodes the header and tag array of raw page data. The page number is the one the
//caller asked for, checksums and self references are compared against it.
func parsePage(h *Header, number uint32, data []byte, verify bool) (*page, error) {
	p := &page{number: number, data: data, large: h.largePage()}
	if len(data) < pageHeaderSize {
		return nil, corruptf("read", number, "short page of %d bytes", len(data))
	}
	ph := &p.header
	ph.Len = pageHeaderSize
	ph.XORChecksum = binary.LittleEndian.Uint32(data[0:])
	ph.LastModificationTime = binary.LittleEndian.Uint64(data[8:])
	ph.PreviousPageNumber = binary.LittleEndian.Uint32(data[16:])
	ph.NextPageNumber = binary.LittleEndian.Uint32(data[20:])
	ph.FatherDataPageObjectID = binary.LittleEndian.Uint32(data[24:])
	ph.AvailableDataSize = binary.LittleEndian.Uint16(data[28:])
	ph.AvailableUncommittedSize = binary.LittleEndian.Uint16(data[30:])
	ph.FirstAvailableDataOffset = binary.LittleEndian.Uint16(data[32:])
	ph.FirstAvailablePageTag = binary.LittleEndian.Uint16(data[34:])
	ph.PageFlags = binary.LittleEndian.Uint32(data[36:])

	//an all zero start means the page was allocated but never written
	if binary.LittleEndian.Uint64(data[0:]) == 0 {
		return nil, corruptf("read", number, "uninitialized page")
	}

	switch {
	case h.extendedPageHeader():
		if len(data) < pageHeaderSize+extendedPageHeaderSize {
			return nil, corruptf("read", number, "short extended page")
		}
		ph.Len += extendedPageHeaderSize
		ext := data[pageHeaderSize:]
		ph.ExtendedCheckSum1 = binary.LittleEndian.Uint64(ext[0:])
		ph.ExtendedCheckSum2 = binary.LittleEndian.Uint64(ext[8:])
		ph.ExtendedCheckSum3 = binary.LittleEndian.Uint64(ext[16:])
		ph.ExtendedPageNumber = binary.LittleEndian.Uint64(ext[24:])
		ph.PageNumber = uint32(ph.ExtendedPageNumber)
		if verify && ph.ExtendedPageNumber != uint64(number) {
			return nil, corruptf("read", number, "page claims to be %d", ph.ExtendedPageNumber)
		}
	case h.newRecordFormat() && ph.PageFlags&pageFlagNewRecordFormat != 0:
		ph.ECCChecksum = binary.LittleEndian.Uint32(data[4:])
		ph.PageNumber = number
		if verify {
			//the page number seeds the checksum, a misplaced page fails here
			ecc, xor := ecc32(data, 8, number)
			if xor != ph.XORChecksum || ecc != ph.ECCChecksum {
				return nil, corruptf("read", number, "checksum mismatch")
			}
		}
	default:
		ph.PageNumber = binary.LittleEndian.Uint32(data[4:])
		if verify {
			if c := xor32(data[4:], checksumSeed); c != ph.XORChecksum {
				return nil, corruptf("read", number, "checksum mismatch 0x%08x != 0x%08x", ph.XORChecksum, c)
			}
			if ph.PageNumber != number {
				return nil, corruptf("read", number, "page claims to be %d", ph.PageNumber)
			}
		}
	}

	if err := p.readTags(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *page) readTags() error {
	n := int(p.header.FirstAvailablePageTag)
	valuesSize := len(p.data) - p.header.Len - 4*n
	if valuesSize < 0 {
		return corruptf("read", p.number, "%d tags do not fit the page", n)
	}
	p.tags = make([]pageTag, n)
	for i := 0; i < n; i++ {
		at := len(p.data) - 4*(i+1)
		size := binary.LittleEndian.Uint16(p.data[at:])
		offset := binary.LittleEndian.Uint16(p.data[at+2:])
		t := pageTag{}
		if p.large {
			t.offset = int(offset & 0x7fff)
			t.size = int(size & 0x7fff)
		} else {
			t.flags = offset >> 13
			t.offset = int(offset & 0x1fff)
			t.size = int(size & 0x1fff)
		}
		if t.offset+t.size > valuesSize {
			return corruptf("read", p.number, "tag %d (offset %d size %d) outside the value area", i, t.offset, t.size)
		}
		//large pages keep the flags in the top bits of the value itself
		if p.large && i > 0 && t.size >= 2 {
			t.flags = uint16(p.data[p.header.Len+t.offset+1] >> 5)
		}
		p.tags[i] = t
	}
	return nil
}

//tagData returns the raw bytes of tag i
func (p *page) tagData(i int) []byte {
	t := p.tags[i]
	start := p.header.Len + t.offset
	return p.data[start : start+t.size]
}

//commonKey is the prefix shared by keys on non-root pages, stored in tag 0
func (p *page) commonKey() []byte {
	if len(p.tags) == 0 {
		return nil
	}
	return p.tagData(0)
}

//rootHeader decodes tag 0 of a root page
func (p *page) rootHeader() (rootHeader, error) {
	r := rootHeader{}
	if len(p.tags) == 0 {
		return r, corruptf("root header", p.number, "no tags on root page")
	}
	d := p.tagData(0)
	switch len(d) {
	case 16:
		r.InitialPages = binary.LittleEndian.Uint32(d[0:])
		r.ParentFDP = binary.LittleEndian.Uint32(d[4:])
		r.ExtentSpace = binary.LittleEndian.Uint32(d[8:])
		r.SpaceTreePageNumber = binary.LittleEndian.Uint32(d[12:])
	case 25:
		//extended form with an extra byte after the initial page count
		r.InitialPages = binary.LittleEndian.Uint32(d[0:])
		r.ParentFDP = binary.LittleEndian.Uint32(d[5:])
		r.ExtentSpace = binary.LittleEndian.Uint32(d[9:])
		r.SpaceTreePageNumber = binary.LittleEndian.Uint32(d[13:])
	default:
		return r, corruptf("root header", p.number, "unsupported root header size %d", len(d))
	}
	return r, nil
}

//treeEntry is a decoded page value: the full key and the payload
type treeEntry struct {
	flags uint16
	key   []byte
	data  []byte
}

//entry decodes tag i (i > 0) as a tree entry
func (p *page) entry(i int) (treeEntry, error) {
	t := p.tags[i]
	d := p.tagData(i)
	e := treeEntry{flags: t.flags}
	mask := uint16(0xffff)
	if p.large {
		mask = 0x1fff
	}
	cks := 0
	if t.flags&tagFlagCommonKey != 0 {
		if len(d) < 2 {
			return e, corruptf("entry", p.number, "tag %d too short for common key size", i)
		}
		cks = int(binary.LittleEndian.Uint16(d) & mask)
		d = d[2:]
		mask = 0xffff
	}
	if len(d) < 2 {
		return e, corruptf("entry", p.number, "tag %d too short for key size", i)
	}
	lks := int(binary.LittleEndian.Uint16(d) & mask)
	d = d[2:]
	if lks > len(d) {
		return e, corruptf("entry", p.number, "tag %d local key of %d bytes overruns value", i, lks)
	}
	if cks > 0 {
		prefix := p.commonKey()
		if cks > len(prefix) {
			return e, corruptf("entry", p.number, "tag %d common key of %d bytes not available", i, cks)
		}
		e.key = make([]byte, 0, cks+lks)
		e.key = append(e.key, prefix[:cks]...)
		e.key = append(e.key, d[:lks]...)
	} else {
		e.key = d[:lks]
	}
	e.data = d[lks:]
	return e, nil
}

//entryCount is the number of live entries on the page
func (p *page) entryCount() int {
	c := 0
	for i := 1; i < len(p.tags); i++ {
		if p.tags[i].flags&tagFlagDefunct == 0 {
			c++
		}
	}
	return c
}

//liveTag maps the n-th live entry to its tag index
func (p *page) liveTag(n int) int {
	for i := 1; i < len(p.tags); i++ {
		if p.tags[i].flags&tagFlagDefunct != 0 {
			continue
		}
		if n == 0 {
			return i
		}
		n--
	}
	return -1
}
