package esent

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

var headerLen = binary.Size(Header{})

func validPageSize(s uint32) bool {
	switch s {
	case 2048, 4096, 8192, 16384, 32768:
		return true
	}
	return false
}

func readHeaderAt(r io.ReaderAt, off int64, verify bool) (*Header, error) {
	data := make([]byte, headerLen)
	if n, err := r.ReadAt(data, off); n != len(data) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, ioError("read header", 0, err)
	}
	h := &Header{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, h); err != nil {
		return nil, ioError("read header", 0, err)
	}
	if h.Signature != headerSignature {
		return nil, corruptf("read header", 0, "bad signature 0x%08x at offset %d", h.Signature, off)
	}
	//dirty databases are allowed to carry a stale checksum
	if verify && h.DBState != DBStateDirtyShutdown {
		if c := xor32(data[4:], checksumSeed); c != h.CheckSum {
			return nil, corruptf("read header", 0, "checksum mismatch 0x%08x != 0x%08x", h.CheckSum, c)
		}
	}
	if !validPageSize(h.PageSize) {
		return nil, corruptf("read header", 0, "unsupported page size %d", h.PageSize)
	}
	return h, nil
}

//ReadHeader decodes the file header. When the primary copy is damaged the shadow copy
//one page in is used instead.
func ReadHeader(r io.ReaderAt, verify bool) (*Header, error) {
	h, err := readHeaderAt(r, 0, verify)
	if err == nil {
		return h, nil
	}
	//the page size of a damaged header can't be trusted, so try each possible shadow offset
	for off := int64(0x800); off <= 0x8000; off <<= 1 {
		if shadow, serr := readHeaderAt(r, off, verify); serr == nil && int64(shadow.PageSize) == off {
			return shadow, nil
		}
	}
	return nil, err
}

func (h *Header) String() string {
	return fmt.Sprintf("format 0x%x revision 0x%x, page size %d, state %d", h.FormatVersion, h.FormatRevision, h.PageSize, h.DBState)
}

//newRecordFormat is true for revisions that may carry ECC page checksums and the wider record layout
func (h *Header) newRecordFormat() bool {
	return h.FormatRevision >= revisionNewRecordFormat
}

func (h *Header) extendedPageHeader() bool {
	return h.FormatRevision >= revisionExtendedHeader && h.PageSize >= 16384
}

func (h *Header) largePage() bool {
	return h.PageSize >= 16384
}

//linearTagged reports the early tagged column layout without a tag directory
func (h *Header) linearTagged() bool {
	return h.FormatVersion == formatVersion && h.FormatRevision <= revisionLinearTaggedLast
}
