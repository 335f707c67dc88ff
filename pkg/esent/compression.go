package esent

import (
	"encoding/binary"
	"errors"
	"fmt"
)

//leading byte of LZXPRESS compressed values
const compressionLZXpress = 0x18

//compressionScheme says what kind of bytes a decompressed value holds
type compressionScheme int

const (
	//single byte characters, whatever the column code page
	scheme7bitASCII compressionScheme = iota
	//UTF-16LE, widened from 7 bit characters
	scheme7bitUnicode
	//whatever was compressed, text is UTF-16LE when the length is even
	schemeLZXpress
)

func (s compressionScheme) String() string {
	switch s {
	case scheme7bitASCII:
		return "7bit ascii"
	case scheme7bitUnicode:
		return "7bit unicode"
	case schemeLZXpress:
		return "lzxpress"
	}
	return fmt.Sprintf("scheme(%d)", int(s))
}

//textCodePage is the code page decompressed text has to be read with
func (s compressionScheme) textCodePage(out []byte, cp uint32) uint32 {
	switch s {
	case scheme7bitASCII:
		return CodePageASCII
	case scheme7bitUnicode:
		return CodePageUnicode
	case schemeLZXpress:
		if len(out)%2 == 0 {
			return CodePageUnicode
		}
		return CodePageUTF8
	}
	return cp
}

//decompress expands a value stored with the compressed flag. The first byte identifies the scheme.
func decompress(b []byte) ([]byte, compressionScheme, error) {
	if len(b) < 1 {
		return nil, 0, errors.New("empty compressed value")
	}
	if b[0] == compressionLZXpress {
		out, err := decompressLZXpress(b)
		return out, schemeLZXpress, err
	}
	out, err := decompress7bit(b)
	if err != nil {
		return nil, 0, err
	}
	if b[0]&0x10 != 0 {
		return out, scheme7bitASCII, nil
	}
	wide := make([]byte, 2*len(out))
	for i, c := range out {
		wide[2*i] = c
	}
	return wide, scheme7bitUnicode, nil
}

//decompress7bit unpacks values stored as 7 bit characters, skipping the scheme byte
func decompress7bit(b []byte) ([]byte, error) {
	if len(b) < 1 {
		return nil, errors.New("empty compressed value")
	}
	out := make([]byte, 0, ((len(b)-1)*8)/7)
	var acc uint16
	bit := uint(0)
	for _, c := range b[1:] {
		acc |= uint16(c) << bit
		out = append(out, byte(acc&0x7f))
		acc >>= 7
		bit++
		if bit == 7 {
			out = append(out, byte(acc&0x7f))
			acc >>= 7
			bit = 0
		}
	}
	if acc != 0 {
		return nil, errors.New("trailing bits in compressed value")
	}
	return out, nil
}

//decompressLZXpress expands the plain LZ77 variant of XPRESS. The scheme byte is followed by the
//uncompressed size as a uint16, then the compressed stream.
func decompressLZXpress(b []byte) ([]byte, error) {
	if len(b) < 3 || b[0] != compressionLZXpress {
		return nil, errors.New("short lzxpress value")
	}
	size := int(binary.LittleEndian.Uint16(b[1:]))
	in := b[3:]
	out := make([]byte, 0, size)

	pos := 0
	lastHalf := 0
	var flags uint32
	flagCount := 0
	for len(out) < size {
		if flagCount == 0 {
			if pos+4 > len(in) {
				break
			}
			flags = binary.LittleEndian.Uint32(in[pos:])
			pos += 4
			flagCount = 32
		}
		flagCount--
		if flags&(1<<uint(flagCount)) == 0 {
			if pos >= len(in) {
				break
			}
			out = append(out, in[pos])
			pos++
			continue
		}
		if pos >= len(in) {
			break
		}
		if pos+2 > len(in) {
			return nil, errors.New("lzxpress match past end of input")
		}
		v := int(binary.LittleEndian.Uint16(in[pos:]))
		pos += 2
		length := v % 8
		offset := v/8 + 1
		if length == 7 {
			if lastHalf == 0 {
				if pos >= len(in) {
					return nil, errors.New("lzxpress length past end of input")
				}
				length = int(in[pos] & 0x0f)
				lastHalf = pos
				pos++
			} else {
				length = int(in[lastHalf] >> 4)
				lastHalf = 0
			}
			if length == 15 {
				if pos >= len(in) {
					return nil, errors.New("lzxpress length past end of input")
				}
				length = int(in[pos])
				pos++
				if length == 255 {
					if pos+2 > len(in) {
						return nil, errors.New("lzxpress length past end of input")
					}
					length = int(binary.LittleEndian.Uint16(in[pos:]))
					pos += 2
					if length == 0 {
						if pos+4 > len(in) {
							return nil, errors.New("lzxpress length past end of input")
						}
						length = int(binary.LittleEndian.Uint32(in[pos:]))
						pos += 4
					}
					if length < 22 {
						return nil, fmt.Errorf("lzxpress length %d too small", length)
					}
					length -= 22
				}
				length += 15
			}
			length += 7
		}
		length += 3
		if offset > len(out) {
			return nil, fmt.Errorf("lzxpress offset %d before start of output at %d", offset, len(out))
		}
		if length > size-len(out) {
			return nil, fmt.Errorf("lzxpress match of %d overruns %d bytes", length, size)
		}
		//matches may overlap the bytes they produce
		from := len(out) - offset
		for i := 0; i < length; i++ {
			out = append(out, out[from+i])
		}
	}
	if len(out) != size {
		return nil, fmt.Errorf("lzxpress produced %d of %d bytes", len(out), size)
	}
	return out, nil
}
