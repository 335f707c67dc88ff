package esent

import (
	"encoding/binary"
	"math/bits"
)

//xor32 folds little endian words of b into seed. Trailing bytes that don't fill a word are
//folded in as a partial word.
func xor32(b []byte, seed uint32) uint32 {
	r := seed
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

func parity32(v uint32) bool {
	return bits.OnesCount32(v)&1 == 1
}

//ecc32 computes the ECC and XOR checksums used by pages in the new record format.
//Words are read from offset onward; groups of four words are aligned to absolute 16 byte boundaries.
func ecc32(b []byte, offset int, seed uint32) (ecc uint32, xor uint32) {
	var vertical [4]uint32
	var group uint32
	bitmask := uint32(0xff800000)
	alignment := offset % 16

	for i := offset; i+4 <= len(b); i += 4 {
		v := binary.LittleEndian.Uint32(b[i:])
		vertical[alignment/4] ^= v
		group ^= v
		alignment += 4
		if alignment >= 16 {
			if parity32(group) {
				ecc ^= bitmask
			}
			bitmask -= 0x007fff80
			alignment = 0
			group = 0
		}
	}
	if group != 0 && parity32(group) {
		ecc ^= bitmask
	}

	if parity32(vertical[0] ^ vertical[1]) {
		ecc ^= 0x00400000
	}
	if parity32(vertical[0] ^ vertical[2]) {
		ecc ^= 0x00200000
	}
	if parity32(vertical[1] ^ vertical[3]) {
		ecc ^= 0x00000020
	}
	if parity32(vertical[2] ^ vertical[3]) {
		ecc ^= 0x00000040
	}

	all := vertical[0] ^ vertical[1] ^ vertical[2] ^ vertical[3]
	final := uint32(0)
	mask := uint32(0xffff0000)
	for bit := uint32(1); bit != 0; bit <<= 1 {
		if all&bit != 0 {
			final ^= mask
		}
		mask -= 0x0000ffff
	}

	if len(b) < 8192 {
		ecc &= ^(uint32(len(b)) << 19)
	}
	ecc ^= (ecc ^ final) & 0x001f001f
	return ecc, seed ^ all
}
