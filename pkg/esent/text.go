package esent

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

//single byte codepages x/text knows about
var charmaps = map[uint32]*charmap.Charmap{
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	855:   charmap.CodePage855,
	858:   charmap.CodePage858,
	860:   charmap.CodePage860,
	862:   charmap.CodePage862,
	863:   charmap.CodePage863,
	865:   charmap.CodePage865,
	866:   charmap.CodePage866,
	874:   charmap.Windows874,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	20866: charmap.KOI8R,
	21866: charmap.KOI8U,
	28591: charmap.ISO8859_1,
	28592: charmap.ISO8859_2,
	28595: charmap.ISO8859_5,
	28597: charmap.ISO8859_7,
	28605: charmap.ISO8859_15,
}

//KnownCodePage reports whether text in cp can be decoded without falling back to cp1252
func KnownCodePage(cp uint32) bool {
	switch cp {
	case 0, CodePageUnicode, CodePageASCII, CodePageUTF8:
		return true
	}
	_, ok := charmaps[cp]
	return ok
}

func decoderFor(cp uint32) *encoding.Decoder {
	if cp == CodePageUnicode {
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	}
	if m, ok := charmaps[cp]; ok {
		return m.NewDecoder()
	}
	return charmap.Windows1252.NewDecoder()
}

//decodeText turns stored text into a Go string. lossy is set when bytes had to be replaced.
//Trailing NUL terminators are dropped.
func decodeText(b []byte, cp uint32) (s string, lossy bool) {
	switch cp {
	case CodePageUnicode:
		//1200 columns are also used for plain single byte strings, which have no reason to be even sized
		if len(b)%2 != 0 {
			cp = CodePageWestern
		}
	case 0:
		cp = CodePageWestern
	}

	switch cp {
	case CodePageASCII:
		var sb strings.Builder
		for _, c := range b {
			if c >= 0x80 {
				sb.WriteRune(utf8.RuneError)
				lossy = true
				continue
			}
			sb.WriteByte(c)
		}
		s = sb.String()
	case CodePageUTF8:
		s = string(b)
		if !utf8.ValidString(s) {
			s = strings.ToValidUTF8(s, string(utf8.RuneError))
			lossy = true
		}
	default:
		out, err := decoderFor(cp).Bytes(b)
		if err != nil {
			//x/text decoders substitute rather than fail, keep whatever made it through
			lossy = true
		}
		s = string(out)
		if cp == CodePageUnicode && strings.ContainsRune(s, utf8.RuneError) {
			lossy = true
		}
	}
	return strings.TrimRight(s, "\x00"), lossy
}
