package esent

import (
	"go.uber.org/zap"
)

//decodeValue turns stored bytes into a Value of type t. Fixed width types must match their
//width exactly, text is decoded with cp and never fails.
func decodeValue(t ColumnType, cp uint32, b []byte, log *zap.Logger) (Value, error) {
	v := Value{typ: t}
	if w := t.Width(); w > 0 && len(b) != w {
		return v, corruptf("decode", 0, "%s value of %d bytes, expected %d", t, len(b), w)
	}
	if t.IsText() {
		s, lossy := decodeText(b, cp)
		if lossy && log != nil {
			log.Debug("replaced invalid text", zap.Uint32("codepage", cp), zap.Int("bytes", len(b)))
		}
		v.text = s
		return v, nil
	}
	if t > ColumnTypeMax {
		//unknown types are kept as bytes rather than rejected
		if log != nil {
			log.Warn("unknown column type", zap.Stringer("type", t))
		}
	}
	v.raw = b
	return v, nil
}
