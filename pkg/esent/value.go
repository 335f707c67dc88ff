package esent

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

//ErrNull is returned by Value accessors when the value is null
var ErrNull = errors.New("esent: null value")

//Value is one decoded column value. Its type always matches the declared type of the column it
//came from, and any type can be null.
type Value struct {
	typ  ColumnType
	null bool
	raw  []byte
	text string
}

//NullValue is the null value of type t
func NullValue(t ColumnType) Value {
	return Value{typ: t, null: true}
}

//Type is the declared column type the value was decoded as
func (v Value) Type() ColumnType { return v.typ }

//IsNull reports an absent value
func (v Value) IsNull() bool { return v.null }

//Equal compares type, nullness and content
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ || v.null != o.null {
		return false
	}
	if v.typ.IsText() {
		return v.text == o.text
	}
	return string(v.raw) == string(o.raw)
}

func (v Value) check(name string, types ...ColumnType) error {
	for _, t := range types {
		if v.typ == t {
			if v.null {
				return ErrNull
			}
			return nil
		}
	}
	return typeMismatch(name, v.typ)
}

//Bool decodes a Bit column
func (v Value) Bool() (bool, error) {
	if err := v.check("bool", ColumnTypeBit); err != nil {
		return false, err
	}
	return v.raw[0] != 0, nil
}

//Uint8 decodes an UnsignedByte column
func (v Value) Uint8() (uint8, error) {
	if err := v.check("uint8", ColumnTypeUnsignedByte); err != nil {
		return 0, err
	}
	return v.raw[0], nil
}

//Int16 decodes a Short column
func (v Value) Int16() (int16, error) {
	if err := v.check("int16", ColumnTypeShort); err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(v.raw)), nil
}

//Uint16 decodes an UnsignedShort column
func (v Value) Uint16() (uint16, error) {
	if err := v.check("uint16", ColumnTypeUnsignedShort); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(v.raw), nil
}

//Int32 decodes a Long column
func (v Value) Int32() (int32, error) {
	if err := v.check("int32", ColumnTypeLong); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(v.raw)), nil
}

//Uint32 decodes an UnsignedLong column
func (v Value) Uint32() (uint32, error) {
	if err := v.check("uint32", ColumnTypeUnsignedLong); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v.raw), nil
}

//Int64 decodes a LongLong column
func (v Value) Int64() (int64, error) {
	if err := v.check("int64", ColumnTypeLongLong); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(v.raw)), nil
}

//Currency returns the raw currency amount in units of 1/10000
func (v Value) Currency() (int64, error) {
	if err := v.check("currency", ColumnTypeCurrency); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(v.raw)), nil
}

//Float32 decodes an IEEESingle column
func (v Value) Float32() (float32, error) {
	if err := v.check("float32", ColumnTypeIEEESingle); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(v.raw)), nil
}

//Float64 decodes an IEEEDouble column
func (v Value) Float64() (float64, error) {
	if err := v.check("float64", ColumnTypeIEEEDouble); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v.raw)), nil
}

//DateTime returns the opaque 64 bit payload of a DateTime column. Whether it holds FILETIME ticks
//or the bits of an OLE date is up to the caller, see FileTime and OleTime.
func (v Value) DateTime() (uint64, error) {
	if err := v.check("datetime", ColumnTypeDateTime); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(v.raw), nil
}

//FileTime interprets a DateTime value as FILETIME ticks
func (v Value) FileTime() (time.Time, error) {
	d, err := v.DateTime()
	if err != nil {
		return time.Time{}, err
	}
	return FileTimeToTime(d), nil
}

//OleTime interprets a DateTime value as an OLE automation date
func (v Value) OleTime() (time.Time, error) {
	d, err := v.DateTime()
	if err != nil {
		return time.Time{}, err
	}
	return OleTimeToTime(math.Float64frombits(d)), nil
}

//GUID decodes a GUID column. The stored byte order is the Windows one (first three groups little endian).
func (v Value) GUID() (uuid.UUID, error) {
	if err := v.check("guid", ColumnTypeGUID); err != nil {
		return uuid.Nil, err
	}
	b := make([]byte, 16)
	copy(b, v.raw)
	b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
	b[4], b[5] = b[5], b[4]
	b[6], b[7] = b[7], b[6]
	return uuid.FromBytes(b)
}

//Text returns the decoded string of a Text or LongText column
func (v Value) Text() (string, error) {
	if err := v.check("text", ColumnTypeText, ColumnTypeLongText); err != nil {
		return "", err
	}
	return v.text, nil
}

//Bytes returns the stored bytes. Binary types and GUIDs only, text has already been decoded.
func (v Value) Bytes() ([]byte, error) {
	if err := v.check("bytes", ColumnTypeNil, ColumnTypeBinary, ColumnTypeLongBinary, ColumnTypeSLV, ColumnTypeMax, ColumnTypeGUID); err != nil {
		return nil, err
	}
	return v.raw, nil
}

//Raw returns the undecoded little endian bytes for any non text value
func (v Value) Raw() []byte { return v.raw }

//Interface returns the value as a plain Go value, nil when null. DateTime comes back as a FILETIME time.Time.
func (v Value) Interface() interface{} {
	if v.null {
		return nil
	}
	var r interface{}
	var err error
	switch v.typ {
	case ColumnTypeBit:
		r, err = v.Bool()
	case ColumnTypeUnsignedByte:
		r, err = v.Uint8()
	case ColumnTypeShort:
		r, err = v.Int16()
	case ColumnTypeUnsignedShort:
		r, err = v.Uint16()
	case ColumnTypeLong:
		r, err = v.Int32()
	case ColumnTypeUnsignedLong:
		r, err = v.Uint32()
	case ColumnTypeLongLong:
		r, err = v.Int64()
	case ColumnTypeCurrency:
		r, err = v.Currency()
	case ColumnTypeIEEESingle:
		r, err = v.Float32()
	case ColumnTypeIEEEDouble:
		r, err = v.Float64()
	case ColumnTypeDateTime:
		r, err = v.FileTime()
	case ColumnTypeGUID:
		var u uuid.UUID
		u, err = v.GUID()
		r = u.String()
	case ColumnTypeText, ColumnTypeLongText:
		r = v.text
	default:
		r = v.raw
	}
	if err != nil {
		return nil
	}
	return r
}

//FormatOptions controls Value.Format
type FormatOptions struct {
	//OleTime renders DateTime values as OLE dates instead of FILETIME
	OleTime bool
}

//String renders the value with default options
func (v Value) String() string {
	return v.Format(FormatOptions{})
}

//Format renders the value as text: decimal numbers, space separated hex for binary data,
//8-4-4-4-12 for GUIDs and RFC3339 for dates.
func (v Value) Format(o FormatOptions) string {
	if v.null {
		return ""
	}
	switch v.typ {
	case ColumnTypeBit:
		b, _ := v.Bool()
		return strconv.FormatBool(b)
	case ColumnTypeUnsignedByte:
		n, _ := v.Uint8()
		return strconv.FormatUint(uint64(n), 10)
	case ColumnTypeShort:
		n, _ := v.Int16()
		return strconv.FormatInt(int64(n), 10)
	case ColumnTypeUnsignedShort:
		n, _ := v.Uint16()
		return strconv.FormatUint(uint64(n), 10)
	case ColumnTypeLong:
		n, _ := v.Int32()
		return strconv.FormatInt(int64(n), 10)
	case ColumnTypeUnsignedLong:
		n, _ := v.Uint32()
		return strconv.FormatUint(uint64(n), 10)
	case ColumnTypeLongLong, ColumnTypeCurrency:
		return strconv.FormatInt(int64(binary.LittleEndian.Uint64(v.raw)), 10)
	case ColumnTypeIEEESingle:
		f, _ := v.Float32()
		return strconv.FormatFloat(float64(f), 'g', -1, 32)
	case ColumnTypeIEEEDouble:
		f, _ := v.Float64()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case ColumnTypeDateTime:
		var t time.Time
		if o.OleTime {
			t, _ = v.OleTime()
		} else {
			t, _ = v.FileTime()
		}
		return t.Format(time.RFC3339Nano)
	case ColumnTypeGUID:
		u, err := v.GUID()
		if err != nil {
			return hexBytes(v.raw)
		}
		return u.String()
	case ColumnTypeText, ColumnTypeLongText:
		return v.text
	}
	return hexBytes(v.raw)
}

func hexBytes(b []byte) string {
	parts := make([]string, len(b))
	for i := range b {
		parts[i] = hex.EncodeToString(b[i : i+1])
	}
	return strings.Join(parts, " ")
}
