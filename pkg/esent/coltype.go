package esent

import "fmt"

//ColumnType is the JET_coltyp a column is declared with
type ColumnType uint32

//Column types
const (
	ColumnTypeNil ColumnType = iota
	ColumnTypeBit
	ColumnTypeUnsignedByte
	ColumnTypeShort
	ColumnTypeLong
	ColumnTypeCurrency
	ColumnTypeIEEESingle
	ColumnTypeIEEEDouble
	ColumnTypeDateTime
	ColumnTypeBinary
	ColumnTypeText
	ColumnTypeLongBinary
	ColumnTypeLongText
	ColumnTypeSLV
	ColumnTypeUnsignedLong
	ColumnTypeLongLong
	ColumnTypeGUID
	ColumnTypeUnsignedShort
	ColumnTypeMax
)

var columnTypeNames = [...]string{
	"Nil",
	"Bit",
	"UnsignedByte",
	"Short",
	"Long",
	"Currency",
	"IEEESingle",
	"IEEEDouble",
	"DateTime",
	"Binary",
	"Text",
	"LongBinary",
	"LongText",
	"SLV",
	"UnsignedLong",
	"LongLong",
	"GUID",
	"UnsignedShort",
	"Max",
}

func (t ColumnType) String() string {
	if int(t) < len(columnTypeNames) {
		return columnTypeNames[t]
	}
	return fmt.Sprintf("ColumnType(%d)", uint32(t))
}

//Width is the encoded size of fixed width types, 0 for variable sized ones
func (t ColumnType) Width() int {
	switch t {
	case ColumnTypeBit, ColumnTypeUnsignedByte:
		return 1
	case ColumnTypeShort, ColumnTypeUnsignedShort:
		return 2
	case ColumnTypeLong, ColumnTypeUnsignedLong, ColumnTypeIEEESingle:
		return 4
	case ColumnTypeCurrency, ColumnTypeIEEEDouble, ColumnTypeDateTime, ColumnTypeLongLong:
		return 8
	case ColumnTypeGUID:
		return 16
	}
	return 0
}

//IsText is true for the text column types
func (t ColumnType) IsText() bool {
	return t == ColumnTypeText || t == ColumnTypeLongText
}

//IsBinary is true for types surfaced as raw bytes
func (t ColumnType) IsBinary() bool {
	switch t {
	case ColumnTypeNil, ColumnTypeBinary, ColumnTypeLongBinary, ColumnTypeSLV, ColumnTypeMax:
		return true
	}
	return false
}

//StorageClass is how a column is laid out inside a record, derived from its identifier
type StorageClass int

//Storage classes
const (
	StorageFixed StorageClass = iota
	StorageVariable
	StorageTagged
)

func (s StorageClass) String() string {
	switch s {
	case StorageFixed:
		return "fixed"
	case StorageVariable:
		return "variable"
	case StorageTagged:
		return "tagged"
	}
	return fmt.Sprintf("StorageClass(%d)", int(s))
}

func storageClassOf(id uint32) StorageClass {
	switch {
	case id <= lastFixedColumnID:
		return StorageFixed
	case id <= lastVariableColumnID:
		return StorageVariable
	}
	return StorageTagged
}
