package esent

//file header
const (
	headerSignature = 0x89abcdef
	checksumSeed    = 0x89abcdef
)

//format revisions that change the page layout
const (
	formatVersion            = 0x620
	revisionNewRecordFormat  = 0x0b
	revisionExtendedHeader   = 0x11
	revisionLinearTaggedLast = 0x02
)

//File types
const (
	FileTypeDatabase      = 0
	FileTypeStreamingFile = 1
)

//Database states
const (
	DBStateJustCreated    = 1
	DBStateDirtyShutdown  = 2
	DBStateCleanShutdown  = 3
	DBStateBeingConverted = 4
	DBStateForceDetach    = 5
)

//Page flags
const (
	pageFlagRoot            = 0x0001
	pageFlagLeaf            = 0x0002
	pageFlagParent          = 0x0004
	pageFlagEmpty           = 0x0008
	pageFlagSpaceTree       = 0x0020
	pageFlagIndex           = 0x0040
	pageFlagLongValue       = 0x0080
	pageFlagNewRecordFormat = 0x2000
	pageFlagScrubbed        = 0x4000
)

//Tag flags
const (
	tagFlagVersion   = 0x1
	tagFlagDefunct   = 0x2
	tagFlagCommonKey = 0x4
)

//Fixed page numbers
const (
	databasePageNumber      = 1
	catalogPageNumber       = 4
	catalogBackupPageNumber = 24
)

//Fixed father data page object ids
const (
	databaseFDP      = 1
	catalogFDP       = 2
	catalogBackupFDP = 3
)

//Catalog types
const (
	catalogTypeTable     = 1
	catalogTypeColumn    = 2
	catalogTypeIndex     = 3
	catalogTypeLongValue = 4
	catalogTypeCallback  = 5
)

//Tagged data type flags
const (
	taggedFlagVariableSize = 0x01
	taggedFlagCompressed   = 0x02
	taggedFlagLongValue    = 0x04
	taggedFlagMultiValue   = 0x08
	taggedFlagTwoValues    = 0x10
)

//column identifier ranges
const (
	lastFixedColumnID    = 127
	firstVariableColumn  = 128
	lastVariableColumnID = 255
	firstTaggedColumn    = 256
)

//Column flags (JET_bitColumn*)
const (
	ColumnFlagFixed       = 0x00000001
	ColumnFlagTagged      = 0x00000002
	ColumnFlagNotNull     = 0x00000004
	ColumnFlagVersion     = 0x00000008
	ColumnFlagAutoinc     = 0x00000010
	ColumnFlagMultiValued = 0x00000400
	ColumnFlagEscrow      = 0x00000800
	ColumnFlagCompressed  = 0x00080000
)

//Code pages
const (
	CodePageUnicode = 1200
	CodePageASCII   = 20127
	CodePageWestern = 1252
	CodePageUTF8    = 65001
)
