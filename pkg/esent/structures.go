package esent

//JetSignature identifies a database or log generation
type JetSignature struct {
	Random       uint32
	CreationTime uint64
	NetBiosName  [16]byte
}

//Header is the fixed file header stored at offset 0 and again (shadow copy) one page in.
//The layout matches the file byte for byte so it can be decoded with binary.Read.
type Header struct {
	CheckSum                   uint32
	Signature                  uint32
	FormatVersion              uint32
	FileType                   uint32
	DBTime                     uint64
	DBSignature                JetSignature
	DBState                    uint32
	ConsistentPosition         uint64
	ConsistentTime             uint64
	AttachTime                 uint64
	AttachPosition             uint64
	DetachTime                 uint64
	DetachPosition             uint64
	LogSignature               JetSignature
	Unknown                    uint32
	PreviousBackup             [24]byte
	PreviousIncBackup          [24]byte
	CurrentFullBackup          [24]byte
	ShadowingDisabled          uint32
	LastObjectID               uint32
	WindowsMajorVersion        uint32
	WindowsMinorVersion        uint32
	WindowsBuildNumber         uint32
	WindowsServicePackNumber   uint32
	FormatRevision             uint32
	PageSize                   uint32
	RepairCount                uint32
	RepairTime                 uint64
	Unknown2                   [28]byte
	ScrubDBTime                uint64
	ScrubTime                  uint64
	RequiredLog                uint64
	UpgradeExchangeFormat      uint32
	UpgradeFreePages           uint32
	UpgradeSpaceMapPages       uint32
	CurrentShadowBackup        [24]byte
	CreationFormatVersion      uint32
	CreationFormatRevision     uint32
	Unknown3                   [16]byte
	OldRepairCount             uint32
	ECCCount                   uint32
	LastECCTime                uint64
	OldECCFixSuccessCount      uint32
	ECCFixErrorCount           uint32
	LastECCFixErrorTime        uint64
	OldECCFixErrorCount        uint32
	BadCheckSumErrorCount      uint32
	LastBadCheckSumTime        uint64
	OldCheckSumErrorCount      uint32
	CommittedLog               uint32
	PreviousShadowCopy         [24]byte
	PreviousDifferentialBackup [24]byte
	Unknown4                   [40]byte
	NLSMajorVersion            uint32
	NLSMinorVersion            uint32
	Unknown5                   [148]byte
	UnknownFlags               uint32
}

//pageHeader is the common part of every page header, the extended fields are only set on
//large pages of newer revisions
type pageHeader struct {
	XORChecksum              uint32
	ECCChecksum              uint32
	PageNumber               uint32
	LastModificationTime     uint64
	PreviousPageNumber       uint32
	NextPageNumber           uint32
	FatherDataPageObjectID   uint32
	AvailableDataSize        uint16
	AvailableUncommittedSize uint16
	FirstAvailableDataOffset uint16
	FirstAvailablePageTag    uint16
	PageFlags                uint32

	ExtendedCheckSum1  uint64
	ExtendedCheckSum2  uint64
	ExtendedCheckSum3  uint64
	ExtendedPageNumber uint64

	//Len is the size of the header on disk, 40 or 80
	Len int
}

//rootHeader is stored in tag 0 of a tree's root page
type rootHeader struct {
	InitialPages        uint32
	ParentFDP           uint32
	ExtentSpace         uint32
	SpaceTreePageNumber uint32
}

//dataDefinitionHeader prefixes every record
type dataDefinitionHeader struct {
	LastFixedColumn    uint8
	LastVariableColumn uint8
	VariableSizeOffset uint16
}
