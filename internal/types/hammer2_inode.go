package types

// ObjectType is the file type of an inode or directory entry.
type ObjectType uint8

const (
	ObjTypeUnknown   ObjectType = 0
	ObjTypeDirectory ObjectType = 1
	ObjTypeRegFile   ObjectType = 2
	ObjTypeFIFO      ObjectType = 4
	ObjTypeCDev      ObjectType = 5
	ObjTypeBDev      ObjectType = 6
	ObjTypeSoftlink  ObjectType = 7
	ObjTypeSocket    ObjectType = 9
	ObjTypeWhiteout  ObjectType = 10
)

// String returns the upper-case short name of the object type.
func (t ObjectType) String() string {
	switch t {
	case ObjTypeUnknown:
		return "UNKNOWN"
	case ObjTypeDirectory:
		return "DIR"
	case ObjTypeRegFile:
		return "FILE"
	case ObjTypeFIFO:
		return "FIFO"
	case ObjTypeCDev:
		return "CDEV"
	case ObjTypeBDev:
		return "BDEV"
	case ObjTypeSoftlink:
		return "SOFTLINK"
	case ObjTypeSocket:
		return "SOCKET"
	case ObjTypeWhiteout:
		return "WHITEOUT"
	default:
		return "ILLEGAL"
	}
}

// Inode op_flags
const (
	OpFlagDirectData uint8 = 0x01
	OpFlagPFSRoot    uint8 = 0x02
	OpFlagCopyIDs    uint8 = 0x04
)

// PFSType is the cluster role of a PFS root inode.
type PFSType uint8

const (
	PFSTypeNone       PFSType = 0
	PFSTypeCache      PFSType = 1
	PFSTypeSlave      PFSType = 3
	PFSTypeSoftSlave  PFSType = 4
	PFSTypeSoftMaster PFSType = 5
	PFSTypeMaster     PFSType = 6
	PFSTypeSupRoot    PFSType = 8
	PFSTypeDummy      PFSType = 9
)

// String returns the upper-case name of the PFS type.
func (t PFSType) String() string {
	switch t {
	case PFSTypeNone:
		return "NONE"
	case PFSTypeSupRoot:
		return "SUPROOT"
	case PFSTypeDummy:
		return "DUMMY"
	case PFSTypeCache:
		return "CACHE"
	case PFSTypeSlave:
		return "SLAVE"
	case PFSTypeSoftSlave:
		return "SOFT_SLAVE"
	case PFSTypeSoftMaster:
		return "SOFT_MASTER"
	case PFSTypeMaster:
		return "MASTER"
	default:
		return "ILLEGAL"
	}
}

// PFSSubtype distinguishes snapshots from regular PFSs.
type PFSSubtype uint8

const (
	PFSSubtypeNone     PFSSubtype = 0
	PFSSubtypeSnapshot PFSSubtype = 1
	PFSSubtypeAutosnap PFSSubtype = 2
)

// String returns the upper-case name of the PFS subtype.
func (t PFSSubtype) String() string {
	switch t {
	case PFSSubtypeNone:
		return "NONE"
	case PFSSubtypeSnapshot:
		return "SNAPSHOT"
	case PFSSubtypeAutosnap:
		return "AUTOSNAP"
	default:
		return "ILLEGAL"
	}
}

// InodeMeta is the fixed 256-byte metadata area at the start of an inode.
type InodeMeta struct {
	Version      uint16
	PFSSubtype   PFSSubtype
	UFlags       uint32
	RMajor       uint32
	RMinor       uint32
	CTime        uint64
	MTime        uint64
	ATime        uint64
	BTime        uint64
	UID          [16]byte
	GID          [16]byte
	Type         ObjectType
	OpFlags      uint8
	CapFlags     uint16
	Mode         uint32
	Inum         uint64
	Size         uint64
	NLinks       uint64
	IParent      uint64
	NameKey      uint64
	NameLen      uint16
	NCopies      uint8
	CompAlgo     uint8
	CheckAlgo    uint8
	PFSNMasters  uint8
	PFSType      PFSType
	PFSInum      uint64
	PFSClID      [16]byte
	PFSFSID      [16]byte
	DataQuota    uint64
	InodeQuota   uint64
	PFSLsnapTID  uint64
	DecryptCheck uint64
}

// IsDirectData reports whether the inode union holds file data instead of a blockset.
func (m *InodeMeta) IsDirectData() bool {
	return m.OpFlags&OpFlagDirectData != 0
}

// IsPFSRoot reports whether the inode is the root of a PFS.
func (m *InodeMeta) IsPFSRoot() bool {
	return m.OpFlags&OpFlagPFSRoot != 0
}

// InodeData is the 1024-byte inode record.
type InodeData struct {
	Meta     InodeMeta
	Filename [InodeMaxName]byte
	// U holds either an encoded blockset or direct data, selected by Meta.OpFlags.
	U [EmbeddedBytes]byte
}

// Name returns the filename trimmed to NameLen.
func (d *InodeData) Name() string {
	n := int(d.Meta.NameLen)
	if n > InodeMaxName {
		n = InodeMaxName
	}
	return string(d.Filename[:n])
}

// DirectData returns the inline file data when the inode holds direct data.
func (d *InodeData) DirectData() ([]byte, bool) {
	if !d.Meta.IsDirectData() {
		return nil, false
	}
	n := d.Meta.Size
	if n > EmbeddedBytes {
		n = EmbeddedBytes
	}
	return d.U[:n], true
}
