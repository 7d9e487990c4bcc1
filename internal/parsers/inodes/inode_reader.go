package inodes

import (
	"encoding/binary"
	"errors"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/blockrefs"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/layout"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

var endian = binary.LittleEndian

// ErrDirectData is returned when a blockset is requested from a direct-data inode.
var ErrDirectData = errors.New("inode holds direct data")

// ParseInode decodes a 1024-byte inode record.
func ParseInode(data []byte) (*types.InodeData, error) {
	if err := layout.CheckExact("inode", data, types.InodeBytes); err != nil {
		return nil, err
	}

	ip := &types.InodeData{}
	m := &ip.Meta
	m.Version = endian.Uint16(data[0x00:0x02])
	m.PFSSubtype = types.PFSSubtype(data[0x03])
	m.UFlags = endian.Uint32(data[0x04:0x08])
	m.RMajor = endian.Uint32(data[0x08:0x0C])
	m.RMinor = endian.Uint32(data[0x0C:0x10])
	m.CTime = endian.Uint64(data[0x10:0x18])
	m.MTime = endian.Uint64(data[0x18:0x20])
	m.ATime = endian.Uint64(data[0x20:0x28])
	m.BTime = endian.Uint64(data[0x28:0x30])
	copy(m.UID[:], data[0x30:0x40])
	copy(m.GID[:], data[0x40:0x50])
	m.Type = types.ObjectType(data[0x50])
	m.OpFlags = data[0x51]
	m.CapFlags = endian.Uint16(data[0x52:0x54])
	m.Mode = endian.Uint32(data[0x54:0x58])
	m.Inum = endian.Uint64(data[0x58:0x60])
	m.Size = endian.Uint64(data[0x60:0x68])
	m.NLinks = endian.Uint64(data[0x68:0x70])
	m.IParent = endian.Uint64(data[0x70:0x78])
	m.NameKey = endian.Uint64(data[0x78:0x80])
	m.NameLen = endian.Uint16(data[0x80:0x82])
	m.NCopies = data[0x82]
	m.CompAlgo = data[0x83]
	m.CheckAlgo = data[0x85]
	m.PFSNMasters = data[0x86]
	m.PFSType = types.PFSType(data[0x87])
	m.PFSInum = endian.Uint64(data[0x88:0x90])
	copy(m.PFSClID[:], data[0x90:0xA0])
	copy(m.PFSFSID[:], data[0xA0:0xB0])
	m.DataQuota = endian.Uint64(data[0xB0:0xB8])
	m.InodeQuota = endian.Uint64(data[0xC0:0xC8])
	m.PFSLsnapTID = endian.Uint64(data[0xD0:0xD8])
	m.DecryptCheck = endian.Uint64(data[0xE0:0xE8])

	copy(ip.Filename[:], data[0x100:0x200])
	copy(ip.U[:], data[0x200:0x400])
	return ip, nil
}

// EncodeInode returns the 1024-byte encoding of ip.
func EncodeInode(ip *types.InodeData) []byte {
	data := make([]byte, types.InodeBytes)
	m := &ip.Meta
	endian.PutUint16(data[0x00:0x02], m.Version)
	data[0x03] = uint8(m.PFSSubtype)
	endian.PutUint32(data[0x04:0x08], m.UFlags)
	endian.PutUint32(data[0x08:0x0C], m.RMajor)
	endian.PutUint32(data[0x0C:0x10], m.RMinor)
	endian.PutUint64(data[0x10:0x18], m.CTime)
	endian.PutUint64(data[0x18:0x20], m.MTime)
	endian.PutUint64(data[0x20:0x28], m.ATime)
	endian.PutUint64(data[0x28:0x30], m.BTime)
	copy(data[0x30:0x40], m.UID[:])
	copy(data[0x40:0x50], m.GID[:])
	data[0x50] = uint8(m.Type)
	data[0x51] = m.OpFlags
	endian.PutUint16(data[0x52:0x54], m.CapFlags)
	endian.PutUint32(data[0x54:0x58], m.Mode)
	endian.PutUint64(data[0x58:0x60], m.Inum)
	endian.PutUint64(data[0x60:0x68], m.Size)
	endian.PutUint64(data[0x68:0x70], m.NLinks)
	endian.PutUint64(data[0x70:0x78], m.IParent)
	endian.PutUint64(data[0x78:0x80], m.NameKey)
	endian.PutUint16(data[0x80:0x82], m.NameLen)
	data[0x82] = m.NCopies
	data[0x83] = m.CompAlgo
	data[0x85] = m.CheckAlgo
	data[0x86] = m.PFSNMasters
	data[0x87] = uint8(m.PFSType)
	endian.PutUint64(data[0x88:0x90], m.PFSInum)
	copy(data[0x90:0xA0], m.PFSClID[:])
	copy(data[0xA0:0xB0], m.PFSFSID[:])
	endian.PutUint64(data[0xB0:0xB8], m.DataQuota)
	endian.PutUint64(data[0xC0:0xC8], m.InodeQuota)
	endian.PutUint64(data[0xD0:0xD8], m.PFSLsnapTID)
	endian.PutUint64(data[0xE0:0xE8], m.DecryptCheck)

	copy(data[0x100:0x200], ip.Filename[:])
	copy(data[0x200:0x400], ip.U[:])
	return data
}

// Blockset decodes the inode union as an embedded blockset.
func Blockset(ip *types.InodeData) (types.Blockset, error) {
	if ip.Meta.IsDirectData() {
		return types.Blockset{}, ErrDirectData
	}
	return blockrefs.ParseBlockset(ip.U[:])
}

// SetBlockset encodes set into the inode union.
func SetBlockset(ip *types.InodeData, set *types.Blockset) {
	_ = blockrefs.EncodeBlockset(set, ip.U[:])
}

// SetFilename stores name in the inode and updates NameLen.
func SetFilename(ip *types.InodeData, name string) {
	ip.Filename = [types.InodeMaxName]byte{}
	n := copy(ip.Filename[:], name)
	ip.Meta.NameLen = uint16(n)
}
