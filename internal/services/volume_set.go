package services

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-hammer2/internal/device"
	"github.com/deploymenttheory/go-hammer2/internal/interfaces"
	"github.com/deploymenttheory/go-hammer2/internal/parsers/volumes"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

var (
	// ErrNoSuchVolume is returned when a logical offset lies outside every volume.
	ErrNoSuchVolume = errors.New("no such volume")
	// ErrInvalidVolume is returned when a volume or the volume set fails verification.
	ErrInvalidVolume = errors.New("invalid volume")
)

// volumeIdent holds the fields every volume of a set must agree on.
type volumeIdent struct {
	version  uint32
	nvolumes uint8
	fsid     [16]byte
	fstype   [16]byte
	set      bool
}

// VolumeSet maps the logical HAMMER2 address space onto its backing volumes.
type VolumeSet struct {
	volumes   []*types.Volume
	closers   []io.Closer
	totalSize uint64
	ident     volumeIdent
	log       *zap.Logger
}

// NewVolumeSet creates an empty volume set.
func NewVolumeSet(log *zap.Logger) *VolumeSet {
	if log == nil {
		log = zap.NewNop()
	}
	return &VolumeSet{log: log}
}

// OpenVolumeSet opens every path read-only, adds it to a new volume set and
// verifies the result.
func OpenVolumeSet(paths []string, log *zap.Logger) (*VolumeSet, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no volumes specified: %w", ErrInvalidVolume)
	}
	vs := NewVolumeSet(log)
	for _, path := range paths {
		if err := vs.AddVolume(path); err != nil {
			vs.Close()
			return nil, err
		}
	}
	if err := vs.Verify(); err != nil {
		vs.Close()
		return nil, err
	}
	return vs, nil
}

// AddVolume opens path read-only and adds it to the set.
func (vs *VolumeSet) AddVolume(path string) error {
	dev, err := device.Open(path)
	if err != nil {
		if errors.Is(err, device.ErrUnsupportedType) {
			return fmt.Errorf("%w: %w", err, ErrInvalidVolume)
		}
		return err
	}
	if err := vs.AddDevice(path, dev, dev.Size()); err != nil {
		dev.Close()
		return err
	}
	vs.closers = append(vs.closers, dev)
	return nil
}

// AddDevice selects the best header of dev and installs it as a volume.
func (vs *VolumeSet) AddDevice(path string, dev io.ReaderAt, devSize uint64) error {
	if len(vs.volumes) >= types.MaxVolumes {
		return fmt.Errorf("exceeds maximum supported number of volumes %d: %w", types.MaxVolumes, ErrInvalidVolume)
	}
	for _, vol := range vs.volumes {
		if vol.Path == path {
			return fmt.Errorf("%s specified more than once: %w", path, ErrInvalidVolume)
		}
	}

	sel, err := volumes.SelectBest(dev, devSize)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, d := range sel.Diagnostics() {
		vs.log.Warn("volume header problem", zap.String("path", path), zap.String("detail", d))
	}

	hdr := sel.Header
	if hdr.VoluID >= types.MaxVolumes {
		return fmt.Errorf("%s has bad volume id %d: %w", path, hdr.VoluID, ErrInvalidVolume)
	}

	if !vs.ident.set {
		vs.ident = volumeIdent{
			version:  hdr.Version,
			nvolumes: hdr.NVolumes,
			fsid:     hdr.FSID,
			fstype:   hdr.FSType,
			set:      true,
		}
	} else {
		switch {
		case vs.ident.version != hdr.Version:
			return fmt.Errorf("volume version mismatch %d vs %d: %w", vs.ident.version, hdr.Version, ErrInvalidVolume)
		case vs.ident.nvolumes != hdr.NVolumes:
			return fmt.Errorf("volume count mismatch %d vs %d: %w", vs.ident.nvolumes, hdr.NVolumes, ErrInvalidVolume)
		case vs.ident.fsid != hdr.FSID:
			return fmt.Errorf("volume fsid UUID mismatch %s vs %s: %w",
				types.UUIDString(vs.ident.fsid), types.UUIDString(hdr.FSID), ErrInvalidVolume)
		case vs.ident.fstype != hdr.FSType:
			return fmt.Errorf("volume fstype UUID mismatch %s vs %s: %w",
				types.UUIDString(vs.ident.fstype), types.UUIDString(hdr.FSType), ErrInvalidVolume)
		}
	}

	vs.install(&types.Volume{
		ID:         hdr.VoluID,
		Path:       path,
		Offset:     hdr.VoluLoff[hdr.VoluID],
		Size:       hdr.VoluSize,
		DeviceSize: devSize,
		BestZone:   sel.Best,
		Header:     hdr,
		Device:     dev,
	})
	vs.log.Debug("volume installed",
		zap.String("path", path),
		zap.Uint8("id", hdr.VoluID),
		zap.Int("zone", sel.Best),
		zap.Uint64("mirror_tid", hdr.MirrorTID))
	return nil
}

func (vs *VolumeSet) install(vol *types.Volume) {
	vs.volumes = append(vs.volumes, vol)
	sort.Slice(vs.volumes, func(i, j int) bool {
		return vs.volumes[i].ID < vs.volumes[j].ID
	})
	vs.totalSize += vol.Size
}

// Verify checks the installed volumes against each other and against the
// header of the root volume.
func (vs *VolumeSet) Verify() error {
	if err := vs.verifyCommon(); err != nil {
		return err
	}
	if vs.ident.version >= types.VolVersionMultiVolumes {
		return vs.verifyMulti()
	}
	return vs.verifySingle()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidVolume)
}

func (vs *VolumeSet) verifyCommon() error {
	root := vs.RootVolume()
	if root == nil {
		return invalid("root volume %d not present", types.RootVolume)
	}
	if root.Header.VoluID != types.RootVolume {
		return invalid("volume id %d must be %d", root.Header.VoluID, types.RootVolume)
	}
	if s := types.UUIDString(root.Header.FSType); s != types.FSTypeUUIDString {
		return invalid("volume fstype UUID %s must be %s", s, types.FSTypeUUIDString)
	}
	for _, vol := range vs.volumes {
		if vol.Size > vol.DeviceSize {
			return invalid("%s's size 0x%016x exceeds device size 0x%016x", vol.Path, vol.Size, vol.DeviceSize)
		}
		if vol.Size == 0 {
			return invalid("%s has size of 0", vol.Path)
		}
	}
	return nil
}

func (vs *VolumeSet) verifySingle() error {
	if len(vs.volumes) != 1 {
		return invalid("only 1 volume supported")
	}
	hdr := vs.RootVolume().Header
	if hdr.NVolumes != 0 {
		return invalid("volume count %d must be 0", hdr.NVolumes)
	}
	if hdr.TotalSize != 0 {
		return invalid("total size 0x%016x must be 0", hdr.TotalSize)
	}
	for i, off := range hdr.VoluLoff {
		if off != 0 {
			return invalid("volume offset[%d] 0x%016x must be 0", i, off)
		}
	}
	vol := vs.volumes[0]
	if vol.ID != 0 {
		return invalid("%s has non zero id %d", vol.Path, vol.ID)
	}
	if vol.Offset != 0 {
		return invalid("%s has non zero offset 0x%016x", vol.Path, vol.Offset)
	}
	if vol.Size&types.VolumeAlignMask != 0 {
		return invalid("%s's size is not 0x%016x aligned", vol.Path, types.VolumeAlign)
	}
	return nil
}

func (vs *VolumeSet) verifyMulti() error {
	hdr := vs.RootVolume().Header
	n := len(vs.volumes)
	if int(hdr.NVolumes) != n {
		return invalid("volume header requires %d devices, %d specified", hdr.NVolumes, n)
	}
	if hdr.TotalSize != vs.totalSize {
		return invalid("total size 0x%016x does not equal sum of volumes 0x%016x", hdr.TotalSize, vs.totalSize)
	}
	for i, off := range hdr.VoluLoff {
		if i < n && off == ^uint64(0) {
			return invalid("volume offset[%d] 0x%016x must not be 0x%016x", i, off, ^uint64(0))
		}
		if i >= n && off != ^uint64(0) {
			return invalid("volume offset[%d] 0x%016x must be 0x%016x", i, off, ^uint64(0))
		}
	}

	level1Mask := types.FreemapLevel1Size - 1
	for i, vol := range vs.volumes {
		if vol.Offset&level1Mask != 0 {
			vs.log.Warn("volume offset not aligned",
				zap.String("path", vol.Path),
				zap.Uint64("offset", vol.Offset),
				zap.Uint64("alignment", types.FreemapLevel1Size))
		}
		if i > 0 {
			prev := vs.volumes[i-1]
			if vol.ID != prev.ID+1 {
				return invalid("%s has inconsistent id %d", vol.Path, vol.ID)
			}
			if vol.Offset != prev.Offset+prev.Size {
				return invalid("%s has inconsistent offset 0x%016x", vol.Path, vol.Offset)
			}
		} else if vol.Offset != 0 {
			return invalid("%s has non zero offset 0x%016x", vol.Path, vol.Offset)
		}

		if i != n-1 {
			if vol.Size < types.FreemapLevel1Size {
				return invalid("%s's size must be >= 0x%016x", vol.Path, types.FreemapLevel1Size)
			}
			if vol.Size&level1Mask != 0 {
				return invalid("%s's size is not 0x%016x aligned", vol.Path, types.FreemapLevel1Size)
			}
		} else if vol.Size&types.VolumeAlignMask != 0 {
			return invalid("%s's size is not 0x%016x aligned", vol.Path, types.VolumeAlign)
		}
	}
	return nil
}

// Resolve returns the volume whose range contains the radix-masked offset.
func (vs *VolumeSet) Resolve(offset uint64) (*types.Volume, error) {
	offset &= types.OffMask
	for _, vol := range vs.volumes {
		if vol.Contains(offset) {
			return vol, nil
		}
	}
	return nil, fmt.Errorf("offset 0x%016x: %w", offset, ErrNoSuchVolume)
}

// TotalSize returns the sum of all volume sizes.
func (vs *VolumeSet) TotalSize() uint64 {
	return vs.totalSize
}

// Volumes returns the installed volumes ordered by id.
func (vs *VolumeSet) Volumes() []*types.Volume {
	return vs.volumes
}

// RootVolume returns the volume with id 0, or nil.
func (vs *VolumeSet) RootVolume() *types.Volume {
	for _, vol := range vs.volumes {
		if vol.ID == types.RootVolume {
			return vol
		}
	}
	return nil
}

// Close closes every device opened by AddVolume.
func (vs *VolumeSet) Close() error {
	var errs []error
	for _, c := range vs.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	vs.closers = nil
	return errors.Join(errs...)
}

var _ interfaces.VolumeResolver = (*VolumeSet)(nil)
