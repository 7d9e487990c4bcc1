package volumes

// Request represents a volume set listing request
type Request struct {
	VolumePaths []string
}

// Response represents the resolved volume set
type Response struct {
	FSID      string   `json:"fsid" yaml:"fsid"`
	Version   uint32   `json:"version" yaml:"version"`
	TotalSize uint64   `json:"total_size" yaml:"total_size"`
	Volumes   []Volume `json:"volumes" yaml:"volumes"`
}

// Volume is one member of the volume set
type Volume struct {
	ID         uint8  `json:"id" yaml:"id"`
	Path       string `json:"path" yaml:"path"`
	Offset     uint64 `json:"offset" yaml:"offset"`
	Size       uint64 `json:"size" yaml:"size"`
	DeviceSize uint64 `json:"device_size" yaml:"device_size"`
	BestZone   int    `json:"best_zone" yaml:"best_zone"`
	MirrorTID  uint64 `json:"mirror_tid" yaml:"mirror_tid"`
}
