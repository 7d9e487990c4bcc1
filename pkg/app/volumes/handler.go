package volumes

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-hammer2/internal/services"
	"github.com/deploymenttheory/go-hammer2/internal/types"
	"github.com/deploymenttheory/go-hammer2/pkg/app"
)

// Handle opens the volume set and reports how each volume is mapped
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Log(fmt.Sprintf("Opening volume set: %s", strings.Join(req.VolumePaths, ":")))
	vs, err := services.OpenVolumeSet(req.VolumePaths, ctx.Logger)
	if err != nil {
		return nil, app.NewError(app.ErrCodeVolumeAccess, "failed to open volume set", err)
	}
	defer vs.Close()

	root := vs.RootVolume()
	response := &Response{
		FSID:      types.UUIDString(root.Header.FSID),
		Version:   root.Header.Version,
		TotalSize: vs.TotalSize(),
	}
	for _, vol := range vs.Volumes() {
		response.Volumes = append(response.Volumes, Volume{
			ID:         vol.ID,
			Path:       vol.Path,
			Offset:     vol.Offset,
			Size:       vol.Size,
			DeviceSize: vol.DeviceSize,
			BestZone:   vol.BestZone,
			MirrorTID:  vol.Header.MirrorTID,
		})
	}
	return response, nil
}
