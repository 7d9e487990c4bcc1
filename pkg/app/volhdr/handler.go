package volhdr

import (
	"fmt"
	"strings"
	"time"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/volumes"
	"github.com/deploymenttheory/go-hammer2/internal/services"
	"github.com/deploymenttheory/go-hammer2/internal/types"
	"github.com/deploymenttheory/go-hammer2/pkg/app"
)

// Handle processes a volume header dump request
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Log(fmt.Sprintf("Opening volume set: %s", strings.Join(req.VolumePaths, ":")))
	vs, err := services.OpenVolumeSet(req.VolumePaths, ctx.Logger)
	if err != nil {
		return nil, app.NewError(app.ErrCodeVolumeAccess, "failed to open volume set", err)
	}
	defer vs.Close()

	response := &Response{}
	for _, vol := range vs.Volumes() {
		if err := ctx.Err(); err != nil {
			return nil, app.NewError(app.ErrCodeCancelled, "volume header dump cancelled", err)
		}
		response.Volumes = append(response.Volumes, buildVolume(vol, vs, req.AllZones))
	}
	response.Elapsed = time.Since(startTime)
	return response, nil
}

func buildVolume(vol *types.Volume, vs *services.VolumeSet, allZones bool) Volume {
	out := Volume{ID: vol.ID, Path: vol.Path, BestZone: vol.BestZone}
	for i := 0; i < volumes.ZoneCount(vol.DeviceSize); i++ {
		zr := volumes.ReadZone(vol.Device, i)
		zone := Zone{Zone: i, Offset: zr.Offset, Problems: zr.Problems()}
		if zr.Header == nil {
			zone.Summary = fmt.Sprintf("Volume %d header %d: %s", vol.ID, i, strings.Join(zone.Problems, ", "))
		} else {
			zone.MirrorTID = zr.Header.MirrorTID
			zone.Summary = fmt.Sprintf("Volume %d header %d: mirror_tid=%016x", vol.ID, i, zone.MirrorTID)
			if allZones || i == vol.BestZone {
				zone.Header = newHeader(&zr, vs)
			}
		}
		out.Zones = append(out.Zones, zone)
	}
	return out
}
