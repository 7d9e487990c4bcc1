package freemap

import (
	"fmt"
	"strings"
	"time"

	"github.com/deploymenttheory/go-hammer2/internal/services"
	"github.com/deploymenttheory/go-hammer2/pkg/app"
)

// Handle processes a freemap scan request
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

	svc := services.NewFreemapService(vs, services.WalkOptions{Strict: req.Strict}, ctx.Logger)
	report, err := svc.Scan(ctx, req.AllZones)
	if err != nil {
		if ctx.Err() != nil {
			return nil, app.NewError(app.ErrCodeCancelled, "freemap scan cancelled", err)
		}
		return nil, app.NewError(app.ErrCodeVolumeAccess, "freemap scan failed", err)
	}

	response := &Response{
		Path:   report.Path,
		Zones:  report.Zones,
		Stats:  report.Stats,
		Report: report.Stats.Report(),
	}
	for _, walk := range report.Walks {
		response.Blockrefs += walk.TotalBlockref
		for _, entry := range walk.Diagnostics.Entries() {
			for i := range entry.Diagnostics {
				response.Diagnostics = append(response.Diagnostics, services.FormatDiagnostic(&entry.Diagnostics[i]))
			}
		}
	}
	response.Elapsed = time.Since(startTime)

	ctx.Log(fmt.Sprintf("Freemap scan completed in %v", response.Elapsed))
	return response, nil
}
