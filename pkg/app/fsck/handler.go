package fsck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/checksums"
	"github.com/deploymenttheory/go-hammer2/internal/services"
	"github.com/deploymenttheory/go-hammer2/pkg/app"
)

// Handle processes a verification request. A run that found problems returns
// the full response together with an INTEGRITY error.
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	// 1. Validate request
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Log(fmt.Sprintf("Opening volume set: %s", strings.Join(req.VolumePaths, ":")))

	// 2. Open the volume set
	vs, err := services.OpenVolumeSet(req.VolumePaths, ctx.Logger)
	if err != nil {
		return nil, app.NewError(app.ErrCodeVolumeAccess, "failed to open volume set", err)
	}
	defer vs.Close()

	// 3. Run the passes
	svc := services.NewFsckService(vs, req.Options(), ctx.Logger)
	svc.OnProgress = func(pass string, stats *services.WalkStats) {
		ctx.Progress(app.ProgressUpdate{
			Message:     pass,
			Completed:   int64(stats.TotalBlockref),
			StartedAt:   startTime,
			ElapsedTime: time.Since(startTime),
		})
	}
	report, runErr := svc.Run(ctx)
	if report == nil {
		return nil, classify(runErr)
	}

	// 4. Build the response
	response := &Response{
		Volumes:    req.VolumePaths,
		BestZone:   report.BestZone,
		CountEmpty: req.CountEmpty,
		Failed:     runErr != nil,
		Error:      errString(runErr),
	}
	for i := range report.Passes {
		response.Passes = append(response.Passes, buildPass(svc, &report.Passes[i], req))
	}
	response.Elapsed = time.Since(startTime)

	ctx.Log(fmt.Sprintf("Verification completed in %v", response.Elapsed))
	if runErr != nil {
		if response.hasKind(services.DiagnosticUnsupported) {
			return response, app.NewError(app.ErrCodeUnsupported, "unsupported on-disk format", runErr)
		}
		return response, classify(runErr)
	}
	return response, nil
}

// hasKind reports whether any diagnostic of the response is of kind.
func (r *Response) hasKind(kind services.DiagnosticKind) bool {
	match := func(diags []Diagnostic) bool {
		for i := range diags {
			if diags[i].Kind == string(kind) {
				return true
			}
		}
		return false
	}
	for _, pass := range r.Passes {
		for _, zone := range pass.Zones {
			if match(zone.Diagnostics) {
				return true
			}
			for _, pfs := range zone.PFS {
				if match(pfs.Diagnostics) {
					return true
				}
			}
		}
	}
	return false
}

// classify maps an engine error onto an application error code.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return app.NewError(app.ErrCodeCancelled, "verification cancelled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return app.NewError(app.ErrCodeTimeout, "verification timed out", err)
	case errors.Is(err, checksums.ErrUnsupportedCheck):
		return app.NewError(app.ErrCodeUnsupported, "unsupported on-disk format", err)
	case errors.Is(err, services.ErrSubtreeFailed),
		errors.Is(err, services.ErrVolumeHeaderDamaged),
		errors.Is(err, services.ErrPFSNotFound):
		return app.NewError(app.ErrCodeIntegrity, "verification failed", err)
	default:
		return app.NewError(app.ErrCodeVolumeAccess, "verification aborted", err)
	}
}

func buildPass(svc *services.FsckService, p *services.PassResult, req *Request) Pass {
	pass := Pass{Name: p.Name, Cache: p.Cache, Error: errString(p.Err)}
	for i := range p.Zones {
		z := &p.Zones[i]
		zone := Zone{
			Zone:     z.Zone,
			Heading:  z.Heading(),
			Exceeds:  z.Exceeds,
			Problems: z.Problems,
			Stats:    newStats(z.Stats, req.CountEmpty),
			Error:    errString(z.Err),
		}
		if z.Stats != nil {
			zone.Diagnostics = buildDiagnostics(svc, z.Stats, req.ShowMedia)
		}
		walks := make(map[string]*services.PFSWalk, len(z.PFSWalks))
		for j := range z.PFSWalks {
			walks[z.PFSWalks[j].Name] = &z.PFSWalks[j]
		}
		for j := range z.PFSList {
			pfs := newPFS(&z.PFSList[j])
			if w, ok := walks[pfs.Name]; ok {
				pfs.Stats = newStats(w.Stats, req.CountEmpty)
				pfs.Diagnostics = buildDiagnostics(svc, w.Stats, req.ShowMedia)
				pfs.Error = errString(w.Err)
			}
			zone.PFS = append(zone.PFS, pfs)
		}
		pass.Zones = append(pass.Zones, zone)
	}
	return pass
}

func buildDiagnostics(svc *services.FsckService, stats *services.WalkStats, showMedia bool) []Diagnostic {
	var out []Diagnostic
	for _, entry := range stats.Diagnostics.Entries() {
		for i := range entry.Diagnostics {
			d := newDiagnostic(&entry.Diagnostics[i])
			if showMedia {
				media, err := svc.DescribeMedia(&entry.Diagnostics[i].Blockref)
				if err != nil {
					media = []string{"Failed to read media: " + err.Error()}
				}
				d.Media = media
			}
			out = append(out, d)
		}
	}
	return out
}
