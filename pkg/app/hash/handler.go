package hash

import (
	"github.com/deploymenttheory/go-hammer2/internal/services"
	"github.com/deploymenttheory/go-hammer2/pkg/app"
)

// Handle hashes every requested name
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	nhs := services.NewNameHashingService()
	response := &Response{Mode: req.Mode, Entries: make([]Entry, 0, len(req.Names))}
	for _, name := range req.Names {
		entry := Entry{Name: name}
		if req.Mode == ModeData {
			h, err := nhs.DataHash(name)
			if err != nil {
				return nil, app.NewError(app.ErrCodeInvalidInput, "failed to hash name", err)
			}
			entry.Hash = h
		} else {
			entry.Hash = nhs.DirentKey(name)
		}
		response.Entries = append(response.Entries, entry)
	}
	ctx.Log("Hashed names")
	return response, nil
}
