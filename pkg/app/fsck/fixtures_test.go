package fsck

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hammer2/internal/imagebuilder"
	"github.com/deploymenttheory/go-hammer2/pkg/app"
)

// writeSample stores the sample image in a temp dir after applying mutate.
func writeSample(t *testing.T, mutate func(s *imagebuilder.Sample)) string {
	t.Helper()
	sample, err := imagebuilder.NewSample(imagebuilder.DefaultSampleSize)
	require.NoError(t, err)
	if mutate != nil {
		mutate(sample)
	}
	path := filepath.Join(t.TempDir(), "hammer2.img")
	require.NoError(t, sample.Builder.WriteFile(path))
	return path
}

func testContext() (*app.Context, *bytes.Buffer) {
	ctx := app.NewContext()
	var stderr bytes.Buffer
	ctx.Stderr = &stderr
	ctx.Out = &bytes.Buffer{}
	return ctx, &stderr
}
