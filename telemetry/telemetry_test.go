package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

func TestProvider_Totals(t *testing.T) {
	p := New()
	ctx := context.Background()

	c, err := p.Meter("test").Int64Counter("test.count")
	require.NoError(t, err)

	c.Add(ctx, 2)
	c.Add(ctx, 3)

	totals, err := p.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), totals["test.count"])

	require.NoError(t, p.Shutdown(ctx))

	_, err = p.Totals(ctx)
	assert.ErrorIs(t, err, pkg.ErrTelemetry, "collect after shutdown")
}

func TestProvider_TotalsEmpty(t *testing.T) {
	p := New()
	defer p.Shutdown(context.Background())

	totals, err := p.Totals(context.Background())
	require.NoError(t, err)
	assert.Empty(t, totals)
}
