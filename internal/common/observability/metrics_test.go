package observability

import (
	"context"
	"errors"
	"strings"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordsFlows(t *testing.T) {
	reg := promclient.NewRegistry()
	o := NewWithRegisterer("bank-client-test", reg)
	defer o.Shutdown()

	ctx := context.Background()
	o.Track(ctx, "sign-in")(nil)
	o.Track(ctx, "sign-in")(errors.New("bad credentials"))

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "flows_executed")
	assert.Contains(t, joined, "flows_duration")
}

func TestObservability_NilIsSafe(t *testing.T) {
	var o *Observability
	assert.NotPanics(t, func() {
		o.Track(context.Background(), "noop")(nil)
		o.Shutdown()
	})
}
