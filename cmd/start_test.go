package cmd

import (
	"context"
	"net/http/httptest"
	"testing"

	"stash-ingest/core/config"
	"stash-ingest/core/cursor"
	"stash-ingest/core/feed"
	"stash-ingest/core/metrics"
	"stash-ingest/core/middleware/auth"
	"stash-ingest/feature/detector"
	"stash-ingest/feature/ingest"
	"stash-ingest/feature/modifier"
	"stash-ingest/feature/output"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type idleFetcher struct{}

func (idleFetcher) FetchPage(ctx context.Context, _ string) (*feed.Page, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type discardSink struct{}

func (discardSink) Write(context.Context, output.Rows) (output.Report, error) {
	return output.Report{}, nil
}

func TestStatusApp(t *testing.T) {
	log := zap.NewNop()
	m := metrics.New()

	catalog := modifier.NewCatalog(modifier.StaticLoader{{ModifierID: 1, Effect: "Cannot be Frozen"}}, log, m)
	require.NoError(t, catalog.Init(context.Background()))
	pipeline, err := detector.NewPipeline(detector.Config{Variants: []string{detector.VariantUnique}}, detector.DedupConfig{Generations: 1}, log, m)
	require.NoError(t, err)

	writer := output.NewWriter(discardSink{}, 1, log)
	defer writer.Close()

	svc, err := ingest.NewService(ingest.Options{
		Fetcher:  idleFetcher{},
		Cursors:  cursor.NewMemory(""),
		Catalog:  catalog,
		Pipeline: pipeline,
		Writer:   writer,
		Logger:   log,
		Metrics:  m,
	})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.ApiKey = "secret"
	app := newStatusApp(cfg, log, m, svc)

	tests := []struct {
		name string
		path string
		key  string
		want int
	}{
		{"HealthIsPublic", "/health", "", 200},
		{"MetricsNeedsKey", "/metrics", "", 401},
		{"Metrics", "/metrics", "secret", 200},
		{"IngestStatus", "/ingest/status", "secret", 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.key != "" {
				req.Header.Set(auth.Header, tt.key)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
