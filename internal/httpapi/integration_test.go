package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/subloc/subloc/internal/jobs"
	"github.com/subloc/subloc/internal/service"
	"github.com/subloc/subloc/internal/translator"
)

type prefixClient struct {
	prefix string
}

func (c *prefixClient) TranslateBatch(_ context.Context, texts []string, _ translator.Options) ([]string, error) {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = c.prefix + text
	}
	return out, nil
}

type recordingSink struct {
	records []service.HistoryRecord
}

func (s *recordingSink) AppendHistory(_ context.Context, record service.HistoryRecord) error {
	s.records = append(s.records, record)
	return nil
}

// Uploads a file over HTTP, lets the worker translate it through a stub
// client and downloads the result, covering the whole run lifecycle the
// way cmd/main.go wires it.
func TestServer_UploadTranslateDownloadFlow(t *testing.T) {
	srv, queue, _ := newTestServer(t)

	sink := &recordingSink{}
	processor := service.NewProcessor(&prefixClient{prefix: "[ZH] "}, 100, 5, sink)
	queue.Start(func(ctx context.Context, run *jobs.Run) error {
		return processor.Process(ctx, run.Files, run.Options, service.RunCallbacks{
			OnProgress: func(p float64) { queue.UpdateProgress(run.ID, p) },
			OnFile:     func(item service.FileItem) { queue.UpdateFile(run.ID, item) },
		})
	})
	t.Cleanup(queue.Stop)

	body, contentType := multipartBody(t,
		map[string]string{"target_lang": "zh"},
		[]uploadFile{{name: "episode01.srt", content: sampleSRT}},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/runs", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created jobs.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	require.Eventually(t, func() bool {
		got, ok := queue.Get(created.ID)
		return ok && got.Status == jobs.StatusSuccess
	}, 2*time.Second, 10*time.Millisecond)

	done, ok := queue.Get(created.ID)
	require.True(t, ok)
	require.Equal(t, 100.0, done.Progress)
	require.Len(t, done.Files, 1)
	require.Equal(t, service.StatusDone, done.Files[0].Status)
	require.Equal(t, 7, done.Files[0].WordCount)

	req = httptest.NewRequest(http.MethodGet, "/api/runs/"+created.ID+"/files/"+done.Files[0].ID+"/download", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	want := "1\n00:00:01,000 --> 00:00:02,000\n[ZH] Hello there\n\n2\n00:00:03,000 --> 00:00:04,000\n[ZH] How are you\n"
	require.Equal(t, want, rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Disposition"), "episode01.zh.srt")

	require.Len(t, sink.records, 1)
	require.Equal(t, "episode01.srt", sink.records[0].Filename)
	require.Equal(t, "zh", sink.records[0].TargetLang)
}
