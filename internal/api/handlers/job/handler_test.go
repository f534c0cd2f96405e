package job

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/image-resizer/internal/model"
)

type fakePublisher struct {
	jobs []model.BatchJob
	err  error
}

func (f *fakePublisher) PublishJob(_ context.Context, job model.BatchJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

var defaults = model.BatchJob{
	Width:            1280,
	Height:           720,
	KeepAspect:       true,
	Quality:          95,
	Format:           "JPEG",
	PreserveMetadata: true,
}

func serve(t *testing.T, p publisher, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := ginext.New()
	r.POST("/api/jobs", NewHandler(p, defaults).Submit)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmit_AppliesDefaults(t *testing.T) {
	p := &fakePublisher{}
	w := serve(t, p, `{"paths":["a.png","b.png"],"format":"webp","keep_aspect":false}`)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	require.Len(t, p.jobs, 1)

	job := p.jobs[0]
	assert.Equal(t, []string{"a.png", "b.png"}, job.Paths)
	assert.Equal(t, "WEBP", job.Format)
	assert.False(t, job.KeepAspect)
	assert.Equal(t, 1280, job.Width)
	assert.Equal(t, 95, job.Quality)
	assert.True(t, job.PreserveMetadata)

	var resp struct {
		Result struct {
			ID    string `json:"id"`
			Paths int    `json:"paths"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, job.ID.String(), resp.Result.ID)
	assert.Equal(t, 2, resp.Result.Paths)
}

func TestSubmit_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"paths":`},
		{"no paths", `{"paths":[]}`},
		{"blank path", `{"paths":[""]}`},
		{"quality out of range", `{"paths":["a.png"],"quality":101}`},
		{"width out of range", `{"paths":["a.png"],"width":20001}`},
		{"unsupported format", `{"paths":["a.png"],"format":"gif"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePublisher{}
			w := serve(t, p, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, p.jobs)
		})
	}
}

func TestSubmit_PublishFailure(t *testing.T) {
	w := serve(t, &fakePublisher{err: errors.New("broker down")}, `{"paths":["a.png"]}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "broker down")
}
