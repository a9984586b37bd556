package greenhouse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/scrape/util"
)

func TestFetch_SkipsFailingBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/boards/acme/jobs":
			assert.Equal(t, "true", r.URL.Query().Get("content"))
			assert.Equal(t, util.UserAgent, r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`{"jobs":[{"id":1,"title":"Product Manager, KYC",
				"absolute_url":"https://boards.greenhouse.io/acme/jobs/1",
				"updated_at":"2026-03-01T09:00:00Z","content":"&lt;p&gt;KYC&lt;/p&gt;",
				"location":{"name":"London"}}]}`))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	s := New(Config{Boards: []string{"acme", "broken"}, BaseURL: srv.URL}, util.NewClient(0, nil), zap.New(core))

	res, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Greenhouse", res.Source)
	require.Len(t, res.Postings, 1)

	p, ok := res.Postings[0].(domain.GreenhousePosting)
	require.True(t, ok)
	assert.Equal(t, "acme", p.Board)
	assert.Equal(t, "Product Manager, KYC", p.Title)
	assert.Equal(t, "London", p.LocationName)
	assert.Equal(t, "&lt;p&gt;KYC&lt;/p&gt;", p.Content)

	warns := logs.FilterMessage("board fetch failed").All()
	require.Len(t, warns, 1)
	assert.Equal(t, "broken", warns[0].ContextMap()["board"])
	assert.Equal(t, "greenhouse", warns[0].ContextMap()["source"])
}

func TestFetch_NoBoards(t *testing.T) {
	res, err := New(Config{}, util.NewClient(0, nil), nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Postings)
}
