package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{
		WithBaseURL(srv.URL),
		WithReadRetry(retry.Config{MaxAttempts: 2}),
	}, opts...)
	return New("test-key", opts...), srv
}

func TestDo_AttachesHeadersAndQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "/plans", r.URL.Path)
		assert.Equal(t, "vc2", r.URL.Query().Get("type"))
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"plans":[]}`)
	})

	resp, err := c.Do(context.Background(), Request{
		Op:     "list plans",
		Method: http.MethodGet,
		Path:   "/plans",
		Query:  url.Values{"type": {"vc2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"plans":[]}`, string(resp.Body))
}

func TestDo_SendsJSONBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nrt", body["region"])
		w.WriteHeader(http.StatusAccepted)
	})

	resp, err := c.Do(context.Background(), Request{
		Op:     "create instance",
		Method: http.MethodPost,
		Path:   "/instances",
		Body:   map[string]string{"region": "nrt"},
		Expect: []int{http.StatusCreated, http.StatusAccepted},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestDo_ClientErrorKeepsProviderMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"Invalid plan chosen.","status":400}`)
	})

	_, err := c.Do(context.Background(), Request{Op: "create instance", Method: http.MethodPost, Path: "/instances"})
	require.Error(t, err)

	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, domain.KindClient, derr.Kind)
	assert.Equal(t, http.StatusBadRequest, derr.StatusCode)
	assert.Equal(t, "Invalid plan chosen.", derr.Message)
}

func TestDo_UnauthorizedMatchesSentinel(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Do(context.Background(), Request{Op: "list regions", Method: http.MethodGet, Path: "/regions"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestDo_GetRetriedOnceOnServerError(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"regions":[]}`)
	})

	_, err := c.Do(context.Background(), Request{Op: "list regions", Method: http.MethodGet, Path: "/regions"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestDo_GetGivesUpAfterSecondFailure(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Do(context.Background(), Request{Op: "list regions", Method: http.MethodGet, Path: "/regions"})
	require.Error(t, err)
	assert.Equal(t, domain.KindServer, domain.KindOf(err))
	assert.EqualValues(t, 2, calls.Load())
}

func TestDo_MutationNeverRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Do(context.Background(), Request{
		Op:     "start instance",
		Method: http.MethodPost,
		Path:   "/instances/abc/start",
		Expect: []int{http.StatusNoContent},
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindServer, domain.KindOf(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestDo_TimeoutIsNetworkFailure(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(20*time.Millisecond), WithReadRetry(retry.Once()))
	defer close(release)

	_, err := c.Do(context.Background(), Request{Op: "list regions", Method: http.MethodGet, Path: "/regions"})
	require.Error(t, err)
	assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
}

func TestDo_ExpiredContextIsNetworkFailure(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := c.Do(ctx, Request{Op: "list regions", Method: http.MethodGet, Path: "/regions"})
	require.Error(t, err)
	assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, hits.Load(), "no request should be sent")
}

func TestDo_CancelledContextIsNetworkFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Do(ctx, Request{Op: "stop instance", Method: http.MethodPost, Path: "/instances/halt"})
	require.Error(t, err)
	assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_ConnectionRefusedIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := New("k", WithBaseURL(addr), WithReadRetry(retry.Once()))
	_, err := c.Do(context.Background(), Request{Op: "list regions", Method: http.MethodGet, Path: "/regions"})
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
	assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
}

func TestDoJSON_MalformedBodyIsServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"regions": [`)
	}, WithReadRetry(retry.Once()))

	var out struct{}
	_, err := c.DoJSON(context.Background(), Request{Op: "list regions", Method: http.MethodGet, Path: "/regions"}, &out)
	require.Error(t, err)
	assert.Equal(t, domain.KindServer, domain.KindOf(err))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		expect []int
		want   domain.Kind
	}{
		{"expected 200", 200, "", nil, 0},
		{"expected 204", 204, "", []int{204}, 0},
		{"unexpected 2xx", 200, "", []int{204}, domain.KindServer},
		{"not found", 404, `{"error":"Invalid instance-id."}`, []int{204}, domain.KindClient},
		{"rate limited", 429, "", nil, domain.KindClient},
		{"server", 500, "<html>oops</html>", nil, domain.KindServer},
		{"redirect", 302, "", nil, domain.KindServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("op", tt.status, []byte(tt.body), tt.expect)
			if tt.want == 0 {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, domain.KindOf(err))
		})
	}
}

func TestClassify_PlainTextMessage(t *testing.T) {
	err := Classify("op", 403, []byte("Unauthorized IP address"), nil)
	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "Unauthorized IP address", derr.Message)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
