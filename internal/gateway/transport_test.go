package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestHTTPTransportHeadersAndBody(t *testing.T) {
	var got *http.Request
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"draft","updated":1}`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL+"/api/", time.Second, staticToken("tok"), "de", nil)
	tr.newID = func() string { return "req-1" }

	data, err := tr.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/esg/dashboard/bulk-update/",
		Body:   map[string]string{"status": "draft"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"draft","updated":1}`, string(data))
	assert.Equal(t, "/api/esg/dashboard/bulk-update/", got.URL.Path)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "de", got.Header.Get("Accept-Language"))
	assert.Equal(t, "req-1", got.Header.Get("X-Request-ID"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"status":"draft"}`, gotBody)
}

func TestHTTPTransportAPIErrors(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		wantMsg    string
		wantUnauth bool
	}{
		{"error key", 400, `{"error":"invalid question_id"}`, "invalid question_id", false},
		{"detail key", 403, `{"detail":"You do not have permission."}`, "You do not have permission.", true},
		{"field errors", 400, `{"priority":["Ensure this value is less than or equal to 4."]}`, "priority: Ensure this value is less than or equal to 4.", false},
		{"non field", 400, `{"non_field_errors":["Year already submitted."]}`, "Year already submitted.", false},
		{"html body", 502, `<html>bad gateway</html>`, "", false},
		{"plain text", 401, `unauthorized`, "unauthorized", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewHTTPTransport(srv.URL, time.Second, nil, "", nil).Do(context.Background(), Request{Method: http.MethodGet, Path: "/x/"})
			apiErr, ok := AsAPIError(err)
			require.True(t, ok, "want APIError, got %v", err)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.wantMsg, apiErr.Message())
			assert.Equal(t, tc.wantUnauth, apiErr.Unauthorized())
		})
	}
}

func TestHTTPTransportNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPTransport(url, time.Second, nil, "", nil).Do(context.Background(), Request{Method: http.MethodGet, Path: "/x/"})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	_, isAPI := AsAPIError(err)
	assert.False(t, isAPI)
}
