package apiclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type testFixture struct {
	server  *httptest.Server
	client  *apiclient.Client
	authHdr atomic.Value
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/wrapped", func(w http.ResponseWriter, r *http.Request) {
		f.authHdr.Store(r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"status":200,"message":"ok","data":[{"id":1,"name":"one"},{"id":2,"name":"two"}]}`)
	})
	mux.HandleFunc("GET /api/raw", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":3,"name":"three"}]`)
	})
	mux.HandleFunc("POST /api/page", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":200,"data":{"content":[{"id":4,"name":"four"}],"page":1,"size":10,"totalElements":1,"totalPages":1}}`)
	})
	mux.HandleFunc("GET /api/denied", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"Access is denied"}`)
	})
	mux.HandleFunc("GET /api/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("POST /api/upload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": len(data), "name": header.Filename}})
	})
	mux.HandleFunc("GET /api/image", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	f.client = apiclient.New(f.server.URL+"/api/", apiclient.WithHTTPClient(f.server.Client()))
	return f
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("unwraps data envelope and attaches bearer token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.client.UseTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t1"}))

		var items []item
		require.NoError(t, f.client.Get(ctx, "wrapped", &items))
		require.Equal(t, []item{{1, "one"}, {2, "two"}}, items)
		require.Equal(t, "Bearer t1", f.authHdr.Load())
	})

	t.Run("no token source sends no authorization", func(t *testing.T) {
		f := setupTestFixture(t)
		var items []item
		require.NoError(t, f.client.Get(ctx, "wrapped", &items))
		require.Equal(t, "", f.authHdr.Load())
	})

	t.Run("context token overrides source", func(t *testing.T) {
		f := setupTestFixture(t)
		f.client.UseTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "current"}))
		ctx := apiclient.ContextWithToken(ctx, &oauth2.Token{AccessToken: "previous", TokenType: "bearer"})
		require.NoError(t, f.client.Get(ctx, "wrapped", nil))
		require.Equal(t, "Bearer previous", f.authHdr.Load())
	})

	t.Run("raw body without envelope", func(t *testing.T) {
		f := setupTestFixture(t)
		var items []item
		require.NoError(t, f.client.Get(ctx, "raw", &items))
		require.Equal(t, []item{{3, "three"}}, items)
	})

	t.Run("paginated envelope", func(t *testing.T) {
		f := setupTestFixture(t)
		var page apiclient.Page[item]
		status, err := f.client.Do(ctx, http.MethodPost, "page", map[string]int{"page": 1}, &page)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, []item{{4, "four"}}, page.Content)
		require.Equal(t, 1, page.TotalPages)
	})

	t.Run("backend message is carried on error", func(t *testing.T) {
		f := setupTestFixture(t)
		status, err := f.client.Do(ctx, http.MethodGet, "denied", nil, nil)
		require.Error(t, err)
		require.Equal(t, http.StatusForbidden, status)
		require.Equal(t, "Access is denied", apiclient.MessageOr(err, "fallback"))
	})

	t.Run("fallback when backend gives no message", func(t *testing.T) {
		f := setupTestFixture(t)
		err := f.client.Get(ctx, "broken", nil)
		require.Equal(t, http.StatusInternalServerError, apiclient.StatusOf(err))
		require.Equal(t, "Loading failed", apiclient.MessageOr(err, "Loading failed"))
	})

	t.Run("transport failure", func(t *testing.T) {
		f := setupTestFixture(t)
		f.server.Close()
		err := f.client.Get(ctx, "raw", nil)
		require.Error(t, err)
		require.Equal(t, 0, apiclient.StatusOf(err))
		require.Equal(t, "Something went wrong!", apiclient.MessageOr(err, "Something went wrong!"))
	})
}

func TestUploadDownload(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	var uploaded item
	require.NoError(t, f.client.Upload(ctx, "upload", "file", "qr.png", strings.NewReader("abcde"), &uploaded))
	require.Equal(t, item{ID: 5, Name: "qr.png"}, uploaded)

	data, contentType, err := f.client.Download(ctx, "image")
	require.NoError(t, err)
	require.Equal(t, "image/png", contentType)
	require.Len(t, data, 4)
}

func TestPath(t *testing.T) {
	require.Equal(t, "accounts/7/upload-qr", apiclient.Path(apiclient.EndpointAccountUploadQR, 7))
	require.Equal(t, "trans/dashboard/week", apiclient.DashboardPath("week"))
}
