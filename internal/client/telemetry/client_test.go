package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/esareynor/ffws-jatim-sub001/internal/config"
	"github.com/esareynor/ffws-jatim-sub001/internal/credentials"
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

func testClient(retries int, vault *credentials.Vault) *Client {
	return New(config.IngestConfig{
		Timeout:    2 * time.Second,
		Retries:    retries,
		RetryDelay: time.Millisecond,
		UserAgent:  "ffws-test",
	}, vault, nil)
}

func TestFetchGETWithParamsHeadersAndBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.Equal(t, "jatim", r.Header.Get("X-Region"))
		require.Equal(t, "ffws-test", r.Header.Get("User-Agent"))
		require.Equal(t, "50", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	src := &models.Source{
		Code:            "awlr_pusda",
		APIURL:          srv.URL,
		APIMethod:       "GET",
		Headers:         datatypes.JSON(`{"X-Region":"jatim"}`),
		Params:          datatypes.JSON(`{"limit":50}`),
		AuthType:        models.AuthBearer,
		AuthCredentials: `{"token":"tok-1"}`,
	}
	resp, err := testClient(0, nil).Fetch(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.JSONEq(t, `{"data":[]}`, string(resp.Body))
}

func TestFetchPOSTSendsJSONBodyAndAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "k-9", r.Header.Get(DefaultAPIKeyHeader))
		require.Contains(t, r.Header.Get("Content-Type"), "application/json")
		b, _ := io.ReadAll(r.Body)
		var body map[string]any
		require.NoError(t, json.Unmarshal(b, &body))
		require.Equal(t, "rain", body["kind"])
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	src := &models.Source{
		Code:            "arr_bmkg",
		APIURL:          srv.URL,
		APIMethod:       "POST",
		Body:            datatypes.JSON(`{"kind":"rain"}`),
		AuthType:        models.AuthAPIKey,
		AuthCredentials: `{"key":"k-9"}`,
	}
	_, err := testClient(0, nil).Fetch(context.Background(), src)
	require.NoError(t, err)
}

func TestFetchBasicAuthWithSealedCredentials(t *testing.T) {
	vault := credentials.NewVault("0123456789abcdef0123456789abcdef")
	sealed, err := vault.Seal(credentials.Bundle{Username: "u", Password: "p"})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "u", user)
		require.Equal(t, "p", pass)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	src := &models.Source{Code: "s", APIURL: srv.URL, AuthType: models.AuthBasic, AuthCredentials: sealed}
	_, err = testClient(0, vault).Fetch(context.Background(), src)
	require.NoError(t, err)
}

func TestFetchRetriesThenReportsStatus(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	src := &models.Source{Code: "s", APIURL: srv.URL}
	resp, err := testClient(2, nil).Fetch(context.Background(), src)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrHTTPStatus))
	require.Equal(t, "HTTP request failed with status 502: upstream down", err.Error())
	require.Equal(t, http.StatusBadGateway, resp.Status)
	require.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestFetchRecoversAfterTransientFailure(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	resp, err := testClient(3, nil).Fetch(context.Background(), &models.Source{Code: "s", APIURL: srv.URL})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	cases := []struct {
		status int
		hits   int32
	}{
		{http.StatusBadRequest, 1},
		{http.StatusUnauthorized, 1},
		{http.StatusNotFound, 1},
		{http.StatusTooManyRequests, 3},
		{http.StatusInternalServerError, 3},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			resp, err := testClient(2, nil).Fetch(context.Background(), &models.Source{Code: "s", APIURL: srv.URL})
			require.ErrorIs(t, err, ErrHTTPStatus)
			require.Equal(t, tc.status, resp.Status)
			require.Equal(t, tc.hits, atomic.LoadInt32(&hits))
		})
	}
}

func TestFetchRejectsUnknownMethodAndAuth(t *testing.T) {
	c := testClient(0, nil)
	_, err := c.Fetch(context.Background(), &models.Source{Code: "s", APIURL: "http://127.0.0.1:1", APIMethod: "DELETE"})
	require.Error(t, err)
	_, err = c.Fetch(context.Background(), &models.Source{Code: "s", APIURL: "http://127.0.0.1:1", AuthType: "oauth", AuthCredentials: `{"token":"x"}`})
	require.Error(t, err)
}

func TestStringMapFlattensValues(t *testing.T) {
	m, err := stringMap([]byte(`{"a":1,"b":true,"c":"x","d":{"e":1},"f":null}`))
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "true", "c": "x", "d": `{"e":1}`, "f": ""}, m)

	m, err = stringMap(nil)
	require.NoError(t, err)
	require.Empty(t, m)
}
