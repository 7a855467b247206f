package jsonapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRoundTrip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":42}`))
	}))
	defer ts.Close()

	var out struct {
		Answer int `json:"answer"`
	}
	status, err := Do(context.Background(), ts.Client(), http.MethodPost, ts.URL, map[string]string{"q": "x"}, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 42, out.Answer)
}

func TestDoNoContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	var out map[string]interface{}
	status, err := Do(context.Background(), ts.Client(), http.MethodGet, ts.URL, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Nil(t, out)
}

func TestDoErrorBodyTruncated(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("x", 4*MaxErrorBody), http.StatusConflict)
	}))
	defer ts.Close()

	status, err := Do(context.Background(), ts.Client(), http.MethodGet, ts.URL, nil, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, status)

	var he HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusConflict, he.Status)
	assert.Len(t, he.Body, MaxErrorBody)
}
