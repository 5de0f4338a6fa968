package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/livez", probeURL("8080", false))
	assert.Equal(t, "http://localhost:8080/readyz", probeURL("8080", true))
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/readyz" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, probe(t.Context(), srv.Client(), srv.URL+"/livez"))

	err := probe(t.Context(), srv.Client(), srv.URL+"/readyz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.Error(t, probe(t.Context(), http.DefaultClient, url+"/livez"))
}
