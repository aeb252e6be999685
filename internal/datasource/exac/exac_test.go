package exac

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-annotate/internal/datasource"
	"github.com/inodb/vibe-annotate/internal/vcf"
)

func TestClient_Frequencies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rest/bulk/variant", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var keys []string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&keys))
		require.Equal(t, []string{"14-21853913-T-C", "22-46615880-T-C", "1-1277533-T-C,G"}, keys)

		// One known variant, one known without a frequency, one unknown.
		w.Write([]byte(`{
			"14-21853913-T-C": {"variant": {"allele_freq": 0.0123456, "allele_count": 5}},
			"22-46615880-T-C": {"variant": {"allele_count": 0}}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	freqs, err := client.Frequencies([]*vcf.Variant{
		{Chrom: "14", Pos: "21853913", Ref: "T", Alt: "C"},
		{Chrom: "22", Pos: "46615880", Ref: "T", Alt: "C"},
		{Chrom: "1", Pos: "1277533", Ref: "T", Alt: "C,G"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0.01235", ".", "."}, freqs)
}

func TestClient_Frequencies_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("down for maintenance"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Frequencies([]*vcf.Variant{{Chrom: "1", Pos: "1", Ref: "A", Alt: "G"}})

	var svcErr *datasource.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "exac", svcErr.Service)
	assert.Equal(t, http.StatusServiceUnavailable, svcErr.Status)
	assert.Contains(t, svcErr.Body, "down for maintenance")
}

func TestClient_Frequencies_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Frequencies([]*vcf.Variant{{Chrom: "1", Pos: "1", Ref: "A", Alt: "G"}})

	var svcErr *datasource.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "exac", svcErr.Service)
	assert.Zero(t, svcErr.Status)
}

func TestClient_Frequencies_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Frequencies([]*vcf.Variant{{Chrom: "1", Pos: "1", Ref: "A", Alt: "G"}})
	assert.Error(t, err)
}

func TestFormatFrequency(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"common variant", `{"v": 0.6365047771 }`, "0.6365"},
		{"rare variant", `{"v": 1.6470982142857142e-05}`, "1.647e-05"},
		{"four significant digits", `{"v": 0.0123456}`, "0.01235"},
		{"integer count", `{"v": 1}`, "1"},
		{"numeric string", `{"v": "0.5"}`, "0.5"},
		{"non-numeric string", `{"v": "unknown"}`, "."},
		{"null", `{"v": null}`, "."},
		{"object", `{"v": {"nested": true}}`, "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := gabs.ParseJSON([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.want, formatFrequency(parsed.Search("v")))
		})
	}
}

func TestFormatFrequency_Missing(t *testing.T) {
	assert.Equal(t, MissingFrequency, formatFrequency(nil))
}
