// Package exac queries the ExAC bulk variant API for allele frequencies.
package exac

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Jeffail/gabs"

	"github.com/inodb/vibe-annotate/internal/datasource"
	"github.com/inodb/vibe-annotate/internal/vcf"
)

// DefaultBaseURL points at the public ExAC browser API.
const DefaultBaseURL = "http://exac.hms.harvard.edu"

// MissingFrequency marks a variant ExAC has no usable allele frequency for.
const MissingFrequency = "."

// Client fetches allele frequencies from the ExAC bulk variant endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an ExAC client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name identifies the service in logs and errors.
func (c *Client) Name() string {
	return "exac"
}

// Frequencies returns the formatted allele frequency for each variant, in
// input order. The response is keyed by "chrom-pos-ref-alt", so order and
// cardinality of the reply do not matter. Variants ExAC does not know, or
// knows without a numeric allele_freq, get MissingFrequency; only transport
// and decode failures are errors.
func (c *Client) Frequencies(variants []*vcf.Variant) ([]string, error) {
	keys := make([]string, len(variants))
	for i, v := range variants {
		keys[i] = v.Key()
	}

	body, err := json.Marshal(keys)
	if err != nil {
		return nil, fmt.Errorf("encode exac request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/rest/bulk/variant", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create exac request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &datasource.ServiceError{Service: c.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &datasource.ServiceError{Service: c.Name(), Status: resp.StatusCode, Body: string(respBody)}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read exac response: %w", err)
	}
	parsed, err := gabs.ParseJSON(respBody)
	if err != nil {
		return nil, fmt.Errorf("decode exac response: %w", err)
	}

	freqs := make([]string, len(keys))
	for i, key := range keys {
		freqs[i] = formatFrequency(parsed.Search(key, "variant", "allele_freq"))
	}

	return freqs, nil
}

// formatFrequency renders an allele frequency to four significant digits.
func formatFrequency(node *gabs.Container) string {
	if node == nil {
		return MissingFrequency
	}

	switch value := node.Data().(type) {
	case float64:
		return fmt.Sprintf("%.4g", value)
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return MissingFrequency
		}
		return fmt.Sprintf("%.4g", f)
	default:
		return MissingFrequency
	}
}
