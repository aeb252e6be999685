// Package vep queries the Ensembl Variant Effect Predictor REST service.
package vep

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inodb/vibe-annotate/internal/datasource"
	"github.com/inodb/vibe-annotate/internal/vcf"
)

// DefaultBaseURL points at the GRCh37 Ensembl REST service, matching the
// assembly the inputs are called against.
const DefaultBaseURL = "https://grch37.rest.ensembl.org"

// Client fetches variant effects from the VEP region endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a VEP client. An empty baseURL selects DefaultBaseURL.
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
	return "vep"
}

type vepRequest struct {
	Variants []string `json:"variants"`
}

type vepResult struct {
	MostSevereConsequence string `json:"most_severe_consequence"`
}

// Effects returns the most severe consequence for each variant. The response
// is positional: entry i belongs to variants[i]. The caller is responsible
// for rejecting responses of the wrong length.
func (c *Client) Effects(variants []*vcf.Variant) ([]string, error) {
	regions := make([]string, len(variants))
	for i, v := range variants {
		regions[i] = strings.Join([]string{v.Chrom, v.Pos, v.ID, v.Ref, v.Alt}, "\t")
	}

	body, err := json.Marshal(vepRequest{Variants: regions})
	if err != nil {
		return nil, fmt.Errorf("encode vep request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/vep/homo_sapiens/region/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create vep request: %w", err)
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

	var results []vepResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode vep response: %w", err)
	}

	effects := make([]string, len(results))
	for i, r := range results {
		effects[i] = r.MostSevereConsequence
	}

	return effects, nil
}
