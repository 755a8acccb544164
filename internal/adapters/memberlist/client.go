// Package memberlist fetches member record sets from the national
// membership system's export API.
package memberlist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"bmmregistration/internal/domain"
)

type httpSource struct {
	client *http.Client
	apiKey string
}

// NewHTTPSource returns a MemberImportSource that fetches the export the
// source URL points at. The API key is optional; when set it is sent as a
// bearer token.
func NewHTTPSource(client *http.Client, apiKey string) domain.MemberImportSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpSource{client: client, apiKey: apiKey}
}

func (f *httpSource) Fetch(ctx context.Context, source string) ([]*domain.MemberImportRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("member list api returned status: %d", resp.StatusCode)
	}

	var payload struct {
		Members []*domain.MemberImportRecord `json:"members"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode member list response: %w", err)
	}
	return payload.Members, nil
}
