package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// MarketplaceAliasIndex resolves collection slugs through a marketplace
// listings API: the first listed asset of a slug is enough to derive the
// collection's canonical addresses.
type MarketplaceAliasIndex struct {
	baseURL string
	http    *http.Client
}

func NewMarketplaceAliasIndex(baseURL string, timeout time.Duration) *MarketplaceAliasIndex {
	return &MarketplaceAliasIndex{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// FirstAssetForSlug returns the mint of the first asset listed under the
// slug, or "" when the slug is unknown.
func (m *MarketplaceAliasIndex) FirstAssetForSlug(ctx context.Context, s string) (string, error) {
	endpoint := fmt.Sprintf("%s/collections/%s/listings?offset=0&limit=1", m.baseURL, url.PathEscape(s))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build listings request: %w", err)
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup slug %q: %w", s, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup slug %q: unexpected status %d", s, resp.StatusCode)
	}

	var listings []struct {
		TokenMint string `json:"tokenMint"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return "", fmt.Errorf("decode listings for slug %q: %w", s, err)
	}
	if len(listings) == 0 {
		return "", nil
	}
	return listings[0].TokenMint, nil
}
