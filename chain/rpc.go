package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const tokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// GetAssetBatchLimit is the provider-side cap on mints per getAssetBatch call.
const GetAssetBatchLimit = 100

// RPCClient implements AssetIndex and BulkAssetIndex against a JSON-RPC
// endpoint that supports the standard token methods plus the DAS asset API.
type RPCClient struct {
	endpoint string
	http     *http.Client
}

func NewRPCClient(endpoint string, timeout time.Duration) *RPCClient {
	return &RPCClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *RPCClient) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: rate limited (429)", method)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s: %w", method, envelope.Error)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("unmarshal %s result: %w", method, err)
		}
	}
	return nil
}

// ListHoldings returns every token account of the owner under the token
// program, including fungible balances; callers filter with SingleUnit.
func (c *RPCClient) ListHoldings(ctx context.Context, owner string) ([]Holding, error) {
	params := []any{
		owner,
		map[string]string{"programId": tokenProgramID},
		map[string]string{"encoding": "jsonParsed"},
	}

	var result struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							Mint        string `json:"mint"`
							TokenAmount struct {
								Amount   string `json:"amount"`
								Decimals int    `json:"decimals"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return nil, err
	}

	holdings := make([]Holding, 0, len(result.Value))
	for _, v := range result.Value {
		info := v.Account.Data.Parsed.Info
		amount, err := strconv.ParseUint(info.TokenAmount.Amount, 10, 64)
		if err != nil {
			continue
		}
		holdings = append(holdings, Holding{
			Mint:     info.Mint,
			Amount:   amount,
			Decimals: info.TokenAmount.Decimals,
		})
	}
	return holdings, nil
}

type dasAsset struct {
	ID      string `json:"id"`
	Content struct {
		JSONURI  string `json:"json_uri"`
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
	} `json:"content"`
	Grouping []struct {
		GroupKey   string `json:"group_key"`
		GroupValue string `json:"group_value"`
		Verified   *bool  `json:"verified,omitempty"`
	} `json:"grouping"`
	Creators []struct {
		Address  string `json:"address"`
		Verified bool   `json:"verified"`
		Share    int    `json:"share"`
	} `json:"creators"`
}

func (a *dasAsset) toMetadata() *AssetMetadata {
	if a == nil || a.ID == "" {
		return nil
	}
	meta := &AssetMetadata{
		Mint: a.ID,
		Name: a.Content.Metadata.Name,
		URI:  a.Content.JSONURI,
	}
	for _, g := range a.Grouping {
		if g.GroupKey != "collection" {
			continue
		}
		// DAS omits the verified flag for collections verified on-chain.
		verified := g.Verified == nil || *g.Verified
		meta.Collection = &CollectionLink{Key: g.GroupValue, Verified: verified}
		break
	}
	for _, cr := range a.Creators {
		meta.Creators = append(meta.Creators, Creator{
			Address:  cr.Address,
			Verified: cr.Verified,
			Share:    cr.Share,
		})
	}
	return meta
}

// GetAsset fetches on-chain metadata for a single mint.
func (c *RPCClient) GetAsset(ctx context.Context, mint string) (*AssetMetadata, error) {
	var asset dasAsset
	if err := c.call(ctx, "getAsset", map[string]string{"id": mint}, &asset); err != nil {
		return nil, err
	}
	meta := asset.toMetadata()
	if meta == nil {
		return nil, fmt.Errorf("getAsset: empty result for mint %s", mint)
	}
	return meta, nil
}

// GetAssetBatch fetches metadata for up to GetAssetBatchLimit mints in one
// call. The result keeps input order; mints the index does not know are
// returned as nil entries.
func (c *RPCClient) GetAssetBatch(ctx context.Context, mints []string) ([]*AssetMetadata, error) {
	if len(mints) == 0 {
		return nil, nil
	}
	if len(mints) > GetAssetBatchLimit {
		return nil, fmt.Errorf("getAssetBatch: %d mints exceeds limit %d", len(mints), GetAssetBatchLimit)
	}

	var assets []*dasAsset
	if err := c.call(ctx, "getAssetBatch", map[string][]string{"ids": mints}, &assets); err != nil {
		return nil, err
	}

	out := make([]*AssetMetadata, len(mints))
	for i, a := range assets {
		if i >= len(out) {
			break
		}
		out[i] = a.toMetadata()
	}
	return out, nil
}

// FetchOffChain downloads and decodes the JSON document behind an asset URI.
func (c *RPCClient) FetchOffChain(ctx context.Context, uri string) (*OffChainMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build metadata request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch metadata %s: unexpected status %d", uri, resp.StatusCode)
	}

	var doc OffChainMetadata
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", uri, err)
	}
	return &doc, nil
}
