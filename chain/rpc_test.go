package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func rpcServer(t *testing.T, handler func(method string, params json.RawMessage) (any, *rpcError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": 1}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestListHoldingsParsesTokenAccounts(t *testing.T) {
	srv := rpcServer(t, func(method string, params json.RawMessage) (any, *rpcError) {
		if method != "getTokenAccountsByOwner" {
			return nil, &rpcError{Code: -32601, Message: "unknown method"}
		}
		account := func(mint, amount string, decimals int) map[string]any {
			return map[string]any{
				"account": map[string]any{
					"data": map[string]any{
						"parsed": map[string]any{
							"info": map[string]any{
								"mint": mint,
								"tokenAmount": map[string]any{
									"amount":   amount,
									"decimals": decimals,
								},
							},
						},
					},
				},
			}
		}
		return map[string]any{"value": []any{
			account("nft-mint", "1", 0),
			account("usdc-mint", "2500000", 6),
			account("broken", "not-a-number", 0),
		}}, nil
	})
	defer srv.Close()

	client := NewRPCClient(srv.URL, time.Second)
	holdings, err := client.ListHoldings(context.Background(), "owner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("unparseable amounts must be skipped, got %d holdings", len(holdings))
	}
	if !holdings[0].SingleUnit() {
		t.Fatalf("nft holding must be single unit: %+v", holdings[0])
	}
	if holdings[1].SingleUnit() {
		t.Fatalf("fungible balance must not be single unit: %+v", holdings[1])
	}
}

func TestGetAssetDefaultsOmittedVerifiedFlag(t *testing.T) {
	srv := rpcServer(t, func(method string, params json.RawMessage) (any, *rpcError) {
		return map[string]any{
			"id": "mint-1",
			"content": map[string]any{
				"json_uri": "https://meta/1.json",
				"metadata": map[string]any{"name": "Brawler #1"},
			},
			"grouping": []any{
				map[string]any{"group_key": "collection", "group_value": "coll-addr"},
			},
			"creators": []any{
				map[string]any{"address": "creator-1", "verified": true, "share": 100},
			},
		}, nil
	})
	defer srv.Close()

	client := NewRPCClient(srv.URL, time.Second)
	meta, err := client.GetAsset(context.Background(), "mint-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Name != "Brawler #1" || meta.URI != "https://meta/1.json" {
		t.Fatalf("content not mapped: %+v", meta)
	}
	if meta.Collection == nil || !meta.Collection.Verified {
		t.Fatalf("omitted verified flag must default to verified: %+v", meta.Collection)
	}
	if meta.FirstVerifiedCreator() != "creator-1" {
		t.Fatalf("creator not mapped: %+v", meta.Creators)
	}
}

func TestGetAssetBatchKeepsInputOrder(t *testing.T) {
	srv := rpcServer(t, func(method string, params json.RawMessage) (any, *rpcError) {
		var p struct {
			IDs []string `json:"ids"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpcError{Code: -32602, Message: err.Error()}
		}
		out := make([]any, 0, len(p.IDs))
		for _, id := range p.IDs {
			if id == "unknown" {
				out = append(out, map[string]any{})
				continue
			}
			out = append(out, map[string]any{"id": id})
		}
		return out, nil
	})
	defer srv.Close()

	client := NewRPCClient(srv.URL, time.Second)
	metas, err := client.GetAssetBatch(context.Background(), []string{"m1", "unknown", "m2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metas) != 3 {
		t.Fatalf("result must keep input length, got %d", len(metas))
	}
	if metas[0] == nil || metas[0].Mint != "m1" || metas[2] == nil || metas[2].Mint != "m2" {
		t.Fatalf("order not kept: %+v", metas)
	}
	if metas[1] != nil {
		t.Fatalf("unknown mint must map to nil, got %+v", metas[1])
	}
}

func TestGetAssetBatchRejectsOversizedRequest(t *testing.T) {
	client := NewRPCClient("http://unused", time.Second)
	mints := make([]string, GetAssetBatchLimit+1)
	for i := range mints {
		mints[i] = fmt.Sprintf("m%d", i)
	}
	if _, err := client.GetAssetBatch(context.Background(), mints); err == nil {
		t.Fatal("oversized batch must be rejected before any network call")
	}
}

func TestCallSurfacesRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewRPCClient(srv.URL, time.Second)
	_, err := client.ListHoldings(context.Background(), "owner")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("rate limit must surface as an error, got %v", err)
	}
}

func TestFirstAssetForSlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections/mad-lads/listings":
			json.NewEncoder(w).Encode([]map[string]string{{"tokenMint": "mint-1"}})
		case "/collections/empty/listings":
			json.NewEncoder(w).Encode([]map[string]string{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	idx := NewMarketplaceAliasIndex(srv.URL, time.Second)
	ctx := context.Background()

	mint, err := idx.FirstAssetForSlug(ctx, "mad-lads")
	if err != nil || mint != "mint-1" {
		t.Fatalf("expected mint-1, got %q (%v)", mint, err)
	}

	mint, err = idx.FirstAssetForSlug(ctx, "empty")
	if err != nil || mint != "" {
		t.Fatalf("empty listings must resolve to nothing, got %q (%v)", mint, err)
	}

	mint, err = idx.FirstAssetForSlug(ctx, "no-such-slug")
	if err != nil || mint != "" {
		t.Fatalf("unknown slug must resolve to nothing without error, got %q (%v)", mint, err)
	}
}
