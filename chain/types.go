// Package chain talks to the on-chain asset index and the marketplace alias
// index. Everything here is best-effort networking; callers own retry and
// batching policy.
package chain

import "context"

// Holding is one token account owned by a holder.
type Holding struct {
	Mint     string
	Amount   uint64
	Decimals int
}

// SingleUnit reports whether the holding looks like a non-fungible asset:
// exactly one unit with zero decimals.
func (h Holding) SingleUnit() bool {
	return h.Amount == 1 && h.Decimals == 0
}

// CollectionLink is an asset's on-chain collection membership.
type CollectionLink struct {
	Key      string
	Verified bool
}

// Creator is one entry of an asset's creator array.
type Creator struct {
	Address  string
	Verified bool
	Share    int
}

// AssetMetadata is the on-chain metadata record for a single mint.
type AssetMetadata struct {
	Mint       string
	Name       string
	Collection *CollectionLink
	Creators   []Creator
	URI        string
}

// FirstVerifiedCreator returns the address of the first verified creator,
// or "" when none is verified.
func (m *AssetMetadata) FirstVerifiedCreator() string {
	for _, c := range m.Creators {
		if c.Verified {
			return c.Address
		}
	}
	return ""
}

// OffChainMetadata is the JSON document behind AssetMetadata.URI.
type OffChainMetadata struct {
	Name       string      `json:"name"`
	Image      string      `json:"image"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute is one trait entry from off-chain metadata.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// AssetIndex enumerates holdings and resolves per-mint metadata.
type AssetIndex interface {
	ListHoldings(ctx context.Context, owner string) ([]Holding, error)
	GetAsset(ctx context.Context, mint string) (*AssetMetadata, error)
	FetchOffChain(ctx context.Context, uri string) (*OffChainMetadata, error)
}

// BulkAssetIndex is implemented by indexes that support batched metadata
// lookup. The verifier prefers it over per-mint calls when available.
type BulkAssetIndex interface {
	GetAssetBatch(ctx context.Context, mints []string) ([]*AssetMetadata, error)
}

// AliasIndex resolves a marketplace slug to one of the collection's mints.
type AliasIndex interface {
	FirstAssetForSlug(ctx context.Context, s string) (string, error)
}
