// Package verify gates wallet-mode registration: it resolves human-friendly
// collection aliases to canonical on-chain addresses and filters a holder's
// assets against them, respecting provider rate limits while doing so.
package verify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gosimple/slug"

	"github.com/nftbrawl/arena-bot/chain"
)

const (
	// DefaultBatchSize bounds per-mint metadata calls issued back to back.
	DefaultBatchSize = 3
	// DefaultBatchDelay is the pause between consecutive per-mint batches.
	DefaultBatchDelay = 1 * time.Second
)

// Asset is one holding that passed eligibility filtering.
type Asset struct {
	Mint       string
	Name       string
	Image      string
	Attributes []chain.Attribute
	Metadata   *chain.AssetMetadata
}

// Verifier resolves aliases and lists eligible assets. The alias cache is
// write-once per alias: a successful resolution is never overwritten, which
// keeps ResolveAlias idempotent for the process lifetime.
type Verifier struct {
	assets     chain.AssetIndex
	aliases    chain.AliasIndex
	configured []string
	batchSize  int
	batchDelay time.Duration
	log        *slog.Logger

	mu    sync.RWMutex
	cache map[string][]string
}

func New(assets chain.AssetIndex, aliases chain.AliasIndex, configured []string, log *slog.Logger) *Verifier {
	return &Verifier{
		assets:     assets,
		aliases:    aliases,
		configured: configured,
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
		log:        log,
		cache:      make(map[string][]string),
	}
}

// SetBatchPolicy overrides the per-mint batching policy for providers with
// different rate limits.
func (v *Verifier) SetBatchPolicy(size int, delay time.Duration) {
	if size > 0 {
		v.batchSize = size
	}
	v.batchDelay = delay
}

// Configured returns the constraint aliases this verifier was set up with.
func (v *Verifier) Configured() []string {
	return v.configured
}

// ResolveAlias maps an alias to the set of canonical identifiers it stands
// for: the verified collection address and/or the primary verified creator
// of the collection's first listed asset. An alias that already looks like a
// canonical address resolves to itself. Lookup failures resolve to an empty
// set, never an error; callers must treat empty as "no constraint
// resolvable".
func (v *Verifier) ResolveAlias(ctx context.Context, alias string) []string {
	if looksCanonical(alias) {
		return []string{alias}
	}

	key := slug.Make(alias)

	v.mu.RLock()
	cached, ok := v.cache[key]
	v.mu.RUnlock()
	if ok {
		return cached
	}

	mint, err := v.aliases.FirstAssetForSlug(ctx, key)
	if err != nil {
		v.log.Warn("alias lookup failed", slog.String("alias", key), slog.Any("error", err))
		return nil
	}
	if mint == "" {
		v.log.Warn("alias resolved to no assets", slog.String("alias", key))
		return nil
	}

	meta, err := v.assets.GetAsset(ctx, mint)
	if err != nil {
		v.log.Warn("asset lookup for alias failed",
			slog.String("alias", key), slog.String("mint", mint), slog.Any("error", err))
		return nil
	}

	var ids []string
	if meta.Collection != nil && meta.Collection.Verified {
		ids = append(ids, meta.Collection.Key)
	}
	if creator := meta.FirstVerifiedCreator(); creator != "" {
		ids = append(ids, creator)
	}

	// Only successful resolutions are cached so a transient failure can be
	// retried on the next call.
	if len(ids) > 0 {
		v.mu.Lock()
		if _, exists := v.cache[key]; !exists {
			v.cache[key] = ids
		}
		ids = v.cache[key]
		v.mu.Unlock()
	}
	return ids
}

// ListEligibleAssets enumerates the holder's single-unit holdings and keeps
// those matching the requested constraint alias, or any configured
// constraint when no alias is given. With no constraints configured at all,
// every single-unit holding is eligible. Returns an empty slice, not an
// error, when nothing matches.
func (v *Verifier) ListEligibleAssets(ctx context.Context, holder, constraintAlias string) ([]Asset, error) {
	var allowed []string
	allowAny := false
	switch {
	case constraintAlias != "":
		allowed = v.ResolveAlias(ctx, constraintAlias)
	case len(v.configured) > 0:
		for _, alias := range v.configured {
			allowed = append(allowed, v.ResolveAlias(ctx, alias)...)
		}
	default:
		allowAny = true
	}

	metas, err := v.holderMetadata(ctx, holder)
	if err != nil {
		return nil, err
	}

	assets := make([]Asset, 0, len(metas))
	for _, meta := range metas {
		if !allowAny && !matches(meta, allowed) {
			continue
		}
		assets = append(assets, Asset{Mint: meta.Mint, Name: meta.Name, Metadata: meta})
	}
	return assets, nil
}

// QualifyingAliases reports which configured constraint aliases the holder
// satisfies with at least one asset. Used by wallet-mode registration to
// detect the ambiguous case.
func (v *Verifier) QualifyingAliases(ctx context.Context, holder string) ([]string, error) {
	metas, err := v.holderMetadata(ctx, holder)
	if err != nil {
		return nil, err
	}

	var qualifying []string
	for _, alias := range v.configured {
		allowed := v.ResolveAlias(ctx, alias)
		for _, meta := range metas {
			if matches(meta, allowed) {
				qualifying = append(qualifying, alias)
				break
			}
		}
	}
	return qualifying, nil
}

// Hydrate fills an asset's image and trait set from its off-chain document.
// Best-effort: a fetch failure leaves the asset as is.
func (v *Verifier) Hydrate(ctx context.Context, asset *Asset) {
	if asset.Metadata == nil || asset.Metadata.URI == "" {
		return
	}
	doc, err := v.assets.FetchOffChain(ctx, asset.Metadata.URI)
	if err != nil {
		v.log.Warn("off-chain metadata fetch failed",
			slog.String("mint", asset.Mint), slog.Any("error", err))
		return
	}
	asset.Image = doc.Image
	asset.Attributes = doc.Attributes
	if asset.Name == "" {
		asset.Name = doc.Name
	}
}

// holderMetadata lists the holder's single-unit mints and resolves their
// on-chain metadata, preferring one chunked bulk lookup when the index
// supports it and falling back to small delayed batches otherwise. A failed
// mint is dropped, never fatal.
func (v *Verifier) holderMetadata(ctx context.Context, holder string) ([]*chain.AssetMetadata, error) {
	holdings, err := v.assets.ListHoldings(ctx, holder)
	if err != nil {
		return nil, err
	}

	mints := make([]string, 0, len(holdings))
	for _, h := range holdings {
		if h.SingleUnit() {
			mints = append(mints, h.Mint)
		}
	}
	if len(mints) == 0 {
		return nil, nil
	}

	if bulk, ok := v.assets.(chain.BulkAssetIndex); ok {
		return v.bulkMetadata(ctx, bulk, mints), nil
	}
	return v.batchedMetadata(ctx, mints), nil
}

func (v *Verifier) bulkMetadata(ctx context.Context, bulk chain.BulkAssetIndex, mints []string) []*chain.AssetMetadata {
	metas := make([]*chain.AssetMetadata, 0, len(mints))
	for start := 0; start < len(mints); start += chain.GetAssetBatchLimit {
		end := start + chain.GetAssetBatchLimit
		if end > len(mints) {
			end = len(mints)
		}
		chunk, err := bulk.GetAssetBatch(ctx, mints[start:end])
		if err != nil {
			v.log.Warn("asset batch lookup failed",
				slog.Int("offset", start), slog.Int("size", end-start), slog.Any("error", err))
			continue
		}
		for _, meta := range chunk {
			if meta != nil {
				metas = append(metas, meta)
			}
		}
	}
	return metas
}

func (v *Verifier) batchedMetadata(ctx context.Context, mints []string) []*chain.AssetMetadata {
	metas := make([]*chain.AssetMetadata, 0, len(mints))
	for i, mint := range mints {
		if i > 0 && i%v.batchSize == 0 {
			select {
			case <-time.After(v.batchDelay):
			case <-ctx.Done():
				return metas
			}
		}
		meta, err := v.assets.GetAsset(ctx, mint)
		if err != nil {
			v.log.Warn("asset lookup failed", slog.String("mint", mint), slog.Any("error", err))
			continue
		}
		metas = append(metas, meta)
	}
	return metas
}

func matches(meta *chain.AssetMetadata, allowed []string) bool {
	if meta.Collection != nil && meta.Collection.Verified && contains(allowed, meta.Collection.Key) {
		return true
	}
	if creator := meta.FirstVerifiedCreator(); creator != "" && contains(allowed, creator) {
		return true
	}
	return false
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// looksCanonical reports whether the alias is already a base58 address of
// on-chain length rather than a marketplace slug.
func looksCanonical(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '1' && r <= '9':
		case r >= 'A' && r <= 'H':
		case r >= 'J' && r <= 'N':
		case r >= 'P' && r <= 'Z':
		case r >= 'a' && r <= 'k':
		case r >= 'm' && r <= 'z':
		default:
			return false
		}
	}
	return true
}
