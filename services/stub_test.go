package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/nftbrawl/arena-bot/chain"
	"github.com/nftbrawl/arena-bot/models"
	"github.com/nftbrawl/arena-bot/repositories"
	"github.com/nftbrawl/arena-bot/storage"
	"github.com/nftbrawl/arena-bot/ui"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memUserRepo is an in-memory repositories.UserRepository.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*models.User)}
}

func (r *memUserRepo) Get(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetOrCreate(ctx context.Context, id string, initialTokens int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	u := &models.User{ID: id, Tokens: initialTokens, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r.users[id] = u
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) Patch(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	if patch.Tokens != nil {
		u.Tokens = *patch.Tokens
	}
	if patch.CooldownUntil != nil {
		u.CooldownUntil = patch.CooldownUntil
	}
	if patch.WalletAddress != nil {
		u.WalletAddress = patch.WalletAddress
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) ResetDailyTokens(ctx context.Context, tokens int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.Tokens < tokens {
			u.Tokens = tokens
			n++
		}
	}
	return n, nil
}

// stubProvider scripts generation outcomes per call.
type stubProvider struct {
	mu         sync.Mutex
	textErr    error
	imageErr   error
	textCalls  int
	imageCalls int
	narrative  string
	panicText  bool
	imageRefs  [][][]byte // refs received, one entry per image call
}

func (p *stubProvider) GenerateText(ctx context.Context, prompt string, context []string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.textCalls++
	if p.panicText {
		panic("provider crashed")
	}
	if p.textErr != nil {
		return "", p.textErr
	}
	if p.narrative != "" {
		return p.narrative, nil
	}
	return fmt.Sprintf("narrative %d", p.textCalls), nil
}

func (p *stubProvider) GenerateImage(ctx context.Context, prompt string, refs [][]byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imageCalls++
	p.imageRefs = append(p.imageRefs, refs)
	if p.imageErr != nil {
		return nil, p.imageErr
	}
	return []byte("image-bytes"), nil
}

// memUploader records uploads and serves them back by URL.
type memUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMemUploader() *memUploader {
	return &memUploader{objects: make(map[string][]byte)}
}

func (u *memUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return nil, u.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *memUploader) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (u *memUploader) get(url string) ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	data, ok := u.objects[url[len("https://cdn.test/"):]]
	return data, ok
}

// scriptedPrompter answers prompts from a fixed script, then defaults.
type scriptedPrompter struct {
	mu      sync.Mutex
	answers []string // option IDs, consumed in order
	calls   int
}

func (p *scriptedPrompter) AwaitChoice(ctx context.Context, userID, prompt string, options []ui.Choice, timeout time.Duration) ui.Choice {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.answers) == 0 {
		return options[0]
	}
	id := p.answers[0]
	p.answers = p.answers[1:]
	for _, opt := range options {
		if opt.ID == id {
			return opt
		}
	}
	return options[0]
}

// recordNotifier captures posted updates for assertions.
type recordNotifier struct {
	mu       sync.Mutex
	messages []string
	urls     [][]string
}

func (n *recordNotifier) PostUpdate(ctx context.Context, channelID, message string, artifactURLs ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	n.urls = append(n.urls, artifactURLs)
}

func (n *recordNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// stubAssets is an in-memory chain.AssetIndex for wallet-mode tests.
type stubAssets struct {
	holdings map[string][]chain.Holding
	assets   map[string]*chain.AssetMetadata
	offchain map[string]*chain.OffChainMetadata
}

func (s *stubAssets) ListHoldings(ctx context.Context, owner string) ([]chain.Holding, error) {
	return s.holdings[owner], nil
}

func (s *stubAssets) GetAsset(ctx context.Context, mint string) (*chain.AssetMetadata, error) {
	meta, ok := s.assets[mint]
	if !ok {
		return nil, errors.New("unknown mint")
	}
	return meta, nil
}

func (s *stubAssets) FetchOffChain(ctx context.Context, uri string) (*chain.OffChainMetadata, error) {
	doc, ok := s.offchain[uri]
	if !ok {
		return nil, errors.New("not found")
	}
	return doc, nil
}

type stubAliases struct {
	slugs map[string]string
}

func (s *stubAliases) FirstAssetForSlug(ctx context.Context, slug string) (string, error) {
	return s.slugs[slug], nil
}
