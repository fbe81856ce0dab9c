package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nftbrawl/arena-bot/chain"
	"github.com/nftbrawl/arena-bot/models"
	"github.com/nftbrawl/arena-bot/verify"
)

// Canonical-looking base58 collection addresses.
const (
	collOne = "Aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1"
	collTwo = "Bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2"
)

type lobbyFixture struct {
	sessions *SessionStore
	repo     *memUserRepo
	users    *UserService
	assets   *stubAssets
	svc      *LobbyService
}

func newLobbyFixture(t *testing.T, configured []string) *lobbyFixture {
	t.Helper()
	sessions := NewSessionStore()
	repo := newMemUserRepo()
	users := NewUserService(repo, testLogger())
	assets := &stubAssets{
		holdings: map[string][]chain.Holding{},
		assets:   map[string]*chain.AssetMetadata{},
		offchain: map[string]*chain.OffChainMetadata{},
	}
	verifier := verify.New(assets, &stubAliases{}, configured, testLogger())
	verifier.SetBatchPolicy(verify.DefaultBatchSize, 0)
	svc := NewLobbyService(sessions, verifier, users, &scriptedPrompter{}, testLogger())
	return &lobbyFixture{sessions: sessions, repo: repo, users: users, assets: assets, svc: svc}
}

func (f *lobbyFixture) holder(t *testing.T, userID, wallet string, collections ...string) {
	t.Helper()
	if err := f.users.LinkWallet(context.Background(), userID, wallet); err != nil {
		t.Fatal(err)
	}
	for i, coll := range collections {
		mint := fmt.Sprintf("%s-mint-%d", wallet, i)
		f.assets.holdings[wallet] = append(f.assets.holdings[wallet],
			chain.Holding{Mint: mint, Amount: 1, Decimals: 0})
		f.assets.assets[mint] = &chain.AssetMetadata{
			Mint:       mint,
			Name:       "Brawler " + mint,
			Collection: &chain.CollectionLink{Key: coll, Verified: true},
		}
	}
}

func TestCreateOnePerChannel(t *testing.T) {
	f := newLobbyFixture(t, nil)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, "host", "chan", 8, models.ModeUpload, nil, models.Settings{}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.svc.Create(ctx, "other", "chan", 8, models.ModeUpload, nil, models.Settings{})
	if !errors.Is(err, ErrLobbyExists) {
		t.Fatalf("expected ErrLobbyExists, got %v", err)
	}

	// The losing host's token came back.
	user, err := f.repo.Get(ctx, "other")
	if err != nil {
		t.Fatal(err)
	}
	if user.Tokens != DailyTokens {
		t.Fatalf("failed create must cost nothing, balance %d", user.Tokens)
	}
}

func TestRegisterUploadModeRequiresImage(t *testing.T) {
	f := newLobbyFixture(t, nil)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, "host", "chan", 8, models.ModeUpload, nil, models.Settings{}); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.Register(ctx, "chan", RegistrationInput{UserID: "u1", Name: "Fighter"})
	if !errors.Is(err, ErrInvalidAsset) {
		t.Fatalf("expected ErrInvalidAsset for missing image, got %v", err)
	}

	c, err := f.svc.Register(ctx, "chan", RegistrationInput{UserID: "u1", Name: "Fighter", ImageURL: "https://img/1.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ImageURL != "https://img/1.png" {
		t.Fatalf("image not carried: %+v", c)
	}
}

func TestRegisterRejectsDuplicateOwner(t *testing.T) {
	f := newLobbyFixture(t, nil)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, "host", "chan", 8, models.ModeUpload, nil, models.Settings{}); err != nil {
		t.Fatal(err)
	}

	input := RegistrationInput{UserID: "u1", Name: "Fighter", ImageURL: "https://img/1.png"}
	if _, err := f.svc.Register(ctx, "chan", input); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Register(ctx, "chan", input); !errors.Is(err, ErrDuplicateEntry) {
		t.Fatalf("expected ErrDuplicateEntry, got %v", err)
	}
}

func TestRegisterConcurrentNeverExceedsCapacity(t *testing.T) {
	f := newLobbyFixture(t, nil)
	ctx := context.Background()
	lobby, err := f.svc.Create(ctx, "host", "chan", 4, models.ModeUpload, nil, models.Settings{})
	if err != nil {
		t.Fatal(err)
	}

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Register(ctx, "chan", RegistrationInput{
				UserID:   fmt.Sprintf("user-%d", i),
				Name:     fmt.Sprintf("fighter-%d", i),
				ImageURL: "https://img/x.png",
			})
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
		} else if !errors.Is(err, ErrLobbyFull) {
			t.Fatalf("unexpected rejection reason: %v", err)
		}
	}
	if admitted != 4 || lobby.Size() != 4 {
		t.Fatalf("expected exactly 4 admissions, got %d (lobby size %d)", admitted, lobby.Size())
	}
}

func TestRegisterWalletModeFillsFromHoldings(t *testing.T) {
	f := newLobbyFixture(t, []string{collOne})
	ctx := context.Background()
	f.holder(t, "u1", "walletA", collOne)
	f.assets.assets["walletA-mint-0"].URI = "https://meta/a.json"
	f.assets.offchain["https://meta/a.json"] = &chain.OffChainMetadata{
		Image:      "https://img/a.png",
		Attributes: []chain.Attribute{{TraitType: "Aura", Value: "Gold"}},
	}

	if _, err := f.svc.Create(ctx, "host", "chan", 8, models.ModeWallet, nil, models.Settings{}); err != nil {
		t.Fatal(err)
	}
	c, err := f.svc.Register(ctx, "chan", RegistrationInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Mint != "walletA-mint-0" || c.Wallet != "walletA" {
		t.Fatalf("asset not filled from wallet: %+v", c)
	}
	if c.ImageURL != "https://img/a.png" || len(c.Traits) != 1 {
		t.Fatalf("hydration missing: %+v", c)
	}
}

func TestRegisterWalletModeWithoutLinkedWallet(t *testing.T) {
	f := newLobbyFixture(t, []string{collOne})
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, "host", "chan", 8, models.ModeWallet, nil, models.Settings{}); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.Register(ctx, "chan", RegistrationInput{UserID: "unlinked"})
	if !errors.Is(err, ErrMissingWallet) {
		t.Fatalf("expected ErrMissingWallet, got %v", err)
	}
}

func TestRegisterWalletModeNoEligibleAssets(t *testing.T) {
	f := newLobbyFixture(t, []string{collOne})
	ctx := context.Background()
	f.holder(t, "u1", "walletA", collTwo)

	if _, err := f.svc.Create(ctx, "host", "chan", 8, models.ModeWallet, nil, models.Settings{}); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.Register(ctx, "chan", RegistrationInput{UserID: "u1"})
	if !errors.Is(err, ErrInvalidAsset) {
		t.Fatalf("expected ErrInvalidAsset, got %v", err)
	}
}

func TestRegisterAmbiguousConstraintSurfacesAndRetries(t *testing.T) {
	f := newLobbyFixture(t, []string{collOne, collTwo})
	ctx := context.Background()
	f.holder(t, "u1", "walletA", collOne, collTwo)

	if _, err := f.svc.Create(ctx, "host", "chan", 8, models.ModeWallet, nil, models.Settings{}); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.Register(ctx, "chan", RegistrationInput{UserID: "u1"})
	if !errors.Is(err, ErrAmbiguousConstraint) {
		t.Fatalf("expected ErrAmbiguousConstraint, got %v", err)
	}

	// Retrying with an explicit constraint succeeds.
	c, err := f.svc.Register(ctx, "chan", RegistrationInput{UserID: "u1", ConstraintAlias: collTwo})
	if err != nil {
		t.Fatalf("retry with explicit constraint: %v", err)
	}
	if c.Mint != "walletA-mint-1" {
		t.Fatalf("expected the collTwo asset, got %+v", c)
	}
}

func TestRegisterTeamModeEnforcesTeamConstraint(t *testing.T) {
	f := newLobbyFixture(t, []string{collOne, collTwo})
	ctx := context.Background()
	f.holder(t, "u1", "walletA", collTwo)

	teams := &models.TeamConfig{
		NameA: "Alpha", ConstraintA: collOne,
		NameB: "Beta", ConstraintB: collTwo,
	}
	if _, err := f.svc.Create(ctx, "host", "chan", 8, models.ModeWallet, teams, models.Settings{}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Register(ctx, "chan", RegistrationInput{UserID: "u1"}); !errors.Is(err, ErrMissingTeamChoice) {
		t.Fatalf("team mode without a team pick: %v", err)
	}

	// Wrong side: constraint fails without disambiguation.
	if _, err := f.svc.Register(ctx, "chan", RegistrationInput{UserID: "u1", Team: models.TeamA}); !errors.Is(err, ErrInvalidAsset) {
		t.Fatalf("wrong team must be ErrInvalidAsset, got %v", err)
	}

	c, err := f.svc.Register(ctx, "chan", RegistrationInput{UserID: "u1", Team: models.TeamB})
	if err != nil {
		t.Fatalf("right team: %v", err)
	}
	if c.Team != models.TeamB {
		t.Fatalf("team not recorded: %+v", c)
	}
}

func TestDiscard(t *testing.T) {
	f := newLobbyFixture(t, nil)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, "host", "chan", 8, models.ModeUpload, nil, models.Settings{}); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Discard(ctx, "chan", "stranger"); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := f.svc.Discard(ctx, "chan", "host"); err != nil {
		t.Fatalf("host discard: %v", err)
	}
	if err := f.svc.Discard(ctx, "chan", "host"); !errors.Is(err, ErrLobbyNotFound) {
		t.Fatalf("discarded lobby must be gone, got %v", err)
	}
}
