package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nftbrawl/arena-bot/models"
	"github.com/nftbrawl/arena-bot/ui"
	"github.com/nftbrawl/arena-bot/verify"
)

// choiceTimeout bounds every registration-time prompt; on expiry the first
// offered option is taken.
const choiceTimeout = 45 * time.Second

// maxAssetChoices caps how many eligible assets are offered in one prompt.
const maxAssetChoices = 5

// RegistrationInput is everything the UI layer collects for one entry.
type RegistrationInput struct {
	UserID   string
	Name     string
	ImageURL string // upload and profile-image modes
	// ConstraintAlias disambiguates wallet-mode registration when the
	// holder qualifies under more than one configured collection.
	ConstraintAlias string
	Team            models.Team
}

// LobbyService tracks one open lobby per channel and validates
// registrations against the lobby's mode.
type LobbyService struct {
	sessions *SessionStore
	verifier *verify.Verifier
	users    *UserService
	prompter ui.Prompter
	log      *slog.Logger
}

func NewLobbyService(sessions *SessionStore, verifier *verify.Verifier, users *UserService, prompter ui.Prompter, log *slog.Logger) *LobbyService {
	return &LobbyService{
		sessions: sessions,
		verifier: verifier,
		users:    users,
		prompter: prompter,
		log:      log,
	}
}

// Create opens a lobby for the channel. The host spends one battle token;
// it is refunded if the channel already has a session.
func (s *LobbyService) Create(ctx context.Context, hostID, channelID string, capacity int, mode models.RegistrationMode, teams *models.TeamConfig, settings models.Settings) (*models.Lobby, error) {
	if capacity < 2 || capacity > 24 {
		return nil, fmt.Errorf("%w: capacity %d out of range [2, 24]", ErrLobbyNotOpen, capacity)
	}

	if _, err := s.users.SpendHostToken(ctx, hostID); err != nil {
		return nil, err
	}

	lobby := &models.Lobby{
		HostID:    hostID,
		ChannelID: channelID,
		Capacity:  capacity,
		Mode:      mode,
		Teams:     teams,
		Status:    models.LobbyOpen,
		CreatedAt: time.Now(),
	}
	if !s.sessions.PutIfAbsent(channelID, &Session{Lobby: lobby, Settings: settings}) {
		s.users.RefundHostToken(ctx, hostID)
		return nil, ErrLobbyExists
	}

	s.log.Info("lobby created",
		slog.String("channel", channelID),
		slog.String("host", hostID),
		slog.String("mode", string(mode)),
		slog.Int("capacity", capacity))
	return lobby, nil
}

// Register admits one contestant into the channel's open lobby. The
// capacity check and the add are atomic inside Lobby.Admit, so concurrent
// registrations can never both pass the limit.
func (s *LobbyService) Register(ctx context.Context, channelID string, input RegistrationInput) (*models.Contestant, error) {
	session := s.sessions.Get(channelID)
	if session == nil || session.Lobby == nil {
		return nil, ErrLobbyNotFound
	}
	lobby := session.Lobby
	if lobby.CurrentStatus() != models.LobbyOpen {
		return nil, ErrLobbyNotOpen
	}

	contestant := &models.Contestant{
		ID:           uuid.NewString(),
		OwnerID:      input.UserID,
		Name:         input.Name,
		Team:         input.Team,
		Status:       models.ContestantAlive,
		RegisteredAt: time.Now(),
	}

	switch lobby.Mode {
	case models.ModeUpload, models.ModeProfileImage:
		if input.ImageURL == "" {
			return nil, fmt.Errorf("%w: missing image", ErrInvalidAsset)
		}
		contestant.ImageURL = input.ImageURL

	case models.ModeWallet:
		if err := s.fillFromWallet(ctx, lobby, input, contestant); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: unknown registration mode %q", ErrInvalidAsset, lobby.Mode)
	}

	// Admit re-checks openness under the lobby lock: the early status read
	// above is only a fast path and a concurrent start may have won since.
	duplicate, full, closed := lobby.Admit(contestant)
	if closed {
		return nil, ErrLobbyNotOpen
	}
	if duplicate {
		return nil, ErrDuplicateEntry
	}
	if full {
		return nil, ErrLobbyFull
	}

	s.log.Info("contestant registered",
		slog.String("channel", channelID),
		slog.String("user", input.UserID),
		slog.String("contestant", contestant.ID))
	return contestant, nil
}

// fillFromWallet resolves the holder's eligible assets under the applicable
// constraint and lets the user pick one.
//
// In team mode the team's constraint is mandatory and there is no
// disambiguation: qualifying under the wrong team simply yields
// ErrInvalidAsset, and the caller is expected to try the other team before
// surfacing an error. Outside team mode, qualifying under several
// configured collections without an explicit alias is the
// AmbiguousConstraint condition: the caller must prompt and retry.
func (s *LobbyService) fillFromWallet(ctx context.Context, lobby *models.Lobby, input RegistrationInput, contestant *models.Contestant) error {
	holder, err := s.users.VerifiedWallet(ctx, input.UserID)
	if err != nil {
		return err
	}
	contestant.Wallet = holder

	constraint := input.ConstraintAlias
	if lobby.Teams != nil {
		switch input.Team {
		case models.TeamA:
			constraint = lobby.Teams.ConstraintA
		case models.TeamB:
			constraint = lobby.Teams.ConstraintB
		default:
			return ErrMissingTeamChoice
		}
	} else if constraint == "" && len(s.verifier.Configured()) > 1 {
		qualifying, err := s.verifier.QualifyingAliases(ctx, holder)
		if err != nil {
			return fmt.Errorf("verify holder %s: %w", holder, err)
		}
		switch len(qualifying) {
		case 0:
			return ErrInvalidAsset
		case 1:
			constraint = qualifying[0]
		default:
			return ErrAmbiguousConstraint
		}
	}

	assets, err := s.verifier.ListEligibleAssets(ctx, holder, constraint)
	if err != nil {
		return fmt.Errorf("verify holder %s: %w", holder, err)
	}
	if len(assets) == 0 {
		return ErrInvalidAsset
	}

	chosen := s.chooseAsset(ctx, input.UserID, assets)
	s.verifier.Hydrate(ctx, &chosen)

	contestant.Mint = chosen.Mint
	if chosen.Name != "" {
		contestant.Name = chosen.Name
	}
	contestant.ImageURL = chosen.Image
	for _, attr := range chosen.Attributes {
		contestant.Traits = append(contestant.Traits, models.Trait{
			Type:  attr.TraitType,
			Value: fmt.Sprint(attr.Value),
		})
	}
	return nil
}

// chooseAsset prompts the user to pick among their eligible assets; with a
// single candidate, or on timeout, the first one is used.
func (s *LobbyService) chooseAsset(ctx context.Context, userID string, assets []verify.Asset) verify.Asset {
	if len(assets) == 1 {
		return assets[0]
	}

	limit := len(assets)
	if limit > maxAssetChoices {
		limit = maxAssetChoices
	}
	options := make([]ui.Choice, 0, limit)
	for _, asset := range assets[:limit] {
		label := asset.Name
		if label == "" {
			label = asset.Mint
		}
		options = append(options, ui.Choice{ID: asset.Mint, Label: label})
	}

	picked := s.prompter.AwaitChoice(ctx, userID, "Choose your fighter", options, choiceTimeout)
	for _, asset := range assets {
		if asset.Mint == picked.ID {
			return asset
		}
	}
	return assets[0]
}

// Discard drops a still-open lobby. Host only; running battles cannot be
// discarded.
func (s *LobbyService) Discard(ctx context.Context, channelID, userID string) error {
	session := s.sessions.Get(channelID)
	if session == nil || session.Lobby == nil {
		return ErrLobbyNotFound
	}
	if session.Lobby.HostID != userID {
		return ErrNotHost
	}
	if session.Lobby.CurrentStatus() != models.LobbyOpen {
		return ErrBattleNotWaiting
	}
	s.sessions.Remove(channelID)
	s.log.Info("lobby discarded", slog.String("channel", channelID))
	return nil
}
