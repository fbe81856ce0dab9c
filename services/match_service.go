package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/nftbrawl/arena-bot/genai"
	"github.com/nftbrawl/arena-bot/models"
	"github.com/nftbrawl/arena-bot/storage"
	"github.com/nftbrawl/arena-bot/ui"
)

// generationTimeout bounds each individual provider call.
const generationTimeout = 60 * time.Second

// narrativeContextDepth is how many earlier narratives condition the next one.
const narrativeContextDepth = 4

// WinnerPicker decides a match. Implementations must decide exactly once
// per call, deterministically for a fixed rng state, and must never tie.
type WinnerPicker interface {
	// FirstWins reports whether pairing.A beats pairing.B.
	FirstWins(a, b *models.Contestant, rng *rand.Rand) bool
}

// CoinFlipPicker is the default decision function: uniform random. Trait
// data is collected but deliberately unused here; scoring stays behind the
// WinnerPicker seam.
type CoinFlipPicker struct{}

func (CoinFlipPicker) FirstWins(_, _ *models.Contestant, rng *rand.Rand) bool {
	return rng.Intn(2) == 0
}

// MatchService resolves one pairing at a time: pre-fight artifact, outcome
// narrative plus action artifact, winner resolution, history record.
// RunMatch never fails; every partial failure degrades the match instead of
// halting the battle.
type MatchService struct {
	provider genai.Provider
	uploader storage.FileUploader
	picker   WinnerPicker
	notifier ui.Notifier
	log      *slog.Logger

	// fetch retrieves a contestant's reference image; replaceable in tests.
	fetch func(ctx context.Context, url string) ([]byte, error)
}

func NewMatchService(provider genai.Provider, uploader storage.FileUploader, picker WinnerPicker, notifier ui.Notifier, log *slog.Logger) *MatchService {
	return &MatchService{
		provider: provider,
		uploader: uploader,
		picker:   picker,
		notifier: notifier,
		log:      log,
		fetch:    fetchArtifact,
	}
}

// RunMatch resolves the pairing and appends the record to the tournament's
// history. If the whole step blows up, a deterministic fallback elimination
// (the second contestant loses) keeps the bracket moving.
func (s *MatchService) RunMatch(ctx context.Context, t *models.Tournament, pairing models.Pairing, rng *rand.Rand) (match *models.Match) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("match execution panicked, forcing fallback elimination",
				slog.String("tournament", t.ID),
				slog.Int("round", pairing.Round),
				slog.Any("panic", r))
			if match != nil && match.WinnerID != "" {
				// Already resolved and recorded; the panic came from a
				// post-resolution step and changes nothing.
				return
			}
			match = s.fallbackResolve(t, pairing)
		}
	}()

	match = &models.Match{
		ID:    uuid.NewString(),
		Round: pairing.Round,
	}

	refs := s.referenceImages(ctx, pairing.A, pairing.B)
	if art := s.generateArtifact(ctx, t, pairing, "face_off", s.faceOffPrompt(t, pairing), refs); art != nil {
		match.Artifacts = append(match.Artifacts, *art)
	}

	narrative, err := s.generateNarrative(ctx, t, pairing)
	if err != nil {
		s.log.Warn("narrative generation failed, using placeholder",
			slog.String("tournament", t.ID), slog.Any("error", err))
		narrative = fmt.Sprintf("%s and %s collide in a storm of sparks. When the dust settles, only one is still standing.",
			pairing.A.Name, pairing.B.Name)
	}
	match.Narrative = narrative

	if art := s.generateArtifact(ctx, t, pairing, "action", s.actionPrompt(t, narrative), refs); art != nil {
		match.Artifacts = append(match.Artifacts, *art)
	}

	// Resolution happens exactly once, after all generation attempts.
	winner, loser := pairing.A, pairing.B
	if !s.picker.FirstWins(pairing.A, pairing.B, rng) {
		winner, loser = pairing.B, pairing.A
	}
	s.record(t, match, winner, loser)

	var urls []string
	for _, a := range match.Artifacts {
		urls = append(urls, a.URL)
	}
	s.notifier.PostUpdate(ctx, t.ChannelID,
		fmt.Sprintf("Round %d: %s defeats %s!\n%s", match.Round, winner.Name, loser.Name, match.Narrative),
		urls...)
	return match
}

// fallbackResolve applies the liveness guarantee: the second contestant is
// eliminated deterministically and the match is still recorded.
func (s *MatchService) fallbackResolve(t *models.Tournament, pairing models.Pairing) *models.Match {
	match := &models.Match{
		ID:       uuid.NewString(),
		Round:    pairing.Round,
		Fallback: true,
		Narrative: fmt.Sprintf("%s advances past %s.",
			pairing.A.Name, pairing.B.Name),
	}
	s.record(t, match, pairing.A, pairing.B)
	return match
}

func (s *MatchService) record(t *models.Tournament, match *models.Match, winner, loser *models.Contestant) {
	winner.Status = models.ContestantAlive
	winner.Wins++
	loser.Status = models.ContestantEliminated

	match.WinnerID = winner.ID
	match.LoserID = loser.ID
	match.PlayedAt = time.Now()
	t.History = append(t.History, match)
}

func (s *MatchService) generateNarrative(ctx context.Context, t *models.Tournament, pairing models.Pairing) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Narrate a duel between %s and %s in the %s, told as %s. End with a cliffhanger, do not reveal the winner.",
		pairing.A.Name, pairing.B.Name, t.Settings.Arena, t.Settings.Genre)

	var history []string
	start := len(t.History) - narrativeContextDepth
	if start < 0 {
		start = 0
	}
	for _, m := range t.History[start:] {
		history = append(history, m.Narrative)
	}
	return s.provider.GenerateText(genCtx, prompt, history)
}

// referenceImages fetches the contestants' visual references so generation
// is conditioned on how the fighters actually look. Best-effort: a missing
// or unreachable image just drops out of the set.
func (s *MatchService) referenceImages(ctx context.Context, contestants ...*models.Contestant) [][]byte {
	var refs [][]byte
	for _, c := range contestants {
		if c.ImageURL == "" {
			continue
		}
		img, err := s.fetch(ctx, c.ImageURL)
		if err != nil {
			s.log.Warn("reference image fetch failed",
				slog.String("contestant", c.ID), slog.Any("error", err))
			continue
		}
		refs = append(refs, img)
	}
	return refs
}

// generateArtifact renders and uploads one image; any failure returns nil
// and the match proceeds without it.
func (s *MatchService) generateArtifact(ctx context.Context, t *models.Tournament, pairing models.Pairing, kind, prompt string, refs [][]byte) *models.Artifact {
	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	img, err := s.provider.GenerateImage(genCtx, prompt, refs)
	if err != nil {
		s.log.Warn("artifact generation failed",
			slog.String("tournament", t.ID),
			slog.String("kind", kind),
			slog.Any("error", err))
		return nil
	}

	key := fmt.Sprintf("battles/%s/round-%d/%s-%s.png", t.ID, pairing.Round, kind, uuid.NewString())
	result, err := s.uploader.Upload(genCtx, key, "image/png", bytes.NewReader(img))
	if err != nil {
		s.log.Warn("artifact upload failed",
			slog.String("tournament", t.ID),
			slog.String("key", key),
			slog.Any("error", err))
		return nil
	}
	return &models.Artifact{Kind: kind, Key: result.Key, URL: result.Location}
}

func (s *MatchService) faceOffPrompt(t *models.Tournament, pairing models.Pairing) string {
	return fmt.Sprintf("Face-off poster of %s versus %s in the %s, %s style.",
		pairing.A.Name, pairing.B.Name, t.Settings.Arena, t.Settings.Style)
}

func (s *MatchService) actionPrompt(t *models.Tournament, narrative string) string {
	return fmt.Sprintf("Battle scene, %s style, set in the %s: %s",
		t.Settings.Style, t.Settings.Arena, narrative)
}
