package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nftbrawl/arena-bot/brackets"
	"github.com/nftbrawl/arena-bot/document"
	"github.com/nftbrawl/arena-bot/genai"
	"github.com/nftbrawl/arena-bot/models"
	"github.com/nftbrawl/arena-bot/storage"
	"github.com/nftbrawl/arena-bot/ui"
)

// victoryArtifactCount is how many celebratory images the finale attempts.
const victoryArtifactCount = 3

// TournamentService owns the battle lifecycle: the legality gate, the
// round loop, and the victory finale. Status moves WAITING -> IN_PROGRESS
// -> COMPLETED, forward only; once COMPLETED the session is released and
// the controller is inert for that channel.
type TournamentService struct {
	sessions    *SessionStore
	matches     *MatchService
	provider    genai.Provider
	uploader    storage.FileUploader
	notifier    ui.Notifier
	newCompiler func() document.Compiler
	log         *slog.Logger

	// fetch retrieves an uploaded artifact for document compilation;
	// replaceable in tests.
	fetch func(ctx context.Context, url string) ([]byte, error)
}

func NewTournamentService(
	sessions *SessionStore,
	matches *MatchService,
	provider genai.Provider,
	uploader storage.FileUploader,
	notifier ui.Notifier,
	newCompiler func() document.Compiler,
	log *slog.Logger,
) *TournamentService {
	return &TournamentService{
		sessions:    sessions,
		matches:     matches,
		provider:    provider,
		uploader:    uploader,
		notifier:    notifier,
		newCompiler: newCompiler,
		log:         log,
		fetch:       fetchArtifact,
	}
}

// Start validates the lobby, transitions it into a running tournament and
// drives every round to completion before returning.
func (s *TournamentService) Start(ctx context.Context, channelID string, seed int64) (*models.Tournament, error) {
	t, rng, err := s.begin(ctx, channelID, seed)
	if err != nil {
		return nil, err
	}
	s.run(ctx, t, rng)
	return t, nil
}

// Launch is Start detached from the caller: the legality gate and the
// lobby transition happen synchronously so errors still surface, then the
// round loop runs on its own goroutine. Callers with short-lived contexts
// (an HTTP request, a chat interaction) pass a lifecycle context instead
// and follow progress through the notifier.
func (s *TournamentService) Launch(ctx context.Context, channelID string, seed int64) (*models.Tournament, error) {
	t, rng, err := s.begin(ctx, channelID, seed)
	if err != nil {
		return nil, err
	}
	go s.run(ctx, t, rng)
	return t, nil
}

// begin applies the legality gate and wins the OPEN -> IN_PROGRESS
// transition. Lobby.Begin is a compare-and-set, so of any number of
// concurrent begin calls exactly one proceeds.
func (s *TournamentService) begin(ctx context.Context, channelID string, seed int64) (*models.Tournament, *rand.Rand, error) {
	session := s.sessions.Get(channelID)
	if session == nil || session.Lobby == nil {
		return nil, nil, ErrLobbyNotFound
	}
	lobby := session.Lobby
	if !lobby.Begin() {
		return nil, nil, ErrBattleInProgress
	}

	// Begin closed the lobby, so the contestant set is frozen from here.
	contestants := lobby.Snapshot()
	teamMode := lobby.Teams != nil
	if err := brackets.ValidateSize(len(contestants), teamMode); err != nil {
		// Validation failure reopens the lobby: the host can keep
		// registering or discard.
		lobby.Reopen()
		return nil, nil, err
	}

	t := &models.Tournament{
		ID:          uuid.NewString(),
		ChannelID:   channelID,
		Settings:    session.Settings,
		TeamMode:    teamMode,
		Contestants: make(map[string]*models.Contestant, len(contestants)),
		Status:      models.TournamentWaiting,
		StartedAt:   time.Now(),
	}
	for _, c := range contestants {
		t.Contestants[c.ID] = c
	}

	session.Tournament = t
	t.Status = models.TournamentInProgress

	s.log.Info("battle started",
		slog.String("tournament", t.ID),
		slog.String("channel", channelID),
		slog.Int("contestants", len(contestants)),
		slog.Int64("seed", seed))
	s.notifier.PostUpdate(ctx, channelID,
		fmt.Sprintf("The battle begins! %d fighters enter the %s.", len(contestants), t.Settings.Arena))

	return t, rand.New(rand.NewSource(seed)), nil
}

// run drives every round to completion and releases the channel. Matches
// within a round and rounds themselves run strictly sequentially: narration
// depends on accumulated history and the generation provider cannot absorb
// parallel bursts.
func (s *TournamentService) run(ctx context.Context, t *models.Tournament, rng *rand.Rand) {
	s.runRounds(ctx, t, rng)
	if session := s.sessions.Get(t.ChannelID); session != nil && session.Lobby != nil {
		session.Lobby.Complete()
	}
	s.sessions.Remove(t.ChannelID)
}

// runRounds loops until the alive pool converges to a single winner (or,
// degenerately, to nobody). The pairing queue is rebuilt from the alive
// projection every round; it is never the source of truth for
// survivorship.
func (s *TournamentService) runRounds(ctx context.Context, t *models.Tournament, rng *rand.Rand) {
	// Each round eliminates at least one contestant, so the pool size
	// bounds the round count; exceeding it means the elimination logic is
	// broken and the battle must still reach COMPLETED.
	maxRounds := len(t.Contestants) + 1

	for round := 1; ; round++ {
		alive := t.Alive()
		if outcome := brackets.Completion(alive); outcome != nil {
			s.finish(ctx, t, outcome)
			return
		}
		if round > maxRounds {
			s.log.Error("round limit exceeded, forcing no-winner completion",
				slog.String("tournament", t.ID))
			s.finish(ctx, t, &brackets.Outcome{Draw: true})
			return
		}

		t.Round = round
		pairings, bye := brackets.BuildRound(alive, round, rng)
		if bye != nil {
			s.notifier.PostUpdate(ctx, t.ChannelID,
				fmt.Sprintf("Round %d: %s draws a bye and advances.", round, bye.Name))
		}
		for _, pairing := range pairings {
			s.matches.RunMatch(ctx, t, pairing, rng)
		}
	}
}

// finish transitions to COMPLETED exactly once. A winner triggers the
// finale; a draw produces an explicit no-winner report. Either way the
// battle ends cleanly.
func (s *TournamentService) finish(ctx context.Context, t *models.Tournament, outcome *brackets.Outcome) {
	t.Status = models.TournamentCompleted
	t.EndedAt = time.Now()

	if outcome.Winner == nil {
		s.log.Warn("battle completed without a winner", slog.String("tournament", t.ID))
		s.notifier.PostUpdate(ctx, t.ChannelID, "The battle ends with no victor standing.")
		return
	}

	winner := outcome.Winner
	winner.Status = models.ContestantWinner
	t.WinnerID = winner.ID

	s.log.Info("battle won",
		slog.String("tournament", t.ID),
		slog.String("winner", winner.ID))

	victoryURLs := s.victoryArtifacts(ctx, t, winner)
	docURL := s.compileChronicle(ctx, t, victoryURLs)
	if docURL != "" {
		t.FinaleURL = docURL
	}

	message := fmt.Sprintf("%s is the champion of the %s!", winner.Name, t.Settings.Arena)
	if docURL != "" {
		message += "\nBattle chronicle: " + docURL
	}
	s.notifier.PostUpdate(ctx, t.ChannelID, message, victoryURLs...)
}

// victoryArtifacts generates a few celebratory images. Every failure is
// swallowed; the finale reports whatever it got.
func (s *TournamentService) victoryArtifacts(ctx context.Context, t *models.Tournament, winner *models.Contestant) []string {
	prompts := []string{
		fmt.Sprintf("%s raising the championship trophy in the %s, %s style.", winner.Name, t.Settings.Arena, t.Settings.Style),
		fmt.Sprintf("Victory parade for %s, confetti everywhere, %s style.", winner.Name, t.Settings.Style),
		fmt.Sprintf("Commemorative portrait of champion %s, %s style.", winner.Name, t.Settings.Style),
	}

	var refs [][]byte
	if winner.ImageURL != "" {
		if img, err := s.fetch(ctx, winner.ImageURL); err != nil {
			s.log.Warn("winner reference fetch failed",
				slog.String("tournament", t.ID), slog.Any("error", err))
		} else {
			refs = append(refs, img)
		}
	}

	var urls []string
	for i, prompt := range prompts[:victoryArtifactCount] {
		genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
		img, err := s.provider.GenerateImage(genCtx, prompt, refs)
		cancel()
		if err != nil {
			s.log.Warn("victory artifact generation failed",
				slog.String("tournament", t.ID), slog.Any("error", err))
			continue
		}

		key := fmt.Sprintf("battles/%s/finale/victory-%d.png", t.ID, i+1)
		result, err := s.uploader.Upload(ctx, key, "image/png", bytes.NewReader(img))
		if err != nil {
			s.log.Warn("victory artifact upload failed",
				slog.String("tournament", t.ID), slog.Any("error", err))
			continue
		}
		urls = append(urls, result.Location)
	}
	return urls
}

// compileChronicle assembles the full visual history plus the celebratory
// artifacts into one document and uploads it. Returns "" when there is
// nothing to compile or the upload fails; the finale completes regardless.
func (s *TournamentService) compileChronicle(ctx context.Context, t *models.Tournament, victoryURLs []string) string {
	var urls []string
	for _, match := range t.History {
		for _, artifact := range match.Artifacts {
			if artifact.URL != "" {
				urls = append(urls, artifact.URL)
			}
		}
	}
	urls = append(urls, victoryURLs...)
	if len(urls) == 0 {
		return ""
	}

	compiler := s.newCompiler()
	pages := 0
	for _, url := range urls {
		img, err := s.fetch(ctx, url)
		if err != nil {
			s.log.Warn("chronicle page fetch failed", slog.String("url", url), slog.Any("error", err))
			continue
		}
		if err := compiler.AppendPage(img); err != nil {
			s.log.Warn("chronicle page append failed", slog.String("url", url), slog.Any("error", err))
			continue
		}
		pages++
	}
	if pages == 0 {
		return ""
	}

	doc, err := compiler.Finalize()
	if err != nil {
		s.log.Warn("chronicle finalize failed", slog.String("tournament", t.ID), slog.Any("error", err))
		return ""
	}

	key := fmt.Sprintf("battles/%s/finale/chronicle.pdf", t.ID)
	result, err := s.uploader.Upload(ctx, key, "application/pdf", bytes.NewReader(doc))
	if err != nil {
		s.log.Warn("chronicle upload failed", slog.String("tournament", t.ID), slog.Any("error", err))
		return ""
	}
	return result.Location
}

func fetchArtifact(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
