package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nftbrawl/arena-bot/models"
	"github.com/nftbrawl/arena-bot/ui"
)

// SetupStep tags the wizard's position. The step plus the fields filled so
// far form a tagged union; Next is the pure transition function over it,
// fully decoupled from transport callback identifiers.
type SetupStep string

const (
	StepChooseMode  SetupStep = "choose_mode"
	StepChooseTeamA SetupStep = "choose_team_a"
	StepChooseTeamB SetupStep = "choose_team_b"
	StepChooseArena SetupStep = "choose_arena"
	StepChooseGenre SetupStep = "choose_genre"
	StepChooseStyle SetupStep = "choose_style"
	StepReady       SetupStep = "ready"
)

// SetupState is the wizard's accumulated state.
type SetupState struct {
	Step     SetupStep
	Mode     models.RegistrationMode
	TeamMode bool
	Teams    *models.TeamConfig
	Settings models.Settings
}

var (
	modeChoices = []ui.Choice{
		{ID: "profile_image", Label: "Profile pictures"},
		{ID: "upload", Label: "Uploaded images"},
		{ID: "wallet", Label: "Verified wallets"},
		{ID: "wallet_teams", Label: "Verified wallets, team battle"},
	}
	arenaChoices = []ui.Choice{
		{ID: "colosseum", Label: "Ancient colosseum"},
		{ID: "cyber_pit", Label: "Neon cyber pit"},
		{ID: "volcano", Label: "Volcano rim"},
		{ID: "deep_sea", Label: "Abyssal trench"},
	}
	genreChoices = []ui.Choice{
		{ID: "epic", Label: "Epic fantasy"},
		{ID: "comedy", Label: "Slapstick comedy"},
		{ID: "noir", Label: "Hard-boiled noir"},
	}
	styleChoices = []ui.Choice{
		{ID: "oil_painting", Label: "Oil painting"},
		{ID: "pixel_art", Label: "Pixel art"},
		{ID: "anime", Label: "Anime"},
		{ID: "photoreal", Label: "Photorealistic"},
	}
)

var errSetupComplete = errors.New("setup already complete")

// NewSetupState starts the wizard at mode selection.
func NewSetupState() SetupState {
	return SetupState{Step: StepChooseMode}
}

// Options returns the choices the current step presents. Team steps offer
// the configured collection aliases.
func (s SetupState) Options(configuredAliases []string) []ui.Choice {
	switch s.Step {
	case StepChooseMode:
		return modeChoices
	case StepChooseTeamA, StepChooseTeamB:
		options := make([]ui.Choice, 0, len(configuredAliases))
		for _, alias := range configuredAliases {
			options = append(options, ui.Choice{ID: alias, Label: alias})
		}
		return options
	case StepChooseArena:
		return arenaChoices
	case StepChooseGenre:
		return genreChoices
	case StepChooseStyle:
		return styleChoices
	default:
		return nil
	}
}

// Prompt is the user-facing question for the current step.
func (s SetupState) Prompt() string {
	switch s.Step {
	case StepChooseMode:
		return "How do fighters enter?"
	case StepChooseTeamA:
		return "Pick the first team's collection"
	case StepChooseTeamB:
		return "Pick the second team's collection"
	case StepChooseArena:
		return "Where does the battle take place?"
	case StepChooseGenre:
		return "What tone should the story have?"
	case StepChooseStyle:
		return "Pick the visual style"
	default:
		return ""
	}
}

// Next applies one choice and returns the advanced state. It is pure: no
// I/O, no side effects, safe to unit test step by step.
func Next(state SetupState, choice ui.Choice) (SetupState, error) {
	switch state.Step {
	case StepChooseMode:
		switch choice.ID {
		case "wallet_teams":
			state.Mode = models.ModeWallet
			state.TeamMode = true
			state.Teams = &models.TeamConfig{}
			state.Step = StepChooseTeamA
		case "wallet":
			state.Mode = models.ModeWallet
			state.Step = StepChooseArena
		case "upload":
			state.Mode = models.ModeUpload
			state.Step = StepChooseArena
		case "profile_image":
			state.Mode = models.ModeProfileImage
			state.Step = StepChooseArena
		default:
			return state, fmt.Errorf("unknown mode %q", choice.ID)
		}
		return state, nil

	case StepChooseTeamA:
		state.Teams.ConstraintA = choice.ID
		state.Teams.NameA = choice.Label
		state.Settings.TeamA = choice.Label
		state.Step = StepChooseTeamB
		return state, nil

	case StepChooseTeamB:
		state.Teams.ConstraintB = choice.ID
		state.Teams.NameB = choice.Label
		state.Settings.TeamB = choice.Label
		state.Step = StepChooseArena
		return state, nil

	case StepChooseArena:
		state.Settings.Arena = choice.Label
		state.Step = StepChooseGenre
		return state, nil

	case StepChooseGenre:
		state.Settings.Genre = choice.Label
		state.Step = StepChooseStyle
		return state, nil

	case StepChooseStyle:
		state.Settings.Style = choice.Label
		state.Step = StepReady
		return state, nil

	default:
		return state, errSetupComplete
	}
}

// SetupService drives the wizard through the prompter, one bounded-time
// choice per step. A timed-out step falls back to the step's first option,
// so setup always terminates.
type SetupService struct {
	prompter          ui.Prompter
	configuredAliases []string
	log               *slog.Logger
}

func NewSetupService(prompter ui.Prompter, configuredAliases []string, log *slog.Logger) *SetupService {
	return &SetupService{prompter: prompter, configuredAliases: configuredAliases, log: log}
}

// Run walks the host through every step and returns the completed state.
func (s *SetupService) Run(ctx context.Context, hostID string) (SetupState, error) {
	state := NewSetupState()
	for state.Step != StepReady {
		options := state.Options(s.configuredAliases)
		if len(options) == 0 {
			return state, fmt.Errorf("setup step %s has no options; check configured collections", state.Step)
		}

		choice := s.prompter.AwaitChoice(ctx, hostID, state.Prompt(), options, choiceTimeout)
		next, err := Next(state, choice)
		if err != nil {
			return state, err
		}
		state = next
	}

	s.log.Info("battle setup complete",
		slog.String("host", hostID),
		slog.String("mode", string(state.Mode)),
		slog.Bool("team_mode", state.TeamMode),
		slog.String("arena", state.Settings.Arena))
	return state, nil
}
