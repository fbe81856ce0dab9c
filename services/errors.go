package services

import "errors"

// Shared sentinel errors used across services and surfaced to the UI layer.
var (
	// Validation errors: bad input, battle state unaffected.
	ErrLobbyExists       = errors.New("an open lobby already exists in this channel")
	ErrLobbyNotFound     = errors.New("no open lobby in this channel")
	ErrLobbyNotOpen      = errors.New("lobby is not accepting registrations")
	ErrDuplicateEntry    = errors.New("user already registered a contestant in this lobby")
	ErrLobbyFull         = errors.New("lobby is at capacity")
	ErrInvalidAsset      = errors.New("no eligible asset for this registration")
	ErrMissingWallet     = errors.New("no verified wallet linked to this user")
	ErrMissingTeamChoice = errors.New("team battles require a team constraint")

	// AmbiguousConstraint is a control-flow signal, not a failure: the
	// caller must prompt for a collection choice and retry.
	ErrAmbiguousConstraint = errors.New("holder qualifies under multiple collections; disambiguation required")

	// Lifecycle errors.
	ErrBattleInProgress = errors.New("a battle is already running in this channel")
	ErrBattleNotWaiting = errors.New("battle can no longer be reset")
	ErrNotHost          = errors.New("only the lobby host can perform this action")

	// Token accounting.
	ErrNoTokens   = errors.New("not enough battle tokens")
	ErrOnCooldown = errors.New("hosting cooldown has not expired")
)
