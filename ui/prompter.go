// Package ui is the seam between the battle engine and whatever chat
// platform hosts it. The engine never renders platform UI; it presents
// options, waits a bounded time, and posts updates through these
// interfaces.
package ui

import (
	"context"
	"time"
)

// Choice is one selectable option.
type Choice struct {
	ID    string
	Label string
}

// Prompter presents choices to a user and blocks for an answer.
type Prompter interface {
	// AwaitChoice returns the selected option. When the timeout elapses or
	// the context is cancelled before a selection arrives, the first option
	// is returned as the default; the engine is never left stuck on a
	// prompt.
	AwaitChoice(ctx context.Context, userID, prompt string, options []Choice, timeout time.Duration) Choice
}

// Notifier pushes progress updates to the channel hosting a battle.
type Notifier interface {
	PostUpdate(ctx context.Context, channelID, message string, artifactURLs ...string)
}

// Await implements the default-on-timeout selection semantics over a
// delivery channel. Transports feed the user's pick into answers; Await
// resolves whichever comes first.
func Await(ctx context.Context, answers <-chan Choice, options []Choice, timeout time.Duration) Choice {
	if len(options) == 0 {
		return Choice{}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case picked, ok := <-answers:
		if !ok {
			return options[0]
		}
		for _, opt := range options {
			if opt.ID == picked.ID {
				return opt
			}
		}
		return options[0]
	case <-timer.C:
		return options[0]
	case <-ctx.Done():
		return options[0]
	}
}

// NopNotifier discards updates; used in tests and headless runs.
type NopNotifier struct{}

func (NopNotifier) PostUpdate(context.Context, string, string, ...string) {}

// AutoPrompter immediately takes the default option. It stands in until an
// interactive chat transport is attached.
type AutoPrompter struct{}

func (AutoPrompter) AwaitChoice(_ context.Context, _, _ string, options []Choice, _ time.Duration) Choice {
	if len(options) == 0 {
		return Choice{}
	}
	return options[0]
}
