package ui

import (
	"context"
	"testing"
	"time"
)

var testOptions = []Choice{
	{ID: "a", Label: "Alpha"},
	{ID: "b", Label: "Beta"},
}

func TestAwaitReturnsSelection(t *testing.T) {
	answers := make(chan Choice, 1)
	answers <- Choice{ID: "b"}

	got := Await(context.Background(), answers, testOptions, time.Second)
	if got.ID != "b" {
		t.Fatalf("expected selected option, got %+v", got)
	}
}

func TestAwaitDefaultsOnTimeout(t *testing.T) {
	answers := make(chan Choice)

	got := Await(context.Background(), answers, testOptions, 10*time.Millisecond)
	if got.ID != "a" {
		t.Fatalf("timeout must take the first option, got %+v", got)
	}
}

func TestAwaitDefaultsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := Await(ctx, make(chan Choice), testOptions, time.Minute)
	if got.ID != "a" {
		t.Fatalf("cancellation must take the first option, got %+v", got)
	}
}

func TestAwaitUnknownSelectionFallsBack(t *testing.T) {
	answers := make(chan Choice, 1)
	answers <- Choice{ID: "zz"}

	got := Await(context.Background(), answers, testOptions, time.Second)
	if got.ID != "a" {
		t.Fatalf("an answer outside the options must default, got %+v", got)
	}
}

func TestAwaitClosedChannelDefaults(t *testing.T) {
	answers := make(chan Choice)
	close(answers)

	got := Await(context.Background(), answers, testOptions, time.Second)
	if got.ID != "a" {
		t.Fatalf("closed channel must default, got %+v", got)
	}
}

func TestAwaitNoOptions(t *testing.T) {
	got := Await(context.Background(), make(chan Choice), nil, time.Millisecond)
	if got != (Choice{}) {
		t.Fatalf("no options must yield the zero choice, got %+v", got)
	}
}
