package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewCard(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	content := json.RawMessage(`{"front": "What is Go?", "back": "A programming language"}`)

	card, err := NewCard(deckID, content, now, 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if card.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if card.DeckID != deckID {
		t.Errorf("Expected deck ID %s, got %s", deckID, card.DeckID)
	}
	if string(card.Content) != string(content) {
		t.Errorf("Expected content %s, got %s", string(content), string(card.Content))
	}
	if !card.Review.NextReview.Equal(now) {
		t.Errorf("Expected new card to be due at creation time %v, got %v", now, card.Review.NextReview)
	}
	if card.Review.EaseFactor != DefaultEaseFactor {
		t.Errorf("Expected default ease factor %v, got %v", DefaultEaseFactor, card.Review.EaseFactor)
	}

	_, err = NewCard(uuid.Nil, content, now, 0)
	if err != ErrCardDeckIDEmpty {
		t.Errorf("Expected error %v, got %v", ErrCardDeckIDEmpty, err)
	}

	_, err = NewCard(deckID, nil, now, 0)
	if err != ErrCardContentEmpty {
		t.Errorf("Expected error %v, got %v", ErrCardContentEmpty, err)
	}

	_, err = NewCard(deckID, json.RawMessage(`{"front":`), now, 0)
	if err != ErrCardContentInvalid {
		t.Errorf("Expected error %v, got %v", ErrCardContentInvalid, err)
	}
}

func TestCardDecodeContent(t *testing.T) {
	t.Parallel()
	card, err := NewCard(uuid.New(), json.RawMessage(`{"front":"hola","back":"hello","tags":["es"]}`), time.Now(), 2.5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	content, err := card.DecodeContent()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if content.Front != "hola" || content.Back != "hello" {
		t.Errorf("Unexpected content %+v", content)
	}
	if len(content.Tags) != 1 || content.Tags[0] != "es" {
		t.Errorf("Expected tags [es], got %v", content.Tags)
	}
}

func TestCardWithReview(t *testing.T) {
	t.Parallel()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	card, err := NewCard(uuid.New(), json.RawMessage(`{"front":"a","back":"b"}`), created, 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	later := created.Add(48 * time.Hour)
	next := ReviewState{EaseFactor: 2.6, Interval: 3, ReviewCount: 1, LastReviewed: later, NextReview: later.AddDate(0, 0, 3)}
	updated := card.WithReview(next, later)

	if updated.Review != next {
		t.Errorf("Expected review %+v, got %+v", next, updated.Review)
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Errorf("Expected UpdatedAt %v, got %v", later, updated.UpdatedAt)
	}
	if card.Review.ReviewCount != 0 {
		t.Error("WithReview must not modify the original card")
	}
}
