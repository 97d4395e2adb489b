// Package domain contains the core study entities: decks, cards, the
// per-card review state and the difficulty rating a learner gives a card.
// It has no knowledge of storage or transport.
package domain
