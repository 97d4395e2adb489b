package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/service"
	"github.com/phrazzld/scry-study/internal/session"
	"github.com/urfave/cli/v3"
)

func (rt *runtime) studyCommand() *cli.Command {
	return &cli.Command{
		Name:      "study",
		Usage:     "Review the due cards of a deck",
		UsageText: "scry-study study DECK_ID",
		Description: `Shows each due card's front, waits for Enter, shows the back and asks for a
rating: 1/again, 2/hard, 3/medium (or good), 4/easy. Enter q to stop early.`,
		Action: rt.runStudy,
	}
}

func (rt *runtime) runStudy(ctx context.Context, c *cli.Command) error {
	deckID, err := parseIDArg(c, "deck ID")
	if err != nil {
		return err
	}
	svc, userID, err := rt.serviceAndUser(ctx)
	if err != nil {
		return err
	}

	progress, err := svc.StartSession(ctx, userID, deckID)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	in := bufio.NewScanner(rt.in)
	err = rt.reviewLoop(ctx, svc, userID, progress.SessionID, in)

	summary, endErr := svc.EndSession(ctx, userID, progress.SessionID)
	if endErr != nil {
		return errors.Join(err, fmt.Errorf("end session: %w", endErr))
	}
	if err != nil {
		return err
	}

	if summary.TotalCards == 0 {
		_, _ = fmt.Fprintln(rt.out, "Nothing due. Come back later.")
		return nil
	}
	_, _ = fmt.Fprintf(rt.out, "\nReviewed %d of %d cards, %d correct (%.0f%%) in %s\n",
		summary.CardsReviewed, summary.TotalCards, summary.CorrectCount,
		summary.Accuracy*100, summary.Duration.Round(time.Second))
	return nil
}

func (rt *runtime) reviewLoop(
	ctx context.Context,
	svc service.StudyService,
	userID, sessionID uuid.UUID,
	in *bufio.Scanner,
) error {
	for {
		card, err := svc.CurrentCard(ctx, userID, sessionID)
		if errors.Is(err, session.ErrSessionComplete) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("current card: %w", err)
		}

		content, decodeErr := card.DecodeContent()
		if decodeErr != nil {
			content = domain.CardContent{Front: string(card.Content)}
		}

		progress, err := svc.SessionProgress(ctx, userID, sessionID)
		if err != nil {
			return fmt.Errorf("session progress: %w", err)
		}

		_, _ = fmt.Fprintf(rt.out, "\n[%d/%d] %s\n", progress.Position+1, progress.TotalCards, content.Front)
		if content.Hint != "" {
			_, _ = fmt.Fprintf(rt.out, "hint: %s\n", content.Hint)
		}
		_, _ = fmt.Fprint(rt.out, "(Enter to reveal) ")
		line, ok := readLine(in)
		if !ok || line == "q" {
			return nil
		}
		_, _ = fmt.Fprintf(rt.out, "%s\n", content.Back)

		rating, quit := rt.promptRating(in)
		if quit {
			return nil
		}

		for {
			_, err = svc.SubmitReview(ctx, userID, sessionID, rating)
			if err == nil {
				break
			}
			if !errors.Is(err, session.ErrPersistence) {
				return fmt.Errorf("submit review: %w", err)
			}
			_, _ = fmt.Fprintf(rt.out, "could not save review (%v). Retry? [Y/n] ", err)
			answer, ok := readLine(in)
			if !ok || strings.EqualFold(answer, "n") {
				return err
			}
		}
	}
}

// promptRating reads ratings until a valid one is entered. quit is true when
// input ends or the user enters q.
func (rt *runtime) promptRating(in *bufio.Scanner) (rating domain.Rating, quit bool) {
	for {
		_, _ = fmt.Fprint(rt.out, "rating [1 again, 2 hard, 3 medium, 4 easy]: ")
		line, ok := readLine(in)
		if !ok || line == "q" {
			return 0, true
		}
		r, err := parseRatingInput(line)
		if err == nil {
			return r, false
		}
		_, _ = fmt.Fprintln(rt.out, "unrecognised rating")
	}
}

func parseRatingInput(s string) (domain.Rating, error) {
	switch s {
	case "1":
		return domain.RatingAgain, nil
	case "2":
		return domain.RatingHard, nil
	case "3":
		return domain.RatingMedium, nil
	case "4":
		return domain.RatingEasy, nil
	}
	return domain.ParseRating(s)
}

func readLine(in *bufio.Scanner) (string, bool) {
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}
