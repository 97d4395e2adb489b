package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/importer"
	"github.com/urfave/cli/v3"
)

func (rt *runtime) deckCommand() *cli.Command {
	return &cli.Command{
		Name:  "deck",
		Usage: "Manage decks",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create an empty deck",
				UsageText: "scry-study deck create NAME",
				Action:    rt.runDeckCreate,
			},
			{
				Name:   "list",
				Usage:  "List your decks with their due counts",
				Action: rt.runDeckList,
			},
		},
	}
}

func (rt *runtime) runDeckCreate(ctx context.Context, c *cli.Command) error {
	name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if name == "" {
		return fmt.Errorf("missing deck name")
	}

	svc, userID, err := rt.serviceAndUser(ctx)
	if err != nil {
		return err
	}

	deck, err := svc.CreateDeck(ctx, userID, name)
	if err != nil {
		return fmt.Errorf("create deck: %w", err)
	}
	_, _ = fmt.Fprintln(rt.out, deck.ID)
	return nil
}

func (rt *runtime) runDeckList(ctx context.Context, _ *cli.Command) error {
	svc, userID, err := rt.serviceAndUser(ctx)
	if err != nil {
		return err
	}

	decks, err := svc.ListDecks(ctx, userID)
	if err != nil {
		return fmt.Errorf("list decks: %w", err)
	}
	if len(decks) == 0 {
		_, _ = fmt.Fprintln(rt.errw, "No decks found")
		return nil
	}

	w := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCARDS\tDUE")
	for _, d := range decks {
		stats, err := svc.DeckStats(ctx, userID, d.ID)
		if err != nil {
			return fmt.Errorf("deck %s stats: %w", d.ID, err)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", d.ID, d.Name, stats.TotalCards, stats.DueCards)
	}
	return w.Flush()
}

func (rt *runtime) importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import cards from a CSV or XLSX file",
		UsageText: "scry-study import [--sheet NAME] [--start-row N] DECK_ID FILE",
		Description: `Reads one card per row: front, back, hint and tags in columns A to D.
Tags are separated by commas, semicolons or pipes. The first row is treated
as a header unless --start-row is set.`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sheet", Usage: "Excel sheet to read (default: first sheet)"},
			&cli.IntFlag{Name: "start-row", Usage: "first data row, 1-based", Value: 2},
			&cli.StringFlag{Name: "front", Usage: "front column", Value: "A"},
			&cli.StringFlag{Name: "back", Usage: "back column", Value: "B"},
			&cli.StringFlag{Name: "hint", Usage: "hint column, empty to ignore", Value: "C"},
			&cli.StringFlag{Name: "tags", Usage: "tags column, empty to ignore", Value: "D"},
		},
		Action: rt.runImport,
	}
}

func (rt *runtime) runImport(ctx context.Context, c *cli.Command) error {
	deckID, err := parseIDArg(c, "deck ID")
	if err != nil {
		return err
	}
	if c.Args().Len() < 2 {
		return fmt.Errorf("missing file argument")
	}
	path := c.Args().Get(1)

	res, err := importer.ReadFile(path, importer.Config{
		SheetName:   c.String("sheet"),
		StartRow:    int(c.Int("start-row")),
		FrontColumn: c.String("front"),
		BackColumn:  c.String("back"),
		HintColumn:  c.String("hint"),
		TagsColumn:  c.String("tags"),
	})
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for _, rowErr := range res.Errors {
		_, _ = fmt.Fprintf(rt.errw, "skipped %v\n", rowErr)
	}
	if len(res.Contents) == 0 {
		return fmt.Errorf("no cards found in %s", path)
	}

	svc, userID, err := rt.serviceAndUser(ctx)
	if err != nil {
		return err
	}
	cards, err := svc.AddCards(ctx, userID, deckID, res.Contents)
	if err != nil {
		return fmt.Errorf("add cards: %w", err)
	}

	_, _ = fmt.Fprintf(rt.out, "imported %d cards (%d skipped)\n", len(cards), res.Skipped)
	return nil
}

func (rt *runtime) statsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Show deck statistics",
		UsageText: "scry-study stats DECK_ID",
		Action: func(ctx context.Context, c *cli.Command) error {
			deckID, err := parseIDArg(c, "deck ID")
			if err != nil {
				return err
			}
			svc, userID, err := rt.serviceAndUser(ctx)
			if err != nil {
				return err
			}

			stats, err := svc.DeckStats(ctx, userID, deckID)
			if err != nil {
				return fmt.Errorf("deck stats: %w", err)
			}

			w := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "Total cards:\t%d\n", stats.TotalCards)
			_, _ = fmt.Fprintf(w, "Due now:\t%d\n", stats.DueCards)
			_, _ = fmt.Fprintf(w, "New:\t%d\n", stats.NewCards)
			_, _ = fmt.Fprintf(w, "Average ease:\t%.2f\n", stats.AverageEaseFactor)
			_, _ = fmt.Fprintf(w, "Estimated retention:\t%.1f%%\n", stats.EstimatedRetention)
			return w.Flush()
		},
	}
}

func (rt *runtime) dueCommand() *cli.Command {
	return &cli.Command{
		Name:      "due",
		Usage:     "List the cards due for review, most overdue first",
		UsageText: "scry-study due DECK_ID",
		Action: func(ctx context.Context, c *cli.Command) error {
			deckID, err := parseIDArg(c, "deck ID")
			if err != nil {
				return err
			}
			svc, userID, err := rt.serviceAndUser(ctx)
			if err != nil {
				return err
			}

			cards, err := svc.DueCards(ctx, userID, deckID)
			if err != nil {
				return fmt.Errorf("due cards: %w", err)
			}
			if len(cards) == 0 {
				_, _ = fmt.Fprintln(rt.errw, "Nothing due")
				return nil
			}

			w := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tFRONT\tDUE SINCE")
			for _, card := range cards {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", card.ID, front(card), card.Review.NextReview.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func (rt *runtime) postponeCommand() *cli.Command {
	return &cli.Command{
		Name:      "postpone",
		Usage:     "Push a card's next review back by a number of days",
		UsageText: "scry-study postpone --days N CARD_ID",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Usage: "days to postpone by", Value: 1},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cardID, err := parseIDArg(c, "card ID")
			if err != nil {
				return err
			}
			svc, userID, err := rt.serviceAndUser(ctx)
			if err != nil {
				return err
			}

			card, err := svc.PostponeCard(ctx, userID, cardID, int(c.Int("days")))
			if err != nil {
				return fmt.Errorf("postpone: %w", err)
			}
			_, _ = fmt.Fprintf(rt.out, "next review %s\n", card.Review.NextReview.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

// front returns the front text of a card, or its raw content if it is not in
// the usual shape.
func front(card domain.Card) string {
	content, err := card.DecodeContent()
	if err != nil || content.Front == "" {
		return string(card.Content)
	}
	return content.Front
}
