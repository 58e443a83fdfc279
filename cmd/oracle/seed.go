// cmd/oracle/seed.go
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/jason-s-yu/oracle/internal/database"
	"github.com/jason-s-yu/oracle/internal/tarot"
	"github.com/spf13/cobra"
)

func (c *cli) seedCmd() *cobra.Command {
	var deckPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the card catalog with a deck definition",
		Long: `Seed loads a deck definition (the embedded Rider-Waite-Smith deck unless --deck is
given), validates it and replaces the tarot_cards table with its cards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deck, err := loadDeck(deckPath)
			if err != nil {
				return err
			}
			if res := deck.Validate(); !res.OK() {
				return fmt.Errorf("deck is invalid:\n  %s", strings.Join(res.Errors, "\n  "))
			}

			cfg, logger, err := c.load()
			if err != nil {
				return err
			}
			pool, err := database.ConnectDB(cmd.Context(), cfg.DatabaseURL(), logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.NewStore(pool).ReplaceCards(cmd.Context(), deck.Cards); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s seeded %d cards from %s\n",
				color.GreenString("✔"), len(deck.Cards), deck.Info.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&deckPath, "deck", "", "deck TOML file (default: embedded Rider-Waite-Smith)")
	return cmd
}

func loadDeck(path string) (*tarot.Deck, error) {
	if path == "" {
		return tarot.DefaultDeck()
	}
	return tarot.LoadDeck(path)
}
