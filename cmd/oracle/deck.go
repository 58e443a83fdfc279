// cmd/oracle/deck.go
package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jason-s-yu/oracle/internal/models"
	"github.com/jason-s-yu/oracle/internal/tarot"
	"github.com/spf13/cobra"
)

func validateDeckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-deck [path]",
		Short: "Check a deck TOML file before seeding it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deck, err := tarot.LoadDeck(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			res := deck.Validate()

			fmt.Fprintln(out, "Validation Results:")
			fmt.Fprintln(out, "-------------------")
			if res.OK() {
				fmt.Fprintf(out, "%s Deck '%s' is valid (%d cards).\n", color.GreenString("✔"), deck.Info.Name, len(deck.Cards))
			} else {
				fmt.Fprintf(out, "%s Deck '%s' has %d validation errors:\n", color.RedString("✘"), args[0], len(res.Errors))
				for i, e := range res.Errors {
					fmt.Fprintf(out, "%d. %s\n", i+1, e)
				}
			}
			if len(res.Warnings) > 0 {
				fmt.Fprintln(out, color.YellowString("\nWarnings:"))
				for i, w := range res.Warnings {
					fmt.Fprintf(out, "%d. %s\n", i+1, w)
				}
			}
			if !res.OK() {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}
}

// drawCmd deals a spread offline, without the interpreter. Handy for checking a deck.
func drawCmd() *cobra.Command {
	var spreadKey, deckPath string
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Deal a spread locally and print the cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deck, err := loadDeck(deckPath)
			if err != nil {
				return err
			}
			spread, ok := tarot.ResolveSpread(spreadKey)
			if !ok {
				return fmt.Errorf("unknown spread %q", spreadKey)
			}
			cards, err := tarot.Draw(deck.Cards, spread.Count())
			if err != nil {
				return err
			}
			printSpread(cmd.OutOrStdout(), spread, cards)
			return nil
		},
	}
	cmd.Flags().StringVar(&spreadKey, "spread", tarot.SpreadThreeCard, "single, three-card or celtic-cross")
	cmd.Flags().StringVar(&deckPath, "deck", "", "deck TOML file (default: embedded Rider-Waite-Smith)")
	return cmd
}

func printSpread(out io.Writer, spread tarot.Spread, cards []models.DrawnCard) {
	title := color.New(color.FgMagenta, color.Bold)
	title.Fprintln(out, spread.Name)

	for _, c := range cards {
		orientation := color.GreenString(c.Orientation())
		if c.IsReversed {
			orientation = color.RedString(c.Orientation())
		}
		fmt.Fprintf(out, "%2d. %-18s %s (%s)\n", c.Position, spread.PositionLabel(c.Position), c.Name, orientation)
		fmt.Fprintf(out, "    %s\n", color.HiBlackString(c.Meaning))
	}
}
