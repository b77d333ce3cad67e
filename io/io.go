package io

import (
	"fmt"
	"io"
	"strings"

	"github.com/bcspragu/Set/set"
	"github.com/olekukonko/tablewriter"
)

// Slots are laid out this many to a row.
const rowSize = 3

var symbols = map[set.Shape]map[set.Shading]string{
	set.Diamond: {set.Open: "△", set.Solid: "▲", set.Striped: "◭"},
	set.Oval:    {set.Open: "○", set.Solid: "●", set.Striped: "◍"},
	set.Tilde:   {set.Open: "□", set.Solid: "■", set.Striped: "▤"},
}

// Glyph draws a card as its shape symbol repeated once per item. The symbol
// also shows the shading; color is left to the caller.
func Glyph(c set.Card) string {
	return strings.Repeat(symbols[c.Shape][c.Shading], int(c.Count))
}

func colorOf(c set.Color) int {
	switch c {
	case set.Red:
		return tablewriter.FgRedColor
	case set.Green:
		return tablewriter.FgGreenColor
	default:
		return tablewriter.FgMagentaColor
	}
}

func marker(sel set.Selection) string {
	switch sel {
	case set.Initial:
		return "*"
	case set.Match:
		return "+"
	case set.NoMatch:
		return "x"
	default:
		return " "
	}
}

// PrintBoard writes the spread as a table, three slots to a row, followed by
// the score and what's left in the deck. Each slot is labelled with the
// number used to select it.
func PrintBoard(out io.Writer, v *set.View) {
	table := tablewriter.NewWriter(out)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for i := 0; i < len(v.Slots); i += rowSize {
		var row []string
		var colors []tablewriter.Colors
		for j := i; j < i+rowSize; j++ {
			if j >= len(v.Slots) {
				// Keep every row the same width.
				row = append(row, "")
				colors = append(colors, tablewriter.Colors{})
				continue
			}
			s := v.Slots[j]
			card, ok := s.Card()
			if !ok {
				row = append(row, fmt.Sprintf("%2d", j))
				colors = append(colors, tablewriter.Colors{})
				continue
			}

			c := tablewriter.Colors{colorOf(card.Color)}
			switch s.Selection() {
			case set.Match:
				c = append(c, tablewriter.Bold, tablewriter.UnderlineSingle)
			case set.Initial, set.NoMatch:
				c = append(c, tablewriter.UnderlineSingle)
			}
			row = append(row, fmt.Sprintf("%2d%s %s", j, marker(s.Selection()), Glyph(card)))
			colors = append(colors, c)
		}
		table.Rich(row, colors)
	}

	table.Render()

	fmt.Fprintf(out, "Score: %d, cards left: %d\n", v.Score, v.DeckSize)
	if v.GameOver {
		fmt.Fprintln(out, "No sets left, game over!")
	}
}

// PrintHint writes out where the sets in the spread are.
func PrintHint(out io.Writer, matches [][]int) {
	if len(matches) == 0 {
		fmt.Fprintln(out, "There are no sets on the table.")
		return
	}

	var strs []string
	for _, m := range matches {
		var idxs []string
		for _, idx := range m {
			idxs = append(idxs, fmt.Sprint(idx))
		}
		strs = append(strs, strings.Join(idxs, " "))
	}
	fmt.Fprintf(out, "Sets at: %s\n", strings.Join(strs, "; "))
}
