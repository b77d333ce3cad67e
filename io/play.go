package io

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bcspragu/Set/set"
)

type CommandKind int

const (
	Select CommandKind = iota
	Deal
	Hint
	NewGame
	Quit
)

// Command is one line of player input.
type Command struct {
	Kind CommandKind
	// Slot is only set for Select.
	Slot int
}

var ErrUnknownCommand = errors.New("io: unknown command")

// ParseCommand reads a command like "7" (select slot 7), "d" (deal), "h"
// (hint), "n" (new game) or "q" (quit).
func ParseCommand(line string) (Command, error) {
	line = strings.ToLower(strings.TrimSpace(line))
	switch line {
	case "d", "deal":
		return Command{Kind: Deal}, nil
	case "h", "hint":
		return Command{Kind: Hint}, nil
	case "n", "new":
		return Command{Kind: NewGame}, nil
	case "q", "quit":
		return Command{Kind: Quit}, nil
	}

	idx, err := strconv.Atoi(line)
	if err != nil || idx < 0 {
		return Command{}, fmt.Errorf("%w %q", ErrUnknownCommand, line)
	}
	return Command{Kind: Select, Slot: idx}, nil
}

// Session is a game being played, locally or on a server.
type Session interface {
	View() (*set.View, error)
	Deal() (*set.View, error)
	Select(slot int) (*set.View, error)
	Restart() (*set.View, error)
	Hint() ([][]int, error)
}

const help = "Enter a slot number to select it, 'd' to deal, 'h' for a hint, 'n' for a new game or 'q' to quit: "

// Play runs the game in s on the terminal until the player quits or in runs
// out. Bad input and rejected moves are reported and play continues.
func Play(in io.Reader, out io.Writer, s Session) error {
	v, err := s.View()
	if err != nil {
		return fmt.Errorf("failed to load game: %w", err)
	}

	sc := bufio.NewScanner(in)
	for {
		PrintBoard(out, v)
		fmt.Fprint(out, help)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return fmt.Errorf("scanner error: %w", err)
			}
			return nil
		}
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}

		cmd, err := ParseCommand(sc.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		var nv *set.View
		switch cmd.Kind {
		case Quit:
			return nil
		case Hint:
			matches, err := s.Hint()
			if err != nil {
				fmt.Fprintf(out, "failed to get hint: %v\n", err)
				continue
			}
			PrintHint(out, matches)
			continue
		case Deal:
			nv, err = s.Deal()
		case NewGame:
			nv, err = s.Restart()
		case Select:
			nv, err = s.Select(cmd.Slot)
		}
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		v = nv
	}
}
