package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dialogue_ai/story"
	"dialogue_ai/templates"
)

// runTerminal plays one session over a line-based console.
func runTerminal(ctx context.Context, ctrl *story.Controller, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "=== Town Talk ===")
	fmt.Fprintln(out, "Type a number to choose, 'status' to look around, 'quit' to leave.")
	fmt.Fprintln(out)
	printScene(out, ctrl.Snapshot())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.ToLower(strings.TrimSpace(scanner.Text()))

		switch input {
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Bye!")
			return nil
		case "status", "s":
			printScene(out, ctrl.Snapshot())
			continue
		case "help", "?":
			fmt.Fprintln(out, "Numbers pick a line or a location. Press enter to move on when asked.")
			continue
		}

		if err := step(ctx, ctrl, input, out); err != nil {
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}
		printScene(out, ctrl.Snapshot())
	}
}

func step(ctx context.Context, ctrl *story.Controller, input string, out io.Writer) error {
	snap := ctrl.Snapshot()
	switch snap.State {
	case story.StateAwaitingAdvance:
		return ctrl.Advance()
	case story.StateConversing:
		n, err := pick(input, len(snap.Offered))
		if err != nil {
			return err
		}
		res, err := ctrl.Select(ctx, snap.Offered[n].ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nYou: %s\n%s: %s\n", res.Turn.PlayerLine, snap.Character.DisplayName, res.Turn.Reply)
		return nil
	case story.StateChoosingLocation:
		n, err := pick(input, len(snap.LocationChoices))
		if err != nil {
			return err
		}
		return ctrl.ChooseLocation(ctx, snap.LocationChoices[n].ID)
	default:
		return fmt.Errorf("nothing to do in %s", snap.State)
	}
}

// pick parses a 1-based choice into an index.
func pick(input string, count int) (int, error) {
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > count {
		return 0, fmt.Errorf("choose a number from 1 to %d", count)
	}
	return n - 1, nil
}

func printScene(out io.Writer, snap story.Snapshot) {
	badge := templates.MoodStatus(snap.Character.Mood)
	fmt.Fprintf(out, "\n[%s] %s (%s) - %d/%d\n", snap.Location.Name, snap.Character.DisplayName,
		badge.Description, snap.ExchangeCount, snap.ExchangeLimit)

	switch snap.State {
	case story.StateConversing:
		for i, opt := range snap.Offered {
			fmt.Fprintf(out, "  %d. %s\n", i+1, opt.Text)
		}
	case story.StateAwaitingAdvance:
		fmt.Fprintf(out, "  %s has had enough of you. Press enter to move on.\n", snap.Character.DisplayName)
	case story.StateChoosingLocation:
		fmt.Fprintln(out, "  Where to next?")
		for i, loc := range snap.LocationChoices {
			fmt.Fprintf(out, "  %d. %s\n", i+1, loc.Name)
		}
	}
}
