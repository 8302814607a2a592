package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"stressoscope/internal/domain"
	"stressoscope/internal/games/narrative"
	"stressoscope/internal/jsonx"
)

// chooser asks the player to pick an option for seg and returns its index.
type chooser func(step, total int, seg narrative.Segment) (int, error)

var errAborted = errors.New("story aborted")

func newStoryCommand(_ *rootOptions) *cobra.Command {
	var asJSON bool
	var plain bool

	cmd := &cobra.Command{
		Use:   "story",
		Short: "Play the Narrative Journey in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			choose := promptChooser()
			if plain || !isTTY() {
				choose = lineChooser(cmd.InOrStdin(), cmd.ErrOrStderr())
			}
			results, err := playStory(narrative.NewStory(), choose)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				encoded, err := jsonx.MarshalIndent(results, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(w, string(encoded))
				return err
			}
			_, err = fmt.Fprint(w, renderStoryResults(results))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the narrative results as JSON")
	cmd.Flags().BoolVar(&plain, "plain", false, "Read numbered choices from stdin instead of an interactive menu")
	return cmd
}

func playStory(story *narrative.Story, choose chooser) (domain.NarrativeResults, error) {
	for !story.Finished() {
		seg, _ := story.Current()
		step, total := story.Progress()
		idx, err := choose(step, total, seg)
		if err != nil {
			return domain.NarrativeResults{}, err
		}
		if _, err := story.Select(idx); err != nil {
			return domain.NarrativeResults{}, err
		}
	}
	return story.Results()
}

func optionTexts(seg narrative.Segment) []string {
	items := make([]string, len(seg.Options))
	for i, opt := range seg.Options {
		items[i] = opt.Text
	}
	return items
}

func promptChooser() chooser {
	return func(step, total int, seg narrative.Segment) (int, error) {
		prompt := promptui.Select{
			Label: fmt.Sprintf("[%d/%d] %s", step, total, seg.Text),
			Items: optionTexts(seg),
			Size:  len(seg.Options),
		}
		idx, _, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return 0, errAborted
		}
		return idx, err
	}
}

// lineChooser prints numbered options to out and reads 1-based choices from
// in, re-asking on invalid input.
func lineChooser(in io.Reader, out io.Writer) chooser {
	scanner := bufio.NewScanner(in)
	return func(step, total int, seg narrative.Segment) (int, error) {
		fmt.Fprintf(out, "\n%s %s\n", bold(fmt.Sprintf("[%d/%d]", step, total)), seg.Text)
		for i, text := range optionTexts(seg) {
			fmt.Fprintf(out, "  %s %s\n", cyan(strconv.Itoa(i+1)+"."), text)
		}
		for {
			fmt.Fprint(out, gray("choice> "))
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return 0, err
				}
				return 0, errAborted
			}
			n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
			if err == nil && n >= 1 && n <= len(seg.Options) {
				return n - 1, nil
			}
			fmt.Fprintln(out, statusWarn(fmt.Sprintf("enter a number between 1 and %d", len(seg.Options))))
		}
	}
}

func renderStoryResults(r domain.NarrativeResults) string {
	p := r.PsychProfile
	var b strings.Builder
	b.WriteString(headerStyle.Render("Narrative Journey complete"))
	b.WriteString("\n\n")
	for _, row := range []struct {
		name  string
		value int
	}{
		{"planning", p.Planning},
		{"control", p.Control},
		{"social", p.Social},
		{"curiosity", p.Curiosity},
		{"anxiety", p.Anxiety},
		{"exploration", p.Exploration},
	} {
		fmt.Fprintf(&b, "  %-12s %s %d\n", row.name, strings.Repeat("●", row.value), row.value)
	}
	fmt.Fprintf(&b, "\nChoice consistency  %.2f\n", r.ChoiceConsistency)
	fmt.Fprintf(&b, "Total time          %.1fs\n", float64(r.TotalTime)/1000)
	return b.String()
}
