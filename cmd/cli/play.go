package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cltlab/adapters/render"
	"cltlab/app"
	"cltlab/domain/game"
	"cltlab/domain/population"
	apperrors "cltlab/internal/errors"

	"github.com/spf13/cobra"
)

func newPlayCmd(opts *options) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the mystery-population game in the terminal",
		Long: `A population is picked at random. Choose a sample size, study the histogram of the sample
means and guess which family produced them. Type q at any prompt to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := build(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			m, err := game.ParseMode(mode)
			if err != nil {
				return fmt.Errorf("unknown mode %q (submit or live)", mode)
			}
			p := &player{
				games: c.Game,
				in:    bufio.NewScanner(cmd.InOrStdin()),
				out:   cmd.OutOrStdout(),
			}
			return p.run(cmd, m)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(game.ModeSubmit), "Game mode: submit or live")
	return cmd
}

// player drives one terminal game session
type player struct {
	games   *app.GameService
	in      *bufio.Scanner
	out     io.Writer
	rounds  int
	correct int
}

func (p *player) run(cmd *cobra.Command, mode game.Mode) error {
	ctx := contextOf(cmd)
	sess, err := p.games.Start(ctx, mode)
	if err != nil {
		return err
	}
	defer p.games.End(ctx, sess.ID)

	tags := make([]string, 0, population.Count())
	for _, f := range population.All() {
		tags = append(tags, f.Slug())
	}
	fmt.Fprintf(p.out, "Families: %s\n", strings.Join(tags, ", "))

	for {
		st := sess.State
		switch st.Phase {
		case game.PhaseInput:
			line, ok := p.prompt(fmt.Sprintf("Round %d. Sample size n (1-100)", st.Round))
			if !ok {
				return p.quit()
			}
			n, err := strconv.Atoi(line)
			if err != nil {
				fmt.Fprintln(p.out, "please enter a whole number")
				continue
			}
			next, err := p.games.SubmitSampleSize(ctx, sess.ID, n)
			if err != nil {
				p.reportMoveError(err)
				continue
			}
			sess = next

		case game.PhaseGuess:
			p.showMeans(sess)
			label := "Your guess"
			if st.Mode == game.ModeLive {
				label = "Your guess (or a new n to resample)"
			}
			line, ok := p.prompt(label)
			if !ok {
				return p.quit()
			}
			if n, err := strconv.Atoi(line); err == nil && st.Mode == game.ModeLive {
				next, err := p.games.SubmitSampleSize(ctx, sess.ID, n)
				if err != nil {
					p.reportMoveError(err)
					continue
				}
				sess = next
				continue
			}
			next, err := p.games.SubmitGuess(ctx, sess.ID, line)
			if err != nil {
				p.reportMoveError(err)
				continue
			}
			sess = next

		case game.PhaseReveal:
			p.rounds++
			if st.Correct {
				p.correct++
				fmt.Fprintf(p.out, "Correct! It was %s.\n", st.Hidden)
			} else {
				fmt.Fprintf(p.out, "Not quite. It was %s (you guessed %s).\n", st.Hidden, st.Guess)
			}
			if _, ok := p.prompt("Press enter for the next round"); !ok {
				return p.quit()
			}
			next, err := p.games.NewRound(ctx, sess.ID)
			if err != nil {
				return err
			}
			sess = next
		}
	}
}

// prompt reads one trimmed line; ok is false on end of input or a quit request
func (p *player) prompt(label string) (string, bool) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.in.Scan() {
		return "", false
	}
	line := strings.TrimSpace(p.in.Text())
	if strings.EqualFold(line, "q") || strings.EqualFold(line, "quit") {
		return "", false
	}
	return line, true
}

func (p *player) showMeans(sess *game.Session) {
	st := sess.State
	hist, err := render.NewHistogram(st.Means, 20)
	if err != nil {
		return
	}
	fmt.Fprintf(p.out, "\nSample means at n = %d:\n", st.SampleSize)
	printHistogram(p.out, hist, 40)
}

// reportMoveError prints a rejected move; the round stays where it was
func (p *player) reportMoveError(err error) {
	if apperrors.HTTPStatus(err) >= 500 {
		fmt.Fprintf(p.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(p.out, err)
}

func (p *player) quit() error {
	fmt.Fprintf(p.out, "\nYou got %d of %d rounds right.\n", p.correct, p.rounds)
	return nil
}
