package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jvanhorsen/Twixie/internal/game"
	"github.com/jvanhorsen/Twixie/internal/settings"
	"github.com/jvanhorsen/Twixie/internal/stats"
	"github.com/jvanhorsen/Twixie/internal/words"
)

// playOptions configures a terminal session.
type playOptions struct {
	Mode       game.Mode
	Difficulty words.Difficulty
	Settings   settings.Settings
	MaxGuesses int
	Clock      func() time.Time
	Source     words.Source
}

func newPlayCmd() *cobra.Command {
	var (
		mode       string
		difficulty string
		remember   bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Long: `Play in the terminal. Type a guess and press enter.
  ?      reveal a letter
  ??     reveal the definition
  !quit  leave`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bank, err := loadBank()
			if err != nil {
				return err
			}
			path := cfg.SettingsPath
			if path == "" {
				path = settings.DefaultPath()
			}
			prefs, err := settings.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			if cmd.Flags().Changed("difficulty") {
				d, err := words.ParseDifficulty(difficulty)
				if err != nil {
					return err
				}
				prefs.Difficulty = d
				if remember {
					if err := settings.Save(path, prefs); err != nil {
						return err
					}
				}
			}

			agg := stats.NewAggregator(nil, nil)
			return runPlay(cmd.InOrStdin(), cmd.OutOrStdout(), bank, agg, playOptions{
				Mode:       game.Mode(mode),
				Difficulty: prefs.Difficulty,
				Settings:   prefs,
				MaxGuesses: cfg.MaxGuesses,
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(game.ModeEndless), "daily or endless")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "easy, medium or hard (default: from settings)")
	cmd.Flags().BoolVar(&remember, "remember", false, "save --difficulty to the settings file")
	return cmd
}

// runPlay runs games until the input ends, the player quits, or declines
// another round.
func runPlay(in io.Reader, out io.Writer, bank *words.Bank, agg *stats.Aggregator, opts playOptions) error {
	sc := bufio.NewScanner(in)
	sessOpts := []game.Option{
		game.WithRecorder(agg),
		game.WithMaxGuesses(opts.MaxGuesses),
		game.WithClock(opts.Clock),
		game.WithSource(opts.Source),
		game.WithLogger(log.Logger),
	}
	for {
		sess := game.NewSession(bank, sessOpts...)
		if err := sess.Start(opts.Mode, opts.Difficulty); err != nil {
			return err
		}
		quit, err := playOne(sc, out, bank, sess, opts.Settings)
		if err != nil || quit {
			return err
		}

		s := agg.Stats()
		fmt.Fprintf(out, "Played %d · Win %d%% · Streak %d · Best %d · Avg %s\n",
			s.GamesPlayed, s.WinPercentage(), s.Streak, s.BestStreak, game.FormatDuration(s.AverageTime()))

		if opts.Mode == game.ModeDaily {
			return nil
		}
		fmt.Fprint(out, "Play again? [y/N] ")
		if !sc.Scan() || !strings.HasPrefix(strings.ToLower(strings.TrimSpace(sc.Text())), "y") {
			return sc.Err()
		}
	}
}

// playOne plays a single game. quit is true when the player left early or
// the input ended.
func playOne(sc *bufio.Scanner, out io.Writer, bank *words.Bank, sess *game.Session, prefs settings.Settings) (quit bool, err error) {
	st, _ := sess.State()
	fmt.Fprintf(out, "%s word, %d letters. Phase 1: guess the first part (%d letters). %d guesses in total.\n",
		strings.ToUpper(string(st.Difficulty)), len([]rune(st.TargetWord)), len([]rune(st.FirstSegment)), sess.MaxGuesses())

	for sess.Active() {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return true, sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "!quit":
			return true, nil
		case "?":
			if h, ok := sess.UseHint(game.HintLetter); ok {
				fmt.Fprintf(out, "Letter %d is %q.\n", h.Position+1, h.Letter)
			} else {
				fmt.Fprintln(out, "No hints left.")
			}
			continue
		case "??":
			if h, ok := sess.UseHint(game.HintDefinition); ok {
				fmt.Fprintf(out, "Definition: %s\n", h.Definition)
			} else {
				fmt.Fprintln(out, "No hints left.")
			}
			continue
		}

		res, err := sess.MakeGuess(line)
		switch {
		case errors.Is(err, game.ErrInvalidLength):
			st, _ := sess.State()
			fmt.Fprintf(out, "Need %d letters.\n", st.ExpectedLength())
			continue
		case errors.Is(err, game.ErrInvalidWord):
			fmt.Fprintln(out, "Not in the word list.")
			continue
		case err != nil:
			return false, err
		}
		fmt.Fprintln(out, renderRow(line, res.Positions, prefs))
		if res.Advanced {
			st, _ := sess.State()
			fmt.Fprintf(out, "Phase 2: now the whole word (%d letters).\n", len([]rune(st.TargetWord)))
		}
	}

	st, _ = sess.State()
	if st.Status == game.Won {
		if prefs.SoundEnabled {
			fmt.Fprint(out, "\a")
		}
		fmt.Fprintf(out, "Solved in %d guesses! Score %d\n", len(st.Guesses), st.Score)
	} else {
		fmt.Fprintf(out, "Out of guesses. The word was %s.\n", strings.ToUpper(st.TargetWord))
	}
	if def, ok := bank.Definition(st.TargetWord); ok {
		fmt.Fprintf(out, "%s: %s\n", st.TargetWord, def)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, game.ShareText(st, true))
	fmt.Fprintln(out)
	return false, nil
}

// renderRow prints the guess in capitals over a row of colored squares.
// High contrast swaps green/yellow for orange/blue; dark mode uses a dark
// square for absent letters.
func renderRow(guess string, marks []game.LetterStatus, prefs settings.Settings) string {
	correct, present, absent := "🟩", "🟨", "⬜"
	if prefs.HighContrastMode {
		correct, present = "🟧", "🟦"
	}
	if prefs.DarkMode {
		absent = "⬛"
	}
	var letters, squares strings.Builder
	for i, r := range []rune(strings.ToUpper(strings.TrimSpace(guess))) {
		letters.WriteString(" " + string(r))
		if i < len(marks) {
			switch marks[i] {
			case game.StatusCorrect:
				squares.WriteString(correct)
			case game.StatusPresent:
				squares.WriteString(present)
			default:
				squares.WriteString(absent)
			}
		}
	}
	return letters.String() + "\n" + squares.String()
}
