// Command twixie serves and plays the two-phase compound word game.
//
//	twixie serve            HTTP API backed by SQLite
//	twixie play             play in the terminal
//	twixie daily [--date]   print the word of a day
//	twixie words            list the catalog
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jvanhorsen/Twixie/internal/config"
	"github.com/jvanhorsen/Twixie/internal/db"
	"github.com/jvanhorsen/Twixie/internal/httpserver"
	"github.com/jvanhorsen/Twixie/internal/words"
)

var cfg config.Config

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "twixie",
		Short:         "Two-phase compound word guessing game",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			cfg = c
			cfg.SetupLogging()
			return nil
		},
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newDailyCmd())
	rootCmd.AddCommand(newWordsCmd())
	return rootCmd
}

// loadBank reads WORDS_CATALOG_FILE, or the embedded catalog when unset.
func loadBank() (*words.Bank, error) {
	bank, err := words.Load(cfg.WordsCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load word catalog: %w", err)
	}
	return bank, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bank, err := loadBank()
			if err != nil {
				return err
			}
			conn, err := db.OpenAndMigrate(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer conn.Close()

			srv := httpserver.New(httpserver.Options{
				Bank:         bank,
				DB:           conn,
				JWTSecret:    cfg.JWTSecret,
				JWTTTL:       cfg.JWTTTL(),
				CookieName:   cfg.CookieName,
				MaxGuesses:   cfg.MaxGuesses,
				Secure:       cfg.IsProduction(),
				ClientOrigin: cfg.ClientOrigin,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				log.Info().Str("port", cfg.Port).Int("words", bank.Len()).Msg("starting twixie server")
				errc <- srv.Start(cfg.Addr())
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server exited: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}

func newDailyCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Print the word of a day (UTC)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bank, err := loadBank()
			if err != nil {
				return err
			}
			key := words.DateKey(time.Now())
			if date != "" {
				t, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
				}
				key = words.DateKey(t)
			}
			w, err := bank.DailyWordFor(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%s + %s, %s)\n", key, w.Word, w.FirstSegment, w.SecondSegment, w.Difficulty)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default: today)")
	return cmd
}

func newWordsCmd() *cobra.Command {
	var difficulty string
	cmd := &cobra.Command{
		Use:   "words",
		Short: "List the word catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bank, err := loadBank()
			if err != nil {
				return err
			}
			list := bank.All()
			if difficulty != "" {
				d, err := words.ParseDifficulty(difficulty)
				if err != nil {
					return err
				}
				list = bank.WordsByDifficulty(d)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WORD\tSEGMENTS\tDIFFICULTY\tDEFINITION")
			for _, w := range list {
				fmt.Fprintf(tw, "%s\t%s + %s\t%s\t%s\n", w.Word, w.FirstSegment, w.SecondSegment, w.Difficulty, w.Definition)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "only list one tier (easy, medium, hard)")
	return cmd
}
