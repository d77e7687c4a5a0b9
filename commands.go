package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/metcalfc/storyreader/internal/api"
	"github.com/metcalfc/storyreader/internal/client"
	"github.com/metcalfc/storyreader/internal/novel"
	"github.com/metcalfc/storyreader/internal/reader"
	"github.com/metcalfc/storyreader/internal/segment"
	"github.com/metcalfc/storyreader/internal/state"
	"github.com/metcalfc/storyreader/internal/store"
)

const shutdownTimeout = 5 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the novel API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			count, err := s.CountNovels(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("store ready", zap.String("path", a.cfg.Database.Path), zap.Int("novels", count))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := api.NewServer(addr, api.NewHandler(s, a.logger))
			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return <-errc
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List novels on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			novels, err := a.client().ListNovels(cmd.Context())
			if err != nil {
				return err
			}
			printNovels(cmd.OutOrStdout(), novels)
			return nil
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search novels by title or code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			novels, err := a.client().SearchNovels(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(novels) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No novels found.")
				return nil
			}
			printNovels(cmd.OutOrStdout(), novels)
			return nil
		},
	}
}

func printNovels(w io.Writer, novels []novel.Novel) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCODE\tTITLE\tCHAPTERS")
	for _, n := range novels {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\n", n.ID, n.Code, n.Title, len(n.Chapters))
	}
	tw.Flush()
}

// fetchNovel gets a novel from the API with its chapters in order.
func (a *app) fetchNovel(ctx context.Context, id string) (*novel.Novel, error) {
	n, err := a.client().GetNovel(ctx, id)
	if client.IsNotFound(err) {
		return nil, fmt.Errorf("novel %s not found: %w", id, err)
	}
	if err != nil {
		return nil, err
	}
	n.SortChapters()
	return n, nil
}

func (a *app) showCmd() *cobra.Command {
	var chapter int
	cmd := &cobra.Command{
		Use:   "show <novel-id>",
		Short: "Print a chapter split into its segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.fetchNovel(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			c, ok := n.FirstChapter()
			if chapter > 0 {
				ok = false
				for _, cc := range n.Chapters {
					if cc.ChapterNumber == chapter {
						c, ok = cc, true
						break
					}
				}
			}
			if !ok {
				return fmt.Errorf("%s has no chapter %d", n.Title, chapter)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\nChapter %d: %s\n\n", n.HeaderText(), c.ChapterNumber, c.Title)
			printSegments(out, segment.Split(c.Content))
			return nil
		},
	}
	cmd.Flags().IntVarP(&chapter, "chapter", "c", 0, "chapter number (default first)")
	return cmd
}

func (a *app) tocCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toc <novel-id>",
		Short: "Print a novel's chapters and the chapter markers inside them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.fetchNovel(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, n.HeaderText())
			for _, e := range reader.TOC(n) {
				fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", e.Level), e.Title)
			}
			return nil
		},
	}
}

func (a *app) segmentCmd() *cobra.Command {
	var asJSON, headersOnly bool
	cmd := &cobra.Command{
		Use:   "segment [file]",
		Short: "Split text on chapter markers",
		Long: `Split a file, or standard input, on "Chapter N" markers that start a
line and print each segment's header and body.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) > 0 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if headersOnly {
				for _, h := range segment.Headers(string(data)) {
					fmt.Fprintln(out, h)
				}
				return nil
			}

			segments := segment.Split(string(data))
			if asJSON {
				if segments == nil {
					segments = []segment.Segment{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(segments)
			}
			printSegments(out, segments)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print segments as JSON")
	cmd.Flags().BoolVar(&headersOnly, "headers", false, "print only the segment headers")
	return cmd
}

func printSegments(w io.Writer, segments []segment.Segment) {
	for i, s := range segments {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s\n", s.Header)
		if s.Body != "" {
			fmt.Fprintln(w, s.Body)
		}
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Import novels into the store",
		Long: `Import novels from text, Markdown, HTML or EPUB files, or from YAML/JSON
seed files holding novel records.

Supported formats: ` + strings.Join(reader.SupportedFormats(), ", "),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			novels, err := reader.Import(cmd.Context(), args...)
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			for _, n := range novels {
				if err := s.InsertNovel(cmd.Context(), n); err != nil {
					return fmt.Errorf("import %q: %w", n.Title, err)
				}
				a.logger.Info("imported novel", zap.String("id", n.ID), zap.String("title", n.Title), zap.Int("chapters", len(n.Chapters)))
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", n.ID, n.Title)
			}
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file and
STORYREADER_* environment overrides are applied. With --write, save it to
the --config path instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if write {
				if err := a.cfg.Save(a.configPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configPath)
				return nil
			}
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "save the configuration to the config file")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <novel-id>",
		Short: "Remove a novel and its chapters from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.DeleteNovel(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("novel %s not found", args[0])
				}
				return err
			}
			// Drop the saved reading position as well.
			if prefs, err := state.NewStateStore(); err == nil {
				if err := prefs.Clear(args[0]); err != nil {
					a.logger.Warn("clear reading position", zap.String("id", args[0]), zap.Error(err))
				}
			}
			a.logger.Info("deleted novel", zap.String("id", args[0]))
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
