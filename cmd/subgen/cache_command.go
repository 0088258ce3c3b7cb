package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subgen/internal/config"
	"subgen/internal/hardware"
	"subgen/internal/modelcache"
	"subgen/internal/services"
	"subgen/internal/transcripts"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the model and transcript caches",
	}

	cacheCmd.AddCommand(newCacheInfoCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheTranscriptsCommand(ctx))

	return cacheCmd
}

func newCacheInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "List cached models and their sizes",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cache := modelcache.New(cfg.Paths.ModelCacheDir)
			entries, err := cache.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Model cache: %s\n", cache.Dir())
			printModelEntries(out, entries)

			total, err := cache.TotalSize()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Total size: %s\n", humanize.Bytes(uint64(total)))

			count, err := transcriptCount(cmd, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Cached transcripts: %d (%s)\n", count, cfg.Paths.TranscriptCache)
			return nil
		},
	}
}

func printModelEntries(out io.Writer, entries []modelcache.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "Cached models: none")
		return
	}
	rows := make([][]string, 0, len(entries))
	var total int64
	for _, entry := range entries {
		rows = append(rows, []string{entry.Name, entry.HumanSize(), entry.Dir})
		total += entry.Size
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Model", "Size", "Path"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft},
		strconv.Itoa(len(entries))+" models", humanize.Bytes(uint64(total)), "",
	))
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var custom bool

	cmd := &cobra.Command{
		Use:   "remove <model>",
		Short: "Remove one cached model",
		Args:  exactArgs(1, "a model name"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if !custom {
				if _, err := hardware.ParseModel(name); err != nil {
					return services.Wrap(services.ErrValidation, "cache", "remove", "use --custom-model for non-standard names", err)
				}
			}

			cache := modelcache.New(cfg.Paths.ModelCacheDir)
			entry, ok, err := cache.Lookup(name)
			if err != nil {
				return err
			}
			label := name
			if ok {
				label = fmt.Sprintf("%s (%s)", entry.Name, entry.HumanSize())
			} else if info, statErr := os.Stat(filepath.Join(cache.Dir(), filepath.Base(name))); statErr != nil || !info.IsDir() {
				return services.Wrap(services.ErrNotFound, "cache", "remove", "", fmt.Errorf("%w: %s", modelcache.ErrNotCached, name))
			}
			if !force {
				proceed, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove cached model %s?", label))
				if err != nil {
					return err
				}
				if !proceed {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}

			removed, err := cache.Remove(cmd.Context(), name)
			if err != nil {
				if errors.Is(err, modelcache.ErrNotCached) {
					return services.Wrap(services.ErrNotFound, "cache", "remove", "", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s freed)\n", removed.Dir, removed.HumanSize())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&custom, "custom-model", false, "Treat the name as a cache directory instead of a known model")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var onlyTranscripts bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached model (or every cached transcript with --transcripts)",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if onlyTranscripts {
				return clearTranscripts(cmd, cfg, force)
			}

			cache := modelcache.New(cfg.Paths.ModelCacheDir)
			total, err := cache.TotalSize()
			if err != nil {
				return err
			}
			if total == 0 {
				fmt.Fprintln(out, "Model cache is already empty")
				return nil
			}
			if !force {
				proceed, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("Remove everything in %s (%s)?", cache.Dir(), humanize.Bytes(uint64(total))))
				if err != nil {
					return err
				}
				if !proceed {
					fmt.Fprintln(out, "Aborted")
					return nil
				}
			}
			removed, err := cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d entries (%s freed)\n", len(removed), humanize.Bytes(uint64(total)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&onlyTranscripts, "transcripts", false, "Clear the transcript cache instead of models")
	return cmd
}

func clearTranscripts(cmd *cobra.Command, cfg *config.Config, force bool) error {
	out := cmd.OutOrStdout()
	if !transcriptCacheExists(cfg) {
		fmt.Fprintln(out, "Transcript cache is already empty")
		return nil
	}
	if !force {
		proceed, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("Remove every transcript in %s?", cfg.Paths.TranscriptCache))
		if err != nil {
			return err
		}
		if !proceed {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
	}
	store, err := transcripts.Open(cfg.Paths.TranscriptCache)
	if err != nil {
		return err
	}
	defer store.Close()
	removed, err := store.Clear(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %d transcripts\n", removed)
	return nil
}

func newCacheTranscriptsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transcripts",
		Short: "List cached transcripts",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !transcriptCacheExists(cfg) {
				fmt.Fprintln(out, "Cached transcripts: none")
				return nil
			}
			store, err := transcripts.Open(cfg.Paths.TranscriptCache)
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "Cached transcripts: none")
				return nil
			}
			const stampLayout = "2006-01-02 15:04"
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				language := entry.DetectedLanguage
				if language == "" {
					language = "-"
				}
				rows = append(rows, []string{
					filepath.Base(entry.Source),
					entry.Model,
					language,
					yesNo(entry.WordTimestamps),
					strconv.Itoa(entry.SegmentCount),
					entry.CreatedAt.Local().Format(stampLayout),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Source", "Model", "Language", "Words", "Segments", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func transcriptCacheExists(cfg *config.Config) bool {
	if strings.TrimSpace(cfg.Paths.TranscriptCache) == "" {
		return false
	}
	_, err := os.Stat(cfg.Paths.TranscriptCache)
	return err == nil
}

func transcriptCount(cmd *cobra.Command, cfg *config.Config) (int, error) {
	if !transcriptCacheExists(cfg) {
		return 0, nil
	}
	store, err := transcripts.Open(cfg.Paths.TranscriptCache)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	entries, err := store.List(cmd.Context())
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
