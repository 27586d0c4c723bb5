package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"yonote/internal/cache"
	"yonote/internal/hierarchy"
	"yonote/internal/navigator"
	"yonote/internal/shutdown"
	"yonote/internal/transfer"
	"yonote/internal/tui"
	"yonote/internal/utils"
)

// setupTransfer arranges interrupt handling for a long-running transfer: the
// first Ctrl-C cancels in-flight work, and the cache is flushed on the way
// out regardless. The returned teardown runs the registered cleanups.
func setupTransfer(parent context.Context, store cache.Store) (context.Context, func()) {
	mgr := shutdown.NewManager(parent)
	mgr.Notify(os.Interrupt, syscall.SIGTERM)
	mgr.RegisterCleanup("cache", func(context.Context) error {
		if err := store.Flush(); err != nil {
			utils.Warnf("cache flush failed: %v", err)
		}
		return store.Close()
	})

	teardown := func() {
		mgr.Stop()
		waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mgr.Wait(waitCtx); err != nil {
			utils.Warnf("cleanup interrupted: %v", err)
		}
	}
	return mgr.Context(), teardown
}

// exportFormats are the accepted values for the export --format flag.
var exportFormats = map[string]bool{"md": true, "html": true, "json": true}

// newExportCmd creates the 'export' subcommand
func newExportCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export documents to a local directory",
		Long: "Export documents to a local directory, mirroring their collection hierarchy. " +
			"Without --doc or --collection an interactive browser opens to pick what to export.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, _, err := loadAppConfig(cfg)
			if err != nil {
				return err
			}
			svc, release, err := getService(cfg, appCfg)
			if err != nil {
				return err
			}
			defer release()

			store, err := openStore(cfg, appCfg)
			if err != nil {
				return err
			}
			ctx, teardown := setupTransfer(cmd.Context(), store)
			defer teardown()

			model := hierarchy.New(store, svc)

			docIDs, _ := cmd.Flags().GetStringSlice("doc")
			collectionRefs, _ := cmd.Flags().GetStringSlice("collection")
			refresh, _ := cmd.Flags().GetBool("refresh-cache")

			var sel navigator.Selection
			if len(docIDs) > 0 || len(collectionRefs) > 0 {
				sel.DocumentIDs = docIDs
				for _, ref := range collectionRefs {
					collection, err := resolveCollection(ctx, svc, ref)
					if err != nil {
						return err
					}
					sel.CollectionIDs = append(sel.CollectionIDs, collection.ID)
				}
			} else {
				if cfg.NoPrompt {
					return fmt.Errorf("--doc or --collection is required with --no-prompt")
				}

				nav := navigator.New(model, navigator.ModeExport)
				if err := nav.Init(ctx, refresh); err != nil {
					return err
				}
				if err := tui.Run(ctx, nav); err != nil {
					return err
				}
				if nav.Phase() != navigator.Confirmed {
					_, _ = fmt.Fprintln(stdout, "Export cancelled.")
					return nil
				}
				sel = nav.Selection()
			}

			if sel.Empty() {
				_, _ = fmt.Fprintln(stdout, "Nothing selected.")
				return nil
			}

			outDir, _ := cmd.Flags().GetString("out-dir")
			workers, _ := cmd.Flags().GetInt("workers")
			if workers <= 0 {
				workers = appCfg.Workers
			}
			format, _ := cmd.Flags().GetString("format")
			if !exportFormats[format] {
				return fmt.Errorf("unknown format %q (expected md, html or json)", format)
			}
			useIDs, _ := cmd.Flags().GetBool("use-ids")

			exporter := &transfer.Exporter{
				Model:   model,
				OutDir:  outDir,
				Workers: workers,
				Format:  format,
				UseIDs:  useIDs,
				Refresh: refresh,
			}
			report, err := exporter.Run(ctx, sel)
			if err != nil {
				return err
			}
			report.Summary(stdout, "Exported")
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("out-dir", "o", "export", "Directory to write exported documents into")
	cmd.Flags().IntP("workers", "w", 0, "Concurrent download workers (default from config)")
	cmd.Flags().StringP("format", "f", "md", "Export format: md, html or json")
	cmd.Flags().Bool("use-ids", false, "Name files by document id instead of title")
	cmd.Flags().Bool("refresh-cache", false, "Refetch listings instead of trusting the cache")
	cmd.Flags().StringSlice("doc", nil, "Document UUID to export non-interactively (repeatable)")
	cmd.Flags().StringSlice("collection", nil, "Collection UUID or name to export non-interactively (repeatable)")

	return cmd
}

// newImportCmd creates the 'import' subcommand
func newImportCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a local directory tree as documents",
		Long: "Import a local directory of markdown files into the workspace. Directories become " +
			"container documents; files become their children. Without --collection an interactive " +
			"browser opens to pick the destination.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srcDir, _ := cmd.Flags().GetString("src-dir")
			if srcDir == "" {
				return fmt.Errorf("--src-dir is required")
			}
			root, err := transfer.ScanDir(srcDir)
			if err != nil {
				return err
			}
			if root.CountFiles() == 0 {
				_, _ = fmt.Fprintln(stdout, "Nothing to import.")
				return nil
			}

			appCfg, _, err := loadAppConfig(cfg)
			if err != nil {
				return err
			}
			svc, release, err := getService(cfg, appCfg)
			if err != nil {
				return err
			}
			defer release()

			store, err := openStore(cfg, appCfg)
			if err != nil {
				return err
			}
			ctx, teardown := setupTransfer(cmd.Context(), store)
			defer teardown()

			model := hierarchy.New(store, svc)

			collectionRef, _ := cmd.Flags().GetString("collection")
			parentID, _ := cmd.Flags().GetString("parent")

			var target navigator.Target
			if collectionRef != "" {
				collection, err := resolveCollection(ctx, svc, collectionRef)
				if err != nil {
					return err
				}
				target = navigator.Target{
					CollectionID: collection.ID,
					ParentID:     parentID,
					Label:        collection.Title,
				}
			} else {
				if cfg.NoPrompt {
					return fmt.Errorf("--collection is required with --no-prompt")
				}

				refresh, _ := cmd.Flags().GetBool("refresh-cache")
				nav := navigator.New(model, navigator.ModePick)
				if err := nav.Init(ctx, refresh); err != nil {
					return err
				}
				if err := tui.Run(ctx, nav); err != nil {
					return err
				}
				if nav.Phase() != navigator.Confirmed {
					_, _ = fmt.Fprintln(stdout, "Import cancelled.")
					return nil
				}
				picked, ok := nav.Target()
				if !ok {
					_, _ = fmt.Fprintln(stdout, "No destination picked.")
					return nil
				}
				target = picked
			}

			workers, _ := cmd.Flags().GetInt("workers")
			if workers <= 0 {
				workers = appCfg.Workers
			}

			_, _ = fmt.Fprintf(stdout, "Importing %d files into %s\n", root.CountFiles(), target.Label)
			importer := &transfer.Importer{
				Model:   model,
				Service: svc,
				Workers: workers,
			}
			report, err := importer.Run(ctx, root, target)
			if err != nil {
				return err
			}
			report.Summary(stdout, "Imported")
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("src-dir", "s", "", "Directory to import (required)")
	cmd.Flags().StringP("collection", "c", "", "Destination collection UUID or name")
	cmd.Flags().StringP("parent", "P", "", "Destination parent document UUID")
	cmd.Flags().IntP("workers", "w", 0, "Concurrent upload workers (default from config)")
	cmd.Flags().Bool("refresh-cache", false, "Refetch listings instead of trusting the cache")

	return cmd
}
