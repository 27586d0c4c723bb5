package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"yonote/internal/api"
	"yonote/internal/cache"
	"yonote/internal/config"
	"yonote/internal/credentials"
	"yonote/internal/utils"
)

// Version is set at build time
var Version = "dev"

// Config holds application configuration
type Config struct {
	NoPrompt   bool
	Verbose    bool
	ConfigPath string              // Path to config file (for testing)
	CachePath  string              // Path to cache file (for testing)
	Keyring    credentials.Keyring // Keyring override (for testing)
	Service    api.Service         // Service override (for testing)
	Stdin      io.Reader           // Stdin override (for testing)
}

// directoryService is the extended surface needed by the auth, users and
// groups commands. The production client implements it; test fakes may too.
type directoryService interface {
	AuthInfo(ctx context.Context) (api.AuthInfo, error)
	ListUsers(ctx context.Context, query string) ([]api.User, error)
	ListGroups(ctx context.Context) ([]api.Group, error)
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	rootCmd := NewYonote(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		var withSuggestion *utils.ErrorWithSuggestion
		if errors.As(err, &withSuggestion) && withSuggestion.GetSuggestion() != "" {
			_, _ = fmt.Fprintln(stderr, "Suggestion:", withSuggestion.GetSuggestion())
		}
		return 1
	}
	return 0
}

// NewYonote creates the root command with injectable IO
func NewYonote(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:     "yonote",
		Short:   "A CLI for mirroring a Yonote workspace",
		Long:    "yonote browses a Yonote workspace interactively and transfers document trees between the service and the local filesystem.",
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				cfg.Verbose = true
			}
			noPrompt, _ := cmd.Flags().GetBool("no-prompt")
			if noPrompt {
				cfg.NoPrompt = true
			}
			utils.SetVerboseMode(cfg.Verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("no-prompt", "y", false, "Disable interactive prompts")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")

	cmd.AddCommand(newAuthCmd(stdout, stderr, cfg))
	cmd.AddCommand(newCacheCmd(stdout, cfg))
	cmd.AddCommand(newCollectionsCmd(stdout, cfg))
	cmd.AddCommand(newDocumentsCmd(stdout, cfg))
	cmd.AddCommand(newUsersCmd(stdout, cfg))
	cmd.AddCommand(newGroupsCmd(stdout, cfg))
	cmd.AddCommand(newDiagCmd(stdout, cfg))
	cmd.AddCommand(newExportCmd(stdout, stderr, cfg))
	cmd.AddCommand(newImportCmd(stdout, stderr, cfg))

	return cmd
}

// loadAppConfig resolves the config file path and loads it
func loadAppConfig(cfg *Config) (*config.Config, string, error) {
	path := cfg.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, "", fmt.Errorf("could not locate config directory: %w", err)
		}
	}
	appCfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return appCfg, path, nil
}

// newCredentialManager builds a token manager honoring test overrides
func newCredentialManager(cfg *Config, appCfg *config.Config) *credentials.Manager {
	opts := []credentials.ManagerOption{credentials.WithConfigToken(appCfg.Token)}
	if cfg.Keyring != nil {
		opts = append(opts, credentials.WithKeyring(cfg.Keyring))
	}
	return credentials.NewManager(opts...)
}

// getService returns the API service and a release func
func getService(cfg *Config, appCfg *config.Config) (api.Service, func(), error) {
	if cfg.Service != nil {
		return cfg.Service, func() {}, nil
	}

	info := newCredentialManager(cfg, appCfg).Get(appCfg.BaseURL)
	if info.Token == "" {
		return nil, nil, utils.ErrMissingToken()
	}

	client, err := api.New(api.Config{
		BaseURL: appCfg.BaseURL,
		Token:   info.Token,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// getDirectoryService returns the service when it supports the directory
// endpoints
func getDirectoryService(cfg *Config, appCfg *config.Config) (directoryService, func(), error) {
	svc, release, err := getService(cfg, appCfg)
	if err != nil {
		return nil, nil, err
	}
	dir, ok := svc.(directoryService)
	if !ok {
		release()
		return nil, nil, fmt.Errorf("service does not support directory operations")
	}
	return dir, release, nil
}

// openStore opens the configured cache backend
func openStore(cfg *Config, appCfg *config.Config) (cache.Store, error) {
	path := cfg.CachePath
	if path == "" {
		var err error
		path, err = appCfg.ResolveCachePath()
		if err != nil {
			return nil, fmt.Errorf("could not locate cache directory: %w", err)
		}
	}
	return cache.Open(cache.Backend(appCfg.CacheBackend), path)
}

// printJSON writes v as indented JSON for the list commands' --json flag
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, string(data))
	return nil
}

// resolveCollection maps a collection reference (UUID or name) to its
// metadata. UUID-shaped references match by id only; anything else matches
// by case-insensitive name.
func resolveCollection(ctx context.Context, svc api.Service, ref string) (api.NodeMeta, error) {
	collections, err := svc.ListCollections(ctx)
	if err != nil {
		return api.NodeMeta{}, err
	}

	if _, err := uuid.Parse(ref); err == nil {
		for _, c := range collections {
			if c.ID == ref {
				return c, nil
			}
		}
	} else {
		for _, c := range collections {
			if strings.EqualFold(c.Title, ref) {
				return c, nil
			}
		}
	}
	return api.NodeMeta{}, utils.ErrCollectionNotFound(ref)
}

// newAuthCmd creates the 'auth' subcommand
func newAuthCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage API credentials",
		Long:  "Store, inspect, and remove the API token used to reach the workspace.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	authCmd.AddCommand(newAuthSetCmd(stdout, cfg))
	authCmd.AddCommand(newAuthInfoCmd(stdout, cfg))
	authCmd.AddCommand(newAuthDeleteCmd(stdout, cfg))

	return authCmd
}

// newAuthSetCmd creates the 'auth set' subcommand
func newAuthSetCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set [token]",
		Short: "Store the API token in the system keyring",
		Long:  "Store the API token securely in the system keyring (macOS Keychain, Windows Credential Manager, or Linux Secret Service). When no token argument is given it is prompted for without echo.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, _, err := loadAppConfig(cfg)
			if err != nil {
				return err
			}

			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				if cfg.NoPrompt {
					return fmt.Errorf("token argument is required with --no-prompt")
				}
				stdin := cfg.Stdin
				if stdin == nil {
					stdin = os.Stdin
				}
				token, err = credentials.PromptToken(stdin, stdout, appCfg.BaseURL)
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(token) == "" {
				return fmt.Errorf("token must not be empty")
			}

			manager := newCredentialManager(cfg, appCfg)
			if err := manager.Set(appCfg.BaseURL, strings.TrimSpace(token)); err != nil {
				return fmt.Errorf("could not store token: %w", err)
			}
			_, _ = fmt.Fprintf(stdout, "Token stored for %s\n", appCfg.BaseURL)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newAuthInfoCmd creates the 'auth info' subcommand
func newAuthInfoCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the authenticated identity",
		Long:  "Show where the current token comes from and which user and workspace it authenticates as.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, _, err := loadAppConfig(cfg)
			if err != nil {
				return err
			}

			info := newCredentialManager(cfg, appCfg).Get(appCfg.BaseURL)
			_, _ = fmt.Fprintf(stdout, "Workspace: %s\n", appCfg.BaseURL)
			if info.Token == "" && cfg.Service == nil {
				_, _ = fmt.Fprintln(stdout, "Token:     not set")
				return nil
			}
			if info.Token != "" {
				_, _ = fmt.Fprintf(stdout, "Token:     %s (%s)\n", credentials.Mask(info.Token), info.Source)
			}

			dir, release, err := getDirectoryService(cfg, appCfg)
			if err != nil {
				return err
			}
			defer release()

			auth, err := dir.AuthInfo(cmd.Context())
			if err != nil {
				if api.IsUnauthorized(err) {
					return utils.ErrAuthenticationFailed()
				}
				return err
			}
			_, _ = fmt.Fprintf(stdout, "User:      %s <%s>\n", auth.User.Name, auth.User.Email)
			_, _ = fmt.Fprintf(stdout, "Team:      %s\n", auth.Team.Name)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newAuthDeleteCmd creates the 'auth delete' subcommand
func newAuthDeleteCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, _, err := loadAppConfig(cfg)
			if err != nil {
				return err
			}
			if err := newCredentialManager(cfg, appCfg).Delete(appCfg.BaseURL); err != nil {
				return fmt.Errorf("could not delete token: %w", err)
			}
			_, _ = fmt.Fprintf(stdout, "Token removed for %s\n", appCfg.BaseURL)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newCacheCmd creates the 'cache' subcommand
func newCacheCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the local metadata cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cacheCmd.AddCommand(newCacheInfoCmd(stdout, cfg))
	cacheCmd.AddCommand(newCacheClearCmd(stdout, cfg))

	return cacheCmd
}

// newCacheInfoCmd creates the 'cache info' subcommand
func newCacheInfoCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache location and contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, _, err := loadAppConfig(cfg)
			if err != nil {
				return err
			}

			path := cfg.CachePath
			if path == "" {
				path, err = appCfg.ResolveCachePath()
				if err != nil {
					return err
				}
			}

			store, err := openStore(cfg, appCfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats := store.Stats()
			_, _ = fmt.Fprintf(stdout, "Backend:     %s\n", appCfg.CacheBackend)
			_, _ = fmt.Fprintf(stdout, "Path:        %s\n", path)
			_, _ = fmt.Fprintf(stdout, "Collections: %d\n", stats.Collections)
			_, _ = fmt.Fprintf(stdout, "Documents:   %d\n", stats.Documents)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newCacheClearCmd creates the 'cache clear' subcommand
func newCacheClearCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, _, err := loadAppConfig(cfg)
			if err != nil {
				return err
			}

			store, err := openStore(cfg, appCfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Clear(); err != nil {
				return fmt.Errorf("could not clear cache: %w", err)
			}
			_, _ = fmt.Fprintln(stdout, "Cache cleared")
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newCollectionsCmd creates the 'collections' subcommand
func newCollectionsCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	collectionsCmd := &cobra.Command{
		Use:   "collections",
		Short: "Work with workspace collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	collectionsCmd.AddCommand(newCollectionsListCmd(stdout, cfg))

	return collectionsCmd
}

// newCollectionsListCmd creates the 'collections list' subcommand
func newCollectionsListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all collections",
		Args:  cobra.NoArgs,
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

			collections, err := svc.ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(stdout, collections)
			}
			if len(collections) == 0 {
				_, _ = fmt.Fprintln(stdout, "No collections found.")
				return nil
			}

			rows := make([]map[string]string, 0, len(collections))
			for _, c := range collections {
				rows = append(rows, map[string]string{
					"id":   c.ID,
					"name": c.Title,
				})
			}
			utils.FormatRows(stdout, rows, []string{"id", "name"})
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().Bool("json", false, "Print the raw metadata as JSON")

	return cmd
}

// newDocumentsCmd creates the 'documents' subcommand
func newDocumentsCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	documentsCmd := &cobra.Command{
		Use:   "documents",
		Short: "Work with documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	documentsCmd.AddCommand(newDocumentsListCmd(stdout, cfg))
	documentsCmd.AddCommand(newDocumentsExportCmd(stdout, cfg))

	return documentsCmd
}

// newDocumentsListCmd creates the 'documents list' subcommand
func newDocumentsListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [collection]",
		Short: "List documents in a collection",
		Long:  "List documents in a collection, referenced by UUID or name. With --parent, lists the children of that document instead of the collection's top level.",
		Args:  cobra.ExactArgs(1),
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

			collection, err := resolveCollection(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			parent, _ := cmd.Flags().GetString("parent")

			docs, err := svc.ListDocuments(cmd.Context(), collection.ID, parent)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(stdout, docs)
			}
			if len(docs) == 0 {
				_, _ = fmt.Fprintln(stdout, "No documents found.")
				return nil
			}

			rows := make([]map[string]string, 0, len(docs))
			for _, d := range docs {
				rows = append(rows, map[string]string{
					"id":    d.ID,
					"title": d.Title,
				})
			}
			utils.FormatRows(stdout, rows, []string{"id", "title"})
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("parent", "P", "", "Parent document UUID to list children of")
	cmd.Flags().Bool("json", false, "Print the raw metadata as JSON")

	return cmd
}

// newDocumentsExportCmd creates the 'documents export' subcommand
func newDocumentsExportCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Print a single document's content",
		Long:  "Fetch one document by UUID and write its markdown content to stdout, or to a file with --out.",
		Args:  cobra.ExactArgs(1),
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

			text, err := svc.DocumentContent(cmd.Context(), args[0])
			if err != nil {
				if api.IsNotFound(err) {
					return utils.ErrDocumentNotFound(args[0])
				}
				return err
			}
			if !strings.HasSuffix(text, "\n") {
				text += "\n"
			}

			if out, _ := cmd.Flags().GetString("out"); out != "" {
				if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
					return fmt.Errorf("could not write %s: %w", out, err)
				}
				_, _ = fmt.Fprintf(stdout, "Wrote %s\n", out)
				return nil
			}
			_, _ = fmt.Fprint(stdout, text)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("out", "o", "", "Write the content to a file instead of stdout")

	return cmd
}

// newUsersCmd creates the 'users' subcommand
func newUsersCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Work with workspace users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	usersCmd.AddCommand(newUsersListCmd(stdout, cfg))

	return usersCmd
}

// newUsersListCmd creates the 'users list' subcommand
func newUsersListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspace users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, _, err := loadAppConfig(cfg)
			if err != nil {
				return err
			}
			dir, release, err := getDirectoryService(cfg, appCfg)
			if err != nil {
				return err
			}
			defer release()

			query, _ := cmd.Flags().GetString("query")
			users, err := dir.ListUsers(cmd.Context(), query)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(stdout, users)
			}
			if len(users) == 0 {
				_, _ = fmt.Fprintln(stdout, "No users found.")
				return nil
			}

			rows := make([]map[string]string, 0, len(users))
			for _, u := range users {
				role := "member"
				if u.IsAdmin {
					role = "admin"
				}
				if u.Suspended {
					role = "suspended"
				}
				rows = append(rows, map[string]string{
					"id":    u.ID,
					"name":  u.Name,
					"email": u.Email,
					"role":  role,
				})
			}
			utils.FormatRows(stdout, rows, []string{"id", "name", "email", "role"})
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("query", "q", "", "Filter users by name or email substring")
	cmd.Flags().Bool("json", false, "Print the raw metadata as JSON")

	return cmd
}

// newGroupsCmd creates the 'groups' subcommand
func newGroupsCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	groupsCmd := &cobra.Command{
		Use:   "groups",
		Short: "Work with workspace groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	groupsCmd.AddCommand(newGroupsListCmd(stdout, cfg))

	return groupsCmd
}

// newGroupsListCmd creates the 'groups list' subcommand
func newGroupsListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspace groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, _, err := loadAppConfig(cfg)
			if err != nil {
				return err
			}
			dir, release, err := getDirectoryService(cfg, appCfg)
			if err != nil {
				return err
			}
			defer release()

			groups, err := dir.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(stdout, groups)
			}
			if len(groups) == 0 {
				_, _ = fmt.Fprintln(stdout, "No groups found.")
				return nil
			}

			rows := make([]map[string]string, 0, len(groups))
			for _, g := range groups {
				rows = append(rows, map[string]string{
					"id":      g.ID,
					"name":    g.Name,
					"members": fmt.Sprintf("%d", g.MemberCount),
				})
			}
			utils.FormatRows(stdout, rows, []string{"id", "name", "members"})
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().Bool("json", false, "Print the raw metadata as JSON")

	return cmd
}

// newDiagCmd creates the 'diag' subcommand
func newDiagCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	diagCmd := &cobra.Command{
		Use:   "diag",
		Short: "Dump raw listings for troubleshooting",
		Long:  "Print full metadata tables straight from the service, bypassing the cache.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	diagCmd.AddCommand(newDiagCollectionsCmd(stdout, cfg))
	diagCmd.AddCommand(newDiagDocumentsCmd(stdout, cfg))

	return diagCmd
}

// newDiagCollectionsCmd creates the 'diag collections' subcommand
func newDiagCollectionsCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "Dump all collection metadata",
		Args:  cobra.NoArgs,
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

			collections, err := svc.ListCollections(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([]map[string]string, 0, len(collections))
			for _, c := range collections {
				rows = append(rows, map[string]string{
					"id":      c.ID,
					"name":    c.Title,
					"url":     c.URL,
					"updated": c.UpdatedAt.Format("2006-01-02 15:04"),
				})
			}
			utils.FormatRows(stdout, rows, []string{"id", "name", "url", "updated"})
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newDiagDocumentsCmd creates the 'diag documents' subcommand
func newDiagDocumentsCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents [collection]",
		Short: "Dump document metadata for a collection",
		Args:  cobra.ExactArgs(1),
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

			collection, err := resolveCollection(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			parent, _ := cmd.Flags().GetString("parent")

			docs, err := svc.ListDocuments(cmd.Context(), collection.ID, parent)
			if err != nil {
				return err
			}

			rows := make([]map[string]string, 0, len(docs))
			for _, d := range docs {
				rows = append(rows, map[string]string{
					"id":      d.ID,
					"title":   d.Title,
					"parent":  d.ParentID,
					"updated": d.UpdatedAt.Format("2006-01-02 15:04"),
				})
			}
			utils.FormatRows(stdout, rows, []string{"id", "title", "parent", "updated"})
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("parent", "P", "", "Parent document UUID to list children of")

	return cmd
}
