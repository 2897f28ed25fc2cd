package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"figmatext/internal/config"
	"figmatext/internal/etl"
	"figmatext/internal/localization"
	mcpserver "figmatext/internal/mcp"
	"figmatext/internal/secret"
)

// Version is the current figmatext version.
var Version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "figmatext",
	Short: "figmatext - sync design file texts and export string tables",
	Long: `figmatext pulls a design file, extracts its visible texts grouped by page and screen,
stores them, and serves them as read views and localization exports (signed JSON, XML).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with the configured sync schedule and file watch",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the design file once and print the result",
	Long:  `Sync pulls the configured design file (or --file, a document export on disk) and replaces its stored texts. Exits non-zero when the sync fails.`,
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var exportCmd = &cobra.Command{
	Use:   "export <page>",
	Short: "Export one page as signed JSON or XML string resources",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent sync runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools on stdin/stdout",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage secrets in the secrets directory",
}

var secretSetCmd = &cobra.Command{
	Use:   "set <key>",
	Short: "Store a secret read from stdin",
	Args:  cobra.ExactArgs(1),
	RunE:  runSecretSet,
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a stored secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runSecretDelete,
}

var (
	cfgPath string
	fileKey string

	syncDebug bool
	syncFile  string
	jsonFlag  bool

	exportFormat string
	exportOut    string

	runsLimit int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to the YAML config file")

	syncCmd.Flags().StringVar(&fileKey, "file-key", "", "Design file key (default: figma.file_key)")
	syncCmd.Flags().StringVar(&syncFile, "file", "", "Sync from a document export on disk instead of the configured source")
	syncCmd.Flags().BoolVar(&syncDebug, "debug", false, "Print page names and overwritten duplicates")
	syncCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")

	exportCmd.Flags().StringVar(&fileKey, "file-key", "", "Design file key (default: figma.file_key)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Export format (json or xml)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to this file instead of stdout")

	runsCmd.Flags().StringVar(&fileKey, "file-key", "", "Only runs of this file key (default: all files)")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of runs to show")
	runsCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")

	secretCmd.AddCommand(secretSetCmd)
	secretCmd.AddCommand(secretDeleteCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(secretCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ── serve ──────────────────────────────────────────────────

func runServe(cmd *cobra.Command, args []string) error {
	a, err := New(cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}

// ── sync ───────────────────────────────────────────────────

func runSync(cmd *cobra.Command, args []string) error {
	a, err := New(cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	var res *etl.SyncResult
	if syncFile != "" {
		res = a.sync.SyncFromFile(ctx, fileKey, syncFile, syncDebug)
	} else {
		res = a.sync.Sync(ctx, fileKey, syncDebug)
	}

	out := cmd.OutOrStdout()
	if jsonFlag {
		data, _ := json.MarshalIndent(res, "", "  ")
		fmt.Fprintln(out, string(data))
	} else {
		printSyncResult(out, res)
	}
	if !res.Success {
		return fmt.Errorf("sync failed")
	}
	return nil
}

func printSyncResult(w io.Writer, res *etl.SyncResult) {
	if !res.Success {
		fmt.Fprintf(w, "✗ %s\n", res.Message)
		return
	}
	fmt.Fprintln(w, "✓ Sync completed successfully!")
	fmt.Fprintf(w, "  - Pages updated: %d\n", res.PagesUpdated)
	fmt.Fprintf(w, "  - Texts updated: %d\n", res.TextsUpdated)
	fmt.Fprintf(w, "  - Last sync: %s\n", localization.FormatTimestamp(res.LastSync))
	if res.DebugInfo != nil {
		fmt.Fprintf(w, "  - Pages: %s\n", strings.Join(res.DebugInfo.PageNames, ", "))
		for _, name := range res.DebugInfo.Overwritten {
			fmt.Fprintf(w, "  - Overwritten duplicate: %s\n", name)
		}
	}
}

// ── export ─────────────────────────────────────────────────

func runExport(cmd *cobra.Command, args []string) error {
	format, err := localization.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	a, err := New(cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()

	exp, err := a.texts.Export(commandContext(cmd), fileKey, args[0], format)
	if err != nil {
		return err
	}

	var data []byte
	if format == localization.FormatXML {
		data = exp.XML
	} else {
		if data, err = json.MarshalIndent(exp.JSON, "", "  "); err != nil {
			return fmt.Errorf("encode export: %w", err)
		}
		data = append(data, '\n')
	}

	if exportOut == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOut, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", exportOut)
	return nil
}

// ── runs ───────────────────────────────────────────────────

func runRuns(cmd *cobra.Command, args []string) error {
	a, err := New(cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.sync.ListRuns(commandContext(cmd), fileKey, runsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonFlag {
		data, _ := json.MarshalIndent(runs, "", "  ")
		fmt.Fprintln(out, string(data))
		return nil
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No sync runs yet.")
		return nil
	}
	for _, r := range runs {
		status := "ok  "
		if !r.Success {
			status = "FAIL"
		}
		fmt.Fprintf(out, "%s  %s  %-10s %s  %d page(s), %d text(s)  %s\n",
			localization.FormatTimestamp(r.StartedAt), status, r.SourceType, r.FileKey,
			r.PagesUpdated, r.TextsUpdated, r.Message)
	}
	return nil
}

// ── mcp ────────────────────────────────────────────────────

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := New(cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := mcpserver.New(mcpserver.Deps{
		Sync:         a.sync,
		Localization: a.texts,
		Version:      Version,
	})
	return srv.ServeStdio()
}

// ── secret ─────────────────────────────────────────────────

func runSecretSet(cmd *cobra.Command, args []string) error {
	store, err := secretsDir()
	if err != nil {
		return err
	}
	value, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("read secret: %w", err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("empty secret for %s", args[0])
	}
	if err := store.Set(args[0], []byte(value)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Stored %s\n", args[0])
	return nil
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	store, err := secretsDir()
	if err != nil {
		return err
	}
	return store.Delete(args[0])
}

func secretsDir() (*secret.FileStore, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if cfg.SecretsDir == "" {
		return nil, fmt.Errorf("secrets_dir is not configured (set SECRETS_DIR or secrets_dir in the config file)")
	}
	return secret.NewFileStore(cfg.SecretsDir), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
