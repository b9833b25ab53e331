package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/preflight/internal/config"
	"github.com/christopherklint97/preflight/internal/entity"
	"github.com/christopherklint97/preflight/internal/export"
	"github.com/christopherklint97/preflight/internal/ingest"
	"github.com/christopherklint97/preflight/internal/rules"
	"github.com/christopherklint97/preflight/internal/store"
	"github.com/christopherklint97/preflight/internal/suggest"
	"github.com/christopherklint97/preflight/internal/validate"
	"github.com/christopherklint97/preflight/internal/watch"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:          "preflight",
	Short:        "Validate resource-allocation data and reconcile its business rules",
	Long:         "preflight checks client, worker and task collections for structural and cross-reference problems, manages typed allocation rules, and packages cleaned data for a downstream allocation system.",
	SilenceUsage: true,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the data directory and run all validation checks",
	RunE:  runValidate,
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage allocation rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show active rules and pending suggestions",
	RunE:  runRulesList,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <type>",
	Short: "Add a rule with explicit parameters",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesAdd,
}

var rulesConvertCmd = &cobra.Command{
	Use:   "convert <constraint...>",
	Short: "Turn a natural-language constraint into a rule",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRulesConvert,
}

var rulesSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Ask the suggestion service for rule candidates",
	RunE:  runRulesSuggest,
}

var rulesAcceptCmd = &cobra.Command{
	Use:   "accept <rule-id>",
	Short: "Accept a pending suggestion into the rule set",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesAccept,
}

var rulesDiscardCmd = &cobra.Command{
	Use:   "discard <rule-id>",
	Short: "Discard a pending suggestion",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesDiscard,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Ask the suggestion service for data-quality findings",
	RunE:  runSuggest,
}

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search the data with a natural-language query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var fixCmd = &cobra.Command{
	Use:   "fix <entity> <id>",
	Short: "Propose and apply a correction for a flagged record",
	Args:  cobra.ExactArgs(2),
	RunE:  runFix,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the cleaned data, rules and priorities as a zip bundle",
	RunE:  runExport,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-validate whenever the data directory changes",
	RunE:  runWatch,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write sample data files into the data directory",
	RunE:  runInit,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open the config file in your editor",
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	validateCmd.Flags().String("dir", "", "Data directory (default from config)")
	watchCmd.Flags().String("dir", "", "Data directory (default from config)")
	initCmd.Flags().String("dir", "", "Data directory (default from config)")
	initCmd.Flags().Bool("force", false, "Overwrite existing data files")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default resource-allocation-<date>.zip)")
	rulesAddCmd.Flags().String("params", "{}", "Rule parameters as JSON")
	rulesAddCmd.Flags().String("description", "", "Rule description")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesConvertCmd)
	rulesCmd.AddCommand(rulesSuggestCmd)
	rulesCmd.AddCommand(rulesAcceptCmd)
	rulesCmd.AddCommand(rulesDiscardCmd)

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	if verbose {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newProvider(cfg *config.Config) (suggest.Provider, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured — set OPENAI_API_KEY or run 'preflight config'")
	}
	return suggest.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, newLogger()), nil
}

func dataDir(cmd *cobra.Command, cfg *config.Config) string {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return dir
	}
	return cfg.Data.Dir
}

// loadSnapshot returns the stored collections, or an error pointing the
// user at validate when nothing has been loaded yet.
func loadSnapshot(db *store.DB) (entity.DataSet, error) {
	ds, err := db.LoadDataSet()
	if err != nil {
		return ds, fmt.Errorf("loading stored data: %w", err)
	}
	if ds.Empty() {
		return ds, fmt.Errorf("no data loaded yet — run 'preflight validate' first")
	}
	return ds, nil
}

func parseKind(s string) (entity.Kind, error) {
	switch strings.ToLower(s) {
	case "client":
		return entity.KindClient, nil
	case "worker":
		return entity.KindWorker, nil
	case "task":
		return entity.KindTask, nil
	default:
		return "", fmt.Errorf("unknown entity %q (want client, worker or task)", s)
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := dataDir(cmd, cfg)
	ds, err := ingest.LoadDir(dir)
	if err != nil {
		return err
	}
	if ds.Empty() {
		return fmt.Errorf("no data files found in %s (want clients/workers/tasks as .csv or .json)", dir)
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.SaveDataSet(ds); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	active, _, err := db.LoadRules()
	if err != nil {
		return err
	}

	diags := validate.All(ds)
	diags = append(diags, validate.RuleReferences(ds, active)...)
	rep := validate.Aggregate(diags)

	fmt.Println(renderReport(rep))

	if errs := rep.Summary().Errors; errs > 0 {
		return fmt.Errorf("%d validation errors", errs)
	}
	return nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	active, pending, err := db.LoadRules()
	if err != nil {
		return err
	}

	fmt.Println(renderRuleList("Active rules", active))
	if len(pending) > 0 {
		fmt.Println()
		fmt.Println(renderRuleList("Pending suggestions", pending))
	}
	return nil
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	paramsJSON, _ := cmd.Flags().GetString("params")
	description, _ := cmd.Flags().GetString("description")

	var params map[string]any
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return fmt.Errorf("parsing --params: %w", err)
	}

	r, err := rules.FromSpec(rules.Type(args[0]), params, description, rules.SourceManual, 1)
	if err != nil {
		return err
	}

	return mergeAndSave(r)
}

func runRulesConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	r, err := provider.ConvertRule(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("converting constraint: %w", err)
	}

	return mergeAndSave(r)
}

// mergeAndSave folds one new rule into the stored set and reports the
// outcome, including a rejection or a duplicate losing to an incumbent.
func mergeAndSave(r rules.Rule) error {
	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	active, pending, err := db.LoadRules()
	if err != nil {
		return err
	}

	res := rules.Merge(active, []rules.Rule{r})
	if out := renderRejected(res.Rejected); out != "" {
		fmt.Println(out)
		return fmt.Errorf("rule rejected")
	}

	if err := db.SaveRules(res.Rules, pending); err != nil {
		return fmt.Errorf("saving rules: %w", err)
	}

	if len(res.Rules) == len(active) {
		fmt.Println(warningStyle.Render("Duplicate of an existing rule; kept the preferred one."))
	} else {
		fmt.Println(successStyle.Render("Rule added:"))
	}
	fmt.Println(renderRule(r))
	return nil
}

func runRulesSuggest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ds, err := loadSnapshot(db)
	if err != nil {
		return err
	}

	suggested, err := provider.SuggestRules(cmd.Context(), ds)
	if err != nil {
		return fmt.Errorf("requesting suggestions: %w", err)
	}
	if len(suggested) == 0 {
		fmt.Println(dimStyle.Render("No rule suggestions for this data."))
		return nil
	}

	active, pending, err := db.LoadRules()
	if err != nil {
		return err
	}

	pool := rules.NewPool(pending...)
	pool.Add(suggested...)

	if err := db.SaveRules(active, pool.Pending()); err != nil {
		return fmt.Errorf("saving suggestions: %w", err)
	}

	fmt.Println(renderRuleList("Pending suggestions", pool.Pending()))
	fmt.Println()
	fmt.Println(dimStyle.Render("Accept with 'preflight rules accept <rule-id>'."))
	return nil
}

func runRulesAccept(cmd *cobra.Command, args []string) error {
	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	active, pending, err := db.LoadRules()
	if err != nil {
		return err
	}

	pool := rules.NewPool(pending...)
	r, ok := pool.Accept(args[0])
	if !ok {
		return fmt.Errorf("no pending suggestion with ID %q", args[0])
	}

	res := rules.Merge(active, []rules.Rule{r})
	if out := renderRejected(res.Rejected); out != "" {
		fmt.Println(out)
		return fmt.Errorf("rule rejected")
	}

	if err := db.SaveRules(res.Rules, pool.Pending()); err != nil {
		return fmt.Errorf("saving rules: %w", err)
	}

	fmt.Println(successStyle.Render("Accepted:"))
	fmt.Println(renderRule(r))
	return nil
}

func runRulesDiscard(cmd *cobra.Command, args []string) error {
	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	active, pending, err := db.LoadRules()
	if err != nil {
		return err
	}

	pool := rules.NewPool(pending...)
	if !pool.Discard(args[0]) {
		return fmt.Errorf("no pending suggestion with ID %q", args[0])
	}

	if err := db.SaveRules(active, pool.Pending()); err != nil {
		return fmt.Errorf("saving rules: %w", err)
	}

	fmt.Println("Suggestion discarded.")
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ds, err := loadSnapshot(db)
	if err != nil {
		return err
	}

	findings, err := provider.ValidateData(cmd.Context(), ds)
	if err != nil {
		return fmt.Errorf("requesting findings: %w", err)
	}
	if len(findings) == 0 {
		fmt.Println(successStyle.Render("The suggestion service found nothing beyond the standard checks."))
		return nil
	}

	fmt.Println(renderReport(validate.Aggregate(findings)))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ds, err := loadSnapshot(db)
	if err != nil {
		return err
	}

	result, err := provider.Search(cmd.Context(), strings.Join(args, " "), ds)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if result.Config.Explanation != "" {
		fmt.Println(dimStyle.Render(result.Config.Explanation))
	}
	fmt.Println(renderMatches(result.Matches))
	return nil
}

func runFix(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	id := args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ds, err := loadSnapshot(db)
	if err != nil {
		return err
	}

	rep := validate.Aggregate(validate.All(ds))
	flagged := rep.For(kind, id, "")
	if len(flagged) == 0 {
		fmt.Println(successStyle.Render(fmt.Sprintf("Nothing to fix for %s %s.", kind, id)))
		return nil
	}

	d := flagged[0]
	fmt.Println(renderDiagnostic(d))

	correction, err := provider.SuggestCorrection(cmd.Context(), d)
	if err != nil {
		return fmt.Errorf("requesting correction: %w", err)
	}

	if err := ds.SetField(kind, id, correction.Field, correction.NewValue); err != nil {
		return fmt.Errorf("applying correction: %w", err)
	}

	if err := db.SaveDataSet(ds); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	remaining := len(validate.Aggregate(validate.All(ds)).For(kind, id, ""))
	fmt.Printf("%s %s\n", successStyle.Render("Applied:"), correction.Explanation)
	fmt.Printf("  %s.%s = %v\n", id, correction.Field, correction.NewValue)
	fmt.Println(dimStyle.Render(fmt.Sprintf("%d issue(s) remain on this record.", remaining)))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ds, err := loadSnapshot(db)
	if err != nil {
		return err
	}

	active, _, err := db.LoadRules()
	if err != nil {
		return err
	}

	now := time.Now()
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = export.BundleName(now)
	}

	if err := export.WriteBundleFile(out, ds, active, cfg.Weights, now); err != nil {
		return err
	}

	fmt.Printf("Exported %d clients, %d workers, %d tasks and %d rules to %s\n",
		len(ds.Clients), len(ds.Workers), len(ds.Tasks), len(active), out)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := dataDir(cmd, cfg)
	debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	fmt.Printf("Watching %s (debounce %s). Ctrl-C to stop.\n", dir, debounce)

	w := watch.New(dir, debounce, cfg.Watch.Notify, newLogger())
	return w.Run(ctx, func(res watch.Result) {
		fmt.Println()
		if res.Err != nil {
			fmt.Println(errorStyle.Render("Reload failed: " + res.Err.Error()))
			return
		}
		fmt.Println(renderReport(res.Report))
	})
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := dataDir(cmd, cfg)
	force, _ := cmd.Flags().GetBool("force")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	ds := entity.SampleDataSet()
	clients, err := export.ClientsCSV(ds.Clients)
	if err != nil {
		return err
	}
	workers, err := export.WorkersCSV(ds.Workers)
	if err != nil {
		return err
	}
	tasks, err := export.TasksCSV(ds.Tasks)
	if err != nil {
		return err
	}

	files := map[string]string{
		"clients.csv": clients,
		"workers.csv": workers,
		"tasks.csv":   tasks,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	fmt.Printf("Wrote sample data to %s. Run 'preflight validate' to check it.\n", dir)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.SavePath(configPath, config.DefaultConfig()); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}
