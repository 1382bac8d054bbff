package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nix-humanity/ask-nix/internal/app"
	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/infrastructure/config"
)

const appVersion = "0.1.0"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ask-nix version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "ask-nix %s\n", appVersion)
			return nil
		},
	}
}

func newSearchCommand(container *app.Container) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "search <term> [term...]",
		Short: "Search nixpkgs for one or more terms concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := container.Dispatcher.SearchMany(cmd.Context(), args, dryRun)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failed := false
			for i, res := range results {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "=== %s ===\n", args[i])
				if res.Output != "" {
					fmt.Fprintln(out, strings.TrimRight(res.Output, "\n"))
				}
				if !res.Success {
					failed = true
					if res.Error != "" {
						fmt.Fprintln(out, strings.TrimRight(res.Error, "\n"))
					}
				}
			}
			if failed {
				return &ExitCodeError{Code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview the search commands without running them")
	return cmd
}

func newDoctorCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose environment setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := container.DoctorService.Run(cmd.Context())
			renderDoctorReport(cmd.OutOrStdout(), report)
			return err
		},
	}
}

func renderDoctorReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n", strings.ToUpper(string(check.Status)), check.Name, check.Details)
	}
}

func newConfigCommand(container *app.Container) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect ask-nix configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show full configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}

	var key string
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Get a specific configuration value",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			return runConfigGet(cmd.Context(), cmd.OutOrStdout(), container, key)
		},
	}
	getCmd.Flags().StringVar(&key, "key", "", "Key path (e.g., preferences.persona)")

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value (value accepts YAML syntax)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := strings.Join(args[1:], " ")
			return runConfigSet(cmd.Context(), container, key, value)
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit configuration in $EDITOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigEdit(container)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := container.ConfigProvider.Load(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration valid")
			return nil
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := configLoader(container)
			if err != nil {
				return err
			}
			cfg, err := loader.Reset()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration reset at %s\n", loader.Path())
			data, _ := yaml.Marshal(cfg)
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	configCmd.AddCommand(showCmd, getCmd, setCmd, editCmd, validateCmd, resetCmd)
	return configCmd
}

func runConfigShow(ctx context.Context, out io.Writer, container *app.Container) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigGet(ctx context.Context, out io.Writer, container *app.Container, key string) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return err
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var generic map[string]interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return err
	}
	value, ok := traverseKey(generic, strings.Split(key, "."))
	if !ok {
		return fmt.Errorf("key %s not found", key)
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigSet(ctx context.Context, container *app.Container, key, value string) error {
	loader, err := configLoader(container)
	if err != nil {
		return err
	}
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return err
	}
	cfgMap := map[string]interface{}{}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, &cfgMap); err != nil {
		return err
	}

	parsedValue, err := parseValue(value)
	if err != nil {
		return err
	}
	if !setMapValue(cfgMap, strings.Split(key, "."), parsedValue) {
		return fmt.Errorf("unable to set key %s", key)
	}

	updatedRaw, err := yaml.Marshal(cfgMap)
	if err != nil {
		return err
	}

	var updated domain.Config
	if err := yaml.Unmarshal(updatedRaw, &updated); err != nil {
		return err
	}

	return loader.Save(updated)
}

func runConfigEdit(container *app.Container) error {
	loader, err := configLoader(container)
	if err != nil {
		return err
	}
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	cmd := exec.Command(editor, loader.Path())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func configLoader(container *app.Container) (*config.FileLoader, error) {
	if container.ConfigLoader == nil {
		return nil, fmt.Errorf("config loader unavailable")
	}
	return container.ConfigLoader, nil
}

func parseValue(input string) (interface{}, error) {
	var parsed interface{}
	if err := yaml.Unmarshal([]byte(input), &parsed); err != nil {
		return input, nil
	}
	return parsed, nil
}

func setMapValue(root map[string]interface{}, path []string, value interface{}) bool {
	if len(path) == 0 {
		return false
	}
	current := root
	for i := 0; i < len(path)-1; i++ {
		key := path[i]
		next, ok := current[key]
		if !ok {
			newChild := map[string]interface{}{}
			current[key] = newChild
			current = newChild
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			current[key] = child
		}
		current = child
	}
	current[path[len(path)-1]] = value
	return true
}

func traverseKey(data interface{}, path []string) (interface{}, bool) {
	if len(path) == 0 {
		return data, true
	}
	switch node := data.(type) {
	case map[string]interface{}:
		next, ok := node[path[0]]
		if !ok {
			return nil, false
		}
		return traverseKey(next, path[1:])
	default:
		return nil, false
	}
}

func newHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect query history",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := container.HistoryStore.Records(limit, "")
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), records)
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show")

	var searchLimit int
	searchCmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search history by query text or command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := container.HistoryStore.Records(searchLimit, args[0])
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), records)
			return nil
		},
	}
	searchCmd.Flags().IntVar(&searchLimit, "limit", domain.DefaultHistorySearchLimit, "Max entries to show")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear query history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return container.HistoryStore.Clear()
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Export history as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.HistoryStore.ExportJSON(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "History exported to %s\n", args[0])
			return nil
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show history statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := container.HistoryStore.Records(0, "")
			if err != nil {
				return err
			}
			renderHistoryStats(cmd.OutOrStdout(), records)
			return nil
		},
	}

	historyCmd.AddCommand(listCmd, searchCmd, clearCmd, exportCmd, statsCmd)
	return historyCmd
}

func renderHistory(out io.Writer, records []domain.HistoryRecord) {
	for _, rec := range records {
		status := "preview"
		if rec.Executed {
			status = "ok"
			if !rec.Success {
				status = fmt.Sprintf("exit %d", rec.ExitCode)
			}
		}
		if rec.Cached {
			status += " (cached)"
		}
		fmt.Fprintf(out, "%s | %s | %s | %s | %s\n",
			rec.Timestamp.Format(time.RFC3339),
			rec.Intent,
			status,
			rec.Query,
			rec.Command)
	}
}

func renderHistoryStats(out io.Writer, records []domain.HistoryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No history yet.")
		return
	}
	executed := 0
	succeeded := 0
	cached := 0
	byIntent := map[domain.IntentType]int{}
	for _, rec := range records {
		byIntent[rec.Intent]++
		if rec.Cached {
			cached++
		}
		if rec.Executed {
			executed++
			if rec.Success {
				succeeded++
			}
		}
	}
	fmt.Fprintf(out, "Queries: %d\n", len(records))
	fmt.Fprintf(out, "Executed: %d (cached: %d)\n", executed, cached)
	if executed > 0 {
		fmt.Fprintf(out, "Success rate: %.0f%%\n", float64(succeeded)/float64(executed)*100)
	}

	type intentCount struct {
		intent domain.IntentType
		count  int
	}
	counts := make([]intentCount, 0, len(byIntent))
	for it, n := range byIntent {
		counts = append(counts, intentCount{intent: it, count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].intent < counts[j].intent
	})
	fmt.Fprintln(out, "Top intents:")
	for i, c := range counts {
		if i == 5 {
			break
		}
		fmt.Fprintf(out, "  %s: %d\n", c.intent, c.count)
	}
}

func newCacheCommand(container *app.Container) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the result cache",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := container.CacheStore.Entries()
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s | %s | %s\n", entry.Key, entry.Intent, entry.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return container.CacheStore.Clear()
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache size and entry count",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := container.CacheStore.Entries()
			if err != nil {
				return err
			}
			dir := container.CacheStore.Dir()
			var total int64
			filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return nil
				}
				info, err := d.Info()
				if err == nil {
					total += info.Size()
				}
				return nil
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Cache directory: %s\nEntries: %d\nSize: %d bytes\n", dir, len(entries), total)
			return nil
		},
	}

	var ttl time.Duration
	var maxEntries int
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or update cache settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl > 0 || maxEntries > 0 {
				if err := container.CacheStore.Update(domain.CacheSettings{TTL: ttl, MaxEntries: maxEntries}); err != nil {
					return err
				}
				// Persist the change so the next invocation picks it up too.
				if err := saveCacheSettings(cmd.Context(), container, ttl, maxEntries); err != nil {
					return err
				}
			}
			settings := container.CacheStore.Settings()
			fmt.Fprintf(cmd.OutOrStdout(), "TTL: %s\nMax entries: %d\n", settings.TTL, settings.MaxEntries)
			return nil
		},
	}
	configCmd.Flags().DurationVar(&ttl, "ttl", 0, "New default TTL (e.g. 30m, 2h)")
	configCmd.Flags().IntVar(&maxEntries, "max-entries", 0, "New entry cap")

	cacheCmd.AddCommand(listCmd, clearCmd, statsCmd, configCmd)
	return cacheCmd
}

func saveCacheSettings(ctx context.Context, container *app.Container, ttl time.Duration, maxEntries int) error {
	loader, err := configLoader(container)
	if err != nil {
		return err
	}
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return err
	}
	if ttl > 0 {
		cfg.Cache.TTL = ttl.String()
	}
	if maxEntries > 0 {
		cfg.Cache.MaxEntries = maxEntries
	}
	return loader.Save(cfg)
}
