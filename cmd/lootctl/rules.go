package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tazuo/autoloot/internal/config"
	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/internal/storage"
)

const (
	kindHighlight = "highlight"
	kindAutoLoot  = "autoloot"
)

type rulesOptions struct {
	kind        string
	fromProfile string
	allProfiles bool
}

func newRulesCmd(c *cli) *cobra.Command {
	opts := &rulesOptions{}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List, import and export highlight rules or auto-loot entries",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.load(cmd); err != nil {
				return err
			}
			if opts.kind != kindHighlight && opts.kind != kindAutoLoot {
				return fmt.Errorf("unknown rule kind %q (want %s or %s)", opts.kind, kindHighlight, kindAutoLoot)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.kind, "kind", "k", kindAutoLoot, "Rule kind: highlight or autoloot")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the rules in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuleStore(c, opts.kind, cmd, listRules[domain.HighlightRule], listRules[domain.LootEntry])
		},
	}

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Merge rules from a file or from other character profiles",
		Long: `Merge rules from a JSON, YAML or TOML file, from another character profile
(--from-profile account/shard/character) or from every other profile
(--all-profiles). Rules equivalent to an existing one are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.fromProfile == "" && !opts.allProfiles {
				return fmt.Errorf("nothing to import: pass a file, --from-profile or --all-profiles")
			}
			return withRuleStore(c, opts.kind, cmd,
				func(cmd *cobra.Command, cfg *config.Config, store *storage.RuleStore[domain.HighlightRule]) error {
					return importRules(cmd, cfg, store, config.HighlightFile, opts, args)
				},
				func(cmd *cobra.Command, cfg *config.Config, store *storage.RuleStore[domain.LootEntry]) error {
					return importRules(cmd, cfg, store, config.AutoLootFile, opts, args)
				},
			)
		},
	}
	importCmd.Flags().StringVar(&opts.fromProfile, "from-profile", "", "Import from this account/shard/character profile")
	importCmd.Flags().BoolVar(&opts.allProfiles, "all-profiles", false, "Import from every other character profile")

	export := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the rules to a file; the extension selects JSON, YAML or TOML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuleStore(c, opts.kind, cmd,
				func(cmd *cobra.Command, _ *config.Config, store *storage.RuleStore[domain.HighlightRule]) error {
					return exportRules(cmd, store, args[0])
				},
				func(cmd *cobra.Command, _ *config.Config, store *storage.RuleStore[domain.LootEntry]) error {
					return exportRules(cmd, store, args[0])
				},
			)
		},
	}

	cmd.AddCommand(list, importCmd, export)
	return cmd
}

type ruleFunc[T domain.Rule[T]] func(cmd *cobra.Command, cfg *config.Config, store *storage.RuleStore[T]) error

// withRuleStore loads the active profile's store of the given kind and runs
// the matching function against it.
func withRuleStore(c *cli, kind string, cmd *cobra.Command,
	highlight ruleFunc[domain.HighlightRule], loot ruleFunc[domain.LootEntry]) error {
	s := c.offlineSession()
	defer closeSession(s)

	if err := c.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ctx := commandContext(cmd)
	if kind == kindHighlight {
		if err := loadStore(ctx, s.HighlightRules()); err != nil {
			return err
		}
		return highlight(cmd, c.cfg, s.HighlightRules())
	}
	if err := loadStore(ctx, s.LootEntries()); err != nil {
		return err
	}
	return loot(cmd, c.cfg, s.LootEntries())
}

func loadStore[T domain.Rule[T]](ctx context.Context, store *storage.RuleStore[T]) error {
	if err := store.Load(ctx); err != nil {
		return err
	}
	if !store.Loaded() {
		return fmt.Errorf("rule file %s could not be read; fix or remove it first", store.Path())
	}
	return nil
}

func listRules[T domain.Rule[T]](cmd *cobra.Command, _ *config.Config, store *storage.RuleStore[T]) error {
	out := cmd.OutOrStdout()
	rules := store.All()
	if len(rules) == 0 {
		fmt.Fprintf(out, "No rules in %s\n", store.Path())
		return nil
	}
	for i, rule := range rules {
		raw, err := json.Marshal(rule)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%3d  %s  %s\n", i+1, rule.RuleID(), raw)
	}
	fmt.Fprintf(out, "%s rules\n", humanize.Comma(int64(len(rules))))
	return nil
}

func importRules[T domain.Rule[T]](cmd *cobra.Command, cfg *config.Config, store *storage.RuleStore[T],
	base string, opts *rulesOptions, args []string) error {
	out := cmd.OutOrStdout()
	var reports []domain.ImportReport

	if len(args) == 1 {
		report, err := store.ImportFile(args[0])
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}

	if opts.fromProfile != "" || opts.allProfiles {
		profiles, err := storage.DiscoverProfiles[T](commandContext(cmd), cfg.ProfilesRoot(), cfg.RuleFileName(base))
		if err != nil {
			return err
		}
		found := false
		for _, p := range profiles {
			label := p.Profile.Label()
			if label == cfg.Storage.Profile {
				continue
			}
			if !opts.allProfiles && label != opts.fromProfile {
				continue
			}
			found = true
			reports = append(reports, store.ImportFromProfile(p))
		}
		if opts.fromProfile != "" && !found {
			return fmt.Errorf("profile %s has no %s file", opts.fromProfile, cfg.RuleFileName(base))
		}
	}

	imported := 0
	for _, r := range reports {
		imported += r.Imported
		printReport(out, r)
	}
	if imported == 0 {
		return nil
	}
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s rules to %s\n", humanize.Comma(int64(store.Len())), store.Path())
	return nil
}

func printReport(out io.Writer, r domain.ImportReport) {
	fmt.Fprintf(out, "%s: imported %s, skipped %s duplicate, %s invalid\n",
		r.Source,
		humanize.Comma(int64(r.Imported)),
		humanize.Comma(int64(r.Skipped)),
		humanize.Comma(int64(r.Invalid)))
}

func exportRules[T domain.Rule[T]](cmd *cobra.Command, store *storage.RuleStore[T], path string) error {
	if err := store.Export(path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s rules to %s (%s)\n",
		humanize.Comma(int64(store.Len())), path, humanize.Bytes(uint64(info.Size())))
	return nil
}
