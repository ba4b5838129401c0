package cmd

import (
	"errors"
	"fmt"
	"strings"

	"stash-ingest/core/config"
	"stash-ingest/feature/modifier"

	"github.com/spf13/cobra"
)

var (
	catalogMaxErrors int
	matchScope       string
	matchItemName    string
)

// catalogCmd groups the modifier catalog commands
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the modifier catalog",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// catalogCheckCmd represents the catalog check command
var catalogCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and compile the modifier catalog",
	Long:  `Fetches the catalog from the storage service, compiles it and reports the template counts and every inconsistent template group.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		matcher, errs, err := compileCatalog(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "templates: %d\n", matcher.Templates)
		fmt.Fprintf(out, "static:    %d\n", matcher.Static())
		fmt.Fprintf(out, "dynamic:   %d\n", matcher.Dynamic())
		fmt.Fprintf(out, "errors:    %d\n", len(errs))
		for i, e := range errs {
			if catalogMaxErrors > 0 && i >= catalogMaxErrors {
				fmt.Fprintf(out, "  ... %d more\n", len(errs)-i)
				break
			}
			fmt.Fprintf(out, "  - %v\n", e)
		}

		if matcher.Empty() {
			return modifier.ErrEmptyCatalog
		}
		return nil
	},
}

// catalogMatchCmd represents the catalog match command
var catalogMatchCmd = &cobra.Command{
	Use:   "match <affix text>",
	Short: "Match one affix line against the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := modifier.ParseScope(matchScope)
		if err != nil {
			return err
		}

		matcher, _, err := compileCatalog(cmd)
		if err != nil {
			return err
		}

		affix := modifier.Affix{Text: strings.Join(args, " "), Scope: scope}
		res, err := matcher.Match(modifier.ItemAffixes{ItemID: "cli", Name: matchItemName}, affix)
		var mismatch *modifier.CatalogMismatchError
		if errors.As(err, &mismatch) {
			fmt.Fprintf(cmd.OutOrStdout(), "no template matches %q (%s)\n", affix.Text, scope)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "modifier %d: %s\n", res.ModifierID, res.Effect)
		if res.Static {
			fmt.Fprintf(out, "  static, position %d\n", res.Position)
			return nil
		}
		for _, r := range res.Rolls {
			if r.Text != "" {
				fmt.Fprintf(out, "  position %d: %q (index %.0f)\n", r.Position, r.Text, r.Value)
				continue
			}
			flag := ""
			if r.OutOfBounds {
				flag = " out of bounds"
			}
			fmt.Fprintf(out, "  position %d: raw %g roll %.4f%s\n", r.Position, r.Raw, r.Value, flag)
		}
		return nil
	},
}

func compileCatalog(cmd *cobra.Command) (*modifier.Matcher, []error, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	templates, err := modifier.NewHTTPLoader(cfg.Output.BaseURL, cfg.Catalog).Load(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	matcher, errs := modifier.Compile(templates)
	return matcher, errs, nil
}

func init() {
	catalogCheckCmd.Flags().IntVar(&catalogMaxErrors, "max-errors", 20, "Maximum number of compile errors to print (0 prints all)")
	catalogMatchCmd.Flags().StringVar(&matchScope, "scope", "explicit", "Affix scope (implicit, explicit, crafted, enchant, fractured, mutated, veiled)")
	catalogMatchCmd.Flags().StringVar(&matchItemName, "item", "", "Unique item name for unique-specific templates")

	catalogCmd.AddCommand(catalogCheckCmd)
	catalogCmd.AddCommand(catalogMatchCmd)
	RootCmd.AddCommand(catalogCmd)
}
