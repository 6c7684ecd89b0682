package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/waivern/wct/orchestration"
)

var lsConnectorsCmd = &cobra.Command{
	Use:   "ls-connectors",
	Short: "List registered source connectors",
	Args:  cobra.NoArgs,
	RunE:  lsByKind("source", nil),
}

var lsProcessorsCmd = &cobra.Command{
	Use:   "ls-processors",
	Short: "List registered analysers and classifiers",
	Args:  cobra.NoArgs,
	RunE: lsByKind("process", func(component any) bool {
		switch component.(type) {
		case orchestration.Analyser, orchestration.Classifier:
			return true
		default:
			return false
		}
	}),
}

var lsExportersCmd = &cobra.Command{
	Use:   "ls-exporters",
	Short: "List registered exporters",
	Args:  cobra.NoArgs,
	RunE: lsByKind("process", func(component any) bool {
		_, ok := component.(orchestration.Exporter)
		return ok
	}),
}

var lsRulesetsCmd = &cobra.Command{
	Use:   "ls-rulesets",
	Short: "List rulesets found on the loader's search path",
	Args:  cobra.NoArgs,
	RunE:  runLsRulesets,
}

// lsByKind builds a RunE that lists every registered component name with
// the given "<kind>:" prefix, optionally filtered by constructing each one
// and testing it with accept (nil accepts everything under the prefix).
func lsByKind(kind string, accept func(component any) bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := loadConfig(cmd)
		if err != nil {
			os.Exit(exitConfig)
			return nil
		}

		ctx := context.Background()
		prefix := kind + ":"
		var names []string
		for _, name := range a.registryNames() {
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			if accept != nil {
				component, err := a.services.Get(ctx, name)
				if err != nil || !accept(component) {
					continue
				}
			}
			names = append(names, strings.TrimPrefix(name, prefix))
		}

		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintln(os.Stdout, name)
		}
		return nil
	}
}

func runLsRulesets(cmd *cobra.Command, args []string) error {
	a, err := loadConfig(cmd)
	if err != nil {
		os.Exit(exitConfig)
		return nil
	}

	var found []string
	for _, dir := range a.rulesets.SearchPaths {
		nameEntries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, nameEntry := range nameEntries {
			if !nameEntry.IsDir() {
				continue
			}
			versionEntries, err := os.ReadDir(filepath.Join(dir, nameEntry.Name()))
			if err != nil {
				continue
			}
			for _, versionEntry := range versionEntries {
				version := strings.TrimSuffix(versionEntry.Name(), filepath.Ext(versionEntry.Name()))
				found = append(found, fmt.Sprintf("local/%s/%s", nameEntry.Name(), version))
			}
		}
	}

	sort.Strings(found)
	for _, uri := range found {
		fmt.Fprintln(os.Stdout, uri)
	}
	return nil
}
