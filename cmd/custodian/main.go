// Package main provides the custodian command-line tool. It maintains the
// on-disk artifacts of a local AI coding assistant: scanning conversation
// logs for oversized embedded payloads, inventorying trace files, and
// performing selective cleanup or confirm-gated secure wipe. All logic lives
// in pkg/; this layer only parses flags and renders results.
package main

import (
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/entrhq/custodian/pkg/config"
	"github.com/entrhq/custodian/pkg/logging"
	"github.com/entrhq/custodian/pkg/scanner"
	"github.com/entrhq/custodian/pkg/traces"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	if os.Args[1] == "--version" || os.Args[1] == "version" {
		fmt.Printf("custodian v%s\n", version)
		return
	}

	if err := config.Initialize(""); err != nil {
		fmt.Fprintf(os.Stderr, "custodian: %v\n", err)
		os.Exit(1)
	}
	logger, _ := logging.NewLogger("cli")
	defer logger.Close()

	var err error
	switch os.Args[1] {
	case "scan":
		err = runScan(os.Args[2:], logger)
	case "fix":
		err = runFix(os.Args[2:], logger)
	case "restore":
		err = runRestore(os.Args[2:], logger)
	case "inventory":
		err = runInventory(os.Args[2:], logger)
	case "clean":
		err = runClean(os.Args[2:], logger)
	case "wipe":
		err = runWipe(os.Args[2:], logger)
	case "exclusions":
		err = runExclusions(os.Args[2:], logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "custodian: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: custodian <command> [flags]

commands:
  scan       scan conversation logs for oversized embedded payloads
  fix        neutralize oversized payloads, backing up originals
  restore    restore a file from a fix backup
  inventory  categorize every trace file under the data root
  clean      selectively delete trace files (dry-run by default)
  wipe       securely wipe all traces (requires --confirm)
  exclusions list, add, or remove persisted protection rules`)
}

func newScanner() *scanner.Scanner {
	s := scanner.NewScanner()
	if section := config.GetScanner(); section != nil {
		maxBase64, maxText := section.Thresholds()
		s.WithThresholds(scanner.Thresholds{MaxBase64Len: maxBase64, MaxTextLen: maxText})
	}
	return s
}

func dataRoot(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if section := config.GetScanner(); section != nil {
		return section.DataRoot()
	}
	return config.DefaultDataRoot()
}

func exclusions() []traces.Exclusion {
	if section := config.GetExclusions(); section != nil {
		return section.List()
	}
	return nil
}

func runExclusions(args []string, logger *logging.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("exclusions: expected list, add, or remove")
	}
	section := config.GetExclusions()
	if section == nil {
		return fmt.Errorf("exclusions: configuration not initialized")
	}
	switch args[0] {
	case "list":
		items := section.List()
		if len(items) == 0 {
			fmt.Println("no exclusions configured")
			return nil
		}
		for _, ex := range items {
			fmt.Printf("  %s  %-8s %s", ex.ID, ex.Type, ex.Value)
			if ex.Description != "" {
				fmt.Printf("  (%s)", ex.Description)
			}
			fmt.Println()
		}
		return nil
	case "add":
		flags := flag.NewFlagSet("exclusions add", flag.ExitOnError)
		description := flags.String("description", "", "why this rule exists")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}
		if flags.NArg() != 2 {
			return fmt.Errorf("exclusions add: expected <category|project|path> <value>")
		}
		exType := traces.ExclusionType(flags.Arg(0))
		switch exType {
		case traces.ExcludeCategory, traces.ExcludeProject, traces.ExcludePath:
		default:
			return fmt.Errorf("exclusions add: unknown type %q", flags.Arg(0))
		}
		ex := traces.NewExclusion(exType, flags.Arg(1), *description)
		section.Add(ex)
		if err := config.Global().SaveAll(); err != nil {
			return err
		}
		fmt.Printf("added exclusion %s\n", ex.ID)
		logger.Infof("exclusion added: %s %s=%q", ex.ID, ex.Type, ex.Value)
		return nil
	case "remove":
		if len(args) != 2 {
			return fmt.Errorf("exclusions remove: expected an exclusion id")
		}
		if !section.Remove(args[1]) {
			return fmt.Errorf("exclusions remove: no exclusion with id %s", args[1])
		}
		if err := config.Global().SaveAll(); err != nil {
			return err
		}
		fmt.Printf("removed exclusion %s\n", args[1])
		logger.Infof("exclusion removed: %s", args[1])
		return nil
	default:
		return fmt.Errorf("exclusions: unknown subcommand %q", args[0])
	}
}

func runScan(args []string, logger *logging.Logger) error {
	flags := flag.NewFlagSet("scan", flag.ExitOnError)
	tokens := flags.Bool("tokens", false, "estimate token counts for oversized text (loads a tiktoken encoding)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("scan: expected a file or directory argument")
	}
	target := flags.Arg(0)

	s := newScanner()
	if *tokens {
		estimator, err := scanner.NewTiktokenEstimator()
		if err != nil {
			return err
		}
		s.WithTokenEstimator(estimator)
	}

	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if info.IsDir() {
		batch, err := s.ScanAll(target)
		if err != nil {
			return err
		}
		for _, res := range batch.Results {
			printScan(res)
		}
		for _, sk := range batch.SkippedFiles {
			fmt.Printf("skipped %s: %s\n", sk.Path, sk.Reason)
		}
		fmt.Printf("%d file(s) scanned, %d issue(s) found\n", len(batch.Results), batch.TotalIssues)
		logger.Infof("scan %s: %d files, %d issues", target, len(batch.Results), batch.TotalIssues)
		return nil
	}
	res, err := s.ScanFile(target)
	if err != nil {
		return err
	}
	printScan(res)
	logger.Infof("scan %s: %d issues", target, len(res.Issues))
	return nil
}

func printScan(res *scanner.ScanResult) {
	if len(res.Issues) == 0 {
		return
	}
	fmt.Printf("%s (%d lines):\n", res.FilePath, res.TotalLines)
	for _, issue := range res.Issues {
		fmt.Printf("  line %d [%s] %s, ~%d bytes", issue.Line, issue.Location, issue.ContentType, issue.EstimatedSize)
		if issue.EstimatedTokens > 0 {
			fmt.Printf(", ~%d tokens", issue.EstimatedTokens)
		}
		fmt.Println()
	}
}

func runFix(args []string, logger *logging.Logger) error {
	flags := flag.NewFlagSet("fix", flag.ExitOnError)
	noBackup := flags.Bool("no-backup", false, "skip writing a backup before rewriting")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("fix: expected a file or directory argument")
	}
	target := flags.Arg(0)

	backup := !*noBackup
	if section := config.GetScanner(); section != nil && !section.BackupEnabled() {
		backup = false
	}
	opts := scanner.FixOptions{Backup: backup}
	s := newScanner()

	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if info.IsDir() {
		results, skipped, err := s.FixAll(target, opts)
		if err != nil {
			return err
		}
		for _, res := range results {
			printFix(res)
		}
		for _, sk := range skipped {
			fmt.Printf("skipped %s: %s\n", sk.Path, sk.Reason)
		}
		return nil
	}
	res, err := s.FixFile(target, opts)
	if res != nil {
		printFix(res)
	}
	if err != nil {
		logger.Errorf("fix %s: %v", target, err)
		return err
	}
	return nil
}

func printFix(res *scanner.FixResult) {
	switch {
	case res.Err != nil && res.BackupPath != "":
		fmt.Printf("%s: fix failed (%v); original preserved at %s\n", res.FilePath, res.Err, res.BackupPath)
	case res.Err != nil:
		fmt.Printf("%s: fix failed (%v); no changes written\n", res.FilePath, res.Err)
	case !res.Fixed:
		fmt.Printf("%s: no issues\n", res.FilePath)
	case res.BackupPath != "":
		fmt.Printf("%s: fixed %d issue(s), backup at %s\n", res.FilePath, len(res.Issues), res.BackupPath)
	default:
		fmt.Printf("%s: fixed %d issue(s)\n", res.FilePath, len(res.Issues))
	}
}

func runRestore(args []string, logger *logging.Logger) error {
	flags := flag.NewFlagSet("restore", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("restore: expected a backup file argument")
	}
	original, err := scanner.RestoreBackup(flags.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("restored %s\n", original)
	logger.Infof("restored %s from %s", original, flags.Arg(0))
	return nil
}

func runInventory(args []string, logger *logging.Logger) error {
	flags := flag.NewFlagSet("inventory", flag.ExitOnError)
	root := flags.String("root", "", "data root (defaults to the configured location)")
	project := flags.String("project", "", "only include conversations whose path contains this substring")
	if err := flags.Parse(args); err != nil {
		return err
	}
	rootPath, err := dataRoot(*root)
	if err != nil {
		return err
	}
	inv, err := traces.BuildInventory(rootPath, traces.InventoryOptions{Project: *project})
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d files, %d bytes (%d critical, %d high)\n",
		inv.Root, inv.TotalFiles, inv.TotalSize, inv.CriticalItems, inv.HighItems)
	for _, cat := range inv.Categories {
		fmt.Printf("  %-16s %-8s %6d files %12d bytes  %s\n",
			cat.Name, cat.Sensitivity, cat.FileCount, cat.TotalSize, cat.Description)
	}
	for _, sk := range inv.SkippedDirs {
		fmt.Printf("  skipped %s: %s\n", sk.Path, sk.Reason)
	}
	logger.Infof("inventory %s: %d files", inv.Root, inv.TotalFiles)
	return nil
}

func runClean(args []string, logger *logging.Logger) error {
	flags := flag.NewFlagSet("clean", flag.ExitOnError)
	root := flags.String("root", "", "data root (defaults to the configured location)")
	project := flags.String("project", "", "only clean conversations whose path contains this substring")
	categories := flags.StringSlice("category", nil, "categories to clean (repeatable; default: all non-protected)")
	days := flags.Int("days", 0, "only delete items older than this many days")
	execute := flags.Bool("execute", false, "actually delete (default is dry-run)")
	preserveSettings := flags.Bool("preserve-settings", false, "never touch the root settings files")
	if err := flags.Parse(args); err != nil {
		return err
	}
	rootPath, err := dataRoot(*root)
	if err != nil {
		return err
	}
	result, err := traces.Clean(rootPath, traces.CleanOptions{
		Project:          *project,
		Categories:       *categories,
		Days:             *days,
		DryRun:           !*execute,
		PreserveSettings: *preserveSettings,
		Exclusions:       exclusions(),
	})
	if err != nil {
		return err
	}
	mode := "deleted"
	if result.DryRun {
		mode = "would delete"
	}
	for _, f := range result.Files {
		fmt.Printf("  %s %s (%s, %d bytes)\n", mode, f.RelPath, f.Category, f.SizeBytes)
	}
	fmt.Printf("%s %d file(s), %d bytes, categories: %v\n", mode, len(result.Files), result.FreedBytes, result.Categories)
	for _, e := range result.Errors {
		fmt.Printf("  error %s: %s\n", e.Path, e.Reason)
	}
	logger.Infof("clean %s (dry-run=%v): %d candidates", rootPath, result.DryRun, len(result.Files))
	return nil
}

func runWipe(args []string, logger *logging.Logger) error {
	flags := flag.NewFlagSet("wipe", flag.ExitOnError)
	root := flags.String("root", "", "data root (defaults to the configured location)")
	confirm := flags.Bool("confirm", false, "confirm the wipe; nothing happens without this")
	keepSettings := flags.Bool("keep-settings", false, "preserve settings files")
	keepPlugins := flags.Bool("keep-plugins", false, "preserve installed plugins")
	receiptPath := flags.String("receipt", "", "write a YAML receipt to this path")
	if err := flags.Parse(args); err != nil {
		return err
	}
	rootPath, err := dataRoot(*root)
	if err != nil {
		return err
	}
	result, err := traces.Wipe(rootPath, traces.WipeOptions{
		Confirm:      *confirm,
		KeepSettings: *keepSettings,
		KeepPlugins:  *keepPlugins,
		Exclusions:   exclusions(),
	})
	if err != nil {
		return err
	}
	fmt.Print(result.Receipt())
	if *receiptPath != "" {
		out, err := result.ReceiptYAML()
		if err != nil {
			return err
		}
		if err := os.WriteFile(*receiptPath, out, 0o600); err != nil {
			return fmt.Errorf("write receipt: %w", err)
		}
	}
	logger.Infof("wipe %s at %s: confirmed=%v files=%d bytes=%d",
		rootPath, time.Now().Format(time.RFC3339), result.Confirmed, result.WipedFiles, result.FreedBytes)
	return nil
}
