// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/flatten/internal/config"
	"github.com/temirov/flatten/internal/export"
	"github.com/temirov/flatten/internal/selection"
	"github.com/temirov/flatten/internal/services/clipboard"
	"github.com/temirov/flatten/internal/tokenizer"
	"github.com/temirov/flatten/internal/utils"
)

const (
	outputFlagName     = "output"
	outputFlagShort    = "o"
	extensionFlagName  = "ext"
	exclusionFlagName  = "exclude"
	exclusionFlagShort = "e"
	decodeFlagName     = "decode"
	summaryFlagName    = "summary"
	tokensFlagName     = "tokens"
	modelFlagName      = "model"
	copyFlagName       = "copy"
	verboseFlagName    = "verbose"
	configFlagName     = "config"
	versionFlagName    = "version"
	globalFlagName     = "global"
	forceFlagName      = "force"

	defaultRootPath       = "."
	defaultOutputFileName = "swift_project.txt"

	versionTemplate      = "flatten version: %s\n"
	rootUse              = "flatten [root]"
	rootShortDescription = "flatten a project tree into one text file"
	rootLongDescription  = `flatten walks a directory tree and concatenates every file whose extension is
allow-listed into a single output document. Each file is preceded by a
"===== <path> =====" header. Directories named in the exclusion set, directories
starting with "." and directories whose name contains "test" are skipped.
Files that cannot be read are recorded with an inline error note.`
	rootUsageExample = `  # Snapshot the current directory into swift_project.txt
  flatten

  # Export Go sources of ./service, skipping vendor, and print a summary
  flatten service --ext go --ext mod -e vendor -o service.txt --summary`

	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write the default configuration to ./.flatten.yaml, or to ~/.flatten/config.yaml with --global.`

	outputFlagDescription    = "output document path"
	extensionFlagDescription = "allow-listed extension (repeatable, replaces the default list)"
	exclusionFlagDescription = "additional directory name to skip (repeatable)"
	decodeFlagDescription    = "handling of bytes that are not valid UTF-8: ignore, replace or strict"
	summaryFlagDescription   = "log a summary of the written document"
	tokensFlagDescription    = "include a token count in the summary"
	modelFlagDescription     = "tokenizer model to use for token counting"
	copyFlagDescription      = "copy the written document to the clipboard"
	verboseFlagDescription   = "log skipped directories and unreadable files"
	configFlagDescription    = "configuration file (default ./.flatten.yaml)"
	versionFlagDescription   = "display application version"
	globalFlagDescription    = "write the global configuration instead of the local one"
	forceFlagDescription     = "overwrite an existing configuration file"

	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	errorRootMissingFormat      = "root '%s' does not exist"
	errorRootStatFormat         = "stat failed for '%s': %w"
	errorRootNotDirectoryFormat = "root '%s' is not a directory"
	initWrittenFormat           = "Configuration written to %s\n"
	exportInterruptedMessage    = "export interrupted"
)

// Execute runs the flatten application. SIGINT and SIGTERM cancel the export, leaving the
// records written so far in the document.
func Execute(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return createRootCommand(logger, clipboard.NewService()).ExecuteContext(ctx)
}

// exportFlags stores the values of the root command's flags.
type exportFlags struct {
	output     string
	extensions []string
	exclusions []string
	decode     string
	summary    bool
	tokens     bool
	model      string
	copy       bool
	verbose    bool
	configPath string
}

// createRootCommand builds the root Cobra command.
func createRootCommand(logger *zap.Logger, copier clipboard.Copier) *cobra.Command {
	if logger == nil {
		logger = zap.NewNop()
	}
	var showVersion bool
	var flags exportFlags

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			rootPath := defaultRootPath
			if len(arguments) == 1 {
				rootPath = arguments[0]
			}
			settings, settingsErr := resolveSettings(command, flags)
			if settingsErr != nil {
				return settingsErr
			}
			return runExport(command.Context(), logger, copier, rootPath, settings)
		},
	}

	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.Flags().StringVarP(&flags.output, outputFlagName, outputFlagShort, defaultOutputFileName, outputFlagDescription)
	rootCommand.Flags().StringArrayVar(&flags.extensions, extensionFlagName, nil, extensionFlagDescription)
	rootCommand.Flags().StringArrayVarP(&flags.exclusions, exclusionFlagName, exclusionFlagShort, nil, exclusionFlagDescription)
	rootCommand.Flags().StringVar(&flags.decode, decodeFlagName, string(export.DecodeIgnore), decodeFlagDescription)
	rootCommand.Flags().BoolVar(&flags.summary, summaryFlagName, false, summaryFlagDescription)
	rootCommand.Flags().BoolVar(&flags.tokens, tokensFlagName, false, tokensFlagDescription)
	rootCommand.Flags().StringVar(&flags.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	rootCommand.Flags().BoolVar(&flags.copy, copyFlagName, false, copyFlagDescription)
	rootCommand.Flags().BoolVar(&flags.verbose, verboseFlagName, false, verboseFlagDescription)
	rootCommand.Flags().StringVar(&flags.configPath, configFlagName, "", configFlagDescription)

	rootCommand.AddCommand(createInitCommand())
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand() *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			writtenPath, initErr := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if initErr != nil {
				return initErr
			}
			fmt.Fprintf(command.OutOrStdout(), initWrittenFormat, writtenPath)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// exportSettings is the fully resolved configuration for one run.
type exportSettings struct {
	outputPath   string
	selection    selection.Options
	decodePolicy export.DecodePolicy
	summary      bool
	tokens       bool
	model        string
	copy         bool
	verbose      bool
}

// resolveSettings layers explicitly set flags over the configuration files, which in turn
// sit over the built-in defaults.
func resolveSettings(command *cobra.Command, flags exportFlags) (exportSettings, error) {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return exportSettings{}, fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	loaded, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: flags.configPath,
	})
	if loadErr != nil {
		return exportSettings{}, loadErr
	}

	changed := command.Flags().Changed
	var flagOverrides config.ApplicationConfiguration
	if changed(outputFlagName) {
		flagOverrides.Output = flags.output
	}
	if changed(extensionFlagName) {
		flagOverrides.Extensions = flags.extensions
	}
	if changed(exclusionFlagName) {
		flagOverrides.Exclude = append(append([]string{}, loaded.Exclude...), flags.exclusions...)
	}
	if changed(decodeFlagName) {
		flagOverrides.Decode = flags.decode
	}
	if changed(summaryFlagName) {
		flagOverrides.Summary = &flags.summary
	}
	if changed(tokensFlagName) {
		flagOverrides.Tokens.Enabled = &flags.tokens
	}
	if changed(modelFlagName) {
		flagOverrides.Tokens.Model = flags.model
	}
	if changed(copyFlagName) {
		flagOverrides.Clipboard = &flags.copy
	}
	resolved := loaded.Merge(flagOverrides)

	decodePolicy, decodeErr := export.ParseDecodePolicy(resolved.Decode)
	if decodeErr != nil {
		return exportSettings{}, decodeErr
	}

	settings := exportSettings{
		outputPath:   defaultOutputFileName,
		selection:    resolved.SelectionOptions(),
		decodePolicy: decodePolicy,
		summary:      resolved.Summary != nil && *resolved.Summary,
		tokens:       resolved.Tokens.Enabled != nil && *resolved.Tokens.Enabled,
		model:        tokenizer.DefaultModel,
		copy:         resolved.Clipboard != nil && *resolved.Clipboard,
		verbose:      flags.verbose,
	}
	if resolved.Output != "" {
		settings.outputPath = resolved.Output
	}
	if resolved.Tokens.Model != "" {
		settings.model = resolved.Tokens.Model
	}
	return settings, nil
}

// runExport validates the root, runs the export and performs the optional follow-ups.
func runExport(ctx context.Context, logger *zap.Logger, copier clipboard.Copier, rootPath string, settings exportSettings) error {
	if err := validateRoot(rootPath); err != nil {
		return err
	}

	runOptions := export.RunOptions{
		Root:         rootPath,
		OutputPath:   settings.outputPath,
		Rules:        selection.NewRules(settings.selection),
		DecodePolicy: settings.decodePolicy,
	}
	if settings.verbose {
		runOptions.Logger = logger
	}
	if settings.summary && settings.tokens {
		counter, resolvedModel, counterErr := tokenizer.NewCounter(tokenizer.Config{Model: settings.model})
		if counterErr != nil {
			return counterErr
		}
		runOptions.TokenCounter = counter
		runOptions.TokenModel = resolvedModel
	}

	summary, runErr := export.Run(ctx, runOptions)
	if runErr != nil {
		if ctx != nil && ctx.Err() != nil {
			return fmt.Errorf("%s: %w", exportInterruptedMessage, runErr)
		}
		return runErr
	}
	if settings.summary {
		logger.Info(summary.String())
	}
	if settings.copy && copier != nil {
		if copyErr := clipboard.CopyFile(copier, settings.outputPath); copyErr != nil {
			return copyErr
		}
	}
	return nil
}

// validateRoot checks that the traversal root exists and is a directory.
func validateRoot(rootPath string) error {
	info, statErr := os.Stat(rootPath)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return fmt.Errorf(errorRootMissingFormat, rootPath)
		}
		return fmt.Errorf(errorRootStatFormat, rootPath, statErr)
	}
	if !info.IsDir() {
		return fmt.Errorf(errorRootNotDirectoryFormat, rootPath)
	}
	return nil
}
