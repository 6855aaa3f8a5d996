package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/tyefraser/nab-nai-files/pkg/checks"
	"github.com/tyefraser/nab-nai-files/pkg/config"
	"github.com/tyefraser/nab-nai-files/pkg/csv"
	"github.com/tyefraser/nab-nai-files/pkg/outputs"
	"github.com/tyefraser/nab-nai-files/pkg/service"
)

const version = "0.2.0"

var (
	cliFilters filters
	cfgFile    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "nai",
	Short: "Parse and reconcile NAB NAI bank statement files",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var processCmd = &cobra.Command{
	Use:   "process [flags] [input_folder]",
	Short: "Process a folder of NAI files and write the configured outputs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.InputFolderPath = args[0]
		}
		if cfg.InputFolderPath == "" {
			return fmt.Errorf("no input folder given, pass one or set input_folder_path")
		}
		if cfg.OutputFolderPath == "" {
			// Keep generated files out of the input folder itself, a
			// rerun would try to parse them.
			cfg.OutputFolderPath = filepath.Join(cfg.InputFolderPath, "outputs")
		}

		codes, err := cfg.CodeTable()
		if err != nil {
			return err
		}

		processor := service.NewProcessor(cfg, logger, codes)
		batch, err := processor.ProcessFolder(cfg.InputFolderPath)
		if err != nil {
			return err
		}

		writer := outputs.NewWriter(logger, cfg.OutputFolderPath, cfg.Outputs)
		for _, name := range batch.FileNames() {
			result := batch.Results[name]
			if result.Err != nil {
				continue
			}
			if err := writer.WriteText(name, result.Raw, result.Cleaned); err != nil {
				return err
			}
			if err := writer.WriteTables(name, result.Tables, result.Structured); err != nil {
				return err
			}
		}
		if err := writer.WriteChecks(batch.Checks); err != nil {
			return err
		}

		report := checks.NewReport(batch.Checks)
		logger.Info("run complete",
			"run_id", batch.RunID,
			"files", len(batch.Results),
			"failed_files", batch.Failed(),
			"pass", report.Count(checks.Pass),
			"fail", report.Count(checks.Fail),
			"missing", report.Count(checks.Missing),
			"unknown", report.Count(checks.Unknown),
		)

		failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")) // red
		for _, f := range report.Failures() {
			line := fmt.Sprintf("%s | %s | %s | %-40s | difference %s",
				f.FileName, f.GroupID, f.AccountNumber, f.CheckName, f.Difference.String())
			fmt.Println(failStyle.Render("x " + line))
		}

		if report.Count(checks.Fail) == 0 {
			fmt.Printf("\nChecks: all %d check(s) reconciled\n", len(report.Items))
		} else {
			fmt.Printf("\nChecks: %d of %d check(s) failed\n", report.Count(checks.Fail), len(report.Items))
		}
		return nil
	},
}

var checksCmd = &cobra.Command{
	Use:   "checks [flags] [input_folder]",
	Short: "Process a folder of NAI files and print the checks report as CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.InputFolderPath = args[0]
		}
		if cfg.InputFolderPath == "" {
			return fmt.Errorf("no input folder given, pass one or set input_folder_path")
		}

		codes, err := cfg.CodeTable()
		if err != nil {
			return err
		}

		batch, err := service.NewProcessor(cfg, logger, codes).ProcessFolder(cfg.InputFolderPath)
		if err != nil {
			return err
		}

		// Logs go to stderr, so stdout stays clean for piping.
		_, err = os.Stdout.Write(csv.Checks(batch.Checks, cliFilters.toFilterFunc()))
		return err
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Parse one NAI file and dump the reconstructed hierarchy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		codes, err := cfg.CodeTable()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading input file: %w", err)
		}

		result, err := service.NewProcessor(cfg, logger, codes).ProcessBytes(data, filepath.Base(args[0]))
		pp.Println(result.Files)
		if err != nil {
			return err
		}

		report := checks.NewReport(result.Checks)
		fmt.Printf("\nChecks: %d pass, %d fail, %d missing, %d unknown\n",
			report.Count(checks.Pass), report.Count(checks.Fail),
			report.Count(checks.Missing), report.Count(checks.Unknown))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(*cobra.Command, []string) {
		fmt.Println(version)
	},
}

func newLogger() *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "nai",
		Level:           level,
	})
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	processCmd.Flags().String("input", "", "Input folder of NAI files")
	processCmd.Flags().String("output", "", "Output folder")
	processCmd.Flags().StringSlice("outputs", nil, "Outputs to write (checks, raw_text, clean_text, tables)")
	processCmd.Flags().Int("workers", 0, "Concurrent file workers")
	processCmd.Flags().String("codes", "", "Transaction codes file (yaml or xls)")

	checksCmd.Flags().String("input", "", "Input folder of NAI files")
	checksCmd.Flags().Int("workers", 0, "Concurrent file workers")
	checksCmd.Flags().String("codes", "", "Transaction codes file (yaml or xls)")
	checksCmd.Flags().StringVar(&cliFilters.status, "status", "", "Filter by status (PASS, FAIL, MISSING, UNKNOWN)")
	checksCmd.Flags().StringVar(&cliFilters.group, "group", "", "Filter by group id (substring)")
	checksCmd.Flags().StringVar(&cliFilters.account, "account", "", "Filter by account number (substring)")
	checksCmd.Flags().StringVar(&cliFilters.check, "check", "", "Filter by check name (substring)")

	inspectCmd.Flags().String("codes", "", "Transaction codes file (yaml or xls)")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(checksCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
