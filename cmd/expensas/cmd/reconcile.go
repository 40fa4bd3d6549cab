package cmd

import (
	"fmt"
	"io"
	"os"

	"expensas-reconciler/cmd/expensas/config"
	"expensas-reconciler/internal/parsers"
	"expensas-reconciler/internal/reconciler"
	"expensas-reconciler/internal/reporter"
	"expensas-reconciler/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	paymentsFile  string
	residentsFile string
	invoicesFile  string
	outputFormat  string
	outputFile    string
	autoThreshold float64
	noClamp       bool
	workers       int
	includeClosed bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Match payment records against residents and open invoices",
	Long: `Reconcile loads payment records, residents and invoices from CSV files,
matches every payment to the resident and invoice it most likely pays, and
splits the batch into auto-applied matches and a manual-review queue.

This command requires:
- A payments file (CSV format; extra columns are carried through)
- A residents file (CSV format)
- An invoices file (CSV format; closed invoices are filtered out by default)

Examples:
  # Basic reconciliation
  expensas reconcile --payments payments.csv --residents residents.csv --invoices invoices.csv

  # JSON report to a file
  expensas reconcile -p payments.csv -r residents.csv -i invoices.csv \
    --output-format json --output-file report.json

  # Stricter auto-apply gate, parallel batch
  expensas reconcile -p payments.csv -r residents.csv -i invoices.csv \
    --auto-apply-threshold 85 --workers 4`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&paymentsFile, "payments", "p", "", "path to payment records CSV file (required)")
	reconcileCmd.Flags().StringVarP(&residentsFile, "residents", "r", "", "path to residents CSV file (required)")
	reconcileCmd.Flags().StringVarP(&invoicesFile, "invoices", "i", "", "path to invoices CSV file (required)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Matching configuration flags
	reconcileCmd.Flags().Float64Var(&autoThreshold, "auto-apply-threshold", 70, "minimum blended confidence to auto-apply a match (0-100)")
	reconcileCmd.Flags().BoolVar(&noClamp, "no-clamp", false, "report raw boosted confidences instead of capping at 100")
	reconcileCmd.Flags().IntVar(&workers, "workers", 1, "number of parallel workers for batch processing")
	reconcileCmd.Flags().BoolVar(&includeClosed, "include-closed", false, "keep invoices in closed statuses as match candidates")

	reconcileCmd.MarkFlagRequired("payments")
	reconcileCmd.MarkFlagRequired("residents")
	reconcileCmd.MarkFlagRequired("invoices")

	viper.BindPFlag("payments", reconcileCmd.Flags().Lookup("payments"))
	viper.BindPFlag("residents", reconcileCmd.Flags().Lookup("residents"))
	viper.BindPFlag("invoices", reconcileCmd.Flags().Lookup("invoices"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("auto-apply-threshold", reconcileCmd.Flags().Lookup("auto-apply-threshold"))
	viper.BindPFlag("no-clamp", reconcileCmd.Flags().Lookup("no-clamp"))
	viper.BindPFlag("workers", reconcileCmd.Flags().Lookup("workers"))
	viper.BindPFlag("include-closed", reconcileCmd.Flags().Lookup("include-closed"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Values from viper allow overrides from config file and environment
	paymentsFile = viper.GetString("payments")
	residentsFile = viper.GetString("residents")
	invoicesFile = viper.GetString("invoices")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	autoThreshold = viper.GetFloat64("auto-apply-threshold")
	noClamp = viper.GetBool("no-clamp")
	workers = viper.GetInt("workers")
	includeClosed = viper.GetBool("include-closed")

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s': must be console, json or csv", outputFormat)
	}

	if autoThreshold < 0 || autoThreshold > 100 {
		return fmt.Errorf("auto-apply threshold must be between 0 and 100, got %.1f", autoThreshold)
	}

	if workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", workers)
	}

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger().WithComponent("reconcile_command")

	payments, paymentStats, err := parsers.NewPaymentParser(nil).ParsePayments(paymentsFile)
	if err != nil {
		return err
	}
	logRowErrors(log, paymentsFile, paymentStats)

	residents, residentStats, err := parsers.NewResidentParser(nil).ParseResidents(residentsFile)
	if err != nil {
		return err
	}
	logRowErrors(log, residentsFile, residentStats)

	invoiceParserConfig := config.CreateInvoiceParserConfig(includeClosed)
	invoices, invoiceStats, err := parsers.NewInvoiceParser(invoiceParserConfig).ParseInvoices(invoicesFile)
	if err != nil {
		return err
	}
	logRowErrors(log, invoicesFile, invoiceStats)

	engine := reconciler.NewEngine(
		config.CreateEngineConfig(autoThreshold, workers),
		config.CreateMatchingConfig(noClamp),
	)

	outcome := engine.ReconcileBatch(payments, residents, invoices)

	reportConfig := reporter.DefaultReportConfig()
	reportConfig.Format = reporter.OutputFormat(outputFormat)

	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	var writer io.Writer = os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	return generator.GenerateReport(outcome, writer)
}

func logRowErrors(log logger.Logger, path string, stats *parsers.ParseStats) {
	if stats == nil || !stats.HasErrors() {
		return
	}

	log.WithFields(logger.Fields{
		"file":    path,
		"skipped": stats.SkippedRows,
	}).Warnf("Skipped %d rows with errors", stats.SkippedRows)

	for _, rowErr := range stats.Errors {
		log.WithError(rowErr).Debug("Row rejected")
	}
}
