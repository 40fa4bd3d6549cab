// Package config assembles the parser, matcher and engine configurations
// used by the CLI from flag values.
package config

import (
	"expensas-reconciler/internal/matcher"
	"expensas-reconciler/internal/parsers"
	"expensas-reconciler/internal/reconciler"
)

// CreateMatchingConfig creates the matching calibration with CLI overrides
func CreateMatchingConfig(noClamp bool) *matcher.MatchingConfig {
	config := matcher.DefaultMatchingConfig()
	config.ClampConfidence = !noClamp
	return config
}

// CreateEngineConfig creates an engine configuration with CLI overrides
func CreateEngineConfig(autoApplyThreshold float64, workers int) *reconciler.Config {
	config := reconciler.DefaultConfig()
	config.AutoApplyThreshold = autoApplyThreshold
	config.MaxWorkers = workers
	return config
}

// CreateInvoiceParserConfig creates an invoice parser configuration.
// includeClosed disables the default open-status pre-filter.
func CreateInvoiceParserConfig(includeClosed bool) *parsers.InvoiceParserConfig {
	config := parsers.DefaultInvoiceParserConfig()
	config.OpenOnly = !includeClosed
	return config
}
