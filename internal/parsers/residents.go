package parsers

import (
	"fmt"

	"expensas-reconciler/internal/models"
	"expensas-reconciler/pkg/logger"
)

// ResidentParserConfig configures CSV parsing of resident candidates
type ResidentParserConfig struct {
	*ParseConfig
}

// DefaultResidentParserConfig returns a resident parser configuration with
// common header aliases
func DefaultResidentParserConfig() *ResidentParserConfig {
	base := DefaultParseConfig()
	base.ColumnAliases = map[string]string{
		"resident_id": "id",
		"firstname":   "first_name",
		"nombre":      "first_name",
		"lastname":    "last_name",
		"apellido":    "last_name",
		"mail":        "email",
		"correo":      "email",
		"telefono":    "phone",
		"mobile":      "phone",
	}
	return &ResidentParserConfig{ParseConfig: base}
}

// ResidentParser parses resident candidates from CSV files
type ResidentParser struct {
	*baseParser
}

// NewResidentParser creates a resident parser with the given configuration
func NewResidentParser(config *ResidentParserConfig) *ResidentParser {
	if config == nil {
		config = DefaultResidentParserConfig()
	}
	return &ResidentParser{baseParser: newBaseParser(config.ParseConfig, "resident_parser")}
}

// ParseResidents reads every resident from the file
func (rp *ResidentParser) ParseResidents(path string) ([]*models.Resident, *ParseStats, error) {
	var residents []*models.Resident
	stats := &ParseStats{}

	err := rp.readRows(path, []string{"id", "first_name", "last_name", "email"}, stats, func(r *row) error {
		resident := &models.Resident{
			ID:        r.get("id"),
			FirstName: r.get("first_name"),
			LastName:  r.get("last_name"),
			Email:     r.get("email"),
			Phone:     r.get("phone"),
		}

		if err := resident.Validate(); err != nil {
			return fmt.Errorf("invalid resident data: %w", err)
		}

		residents = append(residents, resident)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	rp.log.WithFields(logger.Fields{
		"file":   path,
		"parsed": stats.ParsedRows,
		"errors": len(stats.Errors),
	}).Info("Parsed residents")

	return residents, stats, nil
}
