package parsers

import (
	"os"
	"path/filepath"
	"testing"

	"expensas-reconciler/internal/models"
	"expensas-reconciler/pkg/errors"
)

// writeTempCSV writes content to a file in a test temp directory and returns
// its path.
func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

func TestPaymentParser_ParsePayments(t *testing.T) {
	content := `amount,timestamp,payer_name,payer_email,payer_phone,reference,description
1500.00,2024-03-07,Juan Perez,juan@example.com,11 4444 5555,expensas marzo,transferencia
"$2,000.00",,Ana Diaz,,,expensas,
`
	path := writeTempCSV(t, "payments.csv", content)

	parser := NewPaymentParser(nil)
	payments, stats, err := parser.ParsePayments(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(payments) != 2 {
		t.Fatalf("Expected 2 payments, got %d", len(payments))
	}
	if stats.ParsedRows != 2 || stats.HasErrors() {
		t.Errorf("Unexpected stats: %s", stats)
	}

	if payments[0].PayerEmail != "juan@example.com" {
		t.Errorf("Expected payer email preserved, got %q", payments[0].PayerEmail)
	}
	if !payments[0].HasTimestamp() {
		t.Error("Expected first payment to carry a timestamp")
	}
	if payments[1].Amount.String() != "2000" {
		t.Errorf("Expected currency symbols stripped, got %s", payments[1].Amount)
	}
	if payments[1].HasTimestamp() {
		t.Error("Expected second payment to have no timestamp")
	}
}

func TestPaymentParser_ColumnAliases(t *testing.T) {
	content := `importe,fecha,nombre,correo,telefono
995.00,2024-03-05,Maria Gomez,maria@example.com,11 2222 3333
`
	path := writeTempCSV(t, "pagos.csv", content)

	parser := NewPaymentParser(nil)
	payments, _, err := parser.ParsePayments(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("Expected 1 payment, got %d", len(payments))
	}

	p := payments[0]
	if p.Amount.String() != "995" {
		t.Errorf("Expected aliased amount column, got %s", p.Amount)
	}
	if p.PayerName != "Maria Gomez" || p.PayerEmail != "maria@example.com" || p.PayerPhone != "11 2222 3333" {
		t.Errorf("Expected aliased payer columns, got %+v", p)
	}
	if !p.HasTimestamp() {
		t.Error("Expected aliased date column to populate timestamp")
	}
}

func TestPaymentParser_UnknownColumnsToExtras(t *testing.T) {
	content := `amount,payer_name,cbu,branch
100.00,Ana Diaz,2850590940090,004
`
	path := writeTempCSV(t, "payments.csv", content)

	parser := NewPaymentParser(nil)
	payments, _, err := parser.ParsePayments(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("Expected 1 payment, got %d", len(payments))
	}

	extras := payments[0].Extras
	if extras["cbu"] != "2850590940090" || extras["branch"] != "004" {
		t.Errorf("Expected unknown columns in extras, got %v", extras)
	}
	if _, ok := extras["payer_name"]; ok {
		t.Error("Recognized columns must not leak into extras")
	}
}

func TestPaymentParser_RowErrorsCollected(t *testing.T) {
	content := `amount,payer_name
100.00,Ana Diaz
not-a-number,Juan Perez

-50,Maria Gomez
200.00,Pedro Lopez
`
	path := writeTempCSV(t, "payments.csv", content)

	parser := NewPaymentParser(nil)
	payments, stats, err := parser.ParsePayments(path)
	if err != nil {
		t.Fatalf("Row errors must not fail the whole file: %v", err)
	}

	if len(payments) != 2 {
		t.Errorf("Expected 2 good payments, got %d", len(payments))
	}
	if stats.ParsedRows != 2 {
		t.Errorf("Expected 2 parsed rows, got %d", stats.ParsedRows)
	}
	if stats.SkippedRows != 2 {
		t.Errorf("Expected 2 skipped rows, got %d", stats.SkippedRows)
	}
	if len(stats.Errors) != 2 {
		t.Errorf("Expected 2 collected errors, got %d", len(stats.Errors))
	}
	// Blank line is ignored entirely, not counted as a row
	if stats.TotalRows != 4 {
		t.Errorf("Expected 4 total rows, got %d", stats.TotalRows)
	}
}

func TestPaymentParser_MissingAmountColumn(t *testing.T) {
	content := `payer_name,reference
Ana Diaz,expensas
`
	path := writeTempCSV(t, "payments.csv", content)

	parser := NewPaymentParser(nil)
	_, _, err := parser.ParsePayments(path)
	if err == nil {
		t.Fatal("Expected error for missing amount column")
	}
	if !errors.IsCategory(err, errors.CategoryParse) {
		t.Errorf("Expected parse category error, got %v", err)
	}
}

func TestPaymentParser_FileNotFound(t *testing.T) {
	parser := NewPaymentParser(nil)
	_, _, err := parser.ParsePayments(filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !errors.IsCategory(err, errors.CategoryFile) {
		t.Errorf("Expected file category error, got %v", err)
	}
}

func TestResidentParser_ParseResidents(t *testing.T) {
	content := `id,first_name,last_name,email,phone
r1,Ana,Diaz,ana@example.com,11 4444 5555
r2,Juan,Perez,juan@example.com,
`
	path := writeTempCSV(t, "residents.csv", content)

	parser := NewResidentParser(nil)
	residents, stats, err := parser.ParseResidents(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(residents) != 2 {
		t.Fatalf("Expected 2 residents, got %d", len(residents))
	}
	if stats.HasErrors() {
		t.Errorf("Unexpected row errors: %v", stats.Errors)
	}
	if residents[0].FullName() != "Ana Diaz" {
		t.Errorf("Expected 'Ana Diaz', got %q", residents[0].FullName())
	}
	if residents[1].Phone != "" {
		t.Errorf("Expected empty phone, got %q", residents[1].Phone)
	}
}

func TestResidentParser_InvalidRowSkipped(t *testing.T) {
	content := `id,first_name,last_name,email
r1,Ana,Diaz,ana@example.com
r2,Juan,Perez,
`
	path := writeTempCSV(t, "residents.csv", content)

	parser := NewResidentParser(nil)
	residents, stats, err := parser.ParseResidents(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(residents) != 1 {
		t.Errorf("Expected 1 resident, got %d", len(residents))
	}
	if len(stats.Errors) != 1 {
		t.Errorf("Expected 1 row error for missing email, got %d", len(stats.Errors))
	}
}

func TestInvoiceParser_OpenOnlyFilter(t *testing.T) {
	content := `id,resident_id,amount,status,due_date,period_month,period_year,community_name
i1,r1,1000.00,pending,2024-03-10,3,2024,Los Alamos
i2,r1,950.00,confirmed,,2,2024,Los Alamos
i3,r2,1000.00,payment_reported,,3,2024,Los Alamos
i4,r2,900.00,in-arrears,,1,2024,Los Alamos
`
	path := writeTempCSV(t, "invoices.csv", content)

	parser := NewInvoiceParser(nil)
	invoices, stats, err := parser.ParseInvoices(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(invoices) != 2 {
		t.Fatalf("Expected 2 open invoices, got %d", len(invoices))
	}
	// Filtered rows still parse successfully
	if stats.ParsedRows != 4 {
		t.Errorf("Expected 4 parsed rows, got %d", stats.ParsedRows)
	}
	for _, invoice := range invoices {
		if !invoice.IsOpen() {
			t.Errorf("Invoice %s is not open", invoice.ID)
		}
	}
	if invoices[1].Status != models.StatusPaymentReported {
		t.Errorf("Expected payment-reported status, got %s", invoices[1].Status)
	}
}

func TestInvoiceParser_IncludeClosed(t *testing.T) {
	content := `id,resident_id,amount,status,due_date,period_month,period_year,community_name
i1,r1,1000.00,pending,,3,2024,
i2,r1,950.00,confirmed,,2,2024,
`
	path := writeTempCSV(t, "invoices.csv", content)

	config := DefaultInvoiceParserConfig()
	config.OpenOnly = false
	parser := NewInvoiceParser(config)

	invoices, _, err := parser.ParseInvoices(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(invoices) != 2 {
		t.Errorf("Expected both invoices kept, got %d", len(invoices))
	}
}

func TestInvoiceParser_Aliases(t *testing.T) {
	content := `expensa_id,resident,importe,estado,vencimiento,mes,anio,barrio
i1,r1,"1,250.00",pendiente,,3,2024,Los Alamos
i2,r1,1000.00,pending,10/03/2024,3,2024,Los Alamos
`
	path := writeTempCSV(t, "expensas.csv", content)

	parser := NewInvoiceParser(nil)
	invoices, stats, err := parser.ParseInvoices(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// "pendiente" is not a recognized status, so that row is a row error
	if len(invoices) != 1 {
		t.Fatalf("Expected 1 invoice, got %d", len(invoices))
	}
	if len(stats.Errors) != 1 {
		t.Errorf("Expected 1 row error for unknown status, got %d", len(stats.Errors))
	}

	invoice := invoices[0]
	if invoice.ID != "i2" || invoice.ResidentID != "r1" {
		t.Errorf("Expected aliased id columns, got %+v", invoice)
	}
	if !invoice.HasDueDate() {
		t.Error("Expected aliased due date column to be parsed")
	}
	if invoice.CommunityName != "Los Alamos" {
		t.Errorf("Expected aliased community column, got %q", invoice.CommunityName)
	}
}

func TestParseStats_String(t *testing.T) {
	stats := &ParseStats{TotalRows: 5, ParsedRows: 3, SkippedRows: 2}
	got := stats.String()
	expected := "ParseStats{Total: 5, Parsed: 3, Skipped: 2, Errors: 0}"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}
