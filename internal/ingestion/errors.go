package ingestion

import "fmt"

// InvalidSchemaError reports a row that cannot be accepted into the ledger.
// The whole document is rejected: partial ingestion would make the raw
// transaction hash depend on which rows happened to pass.
type InvalidSchemaError struct {
	Row    int // zero-based position in the submitted document
	Field  string
	Reason string
}

func (e *InvalidSchemaError) Error() string {
	return fmt.Sprintf("row %d: invalid %s: %s", e.Row, e.Field, e.Reason)
}

// CurrencyMismatchError reports a currency token conflicting with the
// deal's currency.
type CurrencyMismatchError struct {
	Row          int
	Token        string
	DealCurrency string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("row %d: currency %s conflicts with deal currency %s", e.Row, e.Token, e.DealCurrency)
}
