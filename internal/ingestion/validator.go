// Package ingestion validates parsed transaction rows at the boundary and
// converts them into canonical ledger rows. Validation is atomic per
// document: one bad row rejects the whole submission.
package ingestion

import (
	"regexp"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"deal-parity/internal/domain"
	"deal-parity/internal/idhash"
)

// Row is one parsed transaction row as submitted by a client.
type Row struct {
	Date       string `json:"date"`
	Amount     string `json:"amount"` // decimal string, e.g. "-1250.50"
	AccountID  string `json:"account_id"`
	Descriptor string `json:"descriptor"`
}

// Date layouts accepted at the boundary. All carry four-digit years;
// two-digit years are ambiguous and rejected by construction.
var dateLayouts = []string{
	time.DateOnly,
	"02/01/2006",
	"02-01-2006",
}

// currencyTokenRe finds candidate ISO 4217 tokens inside descriptors.
var currencyTokenRe = regexp.MustCompile(`\b[A-Z]{3}\b`)

var centsFactor = decimal.NewFromInt(100)

// ValidateRows converts submitted rows into ledger rows for the deal.
// Returns the first validation error encountered; on success every output
// row carries a content-derived txn_id and a fresh row UUID.
func ValidateRows(deal *domain.Deal, documentID string, rows []Row, nowMS int64) ([]*domain.RawTransaction, error) {
	out := make([]*domain.RawTransaction, 0, len(rows))
	for i, row := range rows {
		tx, err := validateRow(deal, documentID, i, row, nowMS)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func validateRow(deal *domain.Deal, documentID string, idx int, row Row, nowMS int64) (*domain.RawTransaction, error) {
	date, err := parseDate(row.Date)
	if err != nil {
		return nil, &InvalidSchemaError{Row: idx, Field: "date", Reason: err.Error()}
	}

	cents, err := parseAmountCents(row.Amount)
	if err != nil {
		return nil, &InvalidSchemaError{Row: idx, Field: "amount", Reason: err.Error()}
	}
	if cents == 0 {
		return nil, &InvalidSchemaError{Row: idx, Field: "amount", Reason: "zero amounts are not ledger events"}
	}

	if row.AccountID == "" {
		return nil, &InvalidSchemaError{Row: idx, Field: "account_id", Reason: "must not be empty"}
	}
	if row.Descriptor == "" {
		return nil, &InvalidSchemaError{Row: idx, Field: "descriptor", Reason: "must not be empty"}
	}

	if token := conflictingCurrencyToken(row.Descriptor, deal.Currency); token != "" {
		return nil, &CurrencyMismatchError{Row: idx, Token: token, DealCurrency: deal.Currency}
	}

	norm := domain.NormalizeDescriptor(row.Descriptor)
	return &domain.RawTransaction{
		TxnID:                idhash.ComputeTxnID(documentID, row.AccountID, date, cents, norm),
		RowID:                uuid.NewString(),
		DealID:               deal.ID,
		DocumentID:           documentID,
		TxnDate:              date,
		AccountID:            row.AccountID,
		SignedAmountCents:    cents,
		RawDescriptor:        row.Descriptor,
		NormalizedDescriptor: norm,
		CreatedAt:            nowMS,
	}, nil
}

// parseDate accepts the known layouts and normalizes to YYYY-MM-DD.
func parseDate(s string) (string, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format(time.DateOnly), nil
		}
	}
	return "", &dateError{input: s}
}

type dateError struct{ input string }

func (e *dateError) Error() string {
	return "unrecognized or ambiguous date " + e.input
}

// parseAmountCents parses a decimal amount and rounds to integer cents
// with banker's rounding. No floats are involved at any point.
func parseAmountCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.Mul(centsFactor).RoundBank(0).IntPart(), nil
}

// conflictingCurrencyToken scans a descriptor for ISO 4217 codes that
// differ from the deal currency. Tokens that merely look like codes but
// are not currencies ("KRA", "POS") pass through.
func conflictingCurrencyToken(descriptor, dealCurrency string) string {
	for _, token := range currencyTokenRe.FindAllString(descriptor, -1) {
		if token == dealCurrency {
			continue
		}
		if money.GetCurrency(token) != nil {
			return token
		}
	}
	return ""
}
