// Package receipt turns externally extracted receipt data into draft
// expenses. Image OCR itself lives outside the server; this package only
// defines the extraction contract and the arithmetic applied to its output.
package receipt

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/Zergity/splitter/internal/models"
	"github.com/Zergity/splitter/internal/money"
)

// ExtractedItem is one line of a parsed receipt.
type ExtractedItem struct {
	Description string      `json:"description"`
	Amount      money.Cents `json:"amount"`
}

// Extraction is the structured result of parsing a receipt image.
type Extraction struct {
	Items           []ExtractedItem `json:"items"`
	Merchant        string          `json:"merchant,omitempty"`
	Date            string          `json:"date,omitempty"`
	DiscountPercent float64         `json:"discountPercent,omitempty"`
	Total           money.Cents     `json:"total"`
}

// Extractor parses a receipt image into structured line items. The server
// ships without a built-in implementation; deployments plug in their own.
type Extractor interface {
	Extract(ctx context.Context, imageURL string) (*Extraction, error)
}

// ApplyDiscount rescales item prices from one percentage discount to another.
// Each price is divided back to its undiscounted value and the new discount
// applied, rounded to whole cents per item.
func ApplyDiscount(items []ExtractedItem, oldPercent, newPercent float64) []ExtractedItem {
	if oldPercent == newPercent {
		return items
	}

	rescaled := make([]ExtractedItem, len(items))
	for i, item := range items {
		original := float64(item.Amount) / (1 - oldPercent/100)
		rescaled[i] = ExtractedItem{
			Description: item.Description,
			Amount:      money.Cents(math.Round(original * (1 - newPercent/100))),
		}
	}
	return rescaled
}

// SeedExpense builds a draft expense from an extraction. Every item starts
// unclaimed, so the draft reconciles to a single payer split and shows as
// incomplete until members claim their items.
func SeedExpense(extraction *Extraction, groupID, payerID, creatorID string) *models.Expense {
	items := make([]models.LineItem, len(extraction.Items))
	var total money.Cents
	for i, item := range extraction.Items {
		items[i] = models.LineItem{
			ID:          uuid.New().String(),
			Description: item.Description,
			Amount:      item.Amount,
		}
		total += item.Amount
	}

	amount := extraction.Total
	if amount == 0 {
		amount = total
	}

	description := extraction.Merchant
	if description == "" {
		description = "Receipt"
	}

	return &models.Expense{
		GroupID:     groupID,
		Description: description,
		Amount:      amount,
		PaidBy:      payerID,
		CreatedBy:   creatorID,
		Strategy:    models.SplitTypeExact,
		Items:       items,
		ReceiptDate: extraction.Date,
	}
}
