// Package calculator implements the pure computations of the ledger engine:
// split calculation, item reconciliation, balance aggregation and settlement
// planning. Every function operates on an explicit snapshot and has no side
// effects; persistence and identity belong to the service layer.
package calculator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Zergity/splitter/internal/models"
	"github.com/Zergity/splitter/internal/money"
)

// Validation errors. Each names the invariant that failed; the calculator
// never corrects invalid input silently.
var (
	ErrNoParticipants     = errors.New("at least one participant is required")
	ErrNonPositiveAmount  = errors.New("amount must be greater than zero")
	ErrSplitSumMismatch   = errors.New("split amounts must equal the total")
	ErrPercentSumMismatch = errors.New("percentages must add up to 100")
	ErrNonPositiveShares  = errors.New("total shares must be greater than zero")
	ErrSettlementSplits   = errors.New("a settlement has exactly one recipient")
)

// SplitInput is one participating member's raw input: an exact amount in
// major units, a percentage, or a share count depending on the strategy.
// Non-participants are simply absent from the list.
type SplitInput struct {
	MemberID string
	Value    float64
}

// ValidateSplits checks the inputs for the given strategy before any
// computation. It must be called (and pass) before ComputeSplits.
func ValidateSplits(amount money.Cents, strategy models.SplitType, inputs []SplitInput) error {
	if len(inputs) == 0 {
		return ErrNoParticipants
	}
	if amount <= 0 {
		return ErrNonPositiveAmount
	}

	switch strategy {
	case models.SplitTypeExact:
		var sum money.Cents
		for _, in := range inputs {
			sum += money.FromFloat(in.Value)
		}
		if (sum - amount).Abs() > money.Tolerance {
			return fmt.Errorf("%w: splits sum to %.2f, total is %.2f",
				ErrSplitSumMismatch, sum.Float(), amount.Float())
		}

	case models.SplitTypePercentage:
		var sum float64
		for _, in := range inputs {
			sum += in.Value
		}
		if math.Abs(sum-100) > 0.01 {
			return fmt.Errorf("%w: currently %.1f%%", ErrPercentSumMismatch, sum)
		}

	case models.SplitTypeShares:
		var sum float64
		for _, in := range inputs {
			sum += in.Value
		}
		if sum <= 0 {
			return ErrNonPositiveShares
		}

	case models.SplitTypeSettlement:
		if len(inputs) != 1 {
			return ErrSettlementSplits
		}
	}

	return nil
}

// ComputeSplits turns a total plus per-member inputs into concrete splits.
// The payer's split starts accepted with AcceptedAt set; everyone else starts
// pending. Inputs must already have passed ValidateSplits.
//
// Equal, percentage and shares strategies allocate in whole cents with the
// remainder distributed largest-fraction-first (ties by input order), so the
// computed amounts always sum exactly to the total. Exact and settlement use
// the supplied values verbatim.
func ComputeSplits(amount money.Cents, strategy models.SplitType, inputs []SplitInput, payerID string, now time.Time) []models.Split {
	amounts := make([]money.Cents, len(inputs))

	switch strategy {
	case models.SplitTypeEqual:
		weights := make([]float64, len(inputs))
		for i := range weights {
			weights[i] = 1
		}
		amounts = allocate(amount, weights)

	case models.SplitTypePercentage:
		weights := make([]float64, len(inputs))
		for i, in := range inputs {
			weights[i] = in.Value
		}
		amounts = allocate(amount, weights)

	case models.SplitTypeShares:
		weights := make([]float64, len(inputs))
		var total float64
		for i, in := range inputs {
			weights[i] = in.Value
			total += in.Value
		}
		if total <= 0 {
			// Guarded by ValidateSplits; zero everything rather than divide.
			break
		}
		amounts = allocate(amount, weights)

	default: // exact, settlement
		for i, in := range inputs {
			amounts[i] = money.FromFloat(in.Value)
		}
	}

	splits := make([]models.Split, len(inputs))
	for i, in := range inputs {
		s := models.Split{
			MemberID: in.MemberID,
			Value:    in.Value,
			Amount:   amounts[i],
		}
		if in.MemberID == payerID {
			s.Accepted = true
			at := now
			s.AcceptedAt = &at
		}
		splits[i] = s
	}
	return splits
}

// DeriveValues converts computed splits back into raw inputs for a different
// display strategy, so the client can switch strategies without losing the
// current per-member amounts.
func DeriveValues(amount money.Cents, target models.SplitType, splits []models.Split) []SplitInput {
	inputs := make([]SplitInput, len(splits))
	for i, s := range splits {
		in := SplitInput{MemberID: s.MemberID}
		switch target {
		case models.SplitTypeEqual:
			// Values are unused for equal splits.
		case models.SplitTypePercentage:
			if amount != 0 {
				in.Value = math.Round(float64(s.Amount)/float64(amount)*10000) / 100
			}
		default: // exact, shares, settlement
			in.Value = s.Amount.Float()
		}
		inputs[i] = in
	}
	return inputs
}

// allocate divides amount proportionally to weights in whole cents. Each
// share is floored, then the leftover cents are handed out one at a time to
// the entries with the largest fractional parts (ties broken by input order).
// A negative leftover, possible when weights overshoot within tolerance, is
// taken back from the smallest fractional parts.
func allocate(amount money.Cents, weights []float64) []money.Cents {
	shares := make([]money.Cents, len(weights))
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return shares
	}

	fracs := make([]float64, len(weights))
	var assigned money.Cents
	for i, w := range weights {
		exact := float64(amount) * w / total
		base := money.Cents(math.Floor(exact))
		shares[i] = base
		fracs[i] = exact - float64(base)
		assigned += base
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fracs[order[a]] > fracs[order[b]]
	})

	leftover := amount - assigned
	for i := 0; leftover > 0; i = (i + 1) % len(order) {
		shares[order[i]]++
		leftover--
	}
	for i := len(order) - 1; leftover < 0; i = (i - 1 + len(order)) % len(order) {
		shares[order[i]]--
		leftover++
	}
	return shares
}
