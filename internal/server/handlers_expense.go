package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Zergity/splitter/internal/calculator"
	"github.com/Zergity/splitter/internal/models"
	"github.com/Zergity/splitter/internal/money"
	"github.com/Zergity/splitter/internal/receipt"
	"github.com/Zergity/splitter/internal/service"
)

type splitRequest struct {
	MemberID string  `json:"memberId"`
	Value    float64 `json:"value"`
}

type itemRequest struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	OwnerID     string  `json:"ownerId"`
}

type expenseRequest struct {
	Description string         `json:"description"`
	Amount      float64        `json:"amount"`
	PaidBy      string         `json:"paidBy"`
	SplitType   string         `json:"splitType"`
	Splits      []splitRequest `json:"splits"`
	Items       []itemRequest  `json:"items"`
	Tags        []string       `json:"tags"`
	ReceiptURL  string         `json:"receiptUrl"`
	ReceiptDate string         `json:"receiptDate"`
}

func (req expenseRequest) toInput() service.ExpenseInput {
	return service.ExpenseInput{
		Description: req.Description,
		Amount:      money.FromFloat(req.Amount),
		PaidBy:      req.PaidBy,
		Strategy:    models.SplitType(req.SplitType),
		Splits: lo.Map(req.Splits, func(s splitRequest, _ int) calculator.SplitInput {
			return calculator.SplitInput{MemberID: s.MemberID, Value: s.Value}
		}),
		Items: lo.Map(req.Items, func(i itemRequest, _ int) models.LineItem {
			id := i.ID
			if id == "" {
				id = uuid.New().String()
			}
			return models.LineItem{
				ID:          id,
				Description: i.Description,
				Amount:      money.FromFloat(i.Amount),
				OwnerID:     i.OwnerID,
			}
		}),
		Tags:        req.Tags,
		ReceiptURL:  req.ReceiptURL,
		ReceiptDate: req.ReceiptDate,
	}
}

func (s *Server) currency(r *http.Request) string {
	group, err := s.groups.Get(r.Context(), s.groupID)
	if err != nil {
		return ""
	}
	return group.Currency
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	includeDeleted := r.URL.Query().Get("includeDeleted") == "true"
	expenses, err := s.ledger.ListExpenses(r.Context(), s.groupID, includeDeleted)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toExpenseViews(expenses, s.currency(r)))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	expense, err := s.ledger.CreateExpense(r.Context(), s.groupID, actor(r), req.toInput())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, toExpenseView(expense, s.currency(r)))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.ledger.GetExpense(r.Context(), s.groupID, chi.URLParam(r, "expenseID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toExpenseView(expense, s.currency(r)))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	expense, err := s.ledger.UpdateExpense(r.Context(), s.groupID, chi.URLParam(r, "expenseID"), actor(r), req.toInput())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toExpenseView(expense, s.currency(r)))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.SoftDelete(r.Context(), s.groupID, chi.URLParam(r, "expenseID"), actor(r)); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (s *Server) handleAcceptSplit(w http.ResponseWriter, r *http.Request) {
	expense, err := s.ledger.AcceptSplit(r.Context(), s.groupID, chi.URLParam(r, "expenseID"), actor(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toExpenseView(expense, s.currency(r)))
}

type forceAcceptRequest struct {
	MemberID string `json:"memberId"`
}

func (s *Server) handleForceAccept(w http.ResponseWriter, r *http.Request) {
	var req forceAcceptRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	expense, err := s.ledger.ForceAccept(r.Context(), s.groupID, chi.URLParam(r, "expenseID"), actor(r), req.MemberID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toExpenseView(expense, s.currency(r)))
}

type claimRequest struct {
	OwnerID string `json:"ownerId"`
}

func (s *Server) handleClaimItem(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	expense, err := s.ledger.ClaimItem(r.Context(), s.groupID,
		chi.URLParam(r, "expenseID"), chi.URLParam(r, "itemID"), req.OwnerID, actor(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toExpenseView(expense, s.currency(r)))
}

// handleDeriveValues converts an expense's computed splits back into the raw
// inputs of a different strategy, so the client can switch strategies in the
// edit form without losing the current amounts.
func (s *Server) handleDeriveValues(w http.ResponseWriter, r *http.Request) {
	expense, err := s.ledger.GetExpense(r.Context(), s.groupID, chi.URLParam(r, "expenseID"))
	if err != nil {
		respondError(w, err)
		return
	}

	target := models.SplitType(r.URL.Query().Get("strategy"))
	inputs := calculator.DeriveValues(expense.Amount, target, expense.Splits)
	respond(w, http.StatusOK, lo.Map(inputs, func(in calculator.SplitInput, _ int) splitRequest {
		return splitRequest{MemberID: in.MemberID, Value: in.Value}
	}))
}

type receiptRequest struct {
	Merchant        string        `json:"merchant"`
	Date            string        `json:"date"`
	Total           float64       `json:"total"`
	DiscountPercent float64       `json:"discountPercent"`
	NewDiscount     *float64      `json:"newDiscountPercent"`
	Items           []itemRequest `json:"items"`
	PaidBy          string        `json:"paidBy"`
	ReceiptURL      string        `json:"receiptUrl"`
}

// handleSeedReceipt turns externally extracted receipt data into a draft
// expense with all items unclaimed.
func (s *Server) handleSeedReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	extraction := &receipt.Extraction{
		Merchant:        req.Merchant,
		Date:            req.Date,
		Total:           money.FromFloat(req.Total),
		DiscountPercent: req.DiscountPercent,
		Items: lo.Map(req.Items, func(i itemRequest, _ int) receipt.ExtractedItem {
			return receipt.ExtractedItem{Description: i.Description, Amount: money.FromFloat(i.Amount)}
		}),
	}
	if req.NewDiscount != nil {
		extraction.Items = receipt.ApplyDiscount(extraction.Items, extraction.DiscountPercent, *req.NewDiscount)
		extraction.Total = 0 // retotal from the rescaled items
	}

	draft := receipt.SeedExpense(extraction, s.groupID, req.PaidBy, actor(r))
	expense, err := s.ledger.CreateExpense(r.Context(), s.groupID, actor(r), service.ExpenseInput{
		Description: draft.Description,
		Amount:      draft.Amount,
		PaidBy:      draft.PaidBy,
		Items:       draft.Items,
		ReceiptURL:  req.ReceiptURL,
		ReceiptDate: draft.ReceiptDate,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, toExpenseView(expense, s.currency(r)))
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.ledger.Balances(r.Context(), s.groupID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toBalanceViews(balances, s.currency(r)))
}

func (s *Server) handleSettlementPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.ledger.SettlementPlan(r.Context(), s.groupID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toTransferViews(plan, s.currency(r)))
}

type settlementRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

func (s *Server) handleRecordSettlement(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	expense, err := s.ledger.RecordSettlement(r.Context(), s.groupID, actor(r), req.From, req.To, money.FromFloat(req.Amount))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, toExpenseView(expense, s.currency(r)))
}
