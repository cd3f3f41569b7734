package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/tokenstall/internal/model"
)

type sellRequest struct {
	Price      int64  `json:"price"`
	Title      string `json:"title"`
	RedirectTo string `json:"redirect_to"`
}

type updateItemRequest struct {
	Title      string `json:"title"`
	RedirectTo string `json:"redirect_to"`
}

type setBeneficiaryRequest struct {
	Beneficiary uuid.UUID `json:"beneficiary"`
}

type itemResponse struct {
	ID            int64     `json:"id"`
	Seller        uuid.UUID `json:"seller"`
	Title         string    `json:"title"`
	RedirectTo    string    `json:"redirect_to"`
	Price         int64     `json:"price"`
	CreatedAt     time.Time `json:"created_at"`
	PurchaseCount int64     `json:"purchase_count"`
}

type purchaseResponse struct {
	ID     int64     `json:"id"`
	ItemID int64     `json:"item_id"`
	Title  string    `json:"title"`
	Price  int64     `json:"price"`
	Date   time.Time `json:"date"`
}

type itemPurchaseResponse struct {
	ID    int64     `json:"id"`
	Buyer uuid.UUID `json:"buyer"`
	Date  time.Time `json:"date"`
}

func toItemResponse(it model.Item) itemResponse {
	return itemResponse{
		ID:            it.ID,
		Seller:        it.Seller,
		Title:         it.Title,
		RedirectTo:    it.RedirectTo,
		Price:         it.Price,
		CreatedAt:     it.CreatedAt,
		PurchaseCount: it.PurchaseCount,
	}
}

func itemIDFromRequest(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) sell(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	var req sellRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	id, err := s.market.Sell(r.Context(), caller, req.Price, req.Title, req.RedirectTo)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"item_id": id})
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	itemID, err := itemIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid item id")
		return
	}
	var req updateItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	if err := s.market.UpdateItem(r.Context(), caller, itemID, req.Title, req.RedirectTo); err != nil {
		writeMappedError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"item_id": itemID})
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid item id")
		return
	}
	it, err := s.market.Item(r.Context(), itemID)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, toItemResponse(*it))
}

func (s *Server) buy(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	itemID, err := itemIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid item id")
		return
	}

	purchaseID, err := s.market.Buy(r.Context(), caller, itemID)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"purchase_id": purchaseID})
}

func (s *Server) itemPurchases(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	itemID, err := itemIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid item id")
		return
	}

	rows, err := s.market.ItemPurchases(r.Context(), caller, itemID)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	out := make([]itemPurchaseResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, itemPurchaseResponse{ID: p.ID, Buyer: p.Buyer, Date: p.Date})
	}
	writeSuccess(w, http.StatusOK, out)
}

func (s *Server) myItems(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	items, err := s.market.MyItems(r.Context(), caller)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (s *Server) myPurchases(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	purchases, err := s.market.MyPurchases(r.Context(), caller)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	out := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, purchaseResponse{ID: p.ID, ItemID: p.ItemID, Title: p.Title, Price: p.Price, Date: p.Date})
	}
	writeSuccess(w, http.StatusOK, out)
}

func (s *Server) myIncome(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	total, err := s.market.MyIncome(r.Context(), caller)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"income": total})
}

func (s *Server) platformIncome(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	total, err := s.market.PlatformIncome(r.Context(), caller)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"income": total})
}

func (s *Server) setBeneficiary(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	var req setBeneficiaryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	if err := s.market.SetBeneficiary(r.Context(), caller, req.Beneficiary); err != nil {
		writeMappedError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"beneficiary": req.Beneficiary})
}
