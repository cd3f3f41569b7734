package httpserver

import "net/http"

type amountRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	bal, alw, err := s.wallet.Balance(r.Context(), caller)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"balance":   bal,
		"allowance": alw,
	})
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	if err := s.wallet.Approve(r.Context(), caller, req.Amount); err != nil {
		writeMappedError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"allowance": req.Amount})
}

func (s *Server) mint(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	if err := s.wallet.Mint(r.Context(), caller, req.Amount); err != nil {
		writeMappedError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"minted": req.Amount})
}
