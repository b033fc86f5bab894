package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/defisafe/walletd/internal/signing"
	"github.com/defisafe/walletd/internal/walleterr"
)

type createWalletRequest struct {
	Name        string   `json:"name"`
	QuantumSafe bool     `json:"quantum_safe"`
	Password    string   `json:"password"`
	Networks    []string `json:"networks"`
}

type createWalletResponse struct {
	walletDTO
	Mnemonic string `json:"mnemonic"`
}

// handleCreateWallet displays the mnemonic exactly once in this response
// body — it is never persisted; the caller is responsible for not logging
// the response.
func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, walleterr.Validation("INVALID_BODY", "request body is not valid JSON"))
		return
	}

	info, mnemonic, err := s.pipeline.CreateWallet(r.Context(), signing.CreateWalletRequest{
		Name:        req.Name,
		Password:    req.Password,
		QuantumSafe: req.QuantumSafe,
		Networks:    req.Networks,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	var phrase string
	_ = mnemonic.With(func(b []byte) error {
		phrase = string(b)
		return nil
	})
	mnemonic.Close()

	writeJSON(w, http.StatusOK, createWalletResponse{walletDTO: toWalletDTO(*info), Mnemonic: phrase})
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	wallets, err := s.pipeline.ListWallets()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletDTOs(wallets))
}

func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.pipeline.DeleteWallet(ps.ByName("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	network := r.URL.Query().Get("network")
	if network == "" {
		writeError(w, walleterr.Validation("MISSING_NETWORK", "network query parameter is required"))
		return
	}
	balance, err := s.pipeline.GetBalance(r.Context(), ps.ByName("name"), network)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance})
}

type sendRequest struct {
	To              string `json:"to"`
	Amount          string `json:"amount"`
	Network         string `json:"network"`
	Password        string `json:"password"`
	ClientRequestID string `json:"client_request_id"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, walleterr.Validation("INVALID_BODY", "request body is not valid JSON"))
		return
	}

	result, err := s.pipeline.Send(r.Context(), signing.SendRequest{
		WalletName:      ps.ByName("name"),
		ToAddress:       req.To,
		Amount:          req.Amount,
		Network:         req.Network,
		Password:        req.Password,
		ClientRequestID: req.ClientRequestID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tx_hash": result.TxHash})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	writeJSON(w, http.StatusOK, toTxRecordDTOs(s.pipeline.History(ps.ByName("name"))))
}

type rotateKeyRequest struct {
	Password      string `json:"password"`
	ExpectedEpoch uint64 `json:"expected_epoch"`
}

func (s *Server) handleRotateKey(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req rotateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, walleterr.Validation("INVALID_BODY", "request body is not valid JSON"))
		return
	}
	if err := s.pipeline.RotateSigningKey(r.Context(), ps.ByName("name"), req.Password, req.ExpectedEpoch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
