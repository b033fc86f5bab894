package httpapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// handleKEKRotate wraps signing.Pipeline.RotateWalletKEK, gated by
// withAdmin on a shared X-Admin-Token secret rather than a bearer session.
func (s *Server) handleKEKRotate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.pipeline.RotateWalletKEK(ps.ByName("name")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
