package patientapi

import (
	"net/http"

	"github.com/linnemanlabs/pulse/internal/triage"
)

func (a *API) handleTriage(w http.ResponseWriter, r *http.Request) {
	entries, err := a.ranker.Rank(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "triage ranking failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []triage.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
