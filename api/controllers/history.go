package controllers

import (
	"net/http"
	"strings"

	"github.com/imobflow/leadrotor/api/responses"
	"github.com/imobflow/leadrotor/api/validators"
	"github.com/imobflow/leadrotor/internal/history"
	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
	"github.com/imobflow/leadrotor/pkg/logger"
)

const maxHistoryLimit = 200

// HistoryList returns ledger entries newest first, filtered by the query
// string and paginated by opaque cursor.
func HistoryList(svc history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "history service unavailable"))
			return
		}

		params := history.ListParams{}

		start, err := validators.ParseQueryTime(r, "start")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Start = start

		end, err := validators.ParseQueryTime(r, "end")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.End = end

		agentID, err := validators.ParseQueryUUID(r, "user")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.AgentID = agentID

		queueID, err := validators.ParseQueryUUID(r, "queue")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.QueueID = queueID

		params.Action = strings.TrimSpace(r.URL.Query().Get("action"))

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, maxHistoryLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit

		if cursor := strings.TrimSpace(r.URL.Query().Get("cursor")); cursor != "" {
			params.Cursor = cursor
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
