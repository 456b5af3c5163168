// internal/app/features/admin/audit.go
package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/store/audit"
	"github.com/dalemusser/coachhub/internal/app/system/formutil"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
)

const maxAuditPage = 500

// ServeAudit handles GET /admin/audit.
//
// Query parameters: category, event_type, user_id, since (RFC 3339),
// limit (default 100, max 500), offset.
func (h *Handler) ServeAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		Category:  normalize.QueryParam(q.Get("category")),
		EventType: normalize.QueryParam(q.Get("event_type")),
	}

	if v := q.Get("user_id"); v != "" {
		id, err := formutil.ObjectID(v)
		if err != nil {
			uierrors.RenderInvalidID(w, "user id")
			return
		}
		filter.UserID = &id
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			uierrors.RenderValidation(w, errors.New("since must be an RFC 3339 timestamp"))
			return
		}
		filter.StartTime = &since
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			uierrors.RenderValidation(w, errors.New("limit must be a positive number"))
			return
		}
		filter.Limit = min(n, maxAuditPage)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			uierrors.RenderValidation(w, errors.New("offset must be zero or more"))
			return
		}
		filter.Offset = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "admin: audit query failed", err)
		return
	}
	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "admin: audit count failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"events": events, "total": total})
}
