package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/platform/logger"
)

// getUserIDFromContext extracts the authenticated user's UUID from the request context.
// The user ID is expected to be placed in the context by the authentication middleware.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	return shared.UserIDFromContext(r.Context())
}

// getPathID returns the named path parameter. Task ids are opaque to the
// HTTP layer; an id that does not exist is reported by the service.
func getPathID(r *http.Request, paramName string) (string, error) {
	pathParam := strings.TrimSpace(chi.URLParam(r, paramName))
	if pathParam == "" {
		return "", domain.NewValidationError(paramName, "is required", domain.ErrInvalidID)
	}
	return pathParam, nil
}

// handleUserIDAndPathID extracts both the user ID from context and the named
// path parameter. It writes an error response if either extraction fails.
func handleUserIDAndPathID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
) (uuid.UUID, string, bool) {
	log := logger.FromContext(r.Context())

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return uuid.Nil, "", false
	}

	pathID, err := getPathID(r, paramName)
	if err != nil {
		log.Debug("invalid path parameter", slog.String("param_name", paramName))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, "", false
	}

	return userID, pathID, true
}

// parseTaskStatus accepts any letter case and rejects values outside the
// enum, so an unknown filter never reaches the service.
func parseTaskStatus(raw string) (domain.TaskStatus, error) {
	status := domain.NormalizeTaskStatus(raw)
	if !status.IsValid() {
		return "", domain.NewValidationError("status", "must be PENDING or COMPLETED", domain.ErrInvalidTaskStatus)
	}
	return status, nil
}

func parseTaskPriority(raw string) (domain.TaskPriority, error) {
	priority := domain.NormalizeTaskPriority(raw)
	if !priority.IsValid() {
		return "", domain.NewValidationError("priority", "must be LOW, MEDIUM or HIGH", domain.ErrInvalidTaskPriority)
	}
	return priority, nil
}

// parseLimit returns 0 for an absent limit so the service applies its
// default. Present values must be integers in [1, max].
func parseLimit(raw string, max int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || (max > 0 && limit > max) {
		return 0, domain.NewValidationError("limit", "must be an integer between 1 and "+strconv.Itoa(max), domain.ErrValidation)
	}
	return limit, nil
}
