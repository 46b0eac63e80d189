package inbound

import (
	"log/slog"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/passcode/usecase"
	"github.com/baginvent/passcode/internal/pkg/goerror"
	"github.com/baginvent/passcode/internal/pkg/router"
)

// HTTPEndpoint exposes passcode issuance and verification over HTTP.
type HTTPEndpoint struct {
	uc    uc
	store pinger
}

// Issue sends a fresh passcode to an email address or phone number.
// @Summary Issue passcode
// @Description Generates a 6-digit passcode, supersedes any earlier one for the same identifier and channel, and delivers it.
// @Tags Passcode
// @Accept json
// @Produce json
// @Param request body IssueRequest true "Issue payload"
// @Success 200 {object} router.successResponse{data=IssueResponse} "Passcode issued"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Failure 502 {object} router.errorResponse "Passcode could not be delivered"
// @Failure 503 {object} router.errorResponse "Storage unavailable"
// @Router /api/v1/passcode/issue [post]
func (h *HTTPEndpoint) Issue(r *router.Request) (any, error) {
	var req IssueRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Issue(r.Context(), usecase.IssueInput{
		Identifier: req.Identifier,
		Channel:    entity.ParseChannel(req.Channel),
	})
	if err != nil {
		return nil, err
	}

	return IssueResponse{Accepted: resp.Accepted, ExpiresAt: resp.ExpiresAt}, nil
}

// Verify checks a passcode and returns the account bound to the identifier.
// @Summary Verify passcode
// @Description Consumes the active passcode when the code matches, then finds or creates the account.
// @Tags Passcode
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "Passcode verified"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid or expired passcode"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Failure 503 {object} router.errorResponse "Storage unavailable"
// @Router /api/v1/passcode/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Identifier: req.Identifier,
		Channel:    entity.ParseChannel(req.Channel),
		Code:       req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{
		Verified: resp.Verified,
		Account: AccountResponse{
			ID:         resp.Account.ID,
			Identifier: resp.Account.Identifier,
			Channel:    resp.Account.Channel.String(),
		},
		ProofToken: resp.ProofToken,
	}, nil
}

// Health reports whether the passcode store is reachable.
// @Summary Health check
// @Tags Passcode
// @Produce json
// @Success 200 {object} router.successResponse{data=HealthResponse} "Healthy"
// @Failure 503 {object} router.errorResponse "Storage unavailable"
// @Router /health [get]
func (h *HTTPEndpoint) Health(r *router.Request) (any, error) {
	if err := h.store.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "failed to ping passcode store", "error", err)
		return nil, goerror.NewDomain(entity.ErrStorageUnavailable, "passcode store is unreachable", goerror.CodeUnavailable)
	}

	return HealthResponse{Status: "ok", Store: "up"}, nil
}
