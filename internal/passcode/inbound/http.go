package inbound

import (
	"context"

	"github.com/baginvent/passcode/internal/passcode/usecase"
	"github.com/baginvent/passcode/internal/pkg/router"
)

type uc interface {
	Issue(ctx context.Context, in usecase.IssueInput) (*usecase.IssueOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, store pinger) {
	end := &HTTPEndpoint{uc: uc, store: store}

	r.GET("/health", end.Health)

	r.POST("/api/v1/passcode/issue", end.Issue)
	r.POST("/api/v1/passcode/verify", end.Verify)
}
