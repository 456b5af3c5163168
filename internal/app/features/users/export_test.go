package users

import (
	"context"

	"github.com/dalemusser/coachhub/internal/app/store/invitations"
	"github.com/dalemusser/coachhub/internal/domain/models"
)

var ErrInvitationUsed = errInvitationUsed

func (h *Handler) CreateAccount(ctx context.Context, inv *invitations.Invitation, u models.User) (models.User, error) {
	return h.createAccount(ctx, inv, u)
}
