package interfaces

import (
	"context"
	"serviexpress/internal/domain/entities"
)

// IUserDirectory resolves identities. GetByID returns the zero User and a
// nil error when the id is unknown.
type IUserDirectory interface {
	GetByID(ctx context.Context, id string) (entities.User, error)
}
