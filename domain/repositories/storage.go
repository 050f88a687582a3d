package repositories

import (
	"context"

	"github.com/satriahrh/rapat/domain/entities"
)

// SessionRepository persists ended sessions. Save is invoked once per
// session, fire-and-forget: errors are logged by the caller and never
// propagated to the session lifecycle.
type SessionRepository interface {
	Save(ctx context.Context, session *entities.Session) error
}
