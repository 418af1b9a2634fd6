package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core/plan"
)

const contextSessionKey = "session"

// sessionMiddleware attaches the study session named by the token to the context.
// Tokens outliving their session (logout, idle timeout, restart) are rejected.
func sessionMiddleware(svc *plan.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			sess, err := svc.Get(claims.Id, claims.Subject)
			if err != nil {
				return errors.Wrap(err, "getting session")
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

func getContextSession(ctx echo.Context) (*plan.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(*plan.Session); ok {
		return sess, nil
	}
	return nil, errSessionEnded
}
