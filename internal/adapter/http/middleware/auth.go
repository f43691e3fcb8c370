package middleware

import (
	"log"
	"net/http"
	"strings"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"
	"serviexpress/pkg"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

var errUnauthenticated = pkg.NewDomainErrorSimple("UNAUTHENTICATED", "Authentication required", http.StatusUnauthorized)

// TokenParser turns a bearer token into the identity it was issued for.
type TokenParser interface {
	Parse(raw string) (entities.Actor, error)
}

// Auth requires a valid bearer token and re-resolves its subject through the
// user directory on every call, so a deleted user or a changed role takes
// effect without waiting for the token to expire. The role stored in the
// directory wins over the role in the token.
func Auth(tokens TokenParser, users interfaces.IUserDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthenticated(c)
			return
		}
		claimed, err := tokens.Parse(raw)
		if err != nil {
			log.Printf("[auth][middleware] token rejected path=%s err=%v", c.FullPath(), err)
			abortUnauthenticated(c)
			return
		}

		user, err := users.GetByID(c.Request.Context(), claimed.ID)
		if err != nil {
			log.Printf("[auth][middleware] user lookup failed user_id=%s err=%v", claimed.ID, err)
			appErr := pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		actor := entities.Actor{ID: user.ID, Role: user.Role}
		if !actor.Authenticated() {
			log.Printf("[auth][middleware] unknown user user_id=%s", claimed.ID)
			abortUnauthenticated(c)
			return
		}
		if actor.Role != claimed.Role {
			log.Printf("[auth][middleware] role changed since issue user_id=%s token_role=%s role=%s", actor.ID, claimed.Role, actor.Role)
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the authenticated caller, or the zero Actor when the
// route is not behind Auth.
func ActorFrom(c *gin.Context) entities.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return entities.Actor{}
	}
	actor, _ := v.(entities.Actor)
	return actor
}

// WithActor stores actor as if Auth had run. Used by handler tests.
func WithActor(actor entities.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorKey, actor)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(errUnauthenticated.HTTPStatus, errUnauthenticated.ToHTTPError())
}
