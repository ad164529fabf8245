package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumilearn/assess-backend/internal/model"
	"github.com/lumilearn/assess-backend/internal/response"
)

// RequireRole rejects requests whose token role is not in the allowed set.
// Must run after RequireJWT.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if _, ok := allowed[claims.Role]; !ok {
			switch {
			case len(roles) == 1 && roles[0] == model.RoleCandidate:
				response.AbortFail(c, http.StatusForbidden, response.ErrCandidateAccessOnly)
			case containsRole(roles, model.RoleCreator):
				response.AbortFail(c, http.StatusForbidden, response.ErrCreatorAccessOnly)
			default:
				response.AbortFail(c, http.StatusForbidden, response.ErrForbidden)
			}
			return
		}

		c.Next()
	}
}

func containsRole(roles []model.Role, target model.Role) bool {
	for _, r := range roles {
		if r == target {
			return true
		}
	}
	return false
}
