package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/feed-service/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// NotAuthenticatedMessage is returned for every rejected credential.
const NotAuthenticatedMessage = "Not authenticated."

// Guard validates bearer tokens and attaches the verified identity.
type Guard struct {
	tokens *TokenManager
}

// NewGuard constructs the access guard.
func NewGuard(tokens *TokenManager) *Guard {
	return &Guard{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (g *Guard) Handle(c *fiber.Ctx) error {
	tokenStr, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return apperrors.NewUnauthenticated(NotAuthenticatedMessage)
	}

	identity, err := g.tokens.Verify(tokenStr)
	if err != nil {
		return apperrors.NewUnauthenticated(NotAuthenticatedMessage)
	}

	setIdentity(c, identity)
	return c.Next()
}

// Optional verifies a token when one is presented but never rejects the
// request; handlers behind it check IdentityFromCtx themselves. The token may
// also come from the "token" query parameter for websocket upgrades.
func (g *Guard) Optional(c *fiber.Ctx) error {
	tokenStr, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		tokenStr = c.Query("token")
	}
	if tokenStr != "" {
		if identity, err := g.tokens.Verify(tokenStr); err == nil {
			setIdentity(c, identity)
		}
	}
	return c.Next()
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
