package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/pkg/jwt"
)

// Locals keys para UserID, WorkspaceID y Role en Fiber.
const (
	LocalUserID      = "user_id"
	LocalWorkspaceID = "workspace_id"
	LocalRole        = "role"
)

// AuthMiddleware valida el Bearer Token JWT y extrae UserID, WorkspaceID y Role a c.Locals.
// Los tokens los emite el servicio de identidad; issuer vacío no verifica el emisor.
func AuthMiddleware(jwtSecret, issuer string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, issuer, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		if claims.WorkspaceID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "el token no indica workspace"})
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalWorkspaceID, claims.WorkspaceID)
		c.Locals(LocalRole, strings.ToUpper(claims.Role))
		return c.Next()
	}
}

// RequireRole exige que el rol del token alcance el mínimo indicado (MEMBER < ADMIN < OWNER).
// Debe usarse DESPUÉS de AuthMiddleware.
func RequireRole(minimum string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		if !GetActor(c).Can(minimum) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "se requiere rol " + minimum})
		}
		return c.Next()
	}
}

func localString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string { return localString(c, LocalUserID) }

// GetWorkspaceID devuelve el WorkspaceID del contexto.
func GetWorkspaceID(c *fiber.Ctx) string { return localString(c, LocalWorkspaceID) }

// GetRole devuelve el rol del contexto.
func GetRole(c *fiber.Ctx) string { return localString(c, LocalRole) }

// GetActor arma el actor de la petición para los casos de uso.
func GetActor(c *fiber.Ctx) entity.Actor {
	return entity.Actor{UserID: GetUserID(c), WorkspaceID: GetWorkspaceID(c), Role: GetRole(c)}
}
