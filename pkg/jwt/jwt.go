package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// Los tokens los emite el servicio de identidad; aquí solo se validan.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
	Role        string `json:"role"` // "MEMBER" | "ADMIN" | "OWNER"
}

// Generate genera un token JWT firmado. Lo usan los tests y herramientas locales.
func Generate(secret, userID, workspaceID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve sus claims.
// Retorna error si el token es inválido, expirado, tiene firma incorrecta o un issuer distinto
// (issuer vacío desactiva esa verificación).
func Parse(secret, issuer, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}
