package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// TenantID es la organización activa; Role el rol del usuario en esa organización
// para que el middleware RBAC decida sin consultar la DB. El JTI (ID) permite revocar el token.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"` // "admin" | "bodeguero" | "vendedor"
}

// Generate genera un token JWT firmado que incluye userID, tenantID y role.
// tenantID y role pueden ir vacíos si el usuario aún no pertenece a ninguna organización.
func Generate(secret, userID, tenantID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseClaims valida el token y devuelve todos sus claims.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func ParseClaims(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	return claims, nil
}

// Parse valida el token y devuelve userID, tenantID y role.
func Parse(secret, tokenString string) (userID, tenantID, role string, err error) {
	c, err := ParseClaims(secret, tokenString)
	if err != nil {
		return "", "", "", err
	}
	return c.UserID, c.TenantID, c.Role, nil
}

// Expiry devuelve el vencimiento del token (cero si no tiene).
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Issuer agrupa la configuración de firma para los casos de uso que emiten tokens.
type Issuer struct {
	Secret     string
	Issuer     string
	ExpMinutes int
}

// Issue firma un token para el usuario en la organización indicada.
func (i Issuer) Issue(userID, tenantID, role string) (string, error) {
	return Generate(i.Secret, userID, tenantID, role, i.Issuer, i.ExpMinutes)
}
