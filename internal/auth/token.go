package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Назначение токена хранится в claim "kind". Access-токен открывает
// доступ к API, refresh-токен только обменивается на новую пару.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// ErrWrongKind возвращается, когда токен валиден, но предъявлен не по
// назначению, например refresh-токен в заголовке Authorization.
var ErrWrongKind = errors.New("token kind mismatch")

// Claims — полезная нагрузка JWT сервиса. Subject несет идентификатор
// пользователя, ID — идентификатор самого токена.
type Claims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Pair — выданная пара токенов. RefreshTokenID выделяется при выпуске
// и служит ключом записи refresh-токена в хранилище.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	RefreshTokenID   uuid.UUID
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenManager выпускает и проверяет токены сервиса. Подпись HS256
// общим секретом из конфигурации.
type TokenManager struct {
	secret     []byte
	parser     *jwt.Parser
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager создает менеджер токенов.
func NewTokenManager(secret string, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue выпускает пару access/refresh для пользователя.
func (m *TokenManager) Issue(userID uuid.UUID) (Pair, error) {
	now := time.Now()
	refreshID := uuid.New()

	access, err := m.sign(userID, uuid.New(), KindAccess, now, m.accessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := m.sign(userID, refreshID, KindRefresh, now, m.refreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshTokenID:   refreshID,
		AccessExpiresAt:  now.Add(m.accessTTL),
		RefreshExpiresAt: now.Add(m.refreshTTL),
	}, nil
}

// Parse проверяет подпись, срок действия и назначение токена.
func (m *TokenManager) Parse(tokenString, kind string) (*Claims, error) {
	claims := &Claims{}
	if _, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return nil, err
	}

	if claims.Kind != kind {
		return nil, ErrWrongKind
	}

	return claims, nil
}

func (m *TokenManager) sign(userID, tokenID uuid.UUID, kind string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID.String(),
			ID:        tokenID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}
