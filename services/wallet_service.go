package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const walletLinkTTL = 15 * time.Minute

var (
	ErrLinkTokenInvalid = errors.New("wallet link token is invalid or expired")
)

// WalletService issues and redeems the short-lived tokens behind the
// "verify wallet" flow: the bot hands the user a signed link, the web
// callback proves wallet ownership and redeems the token, and the address
// lands on the user record that WALLET-mode registration reads.
type WalletService struct {
	secret []byte
	users  *UserService
}

func NewWalletService(secret string, users *UserService) *WalletService {
	return &WalletService{secret: []byte(secret), users: users}
}

// IssueLinkToken mints a signed token that authorizes linking a wallet to
// the given user for a short window.
func (s *WalletService) IssueLinkToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(walletLinkTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign wallet link token: %w", err)
	}
	return signed, nil
}

// RedeemLinkToken validates the token and records the wallet address on the
// user it was issued for.
func (s *WalletService) RedeemLinkToken(ctx context.Context, tokenString, walletAddress string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrLinkTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrLinkTokenInvalid
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return "", ErrLinkTokenInvalid
	}

	if err := s.users.LinkWallet(ctx, userID, walletAddress); err != nil {
		return "", fmt.Errorf("link wallet: %w", err)
	}
	return userID, nil
}
