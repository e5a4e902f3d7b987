/*
 * Copyright 2026 The BotsCode Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package auth provides the authentication of the requests to the server.
// The identity provider is external; the server only verifies tokens that
// carry the stable user id in the subject claim.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/botscode-team/botscode/internal/validation"
	"github.com/botscode-team/botscode/pkg/errors"
)

var (
	// ErrUnexpectedSigningMethod is returned when the signing method is unexpected.
	ErrUnexpectedSigningMethod = errors.Unauthenticated("unexpected signing method").WithCode("ErrUnexpectedSigningMethod")

	// ErrInvalidToken is returned when the given token can not be verified.
	ErrInvalidToken = errors.Unauthenticated("invalid token").WithCode("ErrInvalidToken")

	// ErrInvalidUserID is returned when the user id can not be used as a key
	// of the store.
	ErrInvalidUserID = errors.InvalidArgument("invalid user id").WithCode("ErrInvalidUserID")
)

// UserClaims is a JWT claims struct for a user. The user id is carried in the
// standard subject claim.
type UserClaims struct {
	jwt.StandardClaims

	DisplayIdentifier string `json:"displayIdentifier,omitempty"`
}

// UserID returns the id of the user.
func (c *UserClaims) UserID() string {
	return c.Subject
}

// TokenManager manages JWT tokens.
type TokenManager struct {
	secretKey     string
	tokenDuration time.Duration
	now           func() time.Time
}

// NewTokenManager creates a new TokenManager.
func NewTokenManager(secretKey string, tokenDuration time.Duration) *TokenManager {
	return &TokenManager{
		secretKey:     secretKey,
		tokenDuration: tokenDuration,
		now:           time.Now,
	}
}

// Generate generates a new token for the user.
func (m *TokenManager) Generate(userID, displayIdentifier string) (string, error) {
	if err := validation.ValidateValue(userID, "required,store_key,max=128"); err != nil {
		return "", fmt.Errorf("%s: %w", err, ErrInvalidUserID)
	}

	now := m.now()
	claims := UserClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.tokenDuration).Unix(),
		},
		DisplayIdentifier: displayIdentifier,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(m.secretKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signedToken, nil
}

// Verify verifies the given token.
func (m *TokenManager) Verify(token string) (*UserClaims, error) {
	claims := &UserClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		_, ok := token.Method.(*jwt.SigningMethodHMAC)
		if !ok {
			return nil, fmt.Errorf("%s: %w", token.Method.Alg(), ErrUnexpectedSigningMethod)
		}
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %s: %w", err, ErrInvalidToken)
	}

	if err := validation.ValidateValue(claims.Subject, "required,store_key,max=128"); err != nil {
		return nil, fmt.Errorf("subject %q: %w", claims.Subject, ErrInvalidToken)
	}

	return claims, nil
}
