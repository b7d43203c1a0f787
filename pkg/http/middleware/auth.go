// Copyright 2026 Cyborg Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/cyborghq/cyborg/pkg/http"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by access tokens.
type Claims struct {
	Id       string `json:"id"`
	UserType string `json:"userType"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 access token.
func SignToken(auth http.Auth, userId, userType string) (string, error) {
	if auth.SecretKey == "" {
		return "", errors.New("auth secret key is empty")
	}
	now := time.Now()
	claims := Claims{
		Id:       userId,
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.Issuer,
			Subject:   userId,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(auth.AccessExpire)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(auth.SecretKey))
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(auth http.Auth, tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if auth.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(auth.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(auth.SecretKey), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Id == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// AuthorizationMiddleware requires a valid bearer token and stores the
// caller's id and type in the request locals.
func AuthorizationMiddleware(auth http.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			return http.WithRepErrMsg(c, http.Unauthorized.Code, "No token provided", c.Path())
		}
		claims, err := ParseToken(auth, strings.TrimSpace(tokenString))
		if err != nil {
			return http.WithRepErrMsg(c, http.TokenInvalid.Code, http.TokenInvalid.Msg, c.Path())
		}
		c.Locals(USER_ID, claims.Id)
		c.Locals(USER_TYPE, claims.UserType)
		return c.Next()
	}
}

// RequireUserType rejects callers whose token carries a different user type.
func RequireUserType(userTypes ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		current, _ := c.Locals(USER_TYPE).(string)
		for _, t := range userTypes {
			if current == t {
				return c.Next()
			}
		}
		return http.WithRepErrMsg(c, http.Forbidden.Code, "Access denied", c.Path())
	}
}

// CurrentUserId returns the authenticated caller's id.
func CurrentUserId(c *fiber.Ctx) string {
	v, _ := c.Locals(USER_ID).(string)
	return v
}
