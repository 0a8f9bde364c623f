// Copyright 2026 The SWE-agent Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpserver

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type runTokenClaims struct {
	RunID string `json:"run_id"`
	jwt.RegisteredClaims
}

// MakeAndSerializeToken creates the signed token authorizing control of a run
func MakeAndSerializeToken(runID string, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, runTokenClaims{
		RunID: runID,
	})
	tokenStr, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}
	return tokenStr, nil
}

// ParseAndVerifyToken checks the token signature and returns its claims
func ParseAndVerifyToken(tokenStr string, secret string) (*runTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &runTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*runTokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid run token")
	}
	return claims, nil
}
