package middleware

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"ramsy/db"
	"ramsy/globals"
	"ramsy/utils"
)

// JWT claims
type Claims struct {
	Nickname string `json:"nickname"`
	UserID   int    `json:"userId"`
	jwt.RegisteredClaims
}

func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		if len(tokenString) < 8 || tokenString[:7] != "Bearer " {
			http.Error(w, "Invalid token format", http.StatusUnauthorized)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString[7:], claims, func(token *jwt.Token) (any, error) {
			return globals.JwtSecret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		// Store UserID in context
		ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
		next(w, r.WithContext(ctx), ps)
	}
}

// AdminOnly re-checks the admin flag in the store on every request, so a
// revoked admin loses access immediately regardless of token lifetime.
// Runs after Authenticate.
func AdminOnly(users db.UserStore, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == 0 {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		user, err := users.GetByID(r.Context(), userID)
		if err != nil || !user.IsAdmin {
			utils.RespondWithJSON(w, http.StatusForbidden, utils.M{
				"name":    "Forbidden",
				"message": "insufficient rights to the resource",
			})
			return
		}
		next(w, r, ps)
	}
}
