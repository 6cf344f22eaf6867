package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"ramsy/db"
	"ramsy/globals"
	"ramsy/idgen"
	"ramsy/middleware"
	"ramsy/models"
	"ramsy/rdx"
	"ramsy/utils"
	"ramsy/validate"
)

const tokenTTL = time.Hour

type Handler struct {
	Users  db.UserStore
	IDs    *idgen.Allocator
	Tokens *rdx.Client
}

func NewHandler(users db.UserStore, ids *idgen.Allocator, tokens *rdx.Client) *Handler {
	return &Handler{Users: users, IDs: ids, Tokens: tokens}
}

type credentials struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// Register handles PUT /signin. Public: this is how accounts come to exist.
// Reports every missing/invalid field at once; an already-taken nickname is
// answered with 200, not an error, matching the signin contract.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	var errs validate.Errors
	if input.Nickname == "" {
		errs = append(errs, &validate.FieldError{Field: "nickname", Message: "you must fill nickname field"})
	}
	if input.Password == "" {
		errs = append(errs, &validate.FieldError{Field: "password", Message: "you must fill password field"})
	}
	if len(errs) > 0 {
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.Users.GetByNickname(ctx, input.Nickname); err == nil {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"name":    "OK",
			"message": "User " + input.Nickname + " already exists",
		})
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	id, err := h.IDs.AllocateID(ctx)
	if err != nil {
		if errors.Is(err, idgen.ErrIDSpaceExhausted) {
			utils.RespondWithError(w, http.StatusServiceUnavailable, "No free ids available")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	user, err := models.NewUser(models.UserInput{
		UserID:   id,
		Nickname: input.Nickname,
		Password: input.Password,
	})
	if err != nil {
		var verrs validate.Errors
		if errors.As(err, &verrs) {
			utils.RespondWithJSON(w, http.StatusUnprocessableEntity, verrs)
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	if err := h.Users.Insert(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			utils.RespondWithJSON(w, http.StatusOK, utils.M{
				"name":    "OK",
				"message": "User " + input.Nickname + " already exists",
			})
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"name":    "Created",
		"message": "User " + user.Nickname + " created successfully",
		"user_id": user.UserID,
	})
}

// Login handles POST /auth: nickname + password against the stored digest,
// answered with a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	var errs validate.Errors
	if input.Nickname == "" {
		errs = append(errs, &validate.FieldError{Field: "nickname", Message: "you must fill nickname field"})
	}
	if input.Password == "" {
		errs = append(errs, &validate.FieldError{Field: "password", Message: "you must fill password field"})
	}
	if len(errs) > 0 {
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	user, err := h.Users.GetByNickname(ctx, input.Nickname)
	if err != nil || user.CryptPassword != models.EncryptPassword(input.Password) {
		utils.RespondWithError(w, http.StatusBadRequest, "incorrect user or password")
		return
	}

	claims := &middleware.Claims{
		Nickname: user.Nickname,
		UserID:   user.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	if err := h.Tokens.StoreToken(ctx, user.UserID, tokenString); err != nil {
		log.Printf("Redis token storage failed: %v", err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"token":   tokenString,
		"user_id": user.UserID,
	})
}

// Logout handles POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == 0 {
		utils.RespondWithError(w, http.StatusUnauthorized, "your request was made with invalid credentials")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Tokens.DeleteToken(ctx, userID); err != nil {
		log.Printf("Redis token delete failed: %v", err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"name":    "OK",
		"message": "logged out",
	})
}
