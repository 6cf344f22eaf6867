package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"ramsy/db"
	"ramsy/utils"
	"ramsy/validate"
)

// Handler holds the admin surface: locking and unlocking accounts and
// recipes. Admin rights are re-checked per request by middleware.AdminOnly.
type Handler struct {
	Users   db.UserStore
	Recipes db.RecipeStore
}

func NewHandler(users db.UserStore, recipes db.RecipeStore) *Handler {
	return &Handler{Users: users, Recipes: recipes}
}

type statusInput struct {
	Status string `json:"status"`
}

// SetUserStatus handles PUT /admin/users/:user_id/status
func (h *Handler) SetUserStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, err := strconv.Atoi(ps.ByName("user_id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Users.SetStatus(ctx, userID, status); err != nil {
		writeStatusError(w, err, "User not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": status})
}

// SetRecipeStatus handles PUT /admin/recipes/:recipe_id/status
func (h *Handler) SetRecipeStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	recipeID, err := strconv.Atoi(ps.ByName("recipe_id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid recipe id")
		return
	}

	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Recipes.SetStatus(ctx, recipeID, status); err != nil {
		writeStatusError(w, err, "Recipe not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": status})
}

func decodeStatus(w http.ResponseWriter, r *http.Request) (string, bool) {
	var input statusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return "", false
	}
	status, ferr := validate.Status(input.Status)
	if ferr != nil {
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, validate.Errors{ferr})
		return "", false
	}
	return status, true
}

func writeStatusError(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, db.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, notFoundMsg)
		return
	}
	utils.RespondWithError(w, http.StatusInternalServerError, "update failed")
}
