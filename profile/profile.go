package profile

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"ramsy/db"
	"ramsy/models"
	"ramsy/utils"
	"ramsy/validate"
)

type Handler struct {
	Users   db.UserStore
	Recipes db.RecipeStore
}

func NewHandler(users db.UserStore, recipes db.RecipeStore) *Handler {
	return &Handler{Users: users, Recipes: recipes}
}

// publicUser is the profile shape every authenticated user may see.
type publicUser struct {
	UserID       int    `json:"user_id"`
	Nickname     string `json:"nickname"`
	Status       string `json:"status"`
	RecipesTotal int    `json:"recipes_total"`
	LikesTotal   int    `json:"likes_total"`
}

// privateUser adds the owner-or-admin-only fields.
type privateUser struct {
	publicUser
	Favorites []int `json:"favorites"`
	Recipes   []int `json:"recipes"`
}

func toPublic(u *models.User) publicUser {
	return publicUser{
		UserID:       u.UserID,
		Nickname:     u.Nickname,
		Status:       u.Status,
		RecipesTotal: u.RecipesTotal,
		LikesTotal:   u.LikesTotal,
	}
}

// GetProfile handles GET /profile/:user_id. Locked accounts are visible to
// admins only; favorites and recipe lists only to the owner or an admin.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	targetID, err := strconv.Atoi(ps.ByName("user_id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	requesterID := utils.GetUserIDFromRequest(r)
	if requesterID == 0 {
		utils.RespondWithError(w, http.StatusUnauthorized, "your request was made with invalid credentials")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	target, err := h.Users.GetByID(ctx, targetID)
	if errors.Is(err, db.ErrNotFound) {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{
			"name":    "Not found",
			"message": "profile you looking for appears to be not exists",
		})
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	isAdmin := false
	if requester, err := h.Users.GetByID(ctx, requesterID); err == nil {
		isAdmin = requester.IsAdmin
	}

	if target.Status == validate.StatusLocked && !isAdmin {
		utils.RespondWithJSON(w, http.StatusLocked, utils.M{
			"name":    "Locked",
			"message": "user locked",
		})
		return
	}

	if requesterID == targetID || isAdmin {
		utils.RespondWithJSON(w, http.StatusOK, privateUser{
			publicUser: toPublic(target),
			Favorites:  target.Favorites,
			Recipes:    target.Recipes,
		})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toPublic(target))
}

// ExplorePeoples handles GET /peoples: active users ranked by recipe count.
func (h *Handler) ExplorePeoples(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	skip, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	if err != nil || skip < 0 {
		skip = 0
	}
	limit, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 10
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	users, err := h.Users.ListTop(ctx, skip, limit)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	peoples := make([]publicUser, 0, len(users))
	for i := range users {
		peoples = append(peoples, toPublic(&users[i]))
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"name":       "OK",
		"message":    "list of famous ramsy",
		"collection": peoples,
	})
}

// DeleteUser handles DELETE /profile/:user_id/delete. Self only. Recipes are
// left in place with their author snapshot; there is no cascade.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	targetID, err := strconv.Atoi(ps.ByName("user_id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if utils.GetUserIDFromRequest(r) != targetID {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{
			"name":    "Forbidden",
			"message": "insufficient rights to the resource",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deleted, err := h.Users.Delete(ctx, targetID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "update failed")
		return
	}
	if deleted == 0 {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"name":    "Not exists",
			"message": "user is not exists",
		})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"name":    "Deleted",
		"message": "user deleted successfully",
	})
}

// AddFavorite handles POST /profile/:user_id/favorites/:recipe_id. Self only.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.changeFavorite(w, r, ps, true)
}

// RemoveFavorite handles DELETE /profile/:user_id/favorites/:recipe_id. Self only.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.changeFavorite(w, r, ps, false)
}

func (h *Handler) changeFavorite(w http.ResponseWriter, r *http.Request, ps httprouter.Params, add bool) {
	targetID, err := strconv.Atoi(ps.ByName("user_id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	recipeID, err := strconv.Atoi(ps.ByName("recipe_id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid recipe id")
		return
	}

	if utils.GetUserIDFromRequest(r) != targetID {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{
			"name":    "Forbidden",
			"message": "insufficient rights to the resource",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if add {
		if _, err := h.Recipes.GetByID(ctx, recipeID); err != nil {
			utils.RespondWithError(w, http.StatusNotFound, "Recipe not found")
			return
		}
		err = h.Users.AddFavorite(ctx, targetID, recipeID)
	} else {
		err = h.Users.RemoveFavorite(ctx, targetID, recipeID)
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "update failed")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "updated"})
}
