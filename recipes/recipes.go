package recipes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"ramsy/db"
	"ramsy/idgen"
	"ramsy/utils"
	"ramsy/validate"
)

// 5MB cap on uploaded recipe images; stored as-is, never transformed.
const maxImageBytes = 5 << 20

type Handler struct {
	Svc     *Service
	Users   db.UserStore
	Recipes db.RecipeStore
}

func NewHandler(svc *Service, users db.UserStore, recipes db.RecipeStore) *Handler {
	return &Handler{Svc: svc, Users: users, Recipes: recipes}
}

// GetRecipes handles GET /recipes
func (h *Handler) GetRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	offset, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	if err != nil || offset < 0 {
		offset = 0
	}
	limit, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 10
	}

	recipes, err := h.Recipes.List(ctx, db.RecipeQuery{
		Search: r.URL.Query().Get("search"),
		Type:   r.URL.Query().Get("type"),
		Sort:   r.URL.Query().Get("sort"),
		Skip:   offset,
		Limit:  limit,
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch recipes")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"name":       "OK",
		"message":    "list of recipes",
		"collection": recipes,
	})
}

// GetRecipe handles GET /recipes/:recipe_id
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	recipeID, err := strconv.Atoi(ps.ByName("recipe_id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid recipe id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	rec, err := h.Recipes.GetByID(ctx, recipeID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if rec.Status == validate.StatusLocked && !h.canSeeLocked(ctx, r, rec.AuthorID) {
		utils.RespondWithJSON(w, http.StatusLocked, utils.M{
			"name":    "Locked",
			"message": "recipe locked",
		})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, rec)
}

// CreateRecipe handles POST /recipes
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if userID == 0 {
		utils.RespondWithError(w, http.StatusUnauthorized, "your request was made with invalid credentials")
		return
	}

	image, err := readImage(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Error reading image")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Svc.CreateRecipe(ctx, userID, CreateInput{
		Title:       r.FormValue("title"),
		Type:        r.FormValue("type"),
		Description: r.FormValue("description"),
		Steps:       splitLines(r.FormValue("steps")),
		Hashtags:    splitCSV(r.FormValue("hashtags")),
		ImageBytes:  image,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, rec)
}

// UpdateRecipe handles PUT /recipes/:recipe_id. Author only; absent form
// fields stay unchanged.
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	recipeID, err := strconv.Atoi(ps.ByName("recipe_id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid recipe id")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if userID == 0 {
		utils.RespondWithError(w, http.StatusUnauthorized, "your request was made with invalid credentials")
		return
	}

	var errs validate.Errors
	var upd db.RecipeUpdate

	if v := r.FormValue("title"); v != "" {
		title, ferr := validate.Title(v)
		errs = errs.Add(ferr)
		upd.Title = &title
	}
	if v := r.FormValue("type"); v != "" {
		rtype, ferr := validate.RecipeType(v)
		errs = errs.Add(ferr)
		upd.Type = &rtype
	}
	if v := r.FormValue("description"); v != "" {
		upd.Description = &v
	}
	if v := r.FormValue("steps"); v != "" {
		steps, ferr := validate.Steps(splitLines(v))
		errs = errs.Add(ferr)
		upd.Steps = steps
	}
	if v := r.FormValue("hashtags"); v != "" {
		upd.Hashtags = splitCSV(v)
	}
	image, err := readImage(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Error reading image")
		return
	}
	upd.ImageBytes = image

	if len(errs) > 0 {
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.UpdateRecipe(ctx, userID, recipeID, upd); err != nil {
		h.writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "updated"})
}

// DeleteRecipe handles DELETE /recipes/:recipe_id
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	recipeID, err := strconv.Atoi(ps.ByName("recipe_id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid recipe id")
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if userID == 0 {
		utils.RespondWithError(w, http.StatusUnauthorized, "your request was made with invalid credentials")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.DeleteRecipe(ctx, userID, recipeID); err != nil {
		h.writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "deleted"})
}

// LikeRecipe handles POST /recipes/:recipe_id/like. Liking twice is a no-op
// answered the same way as the first like.
func (h *Handler) LikeRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	recipeID, err := strconv.Atoi(ps.ByName("recipe_id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid recipe id")
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if userID == 0 {
		utils.RespondWithError(w, http.StatusUnauthorized, "your request was made with invalid credentials")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, err = h.Svc.LikeRecipe(ctx, userID, recipeID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rec, err := h.Recipes.GetByID(ctx, recipeID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"liked": true,
		"count": rec.LikesTotal,
	})
}

// GetRecipeImage handles GET /recipes/:recipe_id/image, serving the stored
// bytes untouched.
func (h *Handler) GetRecipeImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	recipeID, err := strconv.Atoi(ps.ByName("recipe_id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid recipe id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	rec, err := h.Recipes.GetByID(ctx, recipeID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if len(rec.ImageBytes) == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Recipe has no image")
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(rec.ImageBytes))
	w.Write(rec.ImageBytes)
}

// GetHashtags handles GET /hashtags
func (h *Handler) GetHashtags(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	tags, err := h.Recipes.DistinctHashtags(ctx)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch hashtags")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, tags)
}

func (h *Handler) canSeeLocked(ctx context.Context, r *http.Request, authorID int) bool {
	userID := utils.GetUserIDFromRequest(r)
	if userID == 0 {
		return false
	}
	if userID == authorID {
		return true
	}
	user, err := h.Users.GetByID(ctx, userID)
	return err == nil && user.IsAdmin
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verrs validate.Errors
	switch {
	case errors.As(err, &verrs):
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, verrs)
	case errors.Is(err, db.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Recipe not found")
	case errors.Is(err, ErrForbidden):
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{
			"name":    "Forbidden",
			"message": "insufficient rights to the resource",
		})
	case errors.Is(err, idgen.ErrIDSpaceExhausted):
		utils.RespondWithError(w, http.StatusServiceUnavailable, "No free ids available")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "update failed")
	}
}

func readImage(r *http.Request) ([]byte, error) {
	if r.MultipartForm == nil || r.MultipartForm.File == nil {
		return nil, nil
	}
	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		return nil, nil
	}
	file, err := files[0].Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, maxImageBytes))
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		out = append(out, strings.TrimSpace(line))
	}
	return out
}
