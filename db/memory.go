package db

import (
	"context"
	"sort"
	"strings"
	"sync"

	"ramsy/models"
)

// Mem is an in-memory store with the same per-document atomicity as the
// MongoDB implementation: every mutator runs under the collection mutex.
// Backs the test suite and MONGODB_URI-less local runs.
type Mem struct {
	Users   *MemUsers
	Recipes *MemRecipes
}

func NewMem() *Mem {
	return &Mem{
		Users:   &MemUsers{byID: make(map[int]*models.User)},
		Recipes: &MemRecipes{byID: make(map[int]*models.Recipe)},
	}
}

// ---- users ----

type MemUsers struct {
	mu   sync.Mutex
	byID map[int]*models.User
}

func (s *MemUsers) GetByID(_ context.Context, id int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemUsers) GetByNickname(_ context.Context, nickname string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Nickname == nickname {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemUsers) ListTop(_ context.Context, skip, limit int64) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []models.User
	for _, u := range s.byID {
		if u.Status == "active" {
			users = append(users, *copyUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].RecipesTotal > users[j].RecipesTotal
	})

	if skip >= int64(len(users)) {
		return []models.User{}, nil
	}
	users = users[skip:]
	if limit > 0 && limit < int64(len(users)) {
		users = users[:limit]
	}
	return users, nil
}

func (s *MemUsers) Insert(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.UserID]; ok {
		return ErrDuplicate
	}
	for _, existing := range s.byID {
		if existing.Nickname == u.Nickname {
			return ErrDuplicate
		}
	}
	s.byID[u.UserID] = copyUser(u)
	return nil
}

func (s *MemUsers) Delete(_ context.Context, id int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	delete(s.byID, id)
	return 1, nil
}

func (s *MemUsers) PushRecipe(_ context.Context, userID, recipeID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	u.Recipes = append(u.Recipes, recipeID)
	u.RecipesTotal++
	return nil
}

func (s *MemUsers) PullRecipe(_ context.Context, userID, recipeID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	u.Recipes = removeInt(u.Recipes, recipeID)
	u.RecipesTotal--
	return nil
}

func (s *MemUsers) IncLikes(_ context.Context, userID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	u.LikesTotal += delta
	return nil
}

func (s *MemUsers) AddFavorite(_ context.Context, userID, recipeID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	for _, id := range u.Favorites {
		if id == recipeID {
			return nil
		}
	}
	u.Favorites = append(u.Favorites, recipeID)
	return nil
}

func (s *MemUsers) RemoveFavorite(_ context.Context, userID, recipeID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	u.Favorites = removeInt(u.Favorites, recipeID)
	return nil
}

func (s *MemUsers) SetStatus(_ context.Context, userID int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	u.Status = status
	return nil
}

func (s *MemUsers) IDInUse(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	return ok, nil
}

// SetAdmin grants admin rights directly in the store. There is no public API
// for this; it exists for bootstrap tooling and tests.
func (s *MemUsers) SetAdmin(id int, isAdmin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		u.IsAdmin = isAdmin
	}
}

// ---- recipes ----

type MemRecipes struct {
	mu   sync.Mutex
	byID map[int]*models.Recipe
}

func (s *MemRecipes) GetByID(_ context.Context, id int) (*models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecipe(rec), nil
}

func (s *MemRecipes) GetByTitle(_ context.Context, title string) (*models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.byID {
		if rec.Title == title {
			return copyRecipe(rec), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemRecipes) List(_ context.Context, q RecipeQuery) ([]models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(q.Search)
	var recipes []models.Recipe
	for _, rec := range s.byID {
		if q.Type != "" && rec.Type != q.Type {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(rec.Title), search) &&
			!strings.Contains(strings.ToLower(rec.Description), search) {
			continue
		}
		c := copyRecipe(rec)
		c.ImageBytes = nil
		recipes = append(recipes, *c)
	}

	switch q.Sort {
	case "oldest":
		sort.Slice(recipes, func(i, j int) bool { return recipes[i].Date < recipes[j].Date })
	case "popular":
		sort.Slice(recipes, func(i, j int) bool { return recipes[i].LikesTotal > recipes[j].LikesTotal })
	default:
		sort.Slice(recipes, func(i, j int) bool { return recipes[i].Date > recipes[j].Date })
	}

	if q.Skip >= int64(len(recipes)) {
		return []models.Recipe{}, nil
	}
	recipes = recipes[q.Skip:]
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit < int64(len(recipes)) {
		recipes = recipes[:limit]
	}
	return recipes, nil
}

func (s *MemRecipes) Insert(_ context.Context, rec *models.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[rec.RecipeID]; ok {
		return ErrDuplicate
	}
	for _, existing := range s.byID {
		if existing.Title == rec.Title {
			return ErrDuplicate
		}
	}
	s.byID[rec.RecipeID] = copyRecipe(rec)
	return nil
}

func (s *MemRecipes) Delete(_ context.Context, id int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	delete(s.byID, id)
	return 1, nil
}

func (s *MemRecipes) AddLike(_ context.Context, recipeID, userID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[recipeID]
	if !ok {
		return false, nil
	}
	for _, id := range rec.Likes {
		if id == userID {
			return false, nil
		}
	}
	rec.Likes = append(rec.Likes, userID)
	rec.LikesTotal++
	return true, nil
}

func (s *MemRecipes) RemoveLike(_ context.Context, recipeID, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[recipeID]
	if !ok {
		return ErrNotFound
	}
	for _, id := range rec.Likes {
		if id == userID {
			rec.Likes = removeInt(rec.Likes, userID)
			rec.LikesTotal--
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemRecipes) Update(_ context.Context, id int, upd RecipeUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Title != nil {
		for _, existing := range s.byID {
			if existing.RecipeID != id && existing.Title == *upd.Title {
				return ErrDuplicate
			}
		}
		rec.Title = *upd.Title
	}
	if upd.Type != nil {
		rec.Type = *upd.Type
	}
	if upd.Description != nil {
		rec.Description = *upd.Description
	}
	if upd.Steps != nil {
		rec.Steps = append([]string(nil), upd.Steps...)
	}
	if upd.Hashtags != nil {
		rec.Hashtags = append([]string(nil), upd.Hashtags...)
	}
	if upd.ImageBytes != nil {
		rec.ImageBytes = append([]byte(nil), upd.ImageBytes...)
	}
	return nil
}

func (s *MemRecipes) SetStatus(_ context.Context, id int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	return nil
}

func (s *MemRecipes) DistinctHashtags(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	tags := []string{}
	for _, rec := range s.byID {
		for _, tag := range rec.Hashtags {
			if _, ok := seen[tag]; !ok {
				seen[tag] = struct{}{}
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *MemRecipes) IDInUse(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	return ok, nil
}

// ---- helpers ----

func copyUser(u *models.User) *models.User {
	c := *u
	c.Favorites = append([]int(nil), u.Favorites...)
	c.Recipes = append([]int(nil), u.Recipes...)
	return &c
}

func copyRecipe(rec *models.Recipe) *models.Recipe {
	c := *rec
	c.Steps = append([]string(nil), rec.Steps...)
	c.Hashtags = append([]string(nil), rec.Hashtags...)
	c.Likes = append([]int(nil), rec.Likes...)
	c.ImageBytes = append([]byte(nil), rec.ImageBytes...)
	return &c
}

func removeInt(items []int, target int) []int {
	out := items[:0]
	for _, v := range items {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
