package db

import (
	"context"

	"ramsy/models"
)

// UserStore and RecipeStore are the document-store capabilities the rest of
// the app is built on: keyed lookup, filtered/sorted/paginated scan, and
// atomic single-document updates. Each mutation below is one atomic update on
// one document; sequences spanning two documents live above the store and
// compensate on partial failure. Both are constructed explicitly in main and
// passed into handlers, never held in package globals.

type UserStore interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByNickname(ctx context.Context, nickname string) (*models.User, error)
	// ListTop returns active users ordered by recipes_total descending.
	ListTop(ctx context.Context, skip, limit int64) ([]models.User, error)
	Insert(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id int) (int64, error)

	// PushRecipe appends recipeID to the user's recipes and increments
	// recipes_total by 1 in a single atomic update. PullRecipe is the
	// inverse. Both return ErrNotFound when the user does not exist.
	PushRecipe(ctx context.Context, userID, recipeID int) error
	PullRecipe(ctx context.Context, userID, recipeID int) error

	// IncLikes adjusts the user's received-likes counter by delta.
	IncLikes(ctx context.Context, userID, delta int) error

	AddFavorite(ctx context.Context, userID, recipeID int) error
	RemoveFavorite(ctx context.Context, userID, recipeID int) error
	SetStatus(ctx context.Context, userID int, status string) error

	IDInUse(ctx context.Context, id int) (bool, error)
}

// RecipeQuery narrows and orders a recipe scan.
type RecipeQuery struct {
	Search string // matches title or description, case-insensitive
	Type   string
	Sort   string // "newest" (default), "oldest", "popular"
	Skip   int64
	Limit  int64
}

// RecipeUpdate carries the author-editable fields; nil pointers and nil
// slices mean "leave unchanged".
type RecipeUpdate struct {
	Title       *string
	Type        *string
	Description *string
	Steps       []string
	Hashtags    []string
	ImageBytes  []byte
}

type RecipeStore interface {
	GetByID(ctx context.Context, id int) (*models.Recipe, error)
	GetByTitle(ctx context.Context, title string) (*models.Recipe, error)
	List(ctx context.Context, q RecipeQuery) ([]models.Recipe, error)
	Insert(ctx context.Context, rec *models.Recipe) error
	Delete(ctx context.Context, id int) (int64, error)

	// AddLike records userID in the recipe's likes and increments
	// likes_total, both in one conditional atomic update. Returns false
	// without error when the user already liked the recipe, so two calls
	// for the same pair count once. RemoveLike is the inverse.
	AddLike(ctx context.Context, recipeID, userID int) (bool, error)
	RemoveLike(ctx context.Context, recipeID, userID int) error

	Update(ctx context.Context, id int, upd RecipeUpdate) error
	SetStatus(ctx context.Context, id int, status string) error
	DistinctHashtags(ctx context.Context) ([]string, error)

	IDInUse(ctx context.Context, id int) (bool, error)
}
