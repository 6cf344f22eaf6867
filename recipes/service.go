package recipes

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ramsy/db"
	"ramsy/idgen"
	"ramsy/models"
	"ramsy/validate"
)

// ErrForbidden reports that the actor lacks rights over the target entity.
var ErrForbidden = errors.New("insufficient rights to the resource")

// ErrInconsistent reports that a two-document sequence failed AND the undo of
// its first write failed too. There is no repair mechanism for this state;
// it is logged loudly and never reported as success.
var ErrInconsistent = errors.New("store inconsistent: compensation failed")

// Service runs the mutation sequences that touch a recipe document and a
// user document together. The store gives single-document atomicity only, so
// each sequence does the primary write first, then the secondary counter
// update, and compensates the primary write when the secondary fails.
type Service struct {
	users   db.UserStore
	recipes db.RecipeStore
	ids     *idgen.Allocator
}

func NewService(users db.UserStore, recipes db.RecipeStore, ids *idgen.Allocator) *Service {
	return &Service{users: users, recipes: recipes, ids: ids}
}

// CreateInput carries the author-supplied recipe fields.
type CreateInput struct {
	Title       string
	Type        string
	Description string
	Steps       []string
	Hashtags    []string
	ImageBytes  []byte
}

// CreateRecipe inserts the recipe document, then appends its id to the
// author's recipes list and bumps recipes_total in one atomic update. When
// the author update fails the inserted recipe is deleted again so no orphan
// stays visible.
func (s *Service) CreateRecipe(ctx context.Context, authorID int, in CreateInput) (*models.Recipe, error) {
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	if _, err := s.recipes.GetByTitle(ctx, in.Title); err == nil {
		return nil, validate.Errors{{Field: "title", Message: "already taken"}}
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	id, err := s.ids.AllocateID(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := models.NewRecipe(models.RecipeInput{
		RecipeID:    id,
		AuthorID:    author.UserID,
		Author:      author.Nickname,
		Title:       in.Title,
		Type:        in.Type,
		Description: in.Description,
		Steps:       in.Steps,
		Hashtags:    in.Hashtags,
		ImageBytes:  in.ImageBytes,
	})
	if err != nil {
		return nil, err
	}

	if err := s.recipes.Insert(ctx, rec); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, validate.Errors{{Field: "title", Message: "already taken"}}
		}
		return nil, err
	}

	if err := s.users.PushRecipe(ctx, authorID, rec.RecipeID); err != nil {
		if _, derr := s.recipes.Delete(ctx, rec.RecipeID); derr != nil {
			log.Printf("CRITICAL: recipe %d orphaned: author %d update failed (%v) and undo failed (%v)",
				rec.RecipeID, authorID, err, derr)
			return nil, fmt.Errorf("%w: recipe %d", ErrInconsistent, rec.RecipeID)
		}
		return nil, err
	}

	return rec, nil
}

// DeleteRecipe removes the recipe document, then pulls its id from the
// owner's list and decrements recipes_total. When the owner update fails the
// recipe document is re-inserted. Only the author may delete.
func (s *Service) DeleteRecipe(ctx context.Context, actorID, recipeID int) error {
	rec, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return err
	}
	if rec.AuthorID != actorID {
		return ErrForbidden
	}

	deleted, err := s.recipes.Delete(ctx, recipeID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return db.ErrNotFound
	}

	if err := s.users.PullRecipe(ctx, rec.AuthorID, recipeID); err != nil {
		if rerr := s.recipes.Insert(ctx, rec); rerr != nil {
			log.Printf("CRITICAL: recipe %d lost: owner %d update failed (%v) and restore failed (%v)",
				recipeID, rec.AuthorID, err, rerr)
			return fmt.Errorf("%w: recipe %d", ErrInconsistent, recipeID)
		}
		return err
	}

	return nil
}

// LikeRecipe records userID's like on the recipe and bumps the author's
// received-likes counter. The recipe-side write is a conditional atomic
// update, so a repeated like for the same pair counts once and the call is
// idempotent after the first success. A failed author update removes the
// just-recorded like again.
func (s *Service) LikeRecipe(ctx context.Context, userID, recipeID int) (bool, error) {
	rec, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return false, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return false, err
	}

	added, err := s.recipes.AddLike(ctx, recipeID, userID)
	if err != nil {
		return false, err
	}
	if !added {
		// already liked
		return false, nil
	}

	if err := s.users.IncLikes(ctx, rec.AuthorID, 1); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			// author deleted their account; the recipe stays by design
			// and the like stands without a counter to land on
			log.Printf("like on recipe %d kept; author %d no longer exists", recipeID, rec.AuthorID)
			return true, nil
		}
		if rerr := s.recipes.RemoveLike(ctx, recipeID, userID); rerr != nil {
			log.Printf("CRITICAL: like by %d on recipe %d half-committed: author update failed (%v) and undo failed (%v)",
				userID, recipeID, err, rerr)
			return false, fmt.Errorf("%w: recipe %d", ErrInconsistent, recipeID)
		}
		return false, err
	}

	return true, nil
}

// UpdateRecipe applies author-editable fields. Only the author may update.
// A new title must stay unique across recipes, same as on create.
func (s *Service) UpdateRecipe(ctx context.Context, actorID, recipeID int, upd db.RecipeUpdate) error {
	rec, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return err
	}
	if rec.AuthorID != actorID {
		return ErrForbidden
	}

	if upd.Title != nil && *upd.Title != rec.Title {
		if other, err := s.recipes.GetByTitle(ctx, *upd.Title); err == nil && other.RecipeID != recipeID {
			return validate.Errors{{Field: "title", Message: "already taken"}}
		} else if err != nil && !errors.Is(err, db.ErrNotFound) {
			return err
		}
	}

	if err := s.recipes.Update(ctx, recipeID, upd); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return validate.Errors{{Field: "title", Message: "already taken"}}
		}
		return err
	}
	return nil
}
