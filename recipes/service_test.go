package recipes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramsy/db"
	"ramsy/idgen"
	"ramsy/models"
	"ramsy/validate"
)

func newFixture(t *testing.T) (*db.Mem, *Service) {
	t.Helper()
	mem := db.NewMem()
	svc := NewService(mem.Users, mem.Recipes, idgen.New(mem.Users, mem.Recipes))
	return mem, svc
}

func seedUser(t *testing.T, users db.UserStore, id int, nickname string) {
	t.Helper()
	u, err := models.NewUser(models.UserInput{UserID: id, Nickname: nickname, Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, users.Insert(context.Background(), u))
}

func TestCreateRecipe(t *testing.T) {
	ctx := context.Background()
	mem, svc := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")

	rec, err := svc.CreateRecipe(ctx, 42, CreateInput{
		Title: "Tomato Soup",
		Steps: []string{"chop", "boil"},
	})
	require.NoError(t, err)

	assert.Equal(t, 42, rec.AuthorID)
	assert.Equal(t, "gordon", rec.Author)
	assert.GreaterOrEqual(t, rec.RecipeID, 100000)
	assert.Less(t, rec.RecipeID, 1000000)

	stored, err := mem.Recipes.GetByID(ctx, rec.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, "Tomato Soup", stored.Title)

	author, err := mem.Users.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, author.RecipesTotal)
	assert.Equal(t, []int{rec.RecipeID}, author.Recipes)
}

func TestCreateRecipeValidatesBeforePersisting(t *testing.T) {
	ctx := context.Background()
	mem, svc := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")

	_, err := svc.CreateRecipe(ctx, 42, CreateInput{
		Title: "x",
		Type:  "snack",
		Steps: []string{"only one"},
	})
	var errs validate.Errors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 3)

	author, err := mem.Users.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 0, author.RecipesTotal)
}

func TestCreateRecipeUnknownAuthor(t *testing.T) {
	_, svc := newFixture(t)
	_, err := svc.CreateRecipe(context.Background(), 999999, CreateInput{
		Title: "Tomato Soup",
		Steps: []string{"chop", "boil"},
	})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestCreateRecipeDuplicateTitle(t *testing.T) {
	ctx := context.Background()
	mem, svc := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")
	seedUser(t, mem.Users, 43, "marco")

	_, err := svc.CreateRecipe(ctx, 42, CreateInput{Title: "Tomato Soup", Steps: []string{"chop", "boil"}})
	require.NoError(t, err)

	_, err = svc.CreateRecipe(ctx, 43, CreateInput{Title: "Tomato Soup", Steps: []string{"dice", "simmer"}})
	var errs validate.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "title", errs[0].Field)
}

// users store whose list/counter update always fails
type failPushUsers struct{ db.UserStore }

func (f failPushUsers) PushRecipe(context.Context, int, int) error {
	return &db.PersistError{Op: "users.push_recipe", Err: errors.New("write failed")}
}

func TestCreateRecipeCompensatesOnAuthorUpdateFailure(t *testing.T) {
	ctx := context.Background()
	mem, _ := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")

	users := failPushUsers{mem.Users}
	svc := NewService(users, mem.Recipes, idgen.New(users, mem.Recipes))

	_, err := svc.CreateRecipe(ctx, 42, CreateInput{
		Title: "Tomato Soup",
		Steps: []string{"chop", "boil"},
	})
	var perr *db.PersistError
	require.ErrorAs(t, err, &perr)

	// the inserted recipe was removed again: no orphan remains
	_, err = mem.Recipes.GetByTitle(ctx, "Tomato Soup")
	assert.ErrorIs(t, err, db.ErrNotFound)

	author, err := mem.Users.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 0, author.RecipesTotal)
}

// recipes store whose delete always fails
type failDeleteRecipes struct{ db.RecipeStore }

func (f failDeleteRecipes) Delete(context.Context, int) (int64, error) {
	return 0, &db.PersistError{Op: "recipes.delete", Err: errors.New("write failed")}
}

func TestCreateRecipeFatalWhenCompensationFails(t *testing.T) {
	ctx := context.Background()
	mem, _ := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")

	users := failPushUsers{mem.Users}
	recStore := failDeleteRecipes{mem.Recipes}
	svc := NewService(users, recStore, idgen.New(users, recStore))

	_, err := svc.CreateRecipe(ctx, 42, CreateInput{
		Title: "Tomato Soup",
		Steps: []string{"chop", "boil"},
	})
	assert.ErrorIs(t, err, ErrInconsistent)
}

func TestDeleteRecipe(t *testing.T) {
	ctx := context.Background()
	mem, svc := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")

	rec, err := svc.CreateRecipe(ctx, 42, CreateInput{Title: "Tomato Soup", Steps: []string{"chop", "boil"}})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecipe(ctx, 42, rec.RecipeID))

	_, err = mem.Recipes.GetByID(ctx, rec.RecipeID)
	assert.ErrorIs(t, err, db.ErrNotFound)

	author, err := mem.Users.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 0, author.RecipesTotal)
	assert.Empty(t, author.Recipes)
}

func TestDeleteRecipeForbiddenForNonAuthor(t *testing.T) {
	ctx := context.Background()
	mem, svc := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")
	seedUser(t, mem.Users, 43, "marco")

	rec, err := svc.CreateRecipe(ctx, 42, CreateInput{Title: "Tomato Soup", Steps: []string{"chop", "boil"}})
	require.NoError(t, err)

	err = svc.DeleteRecipe(ctx, 43, rec.RecipeID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = mem.Recipes.GetByID(ctx, rec.RecipeID)
	assert.NoError(t, err)
}

type failPullUsers struct{ db.UserStore }

func (f failPullUsers) PullRecipe(context.Context, int, int) error {
	return &db.PersistError{Op: "users.pull_recipe", Err: errors.New("write failed")}
}

func TestDeleteRecipeCompensatesOnOwnerUpdateFailure(t *testing.T) {
	ctx := context.Background()
	mem, svc := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")

	rec, err := svc.CreateRecipe(ctx, 42, CreateInput{Title: "Tomato Soup", Steps: []string{"chop", "boil"}})
	require.NoError(t, err)

	users := failPullUsers{mem.Users}
	failing := NewService(users, mem.Recipes, idgen.New(users, mem.Recipes))

	err = failing.DeleteRecipe(ctx, 42, rec.RecipeID)
	var perr *db.PersistError
	require.ErrorAs(t, err, &perr)

	// the deleted recipe was restored; the owner's list still references it
	restored, err := mem.Recipes.GetByID(ctx, rec.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, "Tomato Soup", restored.Title)

	author, err := mem.Users.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []int{rec.RecipeID}, author.Recipes)
	assert.Equal(t, 1, author.RecipesTotal)
}

func TestLikeRecipeIdempotent(t *testing.T) {
	ctx := context.Background()
	mem, svc := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")
	seedUser(t, mem.Users, 7, "julia")

	rec, err := svc.CreateRecipe(ctx, 42, CreateInput{Title: "Tomato Soup", Steps: []string{"chop", "boil"}})
	require.NoError(t, err)

	liked, err := svc.LikeRecipe(ctx, 7, rec.RecipeID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.LikeRecipe(ctx, 7, rec.RecipeID)
	require.NoError(t, err)
	assert.False(t, liked)

	stored, err := mem.Recipes.GetByID(ctx, rec.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.LikesTotal, "second like must not double count")
	assert.Equal(t, []int{7}, stored.Likes)

	author, err := mem.Users.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, author.LikesTotal)
}

type failIncUsers struct{ db.UserStore }

func (f failIncUsers) IncLikes(context.Context, int, int) error {
	return &db.PersistError{Op: "users.inc_likes", Err: errors.New("write failed")}
}

func TestLikeRecipeCompensatesOnAuthorUpdateFailure(t *testing.T) {
	ctx := context.Background()
	mem, svc := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")
	seedUser(t, mem.Users, 7, "julia")

	rec, err := svc.CreateRecipe(ctx, 42, CreateInput{Title: "Tomato Soup", Steps: []string{"chop", "boil"}})
	require.NoError(t, err)

	users := failIncUsers{mem.Users}
	failing := NewService(users, mem.Recipes, idgen.New(users, mem.Recipes))

	_, err = failing.LikeRecipe(ctx, 7, rec.RecipeID)
	var perr *db.PersistError
	require.ErrorAs(t, err, &perr)

	// the like was rolled back together with its counter
	stored, err := mem.Recipes.GetByID(ctx, rec.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.LikesTotal)
	assert.Empty(t, stored.Likes)
}

func TestLikeRecipeKeptWhenAuthorDeleted(t *testing.T) {
	ctx := context.Background()
	mem, svc := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")
	seedUser(t, mem.Users, 7, "julia")

	rec, err := svc.CreateRecipe(ctx, 42, CreateInput{Title: "Tomato Soup", Steps: []string{"chop", "boil"}})
	require.NoError(t, err)

	// author deletes their account; the recipe stays orphaned
	_, err = mem.Users.Delete(ctx, 42)
	require.NoError(t, err)

	liked, err := svc.LikeRecipe(ctx, 7, rec.RecipeID)
	require.NoError(t, err)
	assert.True(t, liked)

	stored, err := mem.Recipes.GetByID(ctx, rec.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.LikesTotal)
}

func TestConcurrentLikesFromDistinctUsers(t *testing.T) {
	ctx := context.Background()
	mem, svc := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")
	seedUser(t, mem.Users, 7, "julia")
	seedUser(t, mem.Users, 8, "marco")

	rec, err := svc.CreateRecipe(ctx, 42, CreateInput{Title: "Tomato Soup", Steps: []string{"chop", "boil"}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, userID := range []int{7, 8} {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := svc.LikeRecipe(ctx, id, rec.RecipeID)
			assert.NoError(t, err)
		}(userID)
	}
	wg.Wait()

	stored, err := mem.Recipes.GetByID(ctx, rec.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.LikesTotal)
	assert.ElementsMatch(t, []int{7, 8}, stored.Likes)

	author, err := mem.Users.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, author.LikesTotal)
}

func TestConcurrentCreatesKeepCounterConsistent(t *testing.T) {
	ctx := context.Background()
	mem, svc := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateRecipe(ctx, 42, CreateInput{
				Title: fmt.Sprintf("Soup Number %d", i),
				Steps: []string{"chop", "boil"},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	author, err := mem.Users.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, n, author.RecipesTotal)
	assert.Len(t, author.Recipes, n)
}

func TestUpdateRecipeAuthorOnly(t *testing.T) {
	ctx := context.Background()
	mem, svc := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")
	seedUser(t, mem.Users, 43, "marco")

	rec, err := svc.CreateRecipe(ctx, 42, CreateInput{Title: "Tomato Soup", Steps: []string{"chop", "boil"}})
	require.NoError(t, err)

	desc := "a classic"
	err = svc.UpdateRecipe(ctx, 43, rec.RecipeID, db.RecipeUpdate{Description: &desc})
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.UpdateRecipe(ctx, 42, rec.RecipeID, db.RecipeUpdate{Description: &desc}))

	stored, err := mem.Recipes.GetByID(ctx, rec.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, "a classic", stored.Description)
}

func TestUpdateRecipeKeepsTitleUnique(t *testing.T) {
	ctx := context.Background()
	mem, svc := newFixture(t)
	seedUser(t, mem.Users, 42, "gordon")

	soup, err := svc.CreateRecipe(ctx, 42, CreateInput{Title: "Tomato Soup", Steps: []string{"chop", "boil"}})
	require.NoError(t, err)
	cake, err := svc.CreateRecipe(ctx, 42, CreateInput{Title: "Carrot Cake", Steps: []string{"grate", "bake"}})
	require.NoError(t, err)

	taken := soup.Title
	err = svc.UpdateRecipe(ctx, 42, cake.RecipeID, db.RecipeUpdate{Title: &taken})
	var errs validate.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "title", errs[0].Field)

	stored, err := mem.Recipes.GetByID(ctx, cake.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, "Carrot Cake", stored.Title, "rejected rename must leave the title untouched")

	// renaming to the recipe's own current title is not a collision
	require.NoError(t, svc.UpdateRecipe(ctx, 42, cake.RecipeID, db.RecipeUpdate{Title: &stored.Title}))
}
