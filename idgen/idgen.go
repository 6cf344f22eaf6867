package idgen

import (
	"context"
	"errors"
	"math/rand"

	"ramsy/db"
)

// Users and recipes share one id namespace on purpose: a single allocator
// serves both, and an id never identifies two entities at once.
const (
	idMin = 100000
	idMax = 1000000

	// Random sampling degrades as the namespace fills; the retry cap makes
	// allocation fail closed instead of looping forever.
	maxAttempts = 1000
)

// ErrIDSpaceExhausted reports that no free id was found within the retry
// bound. Resource error, fatal for the request.
var ErrIDSpaceExhausted = errors.New("id space exhausted")

type Allocator struct {
	users   db.UserStore
	recipes db.RecipeStore
}

func New(users db.UserStore, recipes db.RecipeStore) *Allocator {
	return &Allocator{users: users, recipes: recipes}
}

// AllocateID returns an id in [100000, 1000000) not held by any existing
// user or recipe. Candidates are sampled uniformly and checked against both
// collections; collisions retry up to maxAttempts.
func (a *Allocator) AllocateID(ctx context.Context) (int, error) {
	for i := 0; i < maxAttempts; i++ {
		candidate := idMin + rand.Intn(idMax-idMin)

		inUse, err := a.users.IDInUse(ctx, candidate)
		if err != nil {
			return 0, err
		}
		if inUse {
			continue
		}

		inUse, err = a.recipes.IDInUse(ctx, candidate)
		if err != nil {
			return 0, err
		}
		if inUse {
			continue
		}

		return candidate, nil
	}
	return 0, ErrIDSpaceExhausted
}
