package models

import (
	"time"

	"ramsy/validate"
)

type Recipe struct {
	RecipeID    int      `json:"recipe_id" bson:"recipe_id"`
	AuthorID    int      `json:"author_id" bson:"author_id"`
	Author      string   `json:"author" bson:"author"`
	Title       string   `json:"title" bson:"title"`
	Type        string   `json:"type" bson:"type"`
	Description string   `json:"description" bson:"description"`
	Steps       []string `json:"steps" bson:"steps"`
	Status      string   `json:"status" bson:"status"`
	Hashtags    []string `json:"hashtags" bson:"hashtags"`
	Likes       []int    `json:"likes" bson:"likes"`
	LikesTotal  int      `json:"likes_total" bson:"likes_total"`
	ImageBytes  []byte   `json:"-" bson:"image_bytes,omitempty"`
	Date        int64    `json:"date" bson:"date"`
}

type RecipeInput struct {
	RecipeID    int
	AuthorID    int
	Author      string
	Title       string
	Type        string
	Description string
	Steps       []string
	Status      string
	Hashtags    []string
	Likes       []int
	ImageBytes  []byte
	Date        int64
}

// NewRecipe validates in and returns the recipe with defaults applied. The
// caller assigns RecipeID from the id allocator before constructing; Date
// defaults to now when absent. Author/AuthorID are the creating user's
// snapshot at creation time.
func NewRecipe(in RecipeInput) (*Recipe, error) {
	var errs validate.Errors

	title, ferr := validate.Title(in.Title)
	errs = errs.Add(ferr)

	rtype, ferr := validate.RecipeType(in.Type)
	errs = errs.Add(ferr)

	steps, ferr := validate.Steps(in.Steps)
	errs = errs.Add(ferr)

	status := in.Status
	if status == "" {
		status = validate.StatusActive
	}
	status, ferr = validate.Status(status)
	errs = errs.Add(ferr)

	if in.RecipeID <= 0 {
		errs = append(errs, &validate.FieldError{Field: "recipe_id", Message: "must be a positive integer"})
	}
	if in.AuthorID <= 0 {
		errs = append(errs, &validate.FieldError{Field: "author_id", Message: "must be a positive integer"})
	}

	if err := errs.Or(); err != nil {
		return nil, err
	}

	date := in.Date
	if date == 0 {
		date = time.Now().Unix()
	}
	hashtags := in.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	likes := in.Likes
	if likes == nil {
		likes = []int{}
	}

	return &Recipe{
		RecipeID:    in.RecipeID,
		AuthorID:    in.AuthorID,
		Author:      in.Author,
		Title:       title,
		Type:        rtype,
		Description: in.Description,
		Steps:       steps,
		Status:      status,
		Hashtags:    hashtags,
		Likes:       likes,
		LikesTotal:  len(likes),
		ImageBytes:  in.ImageBytes,
		Date:        date,
	}, nil
}
