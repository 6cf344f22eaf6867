package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ramsy/models"
)

// Mongo owns the client and the per-collection stores. Built once in main
// and handed to every component that needs it.
type Mongo struct {
	client  *mongo.Client
	Users   *MongoUsers
	Recipes *MongoRecipes
}

func Connect(ctx context.Context, uri string) (*Mongo, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	database := client.Database("ramsy")
	m := &Mongo{
		client:  client,
		Users:   &MongoUsers{col: database.Collection("users")},
		Recipes: &MongoRecipes{col: database.Collection("recipes")},
	}
	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	_, err := m.Users.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "nickname", Value: 1}}, Options: unique},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	_, err = m.Recipes.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipe_id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "title", Value: 1}}, Options: unique},
	})
	if err != nil {
		return fmt.Errorf("create recipe indexes: %w", err)
	}
	return nil
}

// ---- users ----

type MongoUsers struct {
	col *mongo.Collection
}

func (s *MongoUsers) GetByID(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, bson.M{"user_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoUsers) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, bson.M{"nickname": nickname}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoUsers) ListTop(ctx context.Context, skip, limit int64) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "recipes_total", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit).
		SetProjection(bson.M{"user_id": 1, "nickname": 1, "status": 1, "recipes_total": 1, "likes_total": 1})

	cursor, err := s.col.Find(ctx, bson.M{"status": "active"}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoUsers) Insert(ctx context.Context, u *models.User) error {
	_, err := s.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return &PersistError{Op: "users.insert", Err: err}
	}
	return nil
}

func (s *MongoUsers) Delete(ctx context.Context, id int) (int64, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"user_id": id})
	if err != nil {
		return 0, &PersistError{Op: "users.delete", Err: err}
	}
	return res.DeletedCount, nil
}

func (s *MongoUsers) PushRecipe(ctx context.Context, userID, recipeID int) error {
	return s.updateOne(ctx, "users.push_recipe", userID, bson.M{
		"$push": bson.M{"recipes": recipeID},
		"$inc":  bson.M{"recipes_total": 1},
	})
}

func (s *MongoUsers) PullRecipe(ctx context.Context, userID, recipeID int) error {
	return s.updateOne(ctx, "users.pull_recipe", userID, bson.M{
		"$pull": bson.M{"recipes": recipeID},
		"$inc":  bson.M{"recipes_total": -1},
	})
}

func (s *MongoUsers) IncLikes(ctx context.Context, userID, delta int) error {
	return s.updateOne(ctx, "users.inc_likes", userID, bson.M{
		"$inc": bson.M{"likes_total": delta},
	})
}

func (s *MongoUsers) AddFavorite(ctx context.Context, userID, recipeID int) error {
	return s.updateOne(ctx, "users.add_favorite", userID, bson.M{
		"$addToSet": bson.M{"favorites": recipeID},
	})
}

func (s *MongoUsers) RemoveFavorite(ctx context.Context, userID, recipeID int) error {
	return s.updateOne(ctx, "users.remove_favorite", userID, bson.M{
		"$pull": bson.M{"favorites": recipeID},
	})
}

func (s *MongoUsers) SetStatus(ctx context.Context, userID int, status string) error {
	return s.updateOne(ctx, "users.set_status", userID, bson.M{
		"$set": bson.M{"status": status},
	})
}

func (s *MongoUsers) IDInUse(ctx context.Context, id int) (bool, error) {
	count, err := s.col.CountDocuments(ctx, bson.M{"user_id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MongoUsers) updateOne(ctx context.Context, op string, userID int, update bson.M) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	if err != nil {
		return &PersistError{Op: op, Err: err}
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- recipes ----

type MongoRecipes struct {
	col *mongo.Collection
}

func (s *MongoRecipes) GetByID(ctx context.Context, id int) (*models.Recipe, error) {
	var rec models.Recipe
	err := s.col.FindOne(ctx, bson.M{"recipe_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *MongoRecipes) GetByTitle(ctx context.Context, title string) (*models.Recipe, error) {
	var rec models.Recipe
	err := s.col.FindOne(ctx, bson.M{"title": title}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *MongoRecipes) List(ctx context.Context, q RecipeQuery) ([]models.Recipe, error) {
	filter := bson.M{}
	if q.Search != "" {
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": q.Search, "$options": "i"}},
			{"description": bson.M{"$regex": q.Search, "$options": "i"}},
		}
	}
	if q.Type != "" {
		filter["type"] = q.Type
	}

	sort := bson.D{{Key: "date", Value: -1}} // default: newest
	switch q.Sort {
	case "oldest":
		sort = bson.D{{Key: "date", Value: 1}}
	case "popular":
		sort = bson.D{{Key: "likes_total", Value: -1}}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	opts := options.Find().
		SetSort(sort).
		SetSkip(q.Skip).
		SetLimit(limit).
		SetProjection(bson.M{"image_bytes": 0})

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recipes []models.Recipe
	if err := cursor.All(ctx, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (s *MongoRecipes) Insert(ctx context.Context, rec *models.Recipe) error {
	_, err := s.col.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return &PersistError{Op: "recipes.insert", Err: err}
	}
	return nil
}

func (s *MongoRecipes) Delete(ctx context.Context, id int) (int64, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"recipe_id": id})
	if err != nil {
		return 0, &PersistError{Op: "recipes.delete", Err: err}
	}
	return res.DeletedCount, nil
}

// AddLike only matches when userID is not yet in likes, so the set-add and
// the counter increment happen together or not at all. A MatchedCount of
// zero means the like was already recorded.
func (s *MongoRecipes) AddLike(ctx context.Context, recipeID, userID int) (bool, error) {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"recipe_id": recipeID, "likes": bson.M{"$ne": userID}},
		bson.M{
			"$addToSet": bson.M{"likes": userID},
			"$inc":      bson.M{"likes_total": 1},
		},
	)
	if err != nil {
		return false, &PersistError{Op: "recipes.add_like", Err: err}
	}
	return res.MatchedCount > 0, nil
}

func (s *MongoRecipes) RemoveLike(ctx context.Context, recipeID, userID int) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"recipe_id": recipeID, "likes": userID},
		bson.M{
			"$pull": bson.M{"likes": userID},
			"$inc":  bson.M{"likes_total": -1},
		},
	)
	if err != nil {
		return &PersistError{Op: "recipes.remove_like", Err: err}
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoRecipes) Update(ctx context.Context, id int, upd RecipeUpdate) error {
	set := bson.M{}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Type != nil {
		set["type"] = *upd.Type
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Steps != nil {
		set["steps"] = upd.Steps
	}
	if upd.Hashtags != nil {
		set["hashtags"] = upd.Hashtags
	}
	if upd.ImageBytes != nil {
		set["image_bytes"] = upd.ImageBytes
	}
	if len(set) == 0 {
		return nil
	}

	res, err := s.col.UpdateOne(ctx, bson.M{"recipe_id": id}, bson.M{"$set": set})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return &PersistError{Op: "recipes.update", Err: err}
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoRecipes) SetStatus(ctx context.Context, id int, status string) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"recipe_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return &PersistError{Op: "recipes.set_status", Err: err}
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoRecipes) DistinctHashtags(ctx context.Context) ([]string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$hashtags"}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"hashtags": bson.M{"$addToSet": "$hashtags"},
		}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		Hashtags []string `bson:"hashtags"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return []string{}, nil
	}
	return result[0].Hashtags, nil
}

func (s *MongoRecipes) IDInUse(ctx context.Context, id int) (bool, error) {
	count, err := s.col.CountDocuments(ctx, bson.M{"recipe_id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
