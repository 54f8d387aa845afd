package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"medsim/models"
)

// UserStore owns the users collection.
type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	CountByEmail(ctx context.Context, email string) (int64, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, userID string) (*models.User, error)
}

type MongoUserStore struct {
	coll *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{coll: db.Collection("users")}
}

func (s *MongoUserStore) Insert(ctx context.Context, user *models.User) error {
	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("%w: insert user: %v", models.ErrPersistence, err)
	}
	return nil
}

func (s *MongoUserStore) CountByEmail(ctx context.Context, email string) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return 0, fmt.Errorf("%w: count users: %v", models.ErrPersistence, err)
	}
	return count, nil
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: user", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", models.ErrPersistence, err)
	}
	return &user, nil
}

func (s *MongoUserStore) FindByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: user", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", models.ErrPersistence, err)
	}
	return &user, nil
}
