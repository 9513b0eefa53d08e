// Package mongorepo implements the account and ledger stores on the
// MongoDB collections held by internal/db.
package mongorepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/spendlog/spendlog/internal/accounts"
	"github.com/spendlog/spendlog/internal/models"
)

type UsersRepo struct {
	collection *mongo.Collection
}

func NewUsersRepo(collection *mongo.Collection) *UsersRepo {
	return &UsersRepo{collection: collection}
}

func (r *UsersRepo) Insert(ctx context.Context, user models.User) error {
	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return accounts.ErrDuplicate
		}
		return fmt.Errorf("mongo: insert user: %w", err)
	}
	return nil
}

func (r *UsersRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, accounts.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find user: %w", err)
	}
	return &user, nil
}
