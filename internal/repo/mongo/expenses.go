package mongorepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/spendlog/spendlog/internal/ledger"
	"github.com/spendlog/spendlog/internal/models"
)

type ExpensesRepo struct {
	collection *mongo.Collection
}

func NewExpensesRepo(collection *mongo.Collection) *ExpensesRepo {
	return &ExpensesRepo{collection: collection}
}

func (r *ExpensesRepo) Insert(ctx context.Context, expense models.Expense) error {
	if _, err := r.collection.InsertOne(ctx, expense); err != nil {
		return fmt.Errorf("mongo: insert expense: %w", err)
	}
	return nil
}

func (r *ExpensesRepo) FindByID(ctx context.Context, id string) (*models.Expense, error) {
	var expense models.Expense
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&expense)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find expense: %w", err)
	}
	return &expense, nil
}

func (r *ExpensesRepo) Update(ctx context.Context, id string, amount float64, category, description string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"amount":      amount,
			"category":    category,
			"description": description,
		}},
	)
	if err != nil {
		return fmt.Errorf("mongo: update expense: %w", err)
	}
	if result.MatchedCount == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *ExpensesRepo) Delete(ctx context.Context, id string) error {
	// DeleteOne on an absent id matches nothing and is not an error.
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo: delete expense: %w", err)
	}
	return nil
}

func (r *ExpensesRepo) List(ctx context.Context, category string) ([]models.Expense, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongo: list expenses: %w", err)
	}
	defer cursor.Close(ctx)

	var expenses []models.Expense
	if err := cursor.All(ctx, &expenses); err != nil {
		return nil, fmt.Errorf("mongo: decode expenses: %w", err)
	}
	return expenses, nil
}
