package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

const collectionMovements = "stock_movements"

// MovementRepository persists the stock movement audit trail.
type MovementRepository struct {
	col *mongo.Collection
}

func NewMovementRepository(db *mongo.Database) *MovementRepository {
	return &MovementRepository{col: db.Collection(collectionMovements)}
}

type mongoMovement struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	SweetID    primitive.ObjectID `bson:"sweetId"`
	Kind       string             `bson:"kind"`
	Quantity   int                `bson:"quantity"`
	StockAfter int                `bson:"stockAfter"`
	UserID     string             `bson:"userId"`
	At         time.Time          `bson:"at"`
}

// Insert appends a movement and sets its ID.
func (r *MovementRepository) Insert(ctx context.Context, m *domain.StockMovement) error {
	sweetID, err := parseSweetID(m.SweetID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoMovement{
		ID:         primitive.NewObjectID(),
		SweetID:    sweetID,
		Kind:       string(m.Kind),
		Quantity:   m.Quantity,
		StockAfter: m.StockAfter,
		UserID:     m.UserID,
		At:         m.At.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	m.ID = doc.ID.Hex()
	return nil
}

// ListBySweet returns up to limit movements for a sweet, newest first.
func (r *MovementRepository) ListBySweet(ctx context.Context, sweetID string, limit int) ([]*domain.StockMovement, error) {
	oid, err := parseSweetID(sweetID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.col.Find(ctx, bson.M{"sweetId": oid}, opts)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoMovement
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode stock movements: %w", err)
	}

	out := make([]*domain.StockMovement, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.StockMovement{
			ID:         d.ID.Hex(),
			SweetID:    d.SweetID.Hex(),
			Kind:       domain.MovementKind(d.Kind),
			Quantity:   d.Quantity,
			StockAfter: d.StockAfter,
			UserID:     d.UserID,
			At:         d.At.UTC(),
		})
	}
	return out, nil
}

// EnsureIndexes creates the compound index serving ListBySweet.
func (r *MovementRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sweetId", Value: 1}, {Key: "at", Value: -1}},
	})
	return err
}
