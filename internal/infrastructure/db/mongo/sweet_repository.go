package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

const collectionSweets = "sweets"

type SweetRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewSweetRepository(db *mongo.Database) *SweetRepository {
	return &SweetRepository{col: db.Collection(collectionSweets), now: time.Now}
}

type mongoSweet struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Category    string             `bson:"category"`
	Price       float64            `bson:"price"`
	Description string             `bson:"description"`
	Ingredients []string           `bson:"ingredients"`
	Stock       int                `bson:"stock"`
	IsAvailable bool               `bson:"isAvailable"`
	ImageURL    string             `bson:"imageUrl"`
	Rating      float64            `bson:"rating"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (m *mongoSweet) toDomain() *domain.Sweet {
	ingredients := m.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	return &domain.Sweet{
		ID:          m.ID.Hex(),
		Name:        m.Name,
		Category:    m.Category,
		Price:       m.Price,
		Description: m.Description,
		Ingredients: ingredients,
		Stock:       m.Stock,
		IsAvailable: m.IsAvailable,
		ImageURL:    m.ImageURL,
		Rating:      m.Rating,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func (r *SweetRepository) Create(ctx context.Context, s *domain.Sweet) (*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoSweet{
		ID:          primitive.NewObjectID(),
		Name:        s.Name,
		Category:    s.Category,
		Price:       s.Price,
		Description: s.Description,
		Ingredients: s.Ingredients,
		Stock:       s.Stock,
		IsAvailable: s.IsAvailable,
		ImageURL:    s.ImageURL,
		Rating:      s.Rating,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if doc.Ingredients == nil {
		doc.Ingredients = []string{}
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert sweet: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SweetRepository) FindByID(ctx context.Context, id string) (*domain.Sweet, error) {
	oid, err := parseSweetID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ms mongoSweet
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&ms); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("find sweet: %w", err)
	}
	return ms.toDomain(), nil
}

// List returns the sweets matching filter ordered by _id, which follows
// insertion order.
func (r *SweetRepository) List(ctx context.Context, filter domain.SweetFilter) ([]*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, buildSweetFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("list sweets: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoSweet
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sweets: %w", err)
	}

	out := make([]*domain.Sweet, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// Update sets the supplied fields and returns the updated document.
func (r *SweetRepository) Update(ctx context.Context, id string, patch domain.SweetPatch) (*domain.Sweet, error) {
	oid, err := parseSweetID(id)
	if err != nil {
		return nil, err
	}

	set := buildSweetSet(patch)
	set["updatedAt"] = r.now().UTC()
	return r.findOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
}

func (r *SweetRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseSweetID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete sweet: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrSweetNotFound
	}
	return nil
}

// DecrementStock runs a single conditional update: the filter requires
// stock >= quantity and the pipeline clears isAvailable when the new stock is
// zero. When nothing matches, a follow-up read tells a missing sweet apart
// from insufficient stock.
func (r *SweetRepository) DecrementStock(ctx context.Context, id string, quantity int) (*domain.Sweet, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	oid, err := parseSweetID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid, "stock": bson.M{"$gte": quantity}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stock", Value: bson.D{{Key: "$subtract", Value: bson.A{"$stock", quantity}}}},
			{Key: "updatedAt", Value: r.now().UTC()},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "isAvailable", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$stock", 0}}},
				false,
				"$isAvailable",
			}}}},
		}}},
	}

	sweet, err := r.findOneAndUpdate(ctx, filter, update)
	if !errors.Is(err, domain.ErrSweetNotFound) {
		return sweet, err
	}

	if _, ferr := r.FindByID(ctx, id); ferr != nil {
		return nil, ferr
	}
	return nil, domain.ErrInsufficientStock
}

func (r *SweetRepository) IncrementStock(ctx context.Context, id string, quantity int) (*domain.Sweet, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	oid, err := parseSweetID(id)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$inc": bson.M{"stock": quantity},
		"$set": bson.M{"isAvailable": true, "updatedAt": r.now().UTC()},
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": oid}, update)
}

func (r *SweetRepository) findOneAndUpdate(ctx context.Context, filter bson.M, update any) (*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ms mongoSweet
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ms); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("update sweet: %w", err)
	}
	return ms.toDomain(), nil
}

// EnsureIndexes creates the indexes backing catalog search.
func (r *SweetRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func parseSweetID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrInvalidID
	}
	return oid, nil
}

func buildSweetFilter(f domain.SweetFilter) bson.M {
	filter := bson.M{}
	if f.Name != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Name), Options: "i"}
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	price := bson.M{}
	if f.PriceMin != nil {
		price["$gte"] = *f.PriceMin
	}
	if f.PriceMax != nil {
		price["$lte"] = *f.PriceMax
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	return filter
}

func buildSweetSet(p domain.SweetPatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Ingredients != nil {
		set["ingredients"] = p.Ingredients
	}
	if p.Stock != nil {
		set["stock"] = *p.Stock
	}
	if p.IsAvailable != nil {
		set["isAvailable"] = *p.IsAvailable
	}
	if p.ImageURL != nil {
		set["imageUrl"] = *p.ImageURL
	}
	if p.Rating != nil {
		set["rating"] = *p.Rating
	}
	return set
}
