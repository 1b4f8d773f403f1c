package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

type categoryDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Slug      string             `bson:"slug"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d categoryDoc) toDomain() domain.Category {
	return domain.Category{ID: d.ID.Hex(), Name: d.Name, Slug: d.Slug, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

type CategoryRepository struct {
	coll *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{coll: db.Collection(collectionCategories)}
}

func (r *CategoryRepository) List(ctx context.Context, page ports.PageRequest) ([]domain.Category, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}
	cur, err := r.coll.Find(ctx, bson.M{}, findPage(page))
	if err != nil {
		return nil, 0, fmt.Errorf("find categories: %w", err)
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode categories: %w", err)
	}
	out := make([]domain.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, total, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc categoryDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	c := doc.toDomain()
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := categoryDoc{ID: primitive.NewObjectID(), Name: c.Name, Slug: c.Slug, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}
	out := doc.toDomain()
	return &out, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	oid, err := objectID(c.ID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"name":       c.Name,
		"slug":       c.Slug,
		"updated_at": c.UpdatedAt,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

type deliveryDoc struct {
	FreeDelivery   bool `bson:"free_delivery"`
	ReturnDelivery bool `bson:"return_delivery"`
}

type productDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Slug         string             `bson:"slug"`
	Description  string             `bson:"description"`
	Price        float64            `bson:"price"`
	OldPrice     *float64           `bson:"old_price,omitempty"`
	Images       []string           `bson:"images"`
	Colours      []string           `bson:"colours"`
	Sizes        []string           `bson:"sizes"`
	StockStatus  bool               `bson:"stock_status"`
	CountInStock int                `bson:"count_in_stock"`
	Rating       float64            `bson:"rating"`
	NumReviews   int                `bson:"num_reviews"`
	CategoryID   primitive.ObjectID `bson:"category"`
	Delivery     deliveryDoc        `bson:"delivery_options"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func productToDoc(p *domain.Product) (productDoc, error) {
	catID, err := objectID(p.Category.ID)
	if err != nil {
		return productDoc{}, fmt.Errorf("%w: category id %q", domain.ErrInvalidInput, p.Category.ID)
	}
	return productDoc{
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		Price:        p.Price,
		OldPrice:     p.OldPrice,
		Images:       p.Images,
		Colours:      p.Colours,
		Sizes:        p.Sizes,
		StockStatus:  p.StockStatus,
		CountInStock: p.CountInStock,
		Rating:       p.Rating,
		NumReviews:   p.NumReviews,
		CategoryID:   catID,
		Delivery: deliveryDoc{
			FreeDelivery:   p.DeliveryOptions.FreeDelivery,
			ReturnDelivery: p.DeliveryOptions.ReturnDelivery,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func (d productDoc) toDomain(category domain.Category) domain.Product {
	return domain.Product{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Slug:         d.Slug,
		Description:  d.Description,
		Price:        d.Price,
		OldPrice:     d.OldPrice,
		Images:       d.Images,
		Colours:      d.Colours,
		Sizes:        d.Sizes,
		StockStatus:  d.StockStatus,
		CountInStock: d.CountInStock,
		Rating:       d.Rating,
		NumReviews:   d.NumReviews,
		Category:     category,
		DeliveryOptions: domain.DeliveryOptions{
			FreeDelivery:   d.Delivery.FreeDelivery,
			ReturnDelivery: d.Delivery.ReturnDelivery,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// ProductRepository stores the category as an ObjectID reference and
// populates it on read.
type ProductRepository struct {
	coll       *mongo.Collection
	categories *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		coll:       db.Collection(collectionProducts),
		categories: db.Collection(collectionCategories),
	}
}

func (r *ProductRepository) List(ctx context.Context, page ports.PageRequest) ([]domain.Product, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	cur, err := r.coll.Find(ctx, bson.M{}, findPage(page))
	if err != nil {
		return nil, 0, fmt.Errorf("find products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode products: %w", err)
	}
	out, err := r.populate(ctx, docs)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc productDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	out, err := r.populate(ctx, []productDoc{doc})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	doc, err := productToDoc(p)
	if err != nil {
		return nil, err
	}
	doc.ID = primitive.NewObjectID()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	out := doc.toDomain(p.Category)
	return &out, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	oid, err := objectID(p.ID)
	if err != nil {
		return nil, err
	}
	doc, err := productToDoc(p)
	if err != nil {
		return nil, err
	}
	doc.ID = oid

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return nil, fmt.Errorf("replace product: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrNotFound
	}
	out := doc.toDomain(p.Category)
	return &out, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.coll.CountDocuments(ctx, bson.M{})
}

// populate resolves category references with a single $in query. Missing
// categories leave the bare id.
func (r *ProductRepository) populate(ctx context.Context, docs []productDoc) ([]domain.Product, error) {
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.CategoryID)
	}

	byID := make(map[primitive.ObjectID]domain.Category, len(ids))
	if len(ids) > 0 {
		cur, err := r.categories.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, fmt.Errorf("find product categories: %w", err)
		}
		var cats []categoryDoc
		if err := cur.All(ctx, &cats); err != nil {
			return nil, fmt.Errorf("decode product categories: %w", err)
		}
		for _, c := range cats {
			byID[c.ID] = c.toDomain()
		}
	}

	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		cat, ok := byID[d.CategoryID]
		if !ok {
			cat = domain.Category{ID: d.CategoryID.Hex()}
		}
		out = append(out, d.toDomain(cat))
	}
	return out, nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
