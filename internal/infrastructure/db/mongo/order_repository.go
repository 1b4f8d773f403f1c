package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

// productSnapshot freezes the product as it was when ordered.
type productSnapshot struct {
	ID     string   `bson:"_id"`
	Title  string   `bson:"title"`
	Slug   string   `bson:"slug"`
	Price  float64  `bson:"price"`
	Images []string `bson:"images,omitempty"`
}

type orderLineDoc struct {
	Product  productSnapshot `bson:"product"`
	Quantity int             `bson:"quantity"`
	Price    float64         `bson:"price"`
}

type billingDoc struct {
	FirstName     string `bson:"first_name"`
	CompanyName   string `bson:"company_name,omitempty"`
	StreetAddress string `bson:"street_address"`
	Apartment     string `bson:"apartment,omitempty"`
	City          string `bson:"city"`
	Phone         string `bson:"phone"`
	Email         string `bson:"email"`
}

type operatorDoc struct {
	ID        string    `bson:"_id"`
	Username  string    `bson:"username"`
	Email     string    `bson:"email"`
	CreatedAt time.Time `bson:"created_at"`
}

type customerDoc struct {
	ID       string `bson:"_id"`
	Username string `bson:"username"`
	Email    string `bson:"email"`
}

type orderDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Lines       []orderLineDoc     `bson:"products"`
	TotalAmount float64            `bson:"total_amount"`
	Status      string             `bson:"status"`
	Billing     billingDoc         `bson:"billing_details"`
	Operator    *operatorDoc       `bson:"operator,omitempty"`
	User        *customerDoc       `bson:"user,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func orderToDoc(o *domain.Order) orderDoc {
	doc := orderDoc{
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
		Billing: billingDoc{
			FirstName:     o.BillingDetails.FirstName,
			CompanyName:   o.BillingDetails.CompanyName,
			StreetAddress: o.BillingDetails.StreetAddress,
			Apartment:     o.BillingDetails.Apartment,
			City:          o.BillingDetails.City,
			Phone:         o.BillingDetails.Phone,
			Email:         o.BillingDetails.Email,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	for _, l := range o.Products {
		doc.Lines = append(doc.Lines, orderLineDoc{
			Product: productSnapshot{
				ID:     l.Product.ID,
				Title:  l.Product.Title,
				Slug:   l.Product.Slug,
				Price:  l.Product.Price,
				Images: l.Product.Images,
			},
			Quantity: l.Quantity,
			Price:    l.Price,
		})
	}
	if o.Operator != nil {
		doc.Operator = toOperatorDoc(*o.Operator)
	}
	if o.User != nil {
		doc.User = &customerDoc{ID: o.User.ID, Username: o.User.Username, Email: o.User.Email}
	}
	return doc
}

func toOperatorDoc(op domain.Operator) *operatorDoc {
	return &operatorDoc{ID: op.ID, Username: op.Username, Email: op.Email, CreatedAt: op.CreatedAt}
}

func (d orderDoc) toDomain() domain.Order {
	o := domain.Order{
		ID:          d.ID.Hex(),
		TotalAmount: d.TotalAmount,
		Status:      domain.OrderStatus(d.Status),
		BillingDetails: domain.BillingDetails{
			FirstName:     d.Billing.FirstName,
			CompanyName:   d.Billing.CompanyName,
			StreetAddress: d.Billing.StreetAddress,
			Apartment:     d.Billing.Apartment,
			City:          d.Billing.City,
			Phone:         d.Billing.Phone,
			Email:         d.Billing.Email,
		},
		Products:  make([]domain.OrderLine, 0, len(d.Lines)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, l := range d.Lines {
		o.Products = append(o.Products, domain.OrderLine{
			Product: domain.Product{
				ID:     l.Product.ID,
				Title:  l.Product.Title,
				Slug:   l.Product.Slug,
				Price:  l.Product.Price,
				Images: l.Product.Images,
			},
			Quantity: l.Quantity,
			Price:    l.Price,
		})
	}
	if d.Operator != nil {
		o.Operator = &domain.Operator{ID: d.Operator.ID, Username: d.Operator.Username, Email: d.Operator.Email, CreatedAt: d.Operator.CreatedAt}
	}
	if d.User != nil {
		o.User = &domain.User{ID: d.User.ID, Username: d.User.Username, Email: d.User.Email, Role: domain.RoleUser}
	}
	return o
}

type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(collectionOrders)}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := orderToDoc(o)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	out := doc.toDomain()
	return &out, nil
}

func (r *OrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]domain.Order, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.OperatorID != "" {
		query["operator._id"] = filter.OperatorID
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	cur, err := r.coll.Find(ctx, query, findPage(filter.Page))
	if err != nil {
		return nil, 0, fmt.Errorf("find orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode orders: %w", err)
	}
	out := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, total, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc orderDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	out := doc.toDomain()
	return &out, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	return r.set(ctx, id, bson.M{"status": string(status)})
}

func (r *OrderRepository) Assign(ctx context.Context, id string, operator domain.Operator) (*domain.Order, error) {
	return r.set(ctx, id, bson.M{"operator": toOperatorDoc(operator)})
}

// set applies fields atomically and returns the updated order.
func (r *OrderRepository) set(ctx context.Context, id string, fields bson.M) (*domain.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc orderDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": fields}, opts).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	out := doc.toDomain()
	return &out, nil
}

// Stats groups orders by status in a single aggregation.
func (r *OrderRepository) Stats(ctx context.Context) (domain.StatusCounts, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total_amount"}}},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.StatusCounts{}, 0, fmt.Errorf("aggregate orders: %w", err)
	}
	var rows []struct {
		Status  string  `bson:"_id"`
		Count   int64   `bson:"count"`
		Revenue float64 `bson:"revenue"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return domain.StatusCounts{}, 0, fmt.Errorf("decode order stats: %w", err)
	}

	var counts domain.StatusCounts
	var revenue float64
	for _, row := range rows {
		switch domain.OrderStatus(row.Status) {
		case domain.OrderPending:
			counts.Pending = row.Count
		case domain.OrderConfirmed:
			counts.Confirmed = row.Count
		case domain.OrderDelivered:
			counts.Delivered = row.Count
		}
		revenue += row.Revenue
	}
	return counts, revenue, nil
}
