package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

type productDoc struct {
	ID         string               `bson:"_id"`
	Name       string               `bson:"name"`
	SalePrice  primitive.Decimal128 `bson:"sale_price"`
	FixedCost  primitive.Decimal128 `bson:"fixed_cost"`
	ProducerID string               `bson:"producer_id"`
}

type producerDoc struct {
	ID         string               `bson:"_id"`
	Name       string               `bson:"name"`
	SalaryCost primitive.Decimal128 `bson:"salary_cost"`
}

type costDoc struct {
	ID           string               `bson:"_id"`
	Name         string               `bson:"name"`
	Unit         string               `bson:"unit"`
	PricePerUnit primitive.Decimal128 `bson:"price_per_unit"`
}

type productCostsDoc struct {
	ProductID string                   `bson:"_id"`
	Lines     []models.ProductCostLine `bson:"lines"`
}

// toDecimal converts a stored Decimal128; unset values read as zero.
func toDecimal(d primitive.Decimal128) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Zero
	}
	return v
}

func fromDecimal(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d.String(), err)
	}
	return v, nil
}

func (d productDoc) model() models.Product {
	return models.Product{
		ID:         d.ID,
		Name:       d.Name,
		SalePrice:  toDecimal(d.SalePrice),
		FixedCost:  toDecimal(d.FixedCost),
		ProducerID: d.ProducerID,
	}
}

func (d producerDoc) model() models.Producer {
	return models.Producer{ID: d.ID, Name: d.Name, SalaryCost: toDecimal(d.SalaryCost)}
}

func (d costDoc) model() models.CostItem {
	return models.CostItem{ID: d.ID, Name: d.Name, Unit: d.Unit, PricePerUnit: toDecimal(d.PricePerUnit)}
}

// Products loads the whole product catalog.
func (r *MongoDBRepository) Products(ctx context.Context) (models.Catalog, error) {
	cursor, err := r.db.Collection(productsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, models.StoreError("find products", err)
	}
	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, models.StoreError("decode products", err)
	}

	catalog := make(models.Catalog, len(docs))
	for _, doc := range docs {
		catalog[doc.ID] = doc.model()
	}
	return catalog, nil
}

// Product loads one catalog entry.
func (r *MongoDBRepository) Product(ctx context.Context, id string) (models.Product, bool, error) {
	var doc productDoc
	err := r.db.Collection(productsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, false, nil
	}
	if err != nil {
		return models.Product{}, false, models.StoreError("find product", err)
	}
	return doc.model(), true, nil
}

// Producers loads every producer profile.
func (r *MongoDBRepository) Producers(ctx context.Context) (models.Producers, error) {
	cursor, err := r.db.Collection(producersCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, models.StoreError("find producers", err)
	}
	var docs []producerDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, models.StoreError("decode producers", err)
	}

	producers := make(models.Producers, len(docs))
	for _, doc := range docs {
		producers[doc.ID] = doc.model()
	}
	return producers, nil
}

// Producer loads one producer profile.
func (r *MongoDBRepository) Producer(ctx context.Context, id string) (models.Producer, bool, error) {
	var doc producerDoc
	err := r.db.Collection(producersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Producer{}, false, nil
	}
	if err != nil {
		return models.Producer{}, false, models.StoreError("find producer", err)
	}
	return doc.model(), true, nil
}

// ListCosts loads the cost items sorted by name.
func (r *MongoDBRepository) ListCosts(ctx context.Context) ([]models.CostItem, error) {
	cursor, err := r.db.Collection(costsCollection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, models.StoreError("find costs", err)
	}
	var docs []costDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, models.StoreError("decode costs", err)
	}

	costs := make([]models.CostItem, 0, len(docs))
	for _, doc := range docs {
		costs = append(costs, doc.model())
	}
	return costs, nil
}

// GetCost loads one cost item.
func (r *MongoDBRepository) GetCost(ctx context.Context, id string) (models.CostItem, bool, error) {
	var doc costDoc
	err := r.db.Collection(costsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.CostItem{}, false, nil
	}
	if err != nil {
		return models.CostItem{}, false, models.StoreError("find cost", err)
	}
	return doc.model(), true, nil
}

// SaveCost inserts or replaces a cost item.
func (r *MongoDBRepository) SaveCost(ctx context.Context, cost models.CostItem) error {
	price, err := fromDecimal(cost.PricePerUnit)
	if err != nil {
		return err
	}
	doc := costDoc{ID: cost.ID, Name: cost.Name, Unit: cost.Unit, PricePerUnit: price}
	if _, err := r.db.Collection(costsCollection).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true)); err != nil {
		return models.StoreError("save cost", err)
	}
	return nil
}

// DeleteCost removes a cost item.
func (r *MongoDBRepository) DeleteCost(ctx context.Context, id string) error {
	if _, err := r.db.Collection(costsCollection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return models.StoreError("delete cost", err)
	}
	return nil
}

// SetCostPrice updates the unit price of a cost item.
func (r *MongoDBRepository) SetCostPrice(ctx context.Context, id string, price decimal.Decimal) error {
	value, err := fromDecimal(price)
	if err != nil {
		return err
	}
	res, err := r.db.Collection(costsCollection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"price_per_unit": value}})
	if err != nil {
		return models.StoreError("update cost price", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("cost %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// ProductCosts loads the recipe lines of a product.
func (r *MongoDBRepository) ProductCosts(ctx context.Context, productID string) ([]models.ProductCostLine, error) {
	var doc productCostsDoc
	err := r.db.Collection(productCostsCollection).FindOne(ctx, bson.M{"_id": productID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, models.StoreError("find product costs", err)
	}
	return doc.Lines, nil
}

// AllProductCosts loads every product recipe.
func (r *MongoDBRepository) AllProductCosts(ctx context.Context) (map[string][]models.ProductCostLine, error) {
	cursor, err := r.db.Collection(productCostsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, models.StoreError("find product costs", err)
	}
	var docs []productCostsDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, models.StoreError("decode product costs", err)
	}

	out := make(map[string][]models.ProductCostLine, len(docs))
	for _, doc := range docs {
		out[doc.ProductID] = doc.Lines
	}
	return out, nil
}

// SetProductCosts replaces a product recipe; an empty recipe removes the document.
func (r *MongoDBRepository) SetProductCosts(ctx context.Context, productID string, lines []models.ProductCostLine) error {
	coll := r.db.Collection(productCostsCollection)
	if len(lines) == 0 {
		if _, err := coll.DeleteOne(ctx, bson.M{"_id": productID}); err != nil {
			return models.StoreError("delete product costs", err)
		}
		return nil
	}

	doc := productCostsDoc{ProductID: productID, Lines: lines}
	if _, err := coll.ReplaceOne(ctx, bson.M{"_id": productID}, doc, options.Replace().SetUpsert(true)); err != nil {
		return models.StoreError("save product costs", err)
	}
	return nil
}

// SetProductFixedCost updates the fixed cost of a catalog entry.
func (r *MongoDBRepository) SetProductFixedCost(ctx context.Context, productID string, fixedCost decimal.Decimal) error {
	value, err := fromDecimal(fixedCost)
	if err != nil {
		return err
	}
	res, err := r.db.Collection(productsCollection).UpdateOne(ctx, bson.M{"_id": productID}, bson.M{"$set": bson.M{"fixed_cost": value}})
	if err != nil {
		return models.StoreError("update product fixed cost", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product %s: %w", productID, models.ErrNotFound)
	}
	r.logger.Debug("product fixed cost updated", zap.String("product_id", productID), zap.String("fixed_cost", fixedCost.String()))
	return nil
}
