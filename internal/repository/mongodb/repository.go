package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
)

const (
	productionsCollection  = "productions"
	productsCollection     = "products"
	producersCollection    = "producers"
	costsCollection        = "costs"
	productCostsCollection = "product_costs"
	reportsCollection      = "daily_production_reports"
)

// Verify interface compliance
var (
	_ repository.RecordStore = (*MongoDBRepository)(nil)
	_ repository.Catalog     = (*MongoDBRepository)(nil)
	_ repository.CostStore   = (*MongoDBRepository)(nil)
	_ repository.ReportStore = (*MongoDBRepository)(nil)
)

// MongoDBRepository implements the repository contracts on top of MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
	now    func() time.Time
}

// productionDoc stores one producer-day; _id is "<date>/<producer>".
type productionDoc struct {
	ID         string             `bson:"_id"`
	Date       string             `bson:"date"`
	ProducerID string             `bson:"producer_id"`
	Products   models.ProducerDay `bson:"products"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

// NewMongoDBRepository connects to MongoDB and ensures the indexes used by range reads.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
		now:    time.Now,
	}

	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(productionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: 1}, {Key: "producer_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create productions index: %w", err)
	}
	return nil
}

func dayKey(date, producerID string) string {
	return date + "/" + producerID
}

// ReadRange returns producer-days between opts.From and opts.To ordered by date key.
func (r *MongoDBRepository) ReadRange(ctx context.Context, opts repository.RangeOpts) ([]models.DateSheet, error) {
	filter := bson.M{}
	dateFilter := bson.M{}
	if opts.From != "" {
		dateFilter["$gte"] = opts.From
	}
	if opts.To != "" {
		dateFilter["$lte"] = opts.To
	}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}
	if opts.ProducerID != "" {
		filter["producer_id"] = opts.ProducerID
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "producer_id", Value: 1}})
	cursor, err := r.db.Collection(productionsCollection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, models.StoreError("find productions", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var sheets []models.DateSheet
	for cursor.Next(ctx) {
		var doc productionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, models.StoreError("decode production", err)
		}
		if len(sheets) == 0 || sheets[len(sheets)-1].Date != doc.Date {
			sheets = append(sheets, models.DateSheet{Date: doc.Date, Producers: make(map[string]models.ProducerDay)})
		}
		sheets[len(sheets)-1].Producers[doc.ProducerID] = doc.Products
	}
	if err := cursor.Err(); err != nil {
		return nil, models.StoreError("iterate productions", err)
	}

	r.logger.Debug("production range read",
		zap.String("from", opts.From),
		zap.String("to", opts.To),
		zap.String("producer_id", opts.ProducerID),
		zap.Int("dates", len(sheets)))
	return sheets, nil
}

// ReadDay returns one producer-day.
func (r *MongoDBRepository) ReadDay(ctx context.Context, date, producerID string) (models.ProducerDay, bool, error) {
	var doc productionDoc
	err := r.db.Collection(productionsCollection).FindOne(ctx, bson.M{"_id": dayKey(date, producerID)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ProducerDay{}, false, nil
	}
	if err != nil {
		return nil, false, models.StoreError("find production", err)
	}
	if doc.Products == nil {
		doc.Products = models.ProducerDay{}
	}
	return doc.Products, true, nil
}

// WriteDay replaces a producer-day; an empty pruned day removes the document.
func (r *MongoDBRepository) WriteDay(ctx context.Context, date, producerID string, day models.ProducerDay) error {
	pruned := day.Pruned()
	if len(pruned) == 0 {
		return r.DeleteDay(ctx, date, producerID)
	}

	doc := productionDoc{
		ID:         dayKey(date, producerID),
		Date:       date,
		ProducerID: producerID,
		Products:   pruned,
		UpdatedAt:  r.now().UTC(),
	}
	_, err := r.db.Collection(productionsCollection).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return models.StoreError("replace production", err)
	}
	return nil
}

// Exists reports whether a producer-day document is stored.
func (r *MongoDBRepository) Exists(ctx context.Context, date, producerID string) (bool, error) {
	count, err := r.db.Collection(productionsCollection).CountDocuments(ctx, bson.M{"_id": dayKey(date, producerID)}, options.Count().SetLimit(1))
	if err != nil {
		return false, models.StoreError("count production", err)
	}
	return count > 0, nil
}

// DeleteDay removes a producer-day document.
func (r *MongoDBRepository) DeleteDay(ctx context.Context, date, producerID string) error {
	if _, err := r.db.Collection(productionsCollection).DeleteOne(ctx, bson.M{"_id": dayKey(date, producerID)}); err != nil {
		return models.StoreError("delete production", err)
	}
	return nil
}

// SaveDailyReports upserts reporting snapshots by report id.
func (r *MongoDBRepository) SaveDailyReports(ctx context.Context, reports []models.DailyReport) error {
	if len(reports) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(reports))
	for _, report := range reports {
		if report.ID == "" {
			report.ID = models.ReportID(report.Date, report.ProducerID)
		}
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": report.ID}).
			SetReplacement(report).
			SetUpsert(true))
	}
	if _, err := r.db.Collection(reportsCollection).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to upsert daily reports: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
