package internal

import (
	"context"
	"fmt"
	"time"
	"webpay/config"
	"webpay/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionLog    = "payment_log"
	collectionEvents = "transaction_events"
)

var mongoConnectTimeout = 10 * time.Second

// MongoDB keeps the payment log and the transaction event journal. Nothing here is
// read back by the payment flow.
type MongoDB struct {
	client   *mongo.Client
	database string
}

func NewMongoClient(conf *config.Config) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	m := &MongoDB{
		client:   client,
		database: conf.Mongo.Database,
	}
	if err = m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return m, nil
}

// ensureIndexes is idempotent: creating an index that already exists with the same keys succeeds.
func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}, {Key: "time", Value: 1}}},
		{Keys: bson.D{{Key: "buy_order", Value: 1}}},
	}
	_, err := m.collection(collectionEvents).Indexes().CreateMany(ctx, indexes)
	return err
}

func (m *MongoDB) collection(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

func (m *MongoDB) WriteLogMessage(ctx context.Context, data services.Data) error {
	_, err := m.collection(collectionLog).InsertOne(ctx, data)
	return err
}

func (m *MongoDB) WriteTransactionEvent(ctx context.Context, data services.Data) error {
	_, err := m.collection(collectionEvents).InsertOne(ctx, data)
	return err
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
