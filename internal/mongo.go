package internal

import (
	"context"
	"errors"
	"fmt"
	"overlay/config"
	"overlay/entity"
	"overlay/services"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionLog       = "payment_log"
	collectionMerchants = "merchants"
	collectionExchange  = "gateway_exchange"
)

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
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
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client, nil
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, err
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	err := connection.Disconnect(m.ctx)
	if err != nil {
		log.Warn().Err(err).Msg("mongodb disconnect")
	}
}

func (m *MongoDB) WriteLogMessage(data services.Data) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)
	collection := connection.Database(m.database).Collection(collectionLog)
	_, err = collection.InsertOne(m.ctx, data)
	return err
}

// GetMerchant reads merchant credentials; an unknown merchant returns nil without error.
func (m *MongoDB) GetMerchant(ctx context.Context, merchantId string) (*entity.MerchantParameters, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	filter := bson.D{{"merchant_id", merchantId}}
	collection := connection.Database(m.database).Collection(collectionMerchants)
	var merchant entity.MerchantParameters
	err = collection.FindOne(ctx, filter).Decode(&merchant)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

// SaveExchange stores one leg of a gateway exchange.
func (m *MongoDB) SaveExchange(ctx context.Context, record *ExchangeRecord) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)
	collection := connection.Database(m.database).Collection(collectionExchange)
	_, err = collection.InsertOne(ctx, record)
	return err
}

// FindExchange returns the latest stored leg of the given kind, nil when nothing was stored.
func (m *MongoDB) FindExchange(ctx context.Context, exchangeId, kind string) (*ExchangeRecord, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	filter := bson.D{{"exchange_id", exchangeId}, {"kind", kind}}
	opts := options.FindOne().SetSort(bson.D{{"time", -1}})
	collection := connection.Database(m.database).Collection(collectionExchange)
	var record ExchangeRecord
	err = collection.FindOne(ctx, filter, opts).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindExchangesByTag lists exchange ids carrying the tag value.
func (m *MongoDB) FindExchangesByTag(ctx context.Context, tag string) ([]string, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionExchange)
	values, err := collection.Distinct(ctx, "exchange_id", bson.D{{"tags", tag}})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(values))
	for _, value := range values {
		if id, ok := value.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
