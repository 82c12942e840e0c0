package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"payfast/config"
	"payfast/entity"
	"payfast/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionLog      = "payment_log"
	collectionOrders   = "orders"
	collectionSettings = "settings"
	collectionLocales  = "locale_resources"

	settingsKey = "payfast"
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

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, err
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	err := connection.Disconnect(m.ctx)
	if err != nil {
		log.Println("mongodb disconnect error", err)
	}
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, services.ErrNotFound)
	}
	return err
}

func (m *MongoDB) WriteLogMessage(data services.Data) error {
	connection, err := m.connect(m.ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)
	collection := connection.Database(m.database).Collection(collectionLog)
	_, err = collection.InsertOne(m.ctx, data)
	return err
}

func (m *MongoDB) GetOrder(ctx context.Context, id int) (*entity.Order, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "order_id", Value: id}}
	collection := connection.Database(m.database).Collection(collectionOrders)
	var order entity.Order
	if err = collection.FindOne(ctx, filter).Decode(&order); err != nil {
		return nil, notFound(err, fmt.Sprintf("order %d", id))
	}
	return &order, nil
}

// GetOrderByGuid expects guids stored in canonical lowercase form.
func (m *MongoDB) GetOrderByGuid(ctx context.Context, guid string) (*entity.Order, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "order_guid", Value: strings.ToLower(guid)}}
	collection := connection.Database(m.database).Collection(collectionOrders)
	var order entity.Order
	if err = collection.FindOne(ctx, filter).Decode(&order); err != nil {
		return nil, notFound(err, fmt.Sprintf("order %s", guid))
	}
	return &order, nil
}

// UpdateOrder updates payment related fields only, the rest of the order
// belongs to the store.
func (m *MongoDB) UpdateOrder(ctx context.Context, order *entity.Order) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionOrders)
	filter := bson.D{{Key: "order_id", Value: order.Id}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "authorization_transaction_id", Value: order.AuthorizationTransactionId},
			{Key: "order_status", Value: order.OrderStatus},
			{Key: "payment_status", Value: order.PaymentStatus},
			{Key: "paid_date", Value: order.PaidDate},
		}},
	}
	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order %d: %w", order.Id, services.ErrNotFound)
	}
	return nil
}

func (m *MongoDB) GetSettings(ctx context.Context) (*entity.Settings, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "key", Value: settingsKey}}
	collection := connection.Database(m.database).Collection(collectionSettings)
	var record struct {
		Settings entity.Settings `bson:"settings"`
	}
	if err = collection.FindOne(ctx, filter).Decode(&record); err != nil {
		return nil, notFound(err, "settings")
	}
	return &record.Settings, nil
}

func (m *MongoDB) SaveSettings(ctx context.Context, settings *entity.Settings) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "key", Value: settingsKey}}
	set := bson.M{"$set": bson.M{"key": settingsKey, "settings": settings}}
	collection := connection.Database(m.database).Collection(collectionSettings)
	_, err = collection.UpdateOne(ctx, filter, set, options.Update().SetUpsert(true))
	return err
}

func (m *MongoDB) DeleteSettings(ctx context.Context) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "key", Value: settingsKey}}
	collection := connection.Database(m.database).Collection(collectionSettings)
	_, err = collection.DeleteOne(ctx, filter)
	return err
}

func (m *MongoDB) GetLocaleResource(ctx context.Context, name string) (*entity.LocaleResource, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "name", Value: name}}
	collection := connection.Database(m.database).Collection(collectionLocales)
	var resource entity.LocaleResource
	if err = collection.FindOne(ctx, filter).Decode(&resource); err != nil {
		return nil, notFound(err, fmt.Sprintf("locale resource %s", name))
	}
	return &resource, nil
}

func (m *MongoDB) SaveLocaleResource(ctx context.Context, resource *entity.LocaleResource) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "name", Value: resource.Name}}
	set := bson.M{"$set": resource}
	collection := connection.Database(m.database).Collection(collectionLocales)
	_, err = collection.UpdateOne(ctx, filter, set, options.Update().SetUpsert(true))
	return err
}

func (m *MongoDB) DeleteLocaleResource(ctx context.Context, name string) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "name", Value: name}}
	collection := connection.Database(m.database).Collection(collectionLocales)
	_, err = collection.DeleteOne(ctx, filter)
	return err
}
