package gateway

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoStore implements Store against a MongoDB database, the production
// document gateway.
type MongoStore struct {
	database *mongo.Database
	logger   *zap.Logger
}

// OpenMongo connects to MongoDB and wraps the named database as a document
// store.
func OpenMongo(ctx context.Context, uri, database string, logger *zap.Logger) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if database == "" {
		return nil, fmt.Errorf("mongo database name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("document store initialized", zap.String("driver", "mongo"), zap.String("database", database))
	return &MongoStore{database: client.Database(database), logger: logger}, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.database.Client().Disconnect(ctx)
}

func (s *MongoStore) FetchAll(ctx context.Context, collection string, sort *SortSpec) ([]Document, error) {
	opts := options.Find()
	if sort != nil {
		direction := 1
		if sort.Descending {
			direction = -1
		}
		opts = opts.SetSort(bson.D{{Key: sort.Field, Value: direction}})
	}

	cursor, err := s.database.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		docs = append(docs, fromBSON(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *MongoStore) FetchOne(ctx context.Context, collection, id string) (Document, error) {
	filter, err := idFilter(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var raw bson.M
	err = s.database.Collection(collection).FindOne(ctx, filter).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromBSON(raw), nil
}

func (s *MongoStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	body := doc.Clone()
	delete(body, "id")

	result, err := s.database.Collection(collection).InsertOne(ctx, bson.M(body))
	if err != nil {
		return "", err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprintf("%v", result.InsertedID), nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, patch Document) error {
	filter, err := idFilter(id)
	if err != nil {
		return ErrNotFound
	}

	set := bson.M{}
	unset := bson.M{}
	for key, value := range patch {
		if key == "id" {
			continue
		}
		if value == nil {
			unset[key] = ""
			continue
		}
		set[key] = value
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(update) == 0 {
		return nil
	}

	result, err := s.database.Collection(collection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	filter, err := idFilter(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := s.database.Collection(collection).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// idFilter matches documents stored either under an ObjectID or a plain
// string primary key.
func idFilter(id string) (bson.M, error) {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}, nil
	}
	if id == "" {
		return nil, fmt.Errorf("empty id")
	}
	return bson.M{"_id": id}, nil
}

// fromBSON converts driver-native values into the neutral Document shape:
// ObjectIDs become hex strings under "id", DateTimes become time.Time, and
// nested arrays/maps are unwrapped recursively.
func fromBSON(raw bson.M) Document {
	doc := make(Document, len(raw))
	for key, value := range raw {
		if key == "_id" {
			if oid, ok := value.(primitive.ObjectID); ok {
				doc["id"] = oid.Hex()
			} else {
				doc["id"] = fmt.Sprintf("%v", value)
			}
			continue
		}
		doc[key] = fromBSONValue(value)
	}
	return doc
}

func fromBSONValue(value any) any {
	switch v := value.(type) {
	case primitive.DateTime:
		return v.Time()
	case primitive.ObjectID:
		return v.Hex()
	case primitive.A:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, fromBSONValue(item))
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = fromBSONValue(item)
		}
		return out
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return v
	}
}
