package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var sortFieldPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var errInvalidSortField = errors.New("gateway: invalid sort field")

// documentRow is the single-table document layout backing the sqlite store.
// Bodies are stored as JSON so partial updates and per-field sorting work
// the same way they do against the document database.
type documentRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	DocID      string `gorm:"primaryKey;size:64;column:doc_id"`
	Body       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRow) TableName() string {
	return "documents"
}

// SQLiteStore implements Store on a local SQLite file. It exists for
// development and tests; production deployments point at Mongo.
type SQLiteStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// OpenSQLite establishes a SQLite connection, performs schema migration and
// wraps it as a document store.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, err
	}

	logger.Info("document store initialized", zap.String("driver", "sqlite"), zap.String("path", path))
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) FetchAll(ctx context.Context, collection string, sort *SortSpec) ([]Document, error) {
	query := s.db.WithContext(ctx).Model(&documentRow{}).Where("collection = ?", collection)

	if sort != nil {
		if !sortFieldPattern.MatchString(sort.Field) {
			return nil, errInvalidSortField
		}
		direction := "ASC"
		if sort.Descending {
			direction = "DESC"
		}
		query = query.Order(fmt.Sprintf("json_extract(body, '$.%s') %s", sort.Field, direction))
	}

	var rows []documentRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *SQLiteStore) FetchOne(ctx context.Context, collection, id string) (Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRow(row)
}

func (s *SQLiteStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()

	body := doc.Clone()
	delete(body, "id")
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	row := documentRow{Collection: collection, DocID: id, Body: string(encoded)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) Update(ctx context.Context, collection, id string, patch Document) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documentRow
		err := tx.Where("collection = ? AND doc_id = ?", collection, id).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var body Document
		if err := json.Unmarshal([]byte(row.Body), &body); err != nil {
			return err
		}

		merged := Merge(body, patch)
		delete(merged, "id")
		encoded, err := json.Marshal(merged)
		if err != nil {
			return err
		}

		row.Body = string(encoded)
		return tx.Save(&row).Error
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	result := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&documentRow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeRow(row documentRow) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(row.Body), &doc); err != nil {
		return nil, err
	}
	doc["id"] = row.DocID
	return doc, nil
}
