package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is the relational row behind a document.
type Record struct {
	Path      string    `gorm:"primaryKey;size:255"`
	ID        string    `gorm:"primaryKey;size:64"`
	Data      string    `gorm:"type:longtext;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table name.
func (Record) TableName() string { return "documents" }

// SQL is a Store over a single GORM table. Filters and ordering run in process
// after the collection is loaded; collections in this application are small.
type SQL struct {
	db  *gorm.DB
	hub *hub
}

var _ Store = (*SQL)(nil)

// NewSQL returns a GORM-backed store. The documents table must exist.
func NewSQL(db *gorm.DB) *SQL {
	return &SQL{db: db, hub: newHub()}
}

// Get returns the document at path/id.
func (s *SQL) Get(ctx context.Context, path, id string) (Document, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("path = ? AND id = ?", path, id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", path, id, err)
	}
	return decodeRecord(rec)
}

// Query returns the documents of q.Path matching q.
func (s *SQL) Query(ctx context.Context, q Query) ([]Document, error) {
	var recs []Record
	if err := s.db.WithContext(ctx).Where("path = ?", q.Path).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Path, err)
	}
	docs := make([]Document, 0, len(recs))
	for _, rec := range recs {
		d, err := decodeRecord(rec)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return Apply(docs, q), nil
}

// Subscribe starts a live query. Changes are observed for writes made through
// this process only.
func (s *SQL) Subscribe(ctx context.Context, q Query) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.hub.watch(ctx, q, s.Query), nil
}

// Add stores data under a new id.
func (s *SQL) Add(ctx context.Context, path string, data map[string]any) (string, error) {
	id := ulid.Make().String()
	if err := s.Set(ctx, path, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Set creates or replaces path/id.
func (s *SQL) Set(ctx context.Context, path, id string, data map[string]any) error {
	return s.Batch(ctx, []Write{{Kind: WriteSet, Path: path, ID: id, Data: data}})
}

// Update merges patch into an existing document.
func (s *SQL) Update(ctx context.Context, path, id string, patch map[string]any) error {
	return s.Batch(ctx, []Write{{Kind: WriteUpdate, Path: path, ID: id, Data: patch}})
}

// Delete removes path/id.
func (s *SQL) Delete(ctx context.Context, path, id string) error {
	return s.Batch(ctx, []Write{{Kind: WriteDelete, Path: path, ID: id}})
}

// Batch applies writes in one transaction.
func (s *SQL) Batch(ctx context.Context, writes []Write) error {
	touched := make(map[string]struct{})
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, w := range writes {
			if err := applyWrite(tx, w); err != nil {
				return fmt.Errorf("write %d: %w", i, err)
			}
			touched[w.Path] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return err
	}
	paths := make([]string, 0, len(touched))
	for p := range touched {
		paths = append(paths, p)
	}
	s.hub.notify(paths...)
	return nil
}

func applyWrite(tx *gorm.DB, w Write) error {
	switch w.Kind {
	case WriteSet:
		id := w.ID
		if id == "" {
			id = ulid.Make().String()
		}
		data, err := normalize(w.Data)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		rec := Record{Path: w.Path, ID: id, Data: string(raw)}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).Create(&rec).Error
	case WriteUpdate:
		var rec Record
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("path = ? AND id = ?", w.Path, w.ID).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%s/%s: %w", w.Path, w.ID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		cur, err := decodeRecord(rec)
		if err != nil {
			return err
		}
		merge(cur.Data, w.Data)
		data, err := normalize(cur.Data)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		return tx.Model(&Record{}).
			Where("path = ? AND id = ?", w.Path, w.ID).
			Update("data", string(raw)).Error
	case WriteDelete:
		return tx.Where("path = ? AND id = ?", w.Path, w.ID).Delete(&Record{}).Error
	}
	return fmt.Errorf("unknown write kind %d", w.Kind)
}

func decodeRecord(rec Record) (Document, error) {
	data := map[string]any{}
	if err := json.Unmarshal([]byte(rec.Data), &data); err != nil {
		return Document{}, fmt.Errorf("decode %s/%s: %w", rec.Path, rec.ID, err)
	}
	return Document{ID: rec.ID, Path: rec.Path, Data: data}, nil
}
