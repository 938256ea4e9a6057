package postgres

import (
	"github.com/opsboard/backend/internal/activity"
	activityDatamodel "github.com/opsboard/backend/internal/core/datamodel/activity"
	"gorm.io/gorm"
)

// ActivityRepository implements the activity.Repository port using GORM.
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) activity.Repository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Append(entry *activity.Entry) error {
	model, err := activity.ToDataModel(entry)
	if err != nil {
		return err
	}
	return r.db.Create(model).Error
}

// List returns matching entries most-recent-first; same-timestamp ties keep
// insertion order via the persisted sequence.
func (r *ActivityRepository) List(filter activity.Filter) ([]*activity.Entry, error) {
	query := r.db.Model(&activityDatamodel.Entry{})

	if filter.From != nil {
		query = query.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("timestamp <= ?", *filter.To)
	}
	if filter.UserName != "" {
		query = query.Where("user_name = ?", filter.UserName)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", string(filter.Category))
	}

	var models []*activityDatamodel.Entry
	if err := query.Order("timestamp DESC, seq DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]*activity.Entry, 0, len(models))
	for _, model := range models {
		entry, err := activity.FromDataModel(model)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ReplaceAll swaps the ledger contents atomically, used by restore.
func (r *ActivityRepository) ReplaceAll(entries []*activity.Entry) error {
	models := make([]*activityDatamodel.Entry, 0, len(entries))
	for _, entry := range entries {
		model, err := activity.ToDataModel(entry)
		if err != nil {
			return err
		}
		models = append(models, model)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&activityDatamodel.Entry{}).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.CreateInBatches(models, 200).Error
	})
}

func (r *ActivityRepository) DeleteAll() error {
	return r.db.Where("1 = 1").Delete(&activityDatamodel.Entry{}).Error
}

func (r *ActivityRepository) MaxSeq() (int64, error) {
	var max int64
	err := r.db.Model(&activityDatamodel.Entry{}).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&max).Error
	return max, err
}

func (r *ActivityRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&activityDatamodel.Entry{}).Count(&count).Error
	return count, err
}
