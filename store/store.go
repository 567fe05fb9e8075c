package store

import (
	"errors"
	"time"

	"support-relay/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a referenced identity, message or
// subscription does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence boundary of the relay. Every operation is
// fallible; callers treat failures as localized errors, never a crash.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&model.Identity{},
		&model.Message{},
		&model.Image{},
		&model.ConfigEntry{},
		&model.Subscription{},
	)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Identities

func (s *Store) GetIdentity(id string) (*model.Identity, error) {
	identity := new(model.Identity)
	if err := s.db.First(identity, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return identity, nil
}

// UpsertIdentity creates the identity or refreshes its owner tag and
// updated_at. The blocked and muted flags are never touched here, so an
// upsert can not resurrect a blocked identity.
func (s *Store) UpsertIdentity(id string, ownerTag string) (*model.Identity, error) {
	identity := &model.Identity{ID: id, OwnerTag: ownerTag}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"owner_tag":  ownerTag,
			"updated_at": time.Now(),
		}),
	}).Create(identity).Error
	if err != nil {
		return nil, err
	}
	return s.GetIdentity(id)
}

// TouchIdentity bumps updated_at; used at disconnect.
func (s *Store) TouchIdentity(id string) error {
	return s.db.Model(&model.Identity{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

func (s *Store) SetMuted(id string, muted bool) error {
	res := s.db.Model(&model.Identity{}).Where("id = ?", id).Update("muted", muted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetBlocked(id string, blocked bool) error {
	res := s.db.Model(&model.Identity{}).Where("id = ?", id).Update("blocked", blocked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteIdentity(id string) error {
	return s.db.Delete(&model.Identity{}, "id = ?", id).Error
}

func (s *Store) CountIdentities() (int64, error) {
	var count int64
	err := s.db.Model(&model.Identity{}).Count(&count).Error
	return count, err
}

// IdentitySummary is an identity row plus its stored message count, for
// the console user list.
type IdentitySummary struct {
	model.Identity
	MessageCount int64 `json:"message_count"`
}

func (s *Store) ListIdentitySummaries() ([]IdentitySummary, error) {
	summaries := []IdentitySummary{}
	err := s.db.Model(&model.Identity{}).
		Select("identities.*, count(messages.id) as message_count").
		Joins("left join messages on messages.owner_id = identities.id and messages.deleted_at is null").
		Group("identities.id").
		Order("identities.created_at desc").
		Find(&summaries).Error
	return summaries, err
}

// Messages

func (s *Store) CreateMessage(message *model.Message) error {
	return s.db.Create(message).Error
}

func (s *Store) ListMessagesByOwner(owner string) ([]model.Message, error) {
	messages := []model.Message{}
	err := s.db.Order("id asc").Where(&model.Message{OwnerID: owner}).Find(&messages).Error
	return messages, err
}

func (s *Store) DeleteMessage(id uint) error {
	res := s.db.Unscoped().Delete(&model.Message{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMessagesByOwner(owner string) error {
	return s.db.Unscoped().Where("owner_id = ?", owner).Delete(&model.Message{}).Error
}

// MarkMessagesRead flags all stored messages of one direction for an
// identity as read.
func (s *Store) MarkMessagesRead(owner string, fromUser bool) error {
	return s.db.Model(&model.Message{}).
		Where("owner_id = ? AND from_user = ? AND read = ?", owner, fromUser, false).
		Update("read", true).Error
}

func (s *Store) ReassignMessages(from string, to string) error {
	return s.db.Model(&model.Message{}).
		Where("owner_id = ?", from).
		Update("owner_id", to).Error
}

func (s *Store) CountMessages() (int64, error) {
	var count int64
	err := s.db.Model(&model.Message{}).Count(&count).Error
	return count, err
}

// Images

func (s *Store) CreateImage(image *model.Image) error {
	return s.db.Create(image).Error
}

func (s *Store) GetImage(id uint) (*model.Image, error) {
	image := new(model.Image)
	if err := s.db.First(image, id).Error; err != nil {
		return nil, translate(err)
	}
	return image, nil
}

// Configuration

func (s *Store) GetConfig(key string) (string, error) {
	entry := new(model.ConfigEntry)
	if err := s.db.Where(&model.ConfigEntry{Key: key}).First(entry).Error; err != nil {
		return "", translate(err)
	}
	return entry.Value, nil
}

func (s *Store) SetConfig(key string, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": time.Now(),
		}),
	}).Create(&model.ConfigEntry{Key: key, Value: value}).Error
}

// Subscriptions

// UpsertSubscription registers a push endpoint, reassigning it if the
// same endpoint re-registers under another identity.
func (s *Store) UpsertSubscription(sub *model.Subscription) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"owner_id":   sub.OwnerID,
			"keys":       sub.Keys,
			"updated_at": time.Now(),
		}),
	}).Create(sub).Error
}

func (s *Store) ListSubscriptionsByOwner(owner string) ([]model.Subscription, error) {
	subs := []model.Subscription{}
	err := s.db.Where(&model.Subscription{OwnerID: owner}).Find(&subs).Error
	return subs, err
}

func (s *Store) DeleteSubscription(id uint) error {
	return s.db.Unscoped().Delete(&model.Subscription{}, id).Error
}

func (s *Store) DeleteSubscriptionsByOwner(owner string) error {
	return s.db.Unscoped().Where("owner_id = ?", owner).Delete(&model.Subscription{}).Error
}

func (s *Store) ReassignSubscriptions(from string, to string) error {
	return s.db.Model(&model.Subscription{}).
		Where("owner_id = ?", from).
		Update("owner_id", to).Error
}

// Destructive multi-record operations. These run in a transaction so a
// moderation action either lands fully or not at all.

// PurgeIdentity removes all messages and subscriptions for an identity.
// With retainShell the identity row survives as a blocked shell record,
// otherwise it is removed too.
func (s *Store) PurgeIdentity(id string, retainShell bool) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("owner_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("owner_id = ?", id).Delete(&model.Subscription{}).Error; err != nil {
			return err
		}
		if retainShell {
			res := tx.Model(&model.Identity{}).Where("id = ?", id).Update("blocked", true)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrNotFound
			}
			return nil
		}
		res := tx.Delete(&model.Identity{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// MergeIdentity moves every message and subscription from one identity
// to another and deletes the source. The target is created if missing.
func (s *Store) MergeIdentity(from string, to string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		source := new(model.Identity)
		if err := tx.First(source, "id = ?", from).Error; err != nil {
			return translate(err)
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(&model.Identity{ID: to, OwnerTag: source.OwnerTag}).Error
		if err != nil {
			return err
		}
		if err := tx.Model(&model.Message{}).Where("owner_id = ?", from).Update("owner_id", to).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Subscription{}).Where("owner_id = ?", from).Update("owner_id", to).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Identity{}, "id = ?", from).Error
	})
}

// WipeAll removes every identity, message, image and subscription.
// Configuration entries survive a wipe.
func (s *Store) WipeAll() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&model.Subscription{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("1 = 1").Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("1 = 1").Delete(&model.Image{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&model.Identity{}).Error
	})
}
