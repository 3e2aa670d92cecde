// Package seed bootstraps the default agency so a fresh install is
// usable without manual setup.
package seed

import (
	"context"
	"errors"
	"time"

	organizationdomain "github.com/agencydesk/agencydesk/internal/organization/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const (
	defaultAgencyName = "Main Agency"
	defaultAgencySlug = "main-agency"
)

// EnsureDefaultAgency seeds the root agency for startup bootstrap.
func EnsureDefaultAgency(db *gorm.DB) error {
	return ensure(db, 0)
}

// EnsureDefaultAgencyWithID seeds the root agency under a fixed id, for
// installs that pin the default agency via configuration.
func EnsureDefaultAgencyWithID(db *gorm.DB, id int64) error {
	if id == 0 {
		return errors.New("default agency id must be nonzero")
	}
	return ensure(db, snowflake.ID(id))
}

func ensure(db *gorm.DB, fixedID snowflake.ID) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing organizationdomain.Organization
		err := tx.WithContext(ctx).
			Where("slug = ?", defaultAgencySlug).
			First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		id := fixedID
		if id == 0 {
			id = node.Generate()
		}
		now := time.Now().UTC()
		return tx.WithContext(ctx).Create(&organizationdomain.Organization{
			ID:        id,
			Name:      defaultAgencyName,
			Slug:      defaultAgencySlug,
			Type:      organizationdomain.TypeAgency,
			OwnerID:   id,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error
	})
}
