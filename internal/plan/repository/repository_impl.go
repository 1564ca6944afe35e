package repository

import (
	"context"
	"errors"

	plandomain "github.com/apexmarket/vendora/internal/plan/domain"
	"gorm.io/gorm"
)

type Repository interface {
	FindConfig(ctx context.Context, db *gorm.DB, key string) (*plandomain.ConfigRow, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) FindConfig(ctx context.Context, db *gorm.DB, key string) (*plandomain.ConfigRow, error) {
	var row plandomain.ConfigRow
	err := db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
