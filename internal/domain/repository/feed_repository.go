package repository

import (
	"context"

	"housingRadar/internal/domain/entity"
)

type FeedRepository interface {
	Fetch(ctx context.Context, url string) ([]*entity.NewsItem, error)
}
