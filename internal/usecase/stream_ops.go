package usecase

import (
	"context"
	"time"

	"github.com/user/staffstream/internal/domain"
)

// StreamOpsUseCase provides read-mostly introspection over the notification
// streams for the ops surface.
type StreamOpsUseCase struct {
	repo domain.StreamAdminRepository
}

// NewStreamOpsUseCase creates a new StreamOpsUseCase.
func NewStreamOpsUseCase(repo domain.StreamAdminRepository) *StreamOpsUseCase {
	return &StreamOpsUseCase{repo: repo}
}

func (uc *StreamOpsUseCase) GroupInfo(ctx context.Context, stream string) ([]domain.ConsumerGroupInfo, error) {
	return uc.repo.GroupInfo(ctx, stream)
}

func (uc *StreamOpsUseCase) ConsumerInfo(ctx context.Context, stream, group string) ([]domain.ConsumerInfo, error) {
	return uc.repo.ConsumerInfo(ctx, stream, group)
}

func (uc *StreamOpsUseCase) PendingSummary(ctx context.Context, stream, group string) (*domain.PendingSummary, error) {
	return uc.repo.PendingSummary(ctx, stream, group)
}

func (uc *StreamOpsUseCase) PendingEntries(ctx context.Context, stream, group string, minIdle time.Duration, count int64) ([]domain.PendingEntry, error) {
	if count <= 0 {
		count = 100
	}
	return uc.repo.PendingEntries(ctx, stream, group, minIdle, count)
}

func (uc *StreamOpsUseCase) TrimStream(ctx context.Context, stream string, maxLen int64) (int64, error) {
	return uc.repo.TrimStream(ctx, stream, maxLen)
}
