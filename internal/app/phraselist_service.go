package app

import (
	"context"
	"errors"
	"fmt"

	"phrasebook/internal/domain"
)

// DefaultDisplayMode is used when a list is viewed without a display mode.
const DefaultDisplayMode = "all"

// ListSummary is a list as shown on the owner's overview page.
type ListSummary struct {
	domain.PhraseList
	PhraseCount int
}

// ListView is a single list with its phrases in import order.
type ListView struct {
	List        domain.PhraseList
	Phrases     []domain.Phrase
	DisplayMode string
}

// PhraseListService encapsulates ownership-scoped reads of phrase lists.
type PhraseListService struct {
	repo domain.PhraseListRepository
}

// NewPhraseListService creates a PhraseListService backed by repo.
func NewPhraseListService(repo domain.PhraseListRepository) *PhraseListService {
	return &PhraseListService{repo: repo}
}

// MyLists returns every list owned by userID, newest first.
func (s *PhraseListService) MyLists(ctx context.Context, userID int64) ([]ListSummary, error) {
	lists, err := s.repo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, domain.E(domain.KindStorage, "", fmt.Errorf("find lists of user %d: %w", userID, err))
	}

	out := make([]ListSummary, 0, len(lists))
	for _, l := range lists {
		n, err := s.repo.CountPhrases(ctx, l.ID)
		if err != nil {
			return nil, domain.E(domain.KindStorage, "", fmt.Errorf("count phrases of list %d: %w", l.ID, err))
		}
		out = append(out, ListSummary{PhraseList: l, PhraseCount: n})
	}
	return out, nil
}

// GetList returns list listID with its phrases if userID owns it. A list
// that does not exist and a list owned by someone else are both reported
// as KindUnauthorized.
func (s *PhraseListService) GetList(ctx context.Context, userID, listID int64, displayMode string) (*ListView, error) {
	list, err := s.repo.FindByID(ctx, listID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorized()
	}
	if err != nil {
		return nil, domain.E(domain.KindStorage, "", fmt.Errorf("find list %d: %w", listID, err))
	}
	if !list.OwnedBy(userID) {
		return nil, domain.Unauthorized()
	}

	phrases, err := s.repo.FindPhrasesByList(ctx, listID)
	if err != nil {
		return nil, domain.E(domain.KindStorage, "", fmt.Errorf("find phrases of list %d: %w", listID, err))
	}

	if displayMode == "" {
		displayMode = DefaultDisplayMode
	}
	return &ListView{List: *list, Phrases: phrases, DisplayMode: displayMode}, nil
}
