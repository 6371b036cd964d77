package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"phrasebook/internal/domain"
)

// ImportRequest is one CSV upload into the list named Name.
type ImportRequest struct {
	OwnerID    int64
	Name       string
	TargetLang string
	SourceLang string
	CSV        io.Reader
}

// ImportResult describes a committed import.
type ImportResult struct {
	ListID   int64
	Created  bool
	Imported int
}

// ImportService runs the CSV import pipeline.
type ImportService struct {
	lists domain.PhraseListRepository
	tx    domain.TxManager
	log   *slog.Logger
}

// NewImportService creates an ImportService.
func NewImportService(lists domain.PhraseListRepository, tx domain.TxManager, log *slog.Logger) *ImportService {
	return &ImportService{lists: lists, tx: tx, log: log}
}

// Import creates or reuses the owner's list called req.Name and appends one
// phrase per CSV data row. Everything happens in a single transaction: a
// parse or storage failure leaves no trace, including a list created by
// this call.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if req.OwnerID == 0 {
		return nil, domain.Unauthorized()
	}
	src := req.CSV
	if src == nil {
		src = strings.NewReader("")
	}

	var res ImportResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		listID, created, err := s.ensureList(ctx, req)
		if err != nil {
			return err
		}

		rows := newPhraseReader(src)
		imported := 0
		for {
			pair, err := rows.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			if _, err := s.lists.InsertPhrase(ctx, listID, pair.Target, pair.Source); err != nil {
				return domain.E(domain.KindStorage, "", fmt.Errorf("insert phrase into list %d: %w", listID, err))
			}
			imported++
		}

		res = ImportResult{ListID: listID, Created: created, Imported: imported}
		return nil
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			err = domain.E(domain.KindStorage, "", err)
		}
		s.log.WarnContext(ctx, "import rolled back",
			slog.Int64("user_id", req.OwnerID),
			slog.String("list", req.Name),
			slog.String("kind", domain.KindOf(err).String()),
			slog.Any("error", err))
		return nil, err
	}

	s.log.InfoContext(ctx, "import committed",
		slog.Int64("user_id", req.OwnerID),
		slog.Int64("list_id", res.ListID),
		slog.Bool("created", res.Created),
		slog.Int("phrases", res.Imported))
	return &res, nil
}

// ensureList returns the id of the owner's list named req.Name, creating
// it when absent. When a concurrent import creates the same list first,
// the insert reports ErrAlreadyExists and the winner's list is reused.
func (s *ImportService) ensureList(ctx context.Context, req ImportRequest) (int64, bool, error) {
	existing, err := s.lists.FindByNameAndOwner(ctx, req.Name, req.OwnerID)
	if err != nil {
		return 0, false, domain.E(domain.KindStorage, "", fmt.Errorf("find list %q: %w", req.Name, err))
	}
	if existing != nil {
		return existing.ID, false, nil
	}

	id, err := s.lists.CreateList(ctx, req.OwnerID, req.Name, req.TargetLang, req.SourceLang)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		return 0, false, domain.E(domain.KindStorage, "", fmt.Errorf("create list %q: %w", req.Name, err))
	}

	existing, err = s.lists.FindByNameAndOwner(ctx, req.Name, req.OwnerID)
	if err != nil {
		return 0, false, domain.E(domain.KindStorage, "", fmt.Errorf("find list %q: %w", req.Name, err))
	}
	if existing == nil {
		return 0, false, domain.E(domain.KindStorage, "", fmt.Errorf("list %q vanished after conflict: %w", req.Name, domain.ErrNotFound))
	}
	return existing.ID, false, nil
}
