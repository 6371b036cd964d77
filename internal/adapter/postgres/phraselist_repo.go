package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"phrasebook/internal/domain"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var listColumns = []string{"id", "user_id", "name", "target_lang", "source_lang", "created_at"}

// CreateList inserts a list owned by ownerID. When the owner already has a
// list with this name nothing is inserted and domain.ErrAlreadyExists is
// returned; callers are expected to look the existing list up again.
func (d *DB) CreateList(ctx context.Context, ownerID int64, name, targetLang, sourceLang string) (int64, error) {
	query, args, err := psql.Insert("phrase_lists").
		Columns("user_id", "name", "target_lang", "source_lang").
		Values(ownerID, name, targetLang, sourceLang).
		Suffix("ON CONFLICT (user_id, name) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert phrase list: %w", err)
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var id int64
	err = d.q(ctx).QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("phrase list %q: %w", name, domain.ErrAlreadyExists)
	}
	if err != nil {
		return 0, mapError(err, "phrase list", name)
	}
	return id, nil
}

// FindByOwner returns the owner's lists, newest first.
func (d *DB) FindByOwner(ctx context.Context, ownerID int64) ([]domain.PhraseList, error) {
	query, args, err := psql.Select(listColumns...).
		From("phrase_lists").
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select phrase lists: %w", err)
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "phrase lists of user", ownerID)
	}
	defer rows.Close()

	var out []domain.PhraseList
	for rows.Next() {
		var l domain.PhraseList
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.TargetLang, &l.SourceLang, &l.CreatedAt); err != nil {
			return nil, mapError(err, "phrase lists of user", ownerID)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "phrase lists of user", ownerID)
	}
	return out, nil
}

// FindByID returns the list or domain.ErrNotFound.
func (d *DB) FindByID(ctx context.Context, id int64) (*domain.PhraseList, error) {
	return d.findList(ctx, sq.Eq{"id": id}, id)
}

// FindByNameAndOwner returns the owner's list with exactly this name, or
// (nil, nil) when there is none.
func (d *DB) FindByNameAndOwner(ctx context.Context, name string, ownerID int64) (*domain.PhraseList, error) {
	l, err := d.findList(ctx, sq.And{sq.Eq{"user_id": ownerID}, sq.Eq{"name": name}}, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return l, err
}

func (d *DB) findList(ctx context.Context, where sq.Sqlizer, key any) (*domain.PhraseList, error) {
	query, args, err := psql.Select(listColumns...).
		From("phrase_lists").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select phrase list: %w", err)
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var l domain.PhraseList
	err = d.q(ctx).QueryRowContext(ctx, query, args...).
		Scan(&l.ID, &l.UserID, &l.Name, &l.TargetLang, &l.SourceLang, &l.CreatedAt)
	if err != nil {
		return nil, mapError(err, "phrase list", key)
	}
	return &l, nil
}

// InsertPhrase appends a phrase to listID.
func (d *DB) InsertPhrase(ctx context.Context, listID int64, targetText, sourceText string) (int64, error) {
	query, args, err := psql.Insert("phrases").
		Columns("list_id", "target_lang_text", "source_lang_text").
		Values(listID, targetText, sourceText).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert phrase: %w", err)
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var id int64
	if err := d.q(ctx).QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapError(err, "phrase in list", listID)
	}
	return id, nil
}

// FindPhrasesByList returns the list's phrases in insertion order.
func (d *DB) FindPhrasesByList(ctx context.Context, listID int64) ([]domain.Phrase, error) {
	query, args, err := psql.Select("id", "list_id", "target_lang_text", "source_lang_text").
		From("phrases").
		Where(sq.Eq{"list_id": listID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select phrases: %w", err)
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "phrases of list", listID)
	}
	defer rows.Close()

	var out []domain.Phrase
	for rows.Next() {
		var p domain.Phrase
		if err := rows.Scan(&p.ID, &p.ListID, &p.TargetLangText, &p.SourceLangText); err != nil {
			return nil, mapError(err, "phrases of list", listID)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "phrases of list", listID)
	}
	return out, nil
}

// CountPhrases returns the number of phrases in listID.
func (d *DB) CountPhrases(ctx context.Context, listID int64) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("phrases").
		Where(sq.Eq{"list_id": listID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count phrases: %w", err)
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var n int
	if err := d.q(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(err, "phrases of list", listID)
	}
	return n, nil
}
