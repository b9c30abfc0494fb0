package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/dberrors"
)

var errVoteNotFound = apperrors.NewResourceNotFoundError("vote not found")

// VoteRepository handles off-class votes, their options and ballots
type VoteRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(db *pgxpool.Pool) *VoteRepository {
	return &VoteRepository{
		db: db,
		sb: statementBuilder(),
	}
}

func (r *VoteRepository) selectVotes() squirrel.SelectBuilder {
	return r.sb.Select("id", "course_id", "creator_id", "title", "deadline", "is_closed", "created_at").From("off_votes")
}

// Create stores a vote with its options in one transaction
func (r *VoteRepository) Create(ctx context.Context, vote *models.OffVote, labels []string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("off_votes").
			Columns("course_id", "creator_id", "title", "deadline").
			Values(vote.CourseID, vote.CreatorID, vote.Title, vote.Deadline).
			Suffix("RETURNING id, is_closed, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create vote query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&vote.ID, &vote.IsClosed, &vote.CreatedAt); err != nil {
			if dberrors.IsForeignKeyViolation(err) {
				return apperrors.ErrCourseNotFound
			}
			return err
		}

		insert := r.sb.Insert("off_vote_options").Columns("vote_id", "label")
		for _, label := range labels {
			insert = insert.Values(vote.ID, label)
		}
		options, err := getAll[models.VoteOption](ctx, tx, insert.Suffix("RETURNING id, vote_id, label, 0 AS ballot_count"))
		if err != nil {
			return err
		}

		vote.Options = make([]models.VoteOption, 0, len(options))
		for _, o := range options {
			vote.Options = append(vote.Options, *o)
		}
		return nil
	})
}

// GetByID loads a vote with its options and ballot counts
func (r *VoteRepository) GetByID(ctx context.Context, id int64) (*models.OffVote, error) {
	vote, err := getOne[models.OffVote](ctx, r.db, r.selectVotes().Where(squirrel.Eq{"id": id}), errVoteNotFound)
	if err != nil {
		return nil, err
	}
	if err := r.loadOptions(ctx, []*models.OffVote{vote}); err != nil {
		return nil, err
	}
	return vote, nil
}

// ListByCourse returns the votes of a course, newest first, with their options
func (r *VoteRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.OffVote, error) {
	votes, err := getAll[models.OffVote](ctx, r.db, r.selectVotes().Where(squirrel.Eq{"course_id": courseID}).OrderBy("created_at DESC"))
	if err != nil {
		return nil, err
	}
	if err := r.loadOptions(ctx, votes); err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *VoteRepository) loadOptions(ctx context.Context, votes []*models.OffVote) error {
	if len(votes) == 0 {
		return nil
	}

	byID := make(map[int64]*models.OffVote, len(votes))
	ids := make([]int64, 0, len(votes))
	for _, v := range votes {
		v.Options = []models.VoteOption{}
		byID[v.ID] = v
		ids = append(ids, v.ID)
	}

	query := r.sb.Select("o.id", "o.vote_id", "o.label", "COUNT(b.user_id) AS ballot_count").
		From("off_vote_options o").
		LeftJoin("off_vote_ballots b ON b.option_id = o.id").
		Where(squirrel.Eq{"o.vote_id": ids}).
		GroupBy("o.id").
		OrderBy("o.id ASC")
	options, err := getAll[models.VoteOption](ctx, r.db, query)
	if err != nil {
		return err
	}
	for _, o := range options {
		if v, ok := byID[o.VoteID]; ok {
			v.Options = append(v.Options, *o)
		}
	}
	return nil
}

// CastBallot records one user's choice. The option must belong to the vote
// and each user votes once.
func (r *VoteRepository) CastBallot(ctx context.Context, voteID, optionID, userID int64) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO off_vote_ballots (vote_id, option_id, user_id)
		SELECT $1, $2, $3
		WHERE EXISTS (SELECT 1 FROM off_vote_options WHERE id = $2 AND vote_id = $1)`,
		voteID, optionID, userID)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "off_vote_ballots_vote_user_key") || dberrors.IsUniqueViolation(err) {
			return apperrors.ErrAlreadyVoted
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrInvalidVoteOption
	}
	return nil
}

// MyOption returns the option a user voted for, or nil
func (r *VoteRepository) MyOption(ctx context.Context, voteID, userID int64) (*int64, error) {
	var optionID int64
	err := r.db.QueryRow(ctx,
		`SELECT option_id FROM off_vote_ballots WHERE vote_id = $1 AND user_id = $2`, voteID, userID).Scan(&optionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &optionID, nil
}

// Close stops a vote from accepting ballots
func (r *VoteRepository) Close(ctx context.Context, id int64) error {
	stmt := r.sb.Update("off_votes").Set("is_closed", true).Where(squirrel.Eq{"id": id})
	return execAffected(ctx, r.db, stmt, errVoteNotFound)
}
