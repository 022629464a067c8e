package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/confbook/booking-service/internal/errs"
	"github.com/confbook/booking-service/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, username, passwordHash, role string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

type userRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewUserRepository(db *sqlx.DB, log *zap.Logger) *userRepository {
	return &userRepository{
		db:  db,
		log: log.Named("repo"),
	}
}

const usersTableName = `users`

func (r *userRepository) Create(ctx context.Context, username, passwordHash, role string) (model.User, error) {
	q, args, err := qb.Insert(usersTableName).
		Columns("username", "password_hash", "role").
		Values(username, passwordHash, role).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, q, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.User{}, errs.ErrUserExists
		}
		r.log.Error("Create user", zap.String("q", q))
		return model.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	q, args, err := qb.Select("id", "username", "password_hash", "role").
		From(usersTableName).
		Where(sq.Eq{"username": username}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}
