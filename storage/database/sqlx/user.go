package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	University   string    `db:"university"`
	Role         user.Role `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	TeacherID null.String `db:"teacher_id"`
	Bio       null.String `db:"bio"`
	StudentID null.String `db:"student_id"`
	Program   null.String `db:"program"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		University:   r.University,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.TeacherID.Valid {
		usr.Teacher = &user.TeacherProfile{ID: r.TeacherID.String, UserID: r.ID, Bio: r.Bio}
	}
	if r.StudentID.Valid {
		usr.Student = &user.StudentProfile{ID: r.StudentID.String, UserID: r.ID, Program: r.Program}
	}
	return usr
}

const userQuery = `
SELECT u.id, u.name, u.email, u.password_hash, u.university, u.role, u.created_at, u.updated_at,
       t.id AS teacher_id, t.bio, s.id AS student_id, s.program
FROM user_account u
         LEFT JOIN teacher t ON t.user_id = u.id
         LEFT JOIN student s ON s.user_id = u.id`

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return user.User{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO user_account (name, email, password_hash, university, role, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING id`,
		usr.Name, usr.Email, usr.PasswordHash, usr.University, usr.Role, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, conflictOn(err, "user_account_email", user.ErrEmailExists)
	}

	switch {
	case usr.Teacher != nil:
		usr.Teacher.UserID = usr.ID
		err = tx.QueryRowxContext(ctx,
			`INSERT INTO teacher (user_id, bio) VALUES ($1, $2) RETURNING id`,
			usr.ID, usr.Teacher.Bio,
		).Scan(&usr.Teacher.ID)
	case usr.Student != nil:
		usr.Student.UserID = usr.ID
		err = tx.QueryRowxContext(ctx,
			`INSERT INTO student (user_id, program) VALUES ($1, $2) RETURNING id`,
			usr.ID, usr.Student.Program,
		).Scan(&usr.Student.ID)
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating role profile")
	}

	if err = tx.Commit(); err != nil {
		return user.User{}, errors.Wrap(err, "committing transaction")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, userQuery+` WHERE u.id = $1`, id); err != nil {
		return user.User{}, notFoundOr(err, user.ErrNotFound)
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, userQuery+` WHERE u.email = $1`, email); err != nil {
		return user.User{}, notFoundOr(err, user.ErrNotFound)
	}
	return row.toUser(), nil
}

func (repo *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM user_account WHERE email = $1)`, email)
	return exists, errors.Wrap(err, "checking email")
}
