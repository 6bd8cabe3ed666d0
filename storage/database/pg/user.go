package pgdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/codesage/codesage/core"
	"github.com/codesage/codesage/core/user"
	"github.com/codesage/codesage/storage/database"
)

const userColumns = `id, name, username, email, is_active, roles, team_id, email_opt_in,
	password_hash, created_at, updated_at, last_login`

type userRepository struct {
	db *database.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *database.DB) user.Repository {
	return &userRepository{db: db}
}

func scanUser(row pgx.Row) (user.User, error) {
	var (
		usr    user.User
		teamID *string
	)
	err := row.Scan(
		&usr.ID, &usr.Name, &usr.Username, &usr.Email, &usr.IsActive, &usr.Roles,
		&teamID, &usr.EmailOptIn, &usr.PasswordHash, &usr.CreatedAt, &usr.UpdatedAt, &usr.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "scanning user")
	}
	if teamID != nil {
		usr.TeamID = *teamID
	}
	return usr, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	excluded := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded = append(excluded, usr.ID)
	}

	rows, err := repo.db.Pool.Query(ctx,
		`SELECT username, email FROM users
		 WHERE (username = $1 OR email = $2) AND NOT (id = ANY($3))`,
		username, email, excluded)
	if err != nil {
		return errors.Wrap(err, "querying uniqueness")
	}
	defer rows.Close()

	for rows.Next() {
		var uname, mail string
		if err = rows.Scan(&uname, &mail); err != nil {
			return errors.Wrap(err, "scanning uniqueness row")
		}
		if uname == username {
			return user.ErrUsernameExists
		}
		if mail == email {
			return user.ErrEmailExists
		}
	}
	return rows.Err()
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.NewString()
	_, err := repo.db.Pool.Exec(ctx,
		`INSERT INTO users (id, name, username, email, is_active, roles, team_id, email_opt_in,
			password_hash, created_at, updated_at, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.IsActive, usr.Roles, nullable(usr.TeamID),
		usr.EmailOptIn, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	row := repo.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	row := repo.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	row := repo.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	row := repo.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, username)
	return scanUser(row)
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(name ILIKE %s OR username ILIKE %s OR email ILIKE %s)", p, p, p))
		}
		if len(filter.Roles) > 0 {
			prefixes := make([]string, 0, len(filter.Roles))
			for _, r := range filter.Roles {
				prefixes = append(prefixes, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(roles) role WHERE role LIKE %s)", arg(r+"%")))
			}
			conds = append(conds, "("+strings.Join(prefixes, " OR ")+")")
		}
		if filter.TeamID != "" {
			conds = append(conds, "team_id = "+arg(filter.TeamID))
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = "+arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, "created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, "created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if len(ordering) > 0 {
		clauses := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			clauses = append(clauses, ord.String())
		}
		query += " ORDER BY " + strings.Join(clauses, ", ")
	} else {
		query += " ORDER BY created_at DESC"
	}

	rows, err := repo.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		usr, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, rows.Err()
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive, emailOptIn *bool, teamID *string) (user.User, error) {
	var sets []string
	args := []interface{}{usr.ID}
	add := func(expr string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if !usr.UpdatedAt.IsZero() {
		add("updated_at = $%d", usr.UpdatedAt)
	}
	if usr.Name != "" {
		add("name = $%d", usr.Name)
	}
	if usr.Username != "" {
		add("username = $%d", usr.Username)
	}
	if usr.Email != "" {
		add("email = $%d", usr.Email)
	}
	if usr.Roles != nil {
		add("roles = $%d", usr.Roles)
	}
	if usr.PasswordHash != nil {
		add("password_hash = $%d", usr.PasswordHash)
	}
	if !usr.LastLogin.IsZero() {
		add("last_login = $%d", usr.LastLogin)
	}
	if isActive != nil {
		add("is_active = $%d", *isActive)
	}
	if emailOptIn != nil {
		add("email_opt_in = $%d", *emailOptIn)
	}
	if teamID != nil {
		add("team_id = $%d", nullable(*teamID))
	}

	if len(sets) == 0 {
		return repo.GetUserByID(ctx, usr.ID)
	}
	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + userColumns
	row := repo.db.Pool.QueryRow(ctx, query, args...)
	return scanUser(row)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = ANY($1)`, ids)
	return errors.Wrap(err, "deleting users")
}
