package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserta un usuario. La contraseña ya debe estar hasheada.
func (r *UserRepository) CreateUser(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	if _, err := r.GetUserByEmail(user.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	query := r.db.Rebind(`
		INSERT INTO users (id, email, password, name, created_at)
		VALUES (?, ?, ?, ?, ?)`)

	_, err := r.db.Exec(query, user.ID, user.Email, user.Password, user.Name, user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// UpsertUser crea o actualiza un usuario conocido por un proveedor de identidad
// externo.
func (r *UserRepository) UpsertUser(user *models.User) error {
	existing, err := r.GetUserById(user.ID)
	if errors.Is(err, ErrNotFound) {
		return r.CreateUser(user)
	}
	if err != nil {
		return err
	}
	if user.Email == "" {
		user.Email = existing.Email
	}
	if user.Name == "" {
		user.Name = existing.Name
	}
	return r.UpdateUser(user)
}

func (r *UserRepository) GetAllUsers() ([]models.User, error) {
	users := []models.User{}
	err := r.db.Select(&users, `SELECT id, email, name, created_at FROM users ORDER BY created_at`)
	return users, err
}

func (r *UserRepository) GetUserById(id string) (*models.User, error) {
	user := &models.User{}
	err := r.db.Get(user, r.db.Rebind(`SELECT id, email, name, created_at FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return user, err
}

func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := r.db.Rebind(`SELECT id, email, password, name, created_at FROM users WHERE email = ?`)
	err := r.db.Get(user, query, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return user, err
}

func (r *UserRepository) UpdateUser(user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if other, err := r.GetUserByEmail(user.Email); err == nil && other.ID != user.ID {
		return ErrEmailTaken
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	query := r.db.Rebind(`UPDATE users SET email = ?, name = ? WHERE id = ?`)
	res, err := r.db.Exec(query, user.Email, user.Name, user.ID)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return err
	}
	return expectRow(res, "user", user.ID)
}

// DeleteUser elimina un usuario junto con sus portafolios.
func (r *UserRepository) DeleteUser(id string) error {
	res, err := r.db.Exec(r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectRow(res, "user", id)
}

func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// isUniqueViolation detecta una violación de restricción UNIQUE en cualquiera
// de los dos drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
