package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PortfolioRepository struct {
	db *sqlx.DB
}

func NewPortfolioRepository(db *sqlx.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

type positionRow struct {
	PortfolioID string `db:"portfolio_id"`
	models.Position
}

// Create guarda un portafolio con sus posiciones y completa el ID y las fechas.
func (r *PortfolioRepository) Create(p *models.Portfolio) error {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt, p.UpdatedAt = now, now

	return r.inTx(func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
			INSERT INTO portfolios (id, user_id, name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`)
		if _, err := tx.Exec(query, p.ID, p.UserID, p.Name, p.CreatedAt, p.UpdatedAt); err != nil {
			return fmt.Errorf("inserting portfolio: %w", err)
		}
		return insertPositions(tx, p.ID, p.Positions)
	})
}

// Update reemplaza el nombre y las posiciones de un portafolio.
func (r *PortfolioRepository) Update(p *models.Portfolio) error {
	p.UpdatedAt = time.Now().UTC()

	return r.inTx(func(tx *sqlx.Tx) error {
		res, err := tx.Exec(tx.Rebind(`UPDATE portfolios SET name = ?, updated_at = ? WHERE id = ?`), p.Name, p.UpdatedAt, p.ID)
		if err != nil {
			return fmt.Errorf("updating portfolio: %w", err)
		}
		if err := expectRow(res, "portfolio", p.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(tx.Rebind(`DELETE FROM positions WHERE portfolio_id = ?`), p.ID); err != nil {
			return fmt.Errorf("clearing positions: %w", err)
		}
		return insertPositions(tx, p.ID, p.Positions)
	})
}

func (r *PortfolioRepository) Delete(id string) error {
	res, err := r.db.Exec(r.db.Rebind(`DELETE FROM portfolios WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectRow(res, "portfolio", id)
}

// Get carga un portafolio con sus posiciones.
func (r *PortfolioRepository) Get(id string) (*models.Portfolio, error) {
	p := &models.Portfolio{}
	query := r.db.Rebind(`SELECT id, user_id, name, created_at, updated_at FROM portfolios WHERE id = ?`)
	if err := r.db.Get(p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("portfolio %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if err := r.loadPositions([]*models.Portfolio{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// ListByUser devuelve los portafolios de un usuario, los más nuevos primero.
func (r *PortfolioRepository) ListByUser(userID string) ([]models.Portfolio, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, name, created_at, updated_at
		FROM portfolios WHERE user_id = ?
		ORDER BY created_at DESC, name`)
	return r.list(query, userID)
}

// ListAll devuelve todos los portafolios guardados.
func (r *PortfolioRepository) ListAll() ([]models.Portfolio, error) {
	return r.list(`SELECT id, user_id, name, created_at, updated_at FROM portfolios ORDER BY created_at`)
}

func (r *PortfolioRepository) list(query string, args ...interface{}) ([]models.Portfolio, error) {
	portfolios := []models.Portfolio{}
	if err := r.db.Select(&portfolios, query, args...); err != nil {
		return nil, err
	}
	ptrs := make([]*models.Portfolio, len(portfolios))
	for i := range portfolios {
		ptrs[i] = &portfolios[i]
	}
	if err := r.loadPositions(ptrs); err != nil {
		return nil, err
	}
	return portfolios, nil
}

func (r *PortfolioRepository) loadPositions(portfolios []*models.Portfolio) error {
	if len(portfolios) == 0 {
		return nil
	}
	byID := make(map[string]*models.Portfolio, len(portfolios))
	ids := make([]string, 0, len(portfolios))
	for _, p := range portfolios {
		p.Positions = []models.Position{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	query, args, err := sqlx.In(`
		SELECT portfolio_id, symbol, quantity, buy_price
		FROM positions WHERE portfolio_id IN (?)
		ORDER BY symbol`, ids)
	if err != nil {
		return err
	}

	var rows []positionRow
	if err := r.db.Select(&rows, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("loading positions: %w", err)
	}
	for _, row := range rows {
		p := byID[row.PortfolioID]
		p.Positions = append(p.Positions, row.Position)
	}
	return nil
}

func insertPositions(tx *sqlx.Tx, portfolioID string, positions []models.Position) error {
	query := tx.Rebind(`
		INSERT INTO positions (id, portfolio_id, symbol, quantity, buy_price)
		VALUES (?, ?, ?, ?, ?)`)
	for _, pos := range positions {
		if _, err := tx.Exec(query, uuid.NewString(), portfolioID, pos.Symbol, pos.Quantity, pos.BuyPrice); err != nil {
			return fmt.Errorf("inserting position %s: %w", pos.Symbol, err)
		}
	}
	return nil
}

func (r *PortfolioRepository) inTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
