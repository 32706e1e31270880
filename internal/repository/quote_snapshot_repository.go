package repository

import (
	"fmt"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// QuoteSnapshotRepository guarda un precio de cierre por acción y día.
type QuoteSnapshotRepository struct {
	db *sqlx.DB
}

func NewQuoteSnapshotRepository(db *sqlx.DB) *QuoteSnapshotRepository {
	return &QuoteSnapshotRepository{db: db}
}

// SaveQuotes registra las cotizaciones como el precio de su día; otro guardado
// el mismo día reemplaza el precio.
func (r *QuoteSnapshotRepository) SaveQuotes(quotes []models.Quote, at time.Time) error {
	at = at.UTC()
	day := dayKey(at)

	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	query := tx.Rebind(`
		INSERT INTO quote_snapshots (id, symbol, day, price, date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (symbol, day) DO UPDATE SET price = excluded.price, date = excluded.date`)
	for _, q := range quotes {
		if _, err := tx.Exec(query, uuid.NewString(), q.Symbol, day, q.Price, at); err != nil {
			tx.Rollback()
			return fmt.Errorf("saving quote %s: %w", q.Symbol, err)
		}
	}
	return tx.Commit()
}

// History devuelve todos los precios diarios desde el momento dado, los más
// viejos primero.
func (r *QuoteSnapshotRepository) History(since time.Time) ([]models.QuoteSnapshot, error) {
	snapshots := []models.QuoteSnapshot{}
	query := r.db.Rebind(`
		SELECT id, symbol, price, date FROM quote_snapshots
		WHERE date >= ?
		ORDER BY date, symbol`)
	if err := r.db.Select(&snapshots, query, since.UTC()); err != nil {
		return nil, err
	}
	return snapshots, nil
}
