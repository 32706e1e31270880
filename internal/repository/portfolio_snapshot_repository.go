package repository

import (
	"fmt"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Períodos aceptados por ChartData
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
	PeriodAll   = "all"
)

// PortfolioSnapshotRepository guarda un registro de valor por portafolio y día,
// junto con el valor más alto y más bajo del día.
type PortfolioSnapshotRepository struct {
	db *sqlx.DB
}

func NewPortfolioSnapshotRepository(db *sqlx.DB) *PortfolioSnapshotRepository {
	return &PortfolioSnapshotRepository{db: db}
}

// Save registra el valor actual de un portafolio. Los valores no positivos se
// ignoran.
func (r *PortfolioSnapshotRepository) Save(portfolioID string, m *models.PortfolioMetrics, at time.Time) error {
	value := m.CurrentValue.InexactFloat64()
	if value <= 0 {
		log.Debug().Str("portfolio", portfolioID).Float64("value", value).Msg("snapshot skipped")
		return nil
	}
	at = at.UTC()

	query := r.db.Rebind(`
		INSERT INTO portfolio_snapshots
			(id, portfolio_id, day, date, total_value, total_investment, pnl, pnl_percentage, max_value, min_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (portfolio_id, day) DO UPDATE SET
			date = excluded.date,
			total_value = excluded.total_value,
			total_investment = excluded.total_investment,
			pnl = excluded.pnl,
			pnl_percentage = excluded.pnl_percentage,
			max_value = CASE WHEN excluded.total_value > portfolio_snapshots.max_value
				THEN excluded.total_value ELSE portfolio_snapshots.max_value END,
			min_value = CASE WHEN excluded.total_value < portfolio_snapshots.min_value
				THEN excluded.total_value ELSE portfolio_snapshots.min_value END`)

	_, err := r.db.Exec(query,
		uuid.NewString(),
		portfolioID,
		dayKey(at),
		at,
		value,
		m.TotalInvestment.InexactFloat64(),
		m.PnL.InexactFloat64(),
		m.PnLPercentage,
		value,
		value,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot of %s: %w", portfolioID, err)
	}
	return nil
}

// History devuelve los snapshots de un portafolio desde el momento dado, los
// más viejos primero.
func (r *PortfolioSnapshotRepository) History(portfolioID string, since time.Time) ([]models.PortfolioSnapshot, error) {
	snapshots := []models.PortfolioSnapshot{}
	query := r.db.Rebind(`
		SELECT id, portfolio_id, date, total_value, total_investment, pnl, pnl_percentage, max_value, min_value
		FROM portfolio_snapshots
		WHERE portfolio_id = ? AND date >= ?
		ORDER BY date`)
	if err := r.db.Select(&snapshots, query, portfolioID, since.UTC()); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// PeriodStart devuelve el primer instante que cubre un período que termina en
// now.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case PeriodDay:
		return now.AddDate(0, 0, -1), nil
	case PeriodWeek:
		return now.AddDate(0, 0, -7), nil
	case PeriodMonth, "":
		return now.AddDate(0, -1, 0), nil
	case PeriodYear:
		return now.AddDate(-1, 0, 0), nil
	case PeriodAll:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
}

// ChartData arma el historial de un portafolio en un período para un gráfico de
// líneas.
func (r *PortfolioSnapshotRepository) ChartData(portfolioID, period string, now time.Time) (*models.PortfolioChartData, error) {
	since, err := PeriodStart(period, now)
	if err != nil {
		return nil, err
	}
	snapshots, err := r.History(portfolioID, since)
	if err != nil {
		return nil, err
	}

	data := &models.PortfolioChartData{Labels: []string{}, Values: []float64{}}
	for i, s := range snapshots {
		data.Labels = append(data.Labels, s.Date.Format("2006-01-02"))
		data.Values = append(data.Values, s.TotalValue)
		if i == 0 || s.MaxValue > data.High {
			data.High = s.MaxValue
		}
		if i == 0 || s.MinValue < data.Low {
			data.Low = s.MinValue
		}
	}
	return data, nil
}
