package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

var (
	portfolioRepo *repository.PortfolioRepository
	snapshotRepo  *repository.PortfolioSnapshotRepository
)

func InitPortfolios(db *sqlx.DB) {
	portfolioRepo = repository.NewPortfolioRepository(db)
	snapshotRepo = repository.NewPortfolioSnapshotRepository(db)
}

type portfolioRequest struct {
	Name      string            `json:"name" binding:"required"`
	Positions []models.Position `json:"positions"`
}

func (r *portfolioRequest) bind(c *gin.Context) error {
	if err := c.ShouldBindJSON(r); err != nil {
		return err
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return errors.New("le nom du portefeuille est requis")
	}
	return nil
}

// ownPortfolio carga el portafolio indicado en la ruta y verifica que
// pertenezca al usuario.
func ownPortfolio(c *gin.Context) (*models.Portfolio, error) {
	p, err := portfolioRepo.Get(c.Param("id"))
	if err != nil {
		return nil, err
	}
	if p.UserID != c.GetString("userId") {
		return nil, errForbidden
	}
	return p, nil
}

func CreatePortfolio(c *gin.Context) {
	var req portfolioRequest
	if err := req.bind(c); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userId")
	if _, err := userRepo.GetUserById(userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "utilisateur inconnu"})
			return
		}
		respondError(c, err)
		return
	}

	positions, err := checkPositions(req.Positions)
	if err != nil {
		respondError(c, err)
		return
	}

	p := &models.Portfolio{
		UserID:    userID,
		Name:      req.Name,
		Positions: positions,
	}
	if err := portfolioRepo.Create(p); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"portfolio": p})
}

func GetPortfolios(c *gin.Context) {
	portfolios, err := portfolioRepo.ListByUser(c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolios": portfolios})
}

func GetPortfolio(c *gin.Context) {
	p, err := ownPortfolio(c)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"portfolio": p}
	if updater := GetPriceUpdater(); updater != nil {
		if m, ok := updater.GetCachedMetrics(p.ID); ok {
			body["metrics"] = m
		}
	}
	c.JSON(http.StatusOK, body)
}

func UpdatePortfolio(c *gin.Context) {
	var req portfolioRequest
	if err := req.bind(c); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := ownPortfolio(c)
	if err != nil {
		respondError(c, err)
		return
	}
	positions, err := checkPositions(req.Positions)
	if err != nil {
		respondError(c, err)
		return
	}

	p.Name = req.Name
	p.Positions = positions
	if err := portfolioRepo.Update(p); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": p})
}

func DeletePortfolio(c *gin.Context) {
	p, err := ownPortfolio(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := portfolioRepo.Delete(p.ID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "portefeuille supprimé"})
}

// GetPortfolioAnalysis analiza un portafolio guardado con las cotizaciones
// actuales.
func GetPortfolioAnalysis(c *gin.Context) {
	p, err := ownPortfolio(c)
	if err != nil {
		respondError(c, err)
		return
	}

	m, err := analyze(c.Request.Context(), p.Positions)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAnalysisResponse(m))
}

// GetPortfolioHistory devuelve los valores diarios registrados de un portafolio
// guardado en ?period=day|week|month|year|all (month por defecto).
func GetPortfolioHistory(c *gin.Context) {
	p, err := ownPortfolio(c)
	if err != nil {
		respondError(c, err)
		return
	}

	period := c.DefaultQuery("period", repository.PeriodMonth)
	data, err := snapshotRepo.ChartData(p.ID, period, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period":  period,
		"history": data,
	})
}
