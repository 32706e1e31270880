// Package catalog contiene la lista de acciones de la Bolsa de Casablanca que
// conoce el dashboard. La lista por defecto está embebida; un archivo YAML con
// el mismo formato puede reemplazarla.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed stocks.yaml
var defaultStocks []byte

var (
	ErrEmptyCatalog    = errors.New("catalog has no stocks")
	ErrDuplicateSymbol = errors.New("duplicate symbol in catalog")
	ErrEmptyStock      = errors.New("catalog entry without symbol or name")
)

type file struct {
	Stocks []models.Stock `yaml:"stocks"`
}

// Catalog es una lista inmutable de acciones indexada por símbolo.
type Catalog struct {
	stocks []models.Stock
	index  map[string]int
}

// Default devuelve el catálogo embebido.
func Default() *Catalog {
	c, err := Parse(defaultStocks)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load lee un catálogo desde un archivo YAML. Una ruta vacía devuelve
// Default().
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodifica un catálogo YAML.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return New(f.Stocks)
}

// New arma un catálogo a partir de una lista de acciones. Los símbolos se pasan
// a mayúsculas y deben ser únicos.
func New(stocks []models.Stock) (*Catalog, error) {
	if len(stocks) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		stocks: make([]models.Stock, 0, len(stocks)),
		index:  make(map[string]int, len(stocks)),
	}
	for _, s := range stocks {
		s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
		s.Name = strings.TrimSpace(s.Name)
		if s.Symbol == "" || s.Name == "" {
			return nil, ErrEmptyStock
		}
		if _, dup := c.index[s.Symbol]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSymbol, s.Symbol)
		}
		c.stocks = append(c.stocks, s)
		c.index[s.Symbol] = -1
	}
	sort.Slice(c.stocks, func(i, j int) bool { return c.stocks[i].Symbol < c.stocks[j].Symbol })
	for i, s := range c.stocks {
		c.index[s.Symbol] = i
	}
	return c, nil
}

// Lookup busca una acción por símbolo, sin distinguir mayúsculas.
func (c *Catalog) Lookup(symbol string) (models.Stock, bool) {
	i, ok := c.index[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return models.Stock{}, false
	}
	return c.stocks[i], true
}

// Stocks devuelve una copia de las acciones ordenadas por símbolo.
func (c *Catalog) Stocks() []models.Stock {
	out := make([]models.Stock, len(c.stocks))
	copy(out, c.stocks)
	return out
}

func (c *Catalog) Len() int { return len(c.stocks) }

// Sectors devuelve los sectores distintos, ordenados.
func (c *Catalog) Sectors() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range c.stocks {
		sec := s.SectorOrDefault()
		if !seen[sec] {
			seen[sec] = true
			out = append(out, sec)
		}
	}
	sort.Strings(out)
	return out
}
