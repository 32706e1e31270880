package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Equal(t, 43, c.Len())

	atw, ok := c.Lookup("atw")
	require.True(t, ok)
	assert.Equal(t, "ATTIJARIWAFA BANK", atw.Name)
	assert.Equal(t, "Banque", atw.Sector)

	stocks := c.Stocks()
	assert.Equal(t, "ADH", stocks[0].Symbol)
	assert.Equal(t, "ZDJ", stocks[len(stocks)-1].Symbol)

	_, ok = c.Lookup("XXX")
	assert.False(t, ok)
}

func TestStocksReturnsCopy(t *testing.T) {
	c := Default()
	stocks := c.Stocks()
	stocks[0].Name = "changed"

	adh, _ := c.Lookup("ADH")
	assert.Equal(t, "DOUJA PROM ADDOHA", adh.Name)
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = New([]models.Stock{{Symbol: "ATW", Name: "A"}, {Symbol: "atw", Name: "B"}})
	assert.ErrorIs(t, err, ErrDuplicateSymbol)

	_, err = New([]models.Stock{{Symbol: "", Name: "A"}})
	assert.ErrorIs(t, err, ErrEmptyStock)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stocks.yaml")
	data := []byte("stocks:\n  - {symbol: iam, name: MAROC TELECOM, sector: Télécom}\n  - {symbol: XYZ, name: NO SECTOR}\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	iam, ok := c.Lookup("IAM")
	require.True(t, ok)
	assert.Equal(t, "Télécom", iam.Sector)

	assert.Equal(t, []string{"Autre", "Télécom"}, c.Sectors())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
