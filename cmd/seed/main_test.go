package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestParseCatalogLatin1(t *testing.T) {
	src := "sku,name,unit,price,stock\nTEL-01,Tela algodón,m,\"1,250.50\",12.5\nBOT-02,Botón nácar,,15,\n,sin sku,pcs,1,1\n"
	encoded, err := charmap.ISO8859_1.NewEncoder().String(src)
	require.NoError(t, err)

	rows, err := parseCatalog(strings.NewReader(encoded), true)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Tela algodón", rows[0].Name)
	assert.Equal(t, "1250.5", rows[0].Price.String())
	assert.Equal(t, "12.5", rows[0].Stock.String())
	assert.Equal(t, "pcs", rows[1].Unit)
	assert.True(t, rows[1].Stock.IsZero())
}

func TestParseCatalogRejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"precio":      "sku,name,price\nA,Uno,abc\n",
		"stock":       "sku,name,price,stock\nA,Uno,1,0.0001\n",
		"repetido":    "sku,name,price\nA,Uno,1\nA,Dos,2\n",
		"sin columna": "sku,name\nA,Uno\n",
	}
	for name, src := range cases {
		_, err := parseCatalog(strings.NewReader(src), false)
		assert.Error(t, err, name)
	}
}

func TestWriteSQLEscapesAndSkipsEmptyStock(t *testing.T) {
	rows, err := parseCatalog(strings.NewReader("sku,name,price,stock\nA-1,Kurta D'Souza,499.9,3\nB-2,Servicio,10,0\n"), false)
	require.NoError(t, err)

	n := 0
	ids := func() string { n++; return fmt.Sprintf("id-%d", n) }
	var buf bytes.Buffer
	require.NoError(t, writeSQL(&buf, "ws-1", rows, ids))
	sql := buf.String()

	assert.Contains(t, sql, "'Kurta D''Souza'")
	assert.Contains(t, sql, "499.90")
	assert.Equal(t, 2, strings.Count(sql, "INSERT INTO products"))
	assert.Equal(t, 1, strings.Count(sql, "INSERT INTO stock_levels"))
	assert.Equal(t, 1, strings.Count(sql, "'RESTOCK'"))
}

func TestParseCatalogStripsUTF8BOM(t *testing.T) {
	rows, err := parseCatalog(strings.NewReader("\ufeffsku,name,price\nA-1,Pañuelo,120\n"), false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A-1", rows[0].SKU)
	assert.Equal(t, "Pañuelo", rows[0].Name)
}
