// seed genera un script SQL para poblar el catálogo de productos y su stock inicial a partir
// de un CSV exportado del sistema anterior (columnas: sku,name,unit,price,stock).
//
// Uso: go run ./cmd/seed -workspace <id> [-latin1] [-out ruta.sql] catalogo.csv
// Por defecto escribe migrations/002_seed_catalog.sql en la raíz del módulo.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/billing-engine/pkg/money"
)

type catalogRow struct {
	SKU   string
	Name  string
	Unit  string
	Price decimal.Decimal
	Stock decimal.Decimal
}

func main() {
	workspace := flag.String("workspace", "", "workspace dueño del catálogo (requerido)")
	latin1 := flag.Bool("latin1", false, "el CSV viene en ISO-8859-1 (exportaciones de Excel)")
	outPath := flag.String("out", "", "archivo SQL de salida")
	flag.Parse()

	if *workspace == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed -workspace <id> [-latin1] [-out ruta.sql] catalogo.csv")
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, err := parseCatalog(f, *latin1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	path := *outPath
	if path == "" {
		path = filepath.Join(findModuleRoot(), "migrations", "002_seed_catalog.sql")
	}
	out, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, *workspace, rows, uuid.NewString); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d productos\n", path, len(rows))
}

// parseCatalog lee el CSV con encabezado. Filas sin SKU o nombre se omiten; un precio o stock
// inválido aborta con el número de línea.
func parseCatalog(r io.Reader, latin1 bool) ([]catalogRow, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("encabezado: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"sku", "name", "price"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("falta la columna %q", required)
		}
	}
	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	seen := map[string]bool{}
	var rows []catalogRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		sku, name := field(rec, "sku"), field(rec, "name")
		if sku == "" || name == "" {
			continue
		}
		if seen[sku] {
			return nil, fmt.Errorf("línea %d: SKU repetido %s", line, sku)
		}
		seen[sku] = true

		price, err := decimal.NewFromString(strings.ReplaceAll(field(rec, "price"), ",", ""))
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("línea %d: precio inválido %q", line, field(rec, "price"))
		}
		stock := decimal.Zero
		if raw := field(rec, "stock"); raw != "" {
			stock, err = decimal.NewFromString(raw)
			if err != nil || stock.IsNegative() || !money.IsQuantity(stock) {
				return nil, fmt.Errorf("línea %d: stock inválido %q", line, raw)
			}
		}
		unit := field(rec, "unit")
		if unit == "" {
			unit = "pcs"
		}
		rows = append(rows, catalogRow{SKU: sku, Name: name, Unit: unit, Price: money.Round(price), Stock: stock})
	}
	return rows, nil
}

// writeSQL emite productos, disponible inicial y su movimiento RESTOCK. Es idempotente por
// (workspace, sku): una segunda corrida no duplica productos ni suma stock.
func writeSQL(w io.Writer, workspace string, rows []catalogRow, newID func() string) error {
	ws := escapeSQL(workspace)
	var b strings.Builder
	b.WriteString("-- Catálogo inicial generado por cmd/seed\n")
	fmt.Fprintf(&b, "-- Workspace: %s, productos: %d\n\n", ws, len(rows))
	for _, r := range rows {
		id := newID()
		sku := escapeSQL(r.SKU)
		fmt.Fprintf(&b, "INSERT INTO products (id, workspace_id, sku, name, unit, price, created_at, updated_at)\n")
		fmt.Fprintf(&b, "VALUES ('%s', '%s', '%s', '%s', '%s', %s, now(), now())\n", id, ws, sku, escapeSQL(r.Name), escapeSQL(r.Unit), r.Price.StringFixed(2))
		b.WriteString("ON CONFLICT (workspace_id, sku) DO NOTHING;\n")
		if !r.Stock.IsPositive() {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "INSERT INTO stock_levels (product_id, available, updated_at)\n")
		fmt.Fprintf(&b, "SELECT id, %s, now() FROM products WHERE workspace_id = '%s' AND sku = '%s'\n", r.Stock.String(), ws, sku)
		b.WriteString("ON CONFLICT (product_id) DO NOTHING;\n")
		fmt.Fprintf(&b, "INSERT INTO stock_movements (id, workspace_id, product_id, type, quantity, notes, created_by, created_at)\n")
		fmt.Fprintf(&b, "SELECT '%s', workspace_id, id, 'RESTOCK', %s, 'carga inicial', 'seed', now() FROM products\n", newID(), r.Stock.String())
		fmt.Fprintf(&b, "WHERE workspace_id = '%s' AND sku = '%s' AND id = '%s';\n\n", ws, sku, id)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
