package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newDataDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "data-dir",
		Usage:   "Directory containing the dataset CSV exports",
		Value:   "./data/seeds",
		EnvVars: []string{"SEED_DATA_DIR"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Create the inventory schema and load the dataset exports",
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Create the schema and tables (idempotent)",
				Flags:  []cli.Flag{newDBURLFlag(), newSchemaFlag()},
				Action: runSchema,
			},
			{
				Name:   "catalog",
				Usage:  "Load the product catalog from products.csv",
				Flags:  []cli.Flag{newDBURLFlag(), newSchemaFlag(), newDataDirFlag()},
				Action: runCatalog,
			},
			{
				Name:   "movements",
				Usage:  "Load historical inventory movements from movements.csv",
				Flags:  []cli.Flag{newDBURLFlag(), newSchemaFlag(), newDataDirFlag()},
				Action: runMovements,
			},
			{
				Name:   "stage",
				Usage:  "Load evaluation-window movements from movements_stage.csv",
				Flags:  []cli.Flag{newDBURLFlag(), newSchemaFlag(), newDataDirFlag()},
				Action: runStage,
			},
			{
				Name:   "forecast",
				Usage:  "Load the model forecast rows from forecast.csv",
				Flags:  []cli.Flag{newDBURLFlag(), newSchemaFlag(), newDataDirFlag()},
				Action: runForecast,
			},
			{
				Name:   "eval",
				Usage:  "Load per-SKU model evaluation metrics from model_eval.csv",
				Flags:  []cli.Flag{newDBURLFlag(), newSchemaFlag(), newDataDirFlag()},
				Action: runEval,
			},
			{
				Name:   "download",
				Usage:  "Download the dataset exports from object storage",
				Flags:  append(newStorageFlags(), newDataDirFlag()),
				Action: runDownload,
			},
			{
				Name:  "all",
				Usage: "Create the schema and load every dataset export",
				Flags: []cli.Flag{newDBURLFlag(), newSchemaFlag(), newDataDirFlag()},
				Action: func(c *cli.Context) error {
					steps := []struct {
						name string
						run  cli.ActionFunc
					}{
						{"schema", runSchema},
						{"catalog", runCatalog},
						{"movements", runMovements},
						{"stage", runStage},
						{"forecast", runForecast},
						{"eval", runEval},
					}
					for _, step := range steps {
						if err := step.run(c); err != nil {
							return fmt.Errorf("error running %s step: %w", step.name, err)
						}
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newSchemaFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "schema",
		Usage:   "Database schema holding the inventory tables",
		Value:   "inv",
		EnvVars: []string{"DB_SCHEMA"},
	}
}

func openDB(c *cli.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema := c.String("schema")
	if schema != "" {
		if _, err := db.Exec(fmt.Sprintf("SET search_path TO %s, public", schema)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set search_path: %w", err)
		}
	}

	return db, nil
}

func runSchema(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	schema := c.String("schema")
	statements := []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.products (
			sku TEXT PRIMARY KEY,
			product_name TEXT,
			category TEXT,
			family TEXT,
			warehouse TEXT,
			base_price NUMERIC
		)`, schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.inventory_movements (
			id BIGSERIAL PRIMARY KEY,
			sku TEXT NOT NULL,
			ts TIMESTAMP NOT NULL,
			movement_type TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL
		)`, schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.inventory_movements_stage (
			id BIGSERIAL PRIMARY KEY,
			sku TEXT NOT NULL,
			ts TIMESTAMP NOT NULL,
			movement_type TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL
		)`, schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.forecast (
			sku TEXT NOT NULL,
			ds DATE NOT NULL,
			y_hat_min DOUBLE PRECISION NOT NULL,
			y_hat DOUBLE PRECISION NOT NULL,
			y_hat_max DOUBLE PRECISION NOT NULL,
			model_type TEXT,
			PRIMARY KEY (sku, ds)
		)`, schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.model_eval (
			sku TEXT PRIMARY KEY,
			mape_q1 DOUBLE PRECISION,
			rmse_q1 DOUBLE PRECISION
		)`, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_movements_sku_type
			ON %s.inventory_movements (sku, movement_type)`, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_movements_stage_sku_type
			ON %s.inventory_movements_stage (sku, movement_type)`, schema),
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run schema statement: %w", err)
		}
	}

	log.Println("Schema created successfully")
	return nil
}

func runCatalog(c *cli.Context) error {
	query := `
		INSERT INTO products (sku, product_name, category, family, warehouse, base_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sku) DO UPDATE SET
			product_name = EXCLUDED.product_name,
			category = EXCLUDED.category,
			family = EXCLUDED.family,
			warehouse = EXCLUDED.warehouse,
			base_price = EXCLUDED.base_price
	`
	columns := []string{"sku", "product_name", "category", "family", "warehouse", "base_price"}
	numeric := map[string]bool{"base_price": true}
	return loadCSV(c, "products.csv", "products", query, columns, numeric)
}

func runMovements(c *cli.Context) error {
	return loadMovements(c, "movements.csv", "inventory_movements")
}

func runStage(c *cli.Context) error {
	return loadMovements(c, "movements_stage.csv", "inventory_movements_stage")
}

func loadMovements(c *cli.Context, fileName, tableName string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (sku, ts, movement_type, quantity)
		VALUES ($1, $2, $3, $4)
	`, tableName)
	columns := []string{"sku", "ts", "movement_type", "quantity"}
	numeric := map[string]bool{"quantity": true}
	return loadCSV(c, fileName, tableName, query, columns, numeric)
}

func runForecast(c *cli.Context) error {
	query := `
		INSERT INTO forecast (sku, ds, y_hat_min, y_hat, y_hat_max, model_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sku, ds) DO UPDATE SET
			y_hat_min = EXCLUDED.y_hat_min,
			y_hat = EXCLUDED.y_hat,
			y_hat_max = EXCLUDED.y_hat_max,
			model_type = EXCLUDED.model_type
	`
	columns := []string{"sku", "ds", "y_hat_min", "y_hat", "y_hat_max", "model_type"}
	numeric := map[string]bool{"y_hat_min": true, "y_hat": true, "y_hat_max": true}
	return loadCSV(c, "forecast.csv", "forecast", query, columns, numeric)
}

func runEval(c *cli.Context) error {
	query := `
		INSERT INTO model_eval (sku, mape_q1, rmse_q1)
		VALUES ($1, $2, $3)
		ON CONFLICT (sku) DO UPDATE SET
			mape_q1 = EXCLUDED.mape_q1,
			rmse_q1 = EXCLUDED.rmse_q1
	`
	columns := []string{"sku", "mape_q1", "rmse_q1"}
	numeric := map[string]bool{"mape_q1": true, "rmse_q1": true}
	return loadCSV(c, "model_eval.csv", "model_eval", query, columns, numeric)
}

// loadCSV streams one CSV file into tableName inside a single transaction.
// Columns listed in numeric are parsed as floats, with empty cells mapped to
// SQL NULL.
func loadCSV(c *cli.Context, fileName, tableName, query string, columns []string, numeric map[string]bool) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	filePath := filepath.Join(c.String("data-dir"), fileName)
	log.Printf("Seeding %s from %s\n", tableName, filePath)

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	indexes := make([]int, len(columns))
	for i, col := range columns {
		indexes[i] = getColumnIndex(header, col)
	}

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", tableName, err)
	}
	defer stmt.Close()

	rowCount := 0
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read CSV record: %w", err)
		}

		args := make([]interface{}, len(columns))
		for i, col := range columns {
			idx := indexes[i]
			if idx >= len(record) {
				return fmt.Errorf("column index %d out of bounds for column '%s' (record has %d columns)", idx, col, len(record))
			}
			value := strings.TrimSpace(record[idx])
			if numeric[col] {
				parsed, err := parseNullableFloat(value)
				if err != nil {
					return fmt.Errorf("invalid value for %s in %s: %w", col, tableName, err)
				}
				args[i] = parsed
				continue
			}
			args[i] = value
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert record into %s: %w", tableName, err)
		}

		rowCount++
		if rowCount%5000 == 0 {
			log.Printf("Seeded %d rows into %s...", rowCount, tableName)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Successfully seeded %s (%d records)\n", tableName, rowCount)
	return nil
}

func parseNullableFloat(value string) (sql.NullFloat64, error) {
	if value == "" {
		return sql.NullFloat64{}, nil
	}

	cleaned := strings.ReplaceAll(value, ",", "")
	num, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("invalid float value %s: %w", value, err)
	}

	return sql.NullFloat64{Float64: num, Valid: true}, nil
}

func getColumnIndex(header []string, column string) int {
	for i, h := range header {
		if h == column {
			return i
		}
	}

	panic(fmt.Sprintf("column '%s' not found in header: %v", column, header))
}
