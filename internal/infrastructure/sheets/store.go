package sheets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/jhoicas/kitsync/internal/application/reconcile"
	"github.com/jhoicas/kitsync/internal/domain"
	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/internal/domain/kit"
	"github.com/jhoicas/kitsync/pkg/config"
	"github.com/jhoicas/kitsync/pkg/retry"
)

var _ reconcile.SheetStore = (*Store)(nil)

// Columna de Stock On Hand en la hoja de inventario (A=SKU, B=Product Name, C=Stock On Hand).
const stockColumn = "C"

// Store adaptador del almacén de hojas sobre la API de Google Sheets.
// Las escrituras de stock van por celda (columna C) usando el índice de fila
// capturado en la última lectura de inventario.
type Store struct {
	svc   *sheetsapi.Service
	cfg   config.SheetsConfig
	chunk int
	retry retry.Policy
	log   zerolog.Logger

	mu       sync.Mutex
	rowBySKU map[string]int // SKU normalizado -> fila 1-based en la hoja de inventario
}

// NewStore crea el cliente de Sheets con credenciales de service account.
func NewStore(ctx context.Context, cfg config.SheetsConfig, chunkSize int, pol retry.Policy, log zerolog.Logger) (*Store, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: falta SHEETS_SPREADSHEET_ID")
	}
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets: crear servicio: %w", err)
	}
	if chunkSize <= 0 {
		chunkSize = 50
	}
	pol.Retryable = retryableAPIError
	return &Store{svc: svc, cfg: cfg, chunk: chunkSize, retry: pol, log: log}, nil
}

// ReadKits lee la hoja de BOMs (Kit SKU, Component SKU, Component Name, Quantity, Kit Name).
// Devuelve filas crudas; el parseo numérico y la validación ocurren en BuildRegistry.
func (s *Store) ReadKits(ctx context.Context) ([]kit.BOMRow, error) {
	values, err := s.readRange(ctx, s.cfg.KitsSheet+"!A2:E")
	if err != nil {
		return nil, fmt.Errorf("leer hoja de kits: %w", err)
	}
	rows := make([]kit.BOMRow, 0, len(values))
	for _, row := range values {
		rows = append(rows, kit.BOMRow{
			KitSKU:        cell(row, 0),
			ComponentSKU:  cell(row, 1),
			ComponentName: cell(row, 2),
			Quantity:      cell(row, 3),
			KitName:       cell(row, 4),
		})
	}
	return rows, nil
}

// ReadInventory lee la hoja de inventario (SKU, Product Name, Stock On Hand) y
// reconstruye el índice SKU->fila para las escrituras. Una fila con stock
// ilegible se omite con warning; la carga nunca falla por una fila mala.
func (s *Store) ReadInventory(ctx context.Context) ([]entity.InventoryEntry, error) {
	values, err := s.readRange(ctx, s.cfg.InventorySheet+"!A2:C")
	if err != nil {
		return nil, fmt.Errorf("leer hoja de inventario: %w", err)
	}

	entries := make([]entity.InventoryEntry, 0, len(values))
	rowBySKU := make(map[string]int, len(values))

	for i, row := range values {
		rowIdx := i + 2 // fila 1 es el encabezado
		sku := entity.NormalizeSKU(cell(row, 0))
		if sku == "" {
			continue
		}
		rowBySKU[sku] = rowIdx

		rawStock := strings.TrimSpace(cell(row, 2))
		if rawStock == "" {
			rawStock = "0"
		}
		stock, err := decimal.NewFromString(rawStock)
		if err != nil || stock.IsNegative() {
			s.log.Warn().Int("row", rowIdx).Str("sku", sku).Str("stock", rawStock).
				Msg("stock ilegible en hoja de inventario, fila omitida")
			continue
		}

		name := strings.TrimSpace(cell(row, 1))
		if name == "" {
			name = sku
		}
		entries = append(entries, entity.InventoryEntry{SKU: sku, Name: name, Stock: stock})
	}

	s.mu.Lock()
	s.rowBySKU = rowBySKU
	s.mu.Unlock()

	return entries, nil
}

// ReadInflationRules lee la hoja de inflación (SKU, Store, Boost). La hoja
// puede no existir: en ese caso no hay reglas y no es un error.
func (s *Store) ReadInflationRules(ctx context.Context) ([]entity.InflationRule, error) {
	values, err := s.readRange(ctx, s.cfg.InflationSheet+"!A2:C")
	if err != nil {
		var ge *googleapi.Error
		if errors.As(err, &ge) && ge.Code == 400 {
			s.log.Debug().Str("sheet", s.cfg.InflationSheet).Msg("hoja de inflación ausente, sin reglas")
			return nil, nil
		}
		return nil, fmt.Errorf("leer hoja de inflación: %w", err)
	}

	rules := make([]entity.InflationRule, 0, len(values))
	for i, row := range values {
		sku := entity.NormalizeSKU(cell(row, 0))
		store := strings.TrimSpace(cell(row, 1))
		boost, err := strconv.ParseInt(strings.TrimSpace(cell(row, 2)), 10, 64)
		if sku == "" || store == "" || err != nil {
			s.log.Warn().Int("row", i+2).Msg("regla de inflación inválida, fila omitida")
			continue
		}
		rules = append(rules, entity.InflationRule{SKU: sku, Store: store, Boost: boost})
	}
	return rules, nil
}

// WriteStock escribe el valor absoluto de stock de un SKU en su celda.
func (s *Store) WriteStock(ctx context.Context, sku string, value decimal.Decimal) error {
	rowIdx, err := s.rowFor(ctx, sku)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!%s%d", s.cfg.InventorySheet, stockColumn, rowIdx)
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{{value.String()}}}

	return s.retry.Do(ctx, "sheets.write_stock", func() error {
		_, err := s.svc.Spreadsheets.Values.Update(s.cfg.SpreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
}

// BatchWriteStock escribe valores absolutos en lotes de a lo sumo chunk celdas.
// Cada lote se reintenta por separado; uno agotado se registra y no aborta los
// demás. Devuelve cuántos SKUs quedaron escritos y el error agregado.
func (s *Store) BatchWriteStock(ctx context.Context, values map[string]decimal.Decimal) (int, error) {
	if len(values) == 0 {
		return 0, nil
	}

	skus := make([]string, 0, len(values))
	for sku := range values {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	var data []*sheetsapi.ValueRange
	for _, sku := range skus {
		rowIdx, err := s.rowFor(ctx, sku)
		if err != nil {
			s.log.Warn().Str("sku", sku).Msg("SKU sin fila en la hoja de inventario, no se escribe")
			continue
		}
		data = append(data, &sheetsapi.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", s.cfg.InventorySheet, stockColumn, rowIdx),
			Values: [][]interface{}{{values[sku].String()}},
		})
	}

	updated := 0
	var errs []error
	for start := 0; start < len(data); start += s.chunk {
		end := start + s.chunk
		if end > len(data) {
			end = len(data)
		}
		chunk := data[start:end]

		err := s.retry.Do(ctx, "sheets.batch_write_stock", func() error {
			_, err := s.svc.Spreadsheets.Values.BatchUpdate(s.cfg.SpreadsheetID, &sheetsapi.BatchUpdateValuesRequest{
				ValueInputOption: "RAW",
				Data:             chunk,
			}).Context(ctx).Do()
			return err
		})
		if err != nil {
			s.log.Error().Err(err).Int("cells", len(chunk)).Msg("lote de escritura agotó reintentos")
			errs = append(errs, err)
			continue
		}
		updated += len(chunk)
		s.log.Info().Int("cells", len(chunk)).Msg("lote de stock escrito")
	}

	return updated, errors.Join(errs...)
}

// rowFor devuelve la fila de un SKU; si el índice aún no existe, fuerza una lectura.
func (s *Store) rowFor(ctx context.Context, sku string) (int, error) {
	s.mu.Lock()
	idx := s.rowBySKU
	s.mu.Unlock()

	if idx == nil {
		if _, err := s.ReadInventory(ctx); err != nil {
			return 0, err
		}
		s.mu.Lock()
		idx = s.rowBySKU
		s.mu.Unlock()
	}

	rowIdx, ok := idx[entity.NormalizeSKU(sku)]
	if !ok {
		return 0, fmt.Errorf("SKU %s: %w", sku, domain.ErrNotFound)
	}
	return rowIdx, nil
}

func (s *Store) readRange(ctx context.Context, rng string) ([][]interface{}, error) {
	var resp *sheetsapi.ValueRange
	err := s.retry.Do(ctx, "sheets.read", func() error {
		var err error
		resp, err = s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, rng).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// retryableAPIError reintenta cuota excedida (429) y errores de servidor (5xx).
func retryableAPIError(err error) bool {
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		return ge.Code == 429 || ge.Code >= 500
	}
	// Errores de transporte (timeout, conexión) también se reintentan.
	return true
}

func cell(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	return fmt.Sprint(row[i])
}
