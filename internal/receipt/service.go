package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/receipt-processor/internal/points"
	"github.com/zombor/receipt-processor/internal/scanning"
)

// ErrScannerUnavailable is returned by ScanReceipt when no scanner is configured
var ErrScannerUnavailable = errors.New("receipt scanning is not configured")

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random (v4) UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service scores receipts and keeps the results
type Service struct {
	db          DB
	engine      *points.Engine
	scanner     scanning.Scanner
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with UUID ids and the wall clock.
// scanner and storage may be nil when image scanning is not wanted.
func NewService(db DB, engine *points.Engine, scanner scanning.Scanner, storage Storage) *Service {
	return NewServiceWithDeps(db, engine, scanner, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, engine *points.Engine, scanner scanning.Scanner, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	if engine == nil {
		engine = points.NewEngine()
	}
	return &Service{
		db:          db,
		engine:      engine,
		scanner:     scanner,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// IsInvalid reports whether err means the submitted receipt was rejected,
// as opposed to a failure on our side.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidReceipt) ||
		errors.Is(err, points.ErrMalformedNumeric) ||
		errors.Is(err, points.ErrMalformedTemporal)
}

// score validates a receipt and builds its record without saving it
func (s *Service) score(id string, r points.Receipt, source string) (*Record, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}

	breakdown, err := s.engine.Breakdown(r)
	if err != nil {
		return nil, fmt.Errorf("scoring receipt: %w", err)
	}

	total := points.Sum(breakdown)
	for _, c := range breakdown {
		slog.Debug("Rule evaluated", "id", id, "rule", c.Rule, "points", c.Points)
	}
	slog.Debug("Receipt scored", "id", id, "retailer", r.Retailer, "points", total)

	return &Record{
		ID:        id,
		Receipt:   r,
		Points:    total,
		Breakdown: breakdown,
		Source:    source,
		CreatedAt: s.timeSource.Now(),
	}, nil
}

// ProcessReceipt validates and scores a receipt, then saves the result
// under a freshly generated ID.
func (s *Service) ProcessReceipt(ctx context.Context, r points.Receipt) (*Record, error) {
	record, err := s.score(s.idGenerator.Generate(), r, SourceJSON)
	if err != nil {
		return nil, err
	}

	if err := s.db.SaveReceipt(ctx, record); err != nil {
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}
	return record, nil
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`).ReplaceAllString(base, "")
	base = regexp.MustCompile(`\s+`).ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}

// ScanReceipt stores an uploaded receipt image, transcribes it with the
// scanner and processes the result like a submitted receipt. The image is
// removed again if any step fails.
func (s *Service) ScanReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Record, error) {
	if s.scanner == nil || s.storage == nil {
		return nil, ErrScannerUnavailable
	}

	id := s.idGenerator.Generate()
	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving image: %w", err)
	}

	record, err := s.scanAndScore(ctx, id, data, contentType)
	if err != nil {
		if delErr := s.storage.Delete(savedPath); delErr != nil {
			slog.Warn("Failed to delete image", "path", savedPath, "error", delErr)
		}
		return nil, err
	}

	record.Image = savedPath
	record.ContentType = contentType
	if err := s.db.SaveReceipt(ctx, record); err != nil {
		if delErr := s.storage.Delete(savedPath); delErr != nil {
			slog.Warn("Failed to delete image", "path", savedPath, "error", delErr)
		}
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}
	return record, nil
}

func (s *Service) scanAndScore(ctx context.Context, id string, data []byte, contentType string) (*Record, error) {
	scanned, err := s.scanner.ScanReceipt(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"id", id,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}
	return s.score(id, fromScan(scanned), SourceScan)
}

// fromScan converts scanner output into a receipt for validation and scoring
func fromScan(d *scanning.ReceiptData) points.Receipt {
	items := make([]points.Item, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, points.Item{
			ShortDescription: item.ShortDescription,
			Price:            string(item.Price),
		})
	}
	return points.Receipt{
		Retailer:     d.Retailer,
		PurchaseDate: d.PurchaseDate,
		PurchaseTime: d.PurchaseTime,
		Items:        items,
		Total:        string(d.Total),
	}
}

// GetReceipt retrieves a scored receipt by ID
func (s *Service) GetReceipt(ctx context.Context, id string) (*Record, error) {
	record, err := s.db.GetReceipt(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return record, nil
}

// GetPoints returns the points awarded to a receipt
func (s *Service) GetPoints(ctx context.Context, id string) (int, error) {
	record, err := s.GetReceipt(ctx, id)
	if err != nil {
		return 0, err
	}
	return record.Points, nil
}

// ListReceipts returns all scored receipts
func (s *Service) ListReceipts(ctx context.Context) ([]*Record, error) {
	records, err := s.db.ListReceipts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return records, nil
}

// GetReceiptImage returns the stored image of a scanned receipt
func (s *Service) GetReceiptImage(ctx context.Context, id string) ([]byte, string, error) {
	record, err := s.GetReceipt(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if record.Image == "" || s.storage == nil {
		return nil, "", fmt.Errorf("%w: no image for %s", ErrNotFound, id)
	}

	data, err := s.storage.Get(record.Image)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt image: %w", err)
	}
	return data, record.ContentType, nil
}
