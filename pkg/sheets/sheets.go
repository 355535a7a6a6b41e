// Package sheets implements grid.Grid on top of the Google Sheets API.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"muster/pkg/grid"
)

var tracer = otel.Tracer("muster/pkg/sheets")

// SheetClient fronts one spreadsheet. Calls block until Google answers and
// are never retried here.
type SheetClient struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	limiter       *rate.Limiter
}

// NewService builds an authenticated Sheets service. An empty credentialsFile
// falls back to application default credentials.
func NewService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*sheets.Service, error) {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return srv, nil
}

// NewSheetClient returns a client for spreadsheetID. sheetName selects a tab;
// empty means the first one. limiter may be nil.
func NewSheetClient(service *sheets.Service, spreadsheetID, sheetName string, limiter *rate.Limiter) *SheetClient {
	return &SheetClient{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		limiter:       limiter,
	}
}

func (s *SheetClient) ReadRow(ctx context.Context, rng string) ([]interface{}, error) {
	return s.read(ctx, rng, dimensionRows)
}

func (s *SheetClient) ReadColumn(ctx context.Context, rng string) ([]interface{}, error) {
	return s.read(ctx, rng, dimensionColumns)
}

func (s *SheetClient) read(ctx context.Context, rng string, dim dimension) ([]interface{}, error) {
	ctx, span := s.start(ctx, "sheets.values.get", rng)
	defer span.End()
	span.SetAttributes(attribute.String("sheets.dimension", string(dim)))

	if err := s.wait(ctx); err != nil {
		return nil, s.fail(span, "read "+rng, err)
	}
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.qualify(rng)).
		MajorDimension(string(dim)).Context(ctx).Do()
	if err != nil {
		return nil, s.fail(span, "read "+rng, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return resp.Values[0], nil
}

func (s *SheetClient) WriteCell(ctx context.Context, addr string, value interface{}) error {
	ctx, span := s.start(ctx, "sheets.values.update", addr)
	defer span.End()

	if err := s.wait(ctx); err != nil {
		return s.fail(span, "write "+addr, err)
	}
	_, err := s.service.Spreadsheets.Values.Update(
		s.spreadsheetID,
		s.qualify(addr),
		&sheets.ValueRange{Values: [][]interface{}{{value}}},
	).ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return s.fail(span, "write "+addr, err)
	}
	return nil
}

func (s *SheetClient) AppendRow(ctx context.Context, value interface{}) (int, error) {
	ctx, span := s.start(ctx, "sheets.values.append", appendRange)
	defer span.End()

	if err := s.wait(ctx); err != nil {
		return 0, s.fail(span, "append", err)
	}
	resp, err := s.service.Spreadsheets.Values.Append(
		s.spreadsheetID,
		s.qualify(appendRange),
		&sheets.ValueRange{Values: [][]interface{}{{value}}},
	).ValueInputOption(valueInputOption).InsertDataOption("OVERWRITE").Context(ctx).Do()
	if err != nil {
		return 0, s.fail(span, "append", err)
	}
	if resp.Updates == nil {
		return 0, s.fail(span, "append", errors.New("response has no updated range"))
	}
	row, err := rowFromRange(resp.Updates.UpdatedRange)
	if err != nil {
		return 0, s.fail(span, "append", err)
	}
	span.SetAttributes(attribute.Int("sheets.row", row))
	return row, nil
}

// EnsureSheetExists adds the configured tab when the spreadsheet lacks it.
func (s *SheetClient) EnsureSheetExists(ctx context.Context) error {
	if s.sheetName == "" {
		return nil
	}
	ctx, span := s.start(ctx, "sheets.ensure", s.sheetName)
	defer span.End()

	if err := s.wait(ctx); err != nil {
		return s.fail(span, "get spreadsheet", err)
	}
	ss, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return s.fail(span, "get spreadsheet", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.sheetName {
			return nil
		}
	}

	log.WithField("sheet", s.sheetName).Info("adding missing sheet")
	addSheetReq := &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{
				Title: s.sheetName,
			},
		},
	}
	if err := s.wait(ctx); err != nil {
		return s.fail(span, "add sheet", err)
	}
	_, err = s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{addSheetReq},
	}).Context(ctx).Do()
	if err != nil {
		return s.fail(span, "add sheet", err)
	}
	return nil
}

func (s *SheetClient) qualify(rng string) string {
	if s.sheetName == "" {
		return rng
	}
	return "'" + strings.ReplaceAll(s.sheetName, "'", "''") + "'!" + rng
}

func (s *SheetClient) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func (s *SheetClient) start(ctx context.Context, name, rng string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("sheets.spreadsheet_id", s.spreadsheetID),
		attribute.String("sheets.range", rng),
	))
}

// fail records err on span and wraps it so callers see grid.ErrRemoteUnavailable
// while keeping the googleapi.Error reachable through errors.As.
func (s *SheetClient) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	log.WithFields(log.Fields{
		"spreadsheet": s.spreadsheetID,
		"op":          op,
	}).WithError(err).Debug("sheets call failed")
	return fmt.Errorf("sheets %s: %w: %w", op, err, grid.ErrRemoteUnavailable)
}
