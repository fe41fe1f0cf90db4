package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fishfarm/internal/domain/models"
	"github.com/mamadbah2/fishfarm/internal/service/entries"
	"github.com/mamadbah2/fishfarm/internal/service/reporting"
	"github.com/mamadbah2/fishfarm/pkg/clients/farmapi"
)

// echoBackend accepts every record and remembers the last payloads.
type echoBackend struct {
	stocking *models.StockingRequest
	sampling *models.FishSamplingRequest
	harvest  *models.HarvestRequest
	err      error
}

func (b *echoBackend) ListPonds(context.Context) ([]models.Pond, error)      { return nil, nil }
func (b *echoBackend) ListSpecies(context.Context) ([]models.Species, error) { return nil, nil }

func (b *echoBackend) CreateStocking(_ context.Context, req models.StockingRequest) (*models.Stocking, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.stocking = &req
	return &models.Stocking{StockingID: 1, Pond: req.Pond, Date: req.Date}, nil
}

func (b *echoBackend) UpdateStocking(context.Context, int, models.StockingRequest) (*models.Stocking, error) {
	return nil, errors.New("not used")
}

func (b *echoBackend) DeleteStocking(context.Context, int) error { return errors.New("not used") }

func (b *echoBackend) CreateFishSampling(_ context.Context, req models.FishSamplingRequest) (*models.FishSampling, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.sampling = &req
	return &models.FishSampling{ID: 2}, nil
}

func (b *echoBackend) CreateHarvest(_ context.Context, req models.HarvestRequest) (*models.Harvest, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.harvest = &req
	return &models.Harvest{ID: 3}, nil
}

func (b *echoBackend) CreateFeed(context.Context, models.FeedRequest) (*models.Feed, error) {
	return nil, errors.New("not used")
}

func (b *echoBackend) CreateMortality(context.Context, models.MortalityRequest) (*models.Mortality, error) {
	return nil, errors.New("not used")
}

func (b *echoBackend) ListFishSamplings(context.Context) ([]models.FishSampling, error) {
	return nil, errors.New("not used")
}

func (b *echoBackend) CalculateAssets(context.Context, int) (*models.AssetCalculationResult, error) {
	return nil, errors.New("not used")
}

func (b *echoBackend) Transfer(context.Context, models.TransferRequest) (*models.TransferResult, error) {
	return nil, errors.New("not used")
}

type stubReporting struct {
	pondID     int
	start, end time.Time
	err        error
}

func (r *stubReporting) GeneratePondReport(_ context.Context, pondID int, start, end time.Time) (*models.PondReport, string, error) {
	r.pondID, r.start, r.end = pondID, start, end
	if r.err != nil {
		return nil, "", r.err
	}
	return &models.PondReport{PondID: pondID}, "FCR: 1.40 (Excellent)", nil
}

func newDispatcher(backend *echoBackend, reporting ReportingAdapter) *Service {
	clock := func() time.Time { return time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC) }
	entrySvc := entries.NewService(backend, nil, nil, entries.WithClock(clock))
	svc := NewService(entrySvc, reporting, nil)
	svc.now = clock
	return svc
}

func handle(t *testing.T, svc *Service, text string) (string, error) {
	t.Helper()
	return svc.HandleCommand(context.Background(), models.ParseCommand(text), "8801700000000")
}

func TestStockCommand(t *testing.T) {
	backend := &echoBackend{}
	svc := newDispatcher(backend, nil)

	reply, err := handle(t, svc, "/stock 1 2 1000 2.5 morning batch")
	require.NoError(t, err)
	assert.Contains(t, reply, "Stocking saved for pond 1 on 2024-05-03")
	assert.Contains(t, reply, "Avg weight 2.500 g, 400.00 pcs/kg.")

	require.NotNil(t, backend.stocking)
	assert.Equal(t, 1000, backend.stocking.Pcs)
	assert.Equal(t, "via WhatsApp from 8801700000000: morning batch", backend.stocking.Notes)
}

func TestSampleCommand(t *testing.T) {
	backend := &echoBackend{}
	svc := newDispatcher(backend, nil)

	reply, err := handle(t, svc, "sample 3 10 2.5")
	require.NoError(t, err)
	assert.Contains(t, reply, "Avg weight 0.250 kg (250.00 g), 4.0 fish/kg, condition 250.00.")
	require.NotNil(t, backend.sampling.LineNumber)
	assert.Equal(t, "4", backend.sampling.LineNumber.String())
}

func TestHarvestCommand(t *testing.T) {
	backend := &echoBackend{}
	svc := newDispatcher(backend, nil)

	reply, err := handle(t, svc, "/harvest 1 150.5 500 price=8.5 big fish")
	require.NoError(t, err)
	assert.Contains(t, reply, "revenue 1279.25")
	assert.Equal(t, "via WhatsApp from 8801700000000: big fish", backend.harvest.Notes)

	reply, err = handle(t, svc, "/harvest 1 150.5 500 big fish @8.5")
	require.NoError(t, err)
	assert.Contains(t, reply, "revenue 1279.25")
	require.NotNil(t, backend.harvest.PricePerKg)
	assert.Equal(t, "8.5", backend.harvest.PricePerKg.String())

	reply, err = handle(t, svc, "/harvest 1 150.5 500")
	require.NoError(t, err)
	assert.Contains(t, reply, "revenue N/A")
	assert.Nil(t, backend.harvest.TotalRevenue)
}

func TestHarvestNumericNoteIsNotAPrice(t *testing.T) {
	backend := &echoBackend{}
	svc := newDispatcher(backend, nil)

	reply, err := handle(t, svc, "/harvest 1 100 400 3 crates damaged")
	require.NoError(t, err)
	assert.Contains(t, reply, "revenue N/A")

	require.NotNil(t, backend.harvest)
	assert.Nil(t, backend.harvest.PricePerKg)
	assert.Nil(t, backend.harvest.TotalRevenue)
	assert.Equal(t, "via WhatsApp from 8801700000000: 3 crates damaged", backend.harvest.Notes)
}

func TestHarvestRejectsBadPriceMarker(t *testing.T) {
	backend := &echoBackend{}
	svc := newDispatcher(backend, nil)

	for _, text := range []string{
		"/harvest 1 100 400 price=cheap",
		"/harvest 1 100 400 @8 @9",
	} {
		_, err := handle(t, svc, text)
		assert.ErrorIs(t, err, ErrInvalidArguments, text)
	}
	assert.Nil(t, backend.harvest)
}

func TestFCRCommand(t *testing.T) {
	reporting := &stubReporting{}
	svc := newDispatcher(&echoBackend{}, reporting)

	reply, err := handle(t, svc, "/fcr 4")
	require.NoError(t, err)
	assert.Equal(t, "FCR: 1.40 (Excellent)", reply)
	assert.Equal(t, 4, reporting.pondID)
	assert.Equal(t, time.Date(2024, 4, 4, 10, 0, 0, 0, time.UTC), reporting.start)
	assert.Equal(t, time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC), reporting.end)

	_, err = handle(t, svc, "/fcr north")
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = handle(t, newDispatcher(&echoBackend{}, nil), "/fcr 4")
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
}

func TestCalcCommandNeverSubmits(t *testing.T) {
	backend := &echoBackend{}
	svc := newDispatcher(backend, nil)

	reply, err := handle(t, svc, "/calc stock 1000 2.5")
	require.NoError(t, err)
	assert.Equal(t, "Avg weight 2.500 g, 400.00 pcs/kg.", reply)

	reply, err = handle(t, svc, "/calc harvest 150.5 0")
	require.NoError(t, err)
	assert.Equal(t, "Avg weight N/A g, revenue N/A.", reply)

	_, err = handle(t, svc, "/calc fcr 1 2")
	assert.ErrorIs(t, err, ErrInvalidArguments)

	assert.Nil(t, backend.stocking)
	assert.Nil(t, backend.harvest)
}

func TestUnknownCommandGetsHelp(t *testing.T) {
	svc := newDispatcher(&echoBackend{}, nil)

	reply, err := handle(t, svc, "hello there")
	require.NoError(t, err)
	assert.Equal(t, HelpText, reply)
}

func TestReplyForError(t *testing.T) {
	svc := newDispatcher(&echoBackend{}, nil)

	_, err := handle(t, svc, "/stock 1 2")
	assert.Equal(t, "Could not read that command (usage: /stock <pond> <species> <pcs> <kg>).", ReplyForError(err))

	_, err = handle(t, svc, "/sample 3 0 2.5")
	require.ErrorIs(t, err, entries.ErrInvalidInput)
	assert.Equal(t, "Not saved, please check: sample_size must be greater than 0", ReplyForError(err))

	_, err = handle(t, newDispatcher(&echoBackend{err: errors.New("timeout")}, nil), "/sample 3 10 2.5")
	assert.Contains(t, ReplyForError(err), "unreachable")

	assert.Equal(t, "That command is not available right now.", ReplyForError(ErrUnsupportedCommand))
}

func TestReplyForBackendRejections(t *testing.T) {
	rejected := &farmapi.APIError{
		StatusCode: http.StatusBadRequest,
		Message:    `species: Invalid pk "99" - object does not exist.`,
		Fields:     map[string]string{"species": `Invalid pk "99" - object does not exist.`},
	}
	_, err := handle(t, newDispatcher(&echoBackend{err: fmt.Errorf("create_stocking: %w", rejected)}, nil), "/stock 1 99 1000 2.5")
	require.Error(t, err)
	reply := ReplyForError(err)
	assert.Equal(t, `Not saved, the farm records rejected it: species: Invalid pk "99" - object does not exist.`, reply)
	assert.NotContains(t, reply, "again later")

	_, err = handle(t, newDispatcher(&echoBackend{}, &stubReporting{err: fmt.Errorf("pond 999: %w", reporting.ErrPondNotFound)}), "/fcr 999")
	require.Error(t, err)
	assert.Equal(t, "That pond or record was not found. Check the number and try again.", ReplyForError(err))

	unauthorized := &farmapi.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid token."}
	assert.Contains(t, ReplyForError(fmt.Errorf("list_ponds: %w", unauthorized)), "refused our credentials")

	bad := &farmapi.APIError{StatusCode: http.StatusBadRequest, Message: "Bad Request"}
	assert.Contains(t, ReplyForError(bad), "unreachable")
}
