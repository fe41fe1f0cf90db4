package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fishfarm/internal/calc"
	"github.com/mamadbah2/fishfarm/internal/domain/models"
	"github.com/mamadbah2/fishfarm/internal/service/entries"
	"github.com/mamadbah2/fishfarm/internal/service/reporting"
	"github.com/mamadbah2/fishfarm/pkg/clients/farmapi"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates the command cannot be served by this deployment.
var ErrUnsupportedCommand = errors.New("unsupported command")

// fcrWindowDays is the number of calendar days /fcr reports on, today included.
const fcrWindowDays = 30

// HelpText lists the supported commands.
const HelpText = `Fish farm commands:
/stock <pond> <species> <pcs> <kg>
/sample <pond> <sample_size> <kg>
/harvest <pond> <kg> <count> [price=<per_kg>] [notes]
/fcr <pond>
/calc stock <pcs> <kg>
/calc sample <sample_size> <kg>
/calc harvest <kg> <count> [price_per_kg]`

var usage = map[models.CommandType]string{
	models.CommandStock:   "/stock <pond> <species> <pcs> <kg>",
	models.CommandSample:  "/sample <pond> <sample_size> <kg>",
	models.CommandHarvest: "/harvest <pond> <kg> <count> [price=<per_kg>] [notes]",
	models.CommandFCR:     "/fcr <pond>",
	models.CommandCalc:    "/calc <stock|sample|harvest> ...",
}

// EntryService is the part of the entries service the dispatcher drives.
type EntryService interface {
	PreviewStocking(in entries.StockingInput) entries.StockingPreview
	PreviewSampling(in entries.SamplingInput) entries.SamplingPreview
	PreviewHarvest(in entries.HarvestInput) entries.HarvestPreview

	SubmitStocking(ctx context.Context, in entries.StockingInput) (*models.Stocking, error)
	SubmitSampling(ctx context.Context, in entries.SamplingInput) (*models.FishSampling, error)
	SubmitHarvest(ctx context.Context, in entries.HarvestInput) (*models.Harvest, error)
}

// ReportingAdapter defines the reporting functions required by the dispatcher.
type ReportingAdapter interface {
	GeneratePondReport(ctx context.Context, pondID int, start, end time.Time) (*models.PondReport, string, error)
}

// Dispatcher executes parsed commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	entries   EntryService
	reporting ReportingAdapter
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs a command dispatcher. reporting may be nil.
func NewService(entrySvc EntryService, reporting ReportingAdapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		entries:   entrySvc,
		reporting: reporting,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleCommand runs one worker command. Unknown commands get the help text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandStock:
		return s.stock(ctx, cmd, sender)
	case models.CommandSample:
		return s.sample(ctx, cmd, sender)
	case models.CommandHarvest:
		return s.harvest(ctx, cmd, sender)
	case models.CommandFCR:
		return s.fcr(ctx, cmd)
	case models.CommandCalc:
		return s.preview(cmd)
	default:
		return HelpText, nil
	}
}

func (s *Service) stock(ctx context.Context, cmd models.Command, sender string) (string, error) {
	if len(cmd.Args) < 4 {
		return "", invalidArgs(cmd.Type)
	}

	in := entries.StockingInput{
		Pond:          entries.Text(cmd.Args[0]),
		Species:       entries.Text(cmd.Args[1]),
		Pcs:           entries.Text(cmd.Args[2]),
		TotalWeightKg: entries.Text(cmd.Args[3]),
		Notes:         notes(sender, cmd.Args[4:]),
	}

	stocking, err := s.entries.SubmitStocking(ctx, in)
	if err != nil {
		return "", err
	}

	preview := s.entries.PreviewStocking(in)
	return fmt.Sprintf("Stocking saved for pond %s on %s: %s pcs, %s kg.\nAvg weight %s g, %s pcs/kg.",
		cmd.Args[0], stocking.Date, cmd.Args[2], cmd.Args[3],
		preview.InitialAvgG.Format(3), preview.LinePcsPerKg.Format(2)), nil
}

func (s *Service) sample(ctx context.Context, cmd models.Command, sender string) (string, error) {
	if len(cmd.Args) < 3 {
		return "", invalidArgs(cmd.Type)
	}

	in := entries.SamplingInput{
		Pond:          entries.Text(cmd.Args[0]),
		SampleSize:    entries.Text(cmd.Args[1]),
		TotalWeightKg: entries.Text(cmd.Args[2]),
		Notes:         notes(sender, cmd.Args[3:]),
	}

	if _, err := s.entries.SubmitSampling(ctx, in); err != nil {
		return "", err
	}

	return fmt.Sprintf("Sampling saved for pond %s.\n%s", cmd.Args[0], formatSampling(s.entries.PreviewSampling(in))), nil
}

func (s *Service) harvest(ctx context.Context, cmd models.Command, sender string) (string, error) {
	if len(cmd.Args) < 3 {
		return "", invalidArgs(cmd.Type)
	}

	in := entries.HarvestInput{
		Pond:          entries.Text(cmd.Args[0]),
		TotalWeightKg: entries.Text(cmd.Args[1]),
		TotalCount:    entries.Text(cmd.Args[2]),
	}
	price, extra, err := splitPrice(cmd.Args[3:])
	if err != nil {
		return "", invalidArgs(cmd.Type)
	}
	in.PricePerKg = price
	in.Notes = notes(sender, extra)

	if _, err := s.entries.SubmitHarvest(ctx, in); err != nil {
		return "", err
	}

	return fmt.Sprintf("Harvest saved for pond %s.\n%s", cmd.Args[0], formatHarvest(s.entries.PreviewHarvest(in))), nil
}

func (s *Service) fcr(ctx context.Context, cmd models.Command) (string, error) {
	if s.reporting == nil {
		return "", ErrUnsupportedCommand
	}
	if len(cmd.Args) < 1 {
		return "", invalidArgs(cmd.Type)
	}

	pondID := calc.ParseCount(cmd.Args[0])
	id, ok := pondID.Int()
	if !ok || id <= 0 {
		return "", invalidArgs(cmd.Type)
	}

	end := s.now()
	_, summary, err := s.reporting.GeneratePondReport(ctx, id, end.AddDate(0, 0, 1-fcrWindowDays), end)
	if err != nil {
		return "", err
	}
	return summary, nil
}

func (s *Service) preview(cmd models.Command) (string, error) {
	if len(cmd.Args) < 3 {
		return "", invalidArgs(cmd.Type)
	}

	args := cmd.Args[1:]
	switch models.ParseCommand(cmd.Args[0]).Type {
	case models.CommandStock:
		preview := s.entries.PreviewStocking(entries.StockingInput{
			Pcs:           entries.Text(args[0]),
			TotalWeightKg: entries.Text(args[1]),
		})
		return fmt.Sprintf("Avg weight %s g, %s pcs/kg.", preview.InitialAvgG.Format(3), preview.LinePcsPerKg.Format(2)), nil
	case models.CommandSample:
		return formatSampling(s.entries.PreviewSampling(entries.SamplingInput{
			SampleSize:    entries.Text(args[0]),
			TotalWeightKg: entries.Text(args[1]),
		})), nil
	case models.CommandHarvest:
		in := entries.HarvestInput{
			TotalWeightKg: entries.Text(args[0]),
			TotalCount:    entries.Text(args[1]),
		}
		if len(args) > 2 {
			in.PricePerKg = entries.Text(args[2])
		}
		return formatHarvest(s.entries.PreviewHarvest(in)), nil
	default:
		return "", invalidArgs(cmd.Type)
	}
}

func formatSampling(p entries.SamplingPreview) string {
	return fmt.Sprintf("Avg weight %s kg (%s g), %s fish/kg, condition %s.",
		p.AverageWeightKg.Format(3), p.AverageWeightG.Format(2), p.FishPerKg.Format(1), p.ConditionFactor.Format(2))
}

func formatHarvest(p entries.HarvestPreview) string {
	return fmt.Sprintf("Avg weight %s g, revenue %s.", p.AvgWeightG.Format(2), p.TotalRevenue.Format(2))
}

// splitPrice pulls an explicit "price=8.5" or "@8.5" marker out of the words
// after a harvest count. Every other word is kept as a note, numeric or not.
func splitPrice(words []string) (entries.Text, []string, error) {
	var (
		price entries.Text
		rest  = make([]string, 0, len(words))
	)
	for _, w := range words {
		raw, ok := priceMarker(w)
		if !ok {
			rest = append(rest, w)
			continue
		}
		if price != "" || !calc.ParseNumber(raw).Computable() {
			return "", nil, ErrInvalidArguments
		}
		price = entries.Text(raw)
	}
	return price, rest, nil
}

func priceMarker(word string) (string, bool) {
	switch {
	case len(word) > len("price=") && strings.EqualFold(word[:len("price=")], "price="):
		return word[len("price="):], true
	case len(word) > 1 && word[0] == '@':
		return word[1:], true
	}
	return "", false
}

func notes(sender string, extra []string) entries.Text {
	text := "via WhatsApp"
	if sender != "" {
		text += " from " + sender
	}
	if len(extra) > 0 {
		text += ": " + strings.Join(extra, " ")
	}
	return entries.Text(text)
}

func invalidArgs(t models.CommandType) error {
	return fmt.Errorf("%w, usage: %s", ErrInvalidArguments, usage[t])
}

// ReplyForError turns a command failure into text suitable for the worker.
func ReplyForError(err error) string {
	var (
		fields entries.FieldErrors
		apiErr *farmapi.APIError
	)
	switch {
	case errors.As(err, &fields):
		return "Not saved, please check: " + strings.TrimPrefix(fields.Error(), "invalid input: ")
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest && len(apiErr.Fields) > 0:
		return "Not saved, the farm records rejected it: " + apiErr.Message
	case errors.Is(err, reporting.ErrPondNotFound), errors.Is(err, farmapi.ErrNotFound):
		return "That pond or record was not found. Check the number and try again."
	case errors.Is(err, farmapi.ErrUnauthorized):
		return "The farm records refused our credentials. Please tell the farm manager."
	case errors.Is(err, ErrInvalidArguments):
		return "Could not read that command (" + strings.TrimPrefix(err.Error(), ErrInvalidArguments.Error()+", ") + ")."
	case errors.Is(err, ErrUnsupportedCommand):
		return "That command is not available right now."
	default:
		return "Farm records are unreachable right now. Please send the same message again later."
	}
}
