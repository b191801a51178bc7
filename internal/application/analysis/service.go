package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bryanwahyu/policylens/internal/application"
	"github.com/bryanwahyu/policylens/internal/domain/analysis"
)

const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1500
)

// Outcome labels reported to the Recorder.
const (
	OutcomeOK            = "ok"
	OutcomeInvalid       = "invalid"
	OutcomeEmpty         = "empty_completion"
	OutcomeQuota         = "quota_exceeded"
	OutcomeUpstreamError = "upstream_error"
)

// Recorder receives one outcome per analysis and one result per archive attempt.
type Recorder interface {
	RecordAnalysis(docType analysis.DocType, outcome string)
	RecordArchive(err error)
}

// Options tune the completion call. Zero values fall back to the defaults above.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Service runs one document through the LLM and parses the reply.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	Client   analysis.ChatCompleter
	Prompt   func(analysis.DocType) string
	Archive  analysis.Archive // optional
	Recorder Recorder         // optional
	Clock    application.Clock
	Logger   *slog.Logger
	Options  Options
}

// Analyze validates the request, calls the completion API once and maps the reply
// onto a Result. Upstream errors are returned unchanged so their message can be
// shown to the caller.
func (s *Service) Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error) {
	if req.Text == "" {
		s.record(req.Type, OutcomeInvalid)
		return analysis.Result{}, analysis.ErrNoText
	}

	chat := analysis.ChatRequest{
		Model:       s.model(),
		System:      s.Prompt(req.Type),
		User:        req.Text,
		Temperature: s.temperature(),
		MaxTokens:   s.maxTokens(),
	}
	raw, err := s.Client.Complete(ctx, chat)
	if err == nil && raw == "" {
		err = analysis.ErrEmptyCompletion
	}
	if err != nil {
		s.record(req.Type, outcomeOf(err))
		s.logger().ErrorContext(ctx, "analysis failed",
			slog.String("doc_type", string(req.Type)),
			slog.String("model", chat.Model),
			slog.String("error", err.Error()))
		return analysis.Result{}, err
	}

	res := analysis.ParseAnalysis(raw)
	s.record(req.Type, OutcomeOK)
	s.archive(ctx, req, chat.Model, raw, res)
	return res, nil
}

// archive is best effort: a failing archive never fails the analysis.
func (s *Service) archive(ctx context.Context, req analysis.Request, model, raw string, res analysis.Result) {
	if s.Archive == nil {
		return
	}
	b, err := json.Marshal(res)
	if err == nil {
		sum := sha256.Sum256([]byte(req.Text))
		err = s.Archive.Save(ctx, &analysis.Record{
			ID:             analysis.RecordID(uuid.NewString()),
			DocType:        req.Type,
			Model:          model,
			DocumentSHA256: hex.EncodeToString(sum[:]),
			DocumentChars:  utf8.RuneCountInString(req.Text),
			Result:         string(b),
			RawCompletion:  raw,
			CreatedAt:      s.now(),
		})
	}
	if s.Recorder != nil {
		s.Recorder.RecordArchive(err)
	}
	if err != nil {
		s.logger().WarnContext(ctx, "archive save failed", slog.String("error", err.Error()))
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, analysis.ErrEmptyCompletion):
		return OutcomeEmpty
	case errors.Is(err, analysis.ErrQuotaExceeded):
		return OutcomeQuota
	default:
		return OutcomeUpstreamError
	}
}

func (s *Service) record(docType analysis.DocType, outcome string) {
	if s.Recorder != nil {
		s.Recorder.RecordAnalysis(docType, outcome)
	}
}

func (s *Service) model() string {
	if s.Options.Model == "" {
		return DefaultModel
	}
	return s.Options.Model
}

func (s *Service) temperature() float32 {
	if s.Options.Temperature == 0 {
		return DefaultTemperature
	}
	return s.Options.Temperature
}

func (s *Service) maxTokens() int {
	if s.Options.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return s.Options.MaxTokens
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
