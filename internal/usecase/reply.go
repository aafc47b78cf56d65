package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voice-lead-agent/internal/domain"
)

const (
	DefaultModel     = "gpt-3.5-turbo"
	DefaultMaxTokens = 300
)

// Detector returns a best-guess ISO 639-1 code for text.
type Detector interface {
	Detect(ctx context.Context, text string) (string, error)
}

type LLMClient interface {
	Chat(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// Recorder receives per-request observations. It is satisfied by
// *metrics.Metrics.
type Recorder interface {
	ObserveLanguage(code string)
	ObserveCompletion(d time.Duration, err error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type ReplyService struct {
	detector  Detector
	llm       LLMClient
	model     string
	maxTokens int
	logger    *slog.Logger
	recorder  Recorder
}

type ReplyInput struct {
	Transcript string
	History    []domain.Turn
}

type ReplyOutput struct {
	Response string
	EndCall  bool
}

type Option func(*ReplyService)

func WithLogger(l *slog.Logger) Option {
	return func(s *ReplyService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *ReplyService) {
		if r != nil {
			s.recorder = r
		}
	}
}

func NewReplyService(d Detector, llm LLMClient, model string, maxTokens int, opts ...Option) (*ReplyService, error) {
	if d == nil {
		return nil, errors.New("usecase: language detector must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	s := &ReplyService{
		detector:  d,
		llm:       llm,
		model:     model,
		maxTokens: maxTokens,
		logger:    slog.Default(),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Reply produces the agent's next line for one call turn. The whole
// conversation is rebuilt from in on every call.
func (s *ReplyService) Reply(ctx context.Context, in ReplyInput) (ReplyOutput, error) {
	lang := s.detectLanguage(ctx, in.Transcript)
	s.recorder.ObserveLanguage(lang.Code)

	messages := buildPromptMessages(lang, in.Transcript, in.History)

	start := time.Now()
	raw, err := s.llm.Chat(ctx, domain.CompletionRequest{
		Model:     s.model,
		Messages:  messages,
		MaxTokens: s.maxTokens,
	})
	s.recorder.ObserveCompletion(time.Since(start), err)
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return ReplyOutput{}, NewError(ErrorRateLimited, "openai_rate_limited", err)
		}
		if ctx.Err() != nil {
			return ReplyOutput{}, NewError(ErrorUpstream, "openai_cancelled", err)
		}
		return ReplyOutput{}, NewError(ErrorUpstream, "openai_error", err)
	}

	return ReplyOutput{
		Response: raw,
		EndCall:  false,
	}, nil
}

// detectLanguage never fails: any detector error, panic, or unsupported code
// resolves to the default language.
func (s *ReplyService) detectLanguage(ctx context.Context, transcript string) (lang domain.Language) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("language detection panicked",
				"err", NewError(ErrorDetectionFailed, "detector_panic", fmt.Errorf("%v", r)),
				"language", domain.DefaultLanguage.Name)
			lang = domain.DefaultLanguage
		}
	}()

	code, err := s.detector.Detect(ctx, transcript)
	if err != nil {
		s.logger.Warn("language detection failed",
			"err", NewError(ErrorDetectionFailed, "detector_error", err),
			"language", domain.DefaultLanguage.Name)
		return domain.DefaultLanguage
	}
	lang, ok := domain.LanguageForCode(code)
	if !ok {
		s.logger.Debug("unsupported language code", "code", code, "language", lang.Name)
	}
	return lang
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

type nopRecorder struct{}

func (nopRecorder) ObserveLanguage(string) {}
func (nopRecorder) ObserveCompletion(time.Duration, error) {}
