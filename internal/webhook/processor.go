// Package webhook turns a voice-platform webhook body into a reply payload.
// It is the single place where internal failures collapse into the apology.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"voice-lead-agent/internal/logging"
	"voice-lead-agent/internal/metrics"
	"voice-lead-agent/internal/usecase"
)

type Replier interface {
	Reply(ctx context.Context, in usecase.ReplyInput) (usecase.ReplyOutput, error)
}

// Observer counts request outcomes. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveRequest(outcome string)
}

type Processor struct {
	replier  Replier
	logger   *slog.Logger
	observer Observer
}

type Option func(*Processor)

func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(p *Processor) {
		if o != nil {
			p.observer = o
		}
	}
}

func NewProcessor(r Replier, opts ...Option) (*Processor, error) {
	if r == nil {
		return nil, errors.New("webhook: replier must not be nil")
	}
	p := &Processor{
		replier:  r,
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process handles one webhook body. It never fails: every error, including a
// panic, yields Apology().
func (p *Processor) Process(ctx context.Context, body []byte) (resp Response) {
	logger := logging.FromContext(ctx, p.logger)

	defer func() {
		if r := recover(); r != nil {
			resp = p.fail(logger, usecase.NewError(usecase.ErrorInternal, "panic", fmt.Errorf("%v", r)))
		}
	}()

	in, err := Decode(body)
	if err != nil {
		return p.fail(logger, err)
	}
	logger.Info("received webhook",
		"transcript_len", len(in.Transcript),
		"history_turns", len(in.History))
	logger.Debug("webhook payload", "transcript", in.Transcript)

	out, err := p.replier.Reply(ctx, in)
	if err != nil {
		return p.fail(logger, err)
	}

	resp = Response{Response: out.Response, EndCall: out.EndCall}
	logger.Info("sending reply", "end_call", resp.EndCall, "response_len", len(resp.Response))
	logger.Debug("reply payload", "response", resp.Response)
	p.observer.ObserveRequest(metrics.OutcomeOK)
	return resp
}

func (p *Processor) fail(logger *slog.Logger, err error) Response {
	code, reason := usecase.Classify(err)
	logger.Error("webhook failed", "code", code, "reason", reason, "err", err)
	p.observer.ObserveRequest(outcomeFor(code))
	return Apology()
}

var outcomes = map[usecase.ErrorCode]string{
	usecase.ErrorInvalidInput:    metrics.OutcomeInvalidInput,
	usecase.ErrorDetectionFailed: metrics.OutcomeDetectionFailed,
	usecase.ErrorRateLimited:     metrics.OutcomeRateLimited,
	usecase.ErrorUpstream:        metrics.OutcomeUpstreamError,
	usecase.ErrorInternal:        metrics.OutcomeInternalError,
}

func outcomeFor(code usecase.ErrorCode) string {
	if o, ok := outcomes[code]; ok {
		return o
	}
	return metrics.OutcomeInternalError
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string) {}
