package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"voice-lead-agent/internal/domain"
	"voice-lead-agent/internal/logging"
	"voice-lead-agent/internal/usecase"
)

const apologyJSON = `{"response":"I apologize, I'm having trouble right now. Please try again later.","end_call":true}`

type stubReplier struct {
	out   usecase.ReplyOutput
	err   error
	panic bool
	in    usecase.ReplyInput
	calls int
}

func (s *stubReplier) Reply(_ context.Context, in usecase.ReplyInput) (usecase.ReplyOutput, error) {
	s.calls++
	s.in = in
	if s.panic {
		panic("replier exploded")
	}
	return s.out, s.err
}

type countingObserver struct {
	outcomes []string
}

func (c *countingObserver) ObserveRequest(outcome string) { c.outcomes = append(c.outcomes, outcome) }

type fixedDetector struct {
	code string
	err  error
}

func (d fixedDetector) Detect(context.Context, string) (string, error) { return d.code, d.err }

type capturingLLM struct {
	answer   string
	err      error
	requests []domain.CompletionRequest
}

func (c *capturingLLM) Chat(_ context.Context, req domain.CompletionRequest) (string, error) {
	c.requests = append(c.requests, req)
	return c.answer, c.err
}

func newTestProcessor(t *testing.T, r Replier, opts ...Option) *Processor {
	t.Helper()
	p, err := NewProcessor(r, append([]Option{WithLogger(logging.NewNop())}, opts...)...)
	require.NoError(t, err)
	return p
}

func expectInvalidInput(t *testing.T, err error, reason string) {
	t.Helper()
	var usecaseErr *usecase.Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, usecase.ErrorInvalidInput, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}

// ---------------------------------------------------------------------------
// Decode
// ---------------------------------------------------------------------------

func TestDecode_Valid(t *testing.T) {
	in, err := Decode([]byte(`{
		"transcript": "Yes, I'm still looking",
		"conversation_history": [
			{"role": "agent", "content": "Hi, this is Priya."},
			{"role": "user", "content": "Hello"}
		],
		"call_id": "ignored"
	}`))
	require.NoError(t, err)
	require.Equal(t, usecase.ReplyInput{
		Transcript: "Yes, I'm still looking",
		History: []domain.Turn{
			{Role: "agent", Content: "Hi, this is Priya."},
			{Role: "user", Content: "Hello"},
		},
	}, in)
}

func TestDecode_EmptyValuesArePresent(t *testing.T) {
	in, err := Decode([]byte(`{"transcript":"","conversation_history":[{"role":"","content":""}]}`))
	require.NoError(t, err)
	require.Equal(t, "", in.Transcript)
	require.Equal(t, []domain.Turn{{}}, in.History)

	in, err = Decode([]byte(`{"transcript":"hi","conversation_history":[]}`))
	require.NoError(t, err)
	require.Empty(t, in.History)
}

func TestDecode_Errors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		reason string
	}{
		{name: "not json", body: `not-json`, reason: "malformed_json"},
		{name: "empty body", body: ``, reason: "malformed_json"},
		{name: "array body", body: `[]`, reason: "malformed_json"},
		{name: "wrong transcript type", body: `{"transcript":5,"conversation_history":[]}`, reason: "malformed_json"},
		{name: "null body", body: `null`, reason: "missing_transcript"},
		{name: "missing transcript", body: `{"conversation_history":[]}`, reason: "missing_transcript"},
		{name: "null transcript", body: `{"transcript":null,"conversation_history":[]}`, reason: "missing_transcript"},
		{name: "missing history", body: `{"transcript":"hi"}`, reason: "missing_conversation_history"},
		{name: "null history", body: `{"transcript":"hi","conversation_history":null}`, reason: "missing_conversation_history"},
		{name: "turn without role", body: `{"transcript":"hi","conversation_history":[{"content":"x"}]}`, reason: "missing_turn_role"},
		{name: "turn without content", body: `{"transcript":"hi","conversation_history":[{"role":"agent"}]}`, reason: "missing_turn_content"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.body))
			expectInvalidInput(t, err, tc.reason)
		})
	}
}

// ---------------------------------------------------------------------------
// Processor
// ---------------------------------------------------------------------------

func TestNewProcessor_ValidatesDependency(t *testing.T) {
	_, err := NewProcessor(nil)
	require.Error(t, err)
}

func TestProcess_HappyPath(t *testing.T) {
	r := &stubReplier{out: usecase.ReplyOutput{Response: "Hello, this is Priya."}}
	obs := &countingObserver{}
	p := newTestProcessor(t, r, WithObserver(obs))

	resp := p.Process(context.Background(), []byte(`{"transcript":"hi","conversation_history":[]}`))
	require.Equal(t, Response{Response: "Hello, this is Priya.", EndCall: false}, resp)
	require.Equal(t, "hi", r.in.Transcript)
	require.Equal(t, []string{"ok"}, obs.outcomes)
}

func TestProcess_FailuresCollapseToApology(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		replier *stubReplier
		outcome string
	}{
		{name: "malformed body", body: `{`, replier: &stubReplier{}, outcome: "invalid_input"},
		{name: "missing field", body: `{"transcript":"hi"}`, replier: &stubReplier{}, outcome: "invalid_input"},
		{name: "rate limited", body: `{"transcript":"hi","conversation_history":[]}`, replier: &stubReplier{err: usecase.NewError(usecase.ErrorRateLimited, "openai_rate_limited", nil)}, outcome: "rate_limited"},
		{name: "upstream", body: `{"transcript":"hi","conversation_history":[]}`, replier: &stubReplier{err: usecase.NewError(usecase.ErrorUpstream, "openai_error", errors.New("quota exceeded"))}, outcome: "upstream_error"},
		{name: "unclassified", body: `{"transcript":"hi","conversation_history":[]}`, replier: &stubReplier{err: errors.New("boom")}, outcome: "internal_error"},
		{name: "panic", body: `{"transcript":"hi","conversation_history":[]}`, replier: &stubReplier{panic: true}, outcome: "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obs := &countingObserver{}
			p := newTestProcessor(t, tc.replier, WithObserver(obs))

			resp := p.Process(context.Background(), []byte(tc.body))
			raw, err := json.Marshal(resp)
			require.NoError(t, err)
			require.JSONEq(t, apologyJSON, string(raw))
			require.Equal(t, []string{tc.outcome}, obs.outcomes)
		})
	}
}

func TestOutcomeFor(t *testing.T) {
	require.Equal(t, "invalid_input", outcomeFor(usecase.ErrorInvalidInput))
	require.Equal(t, "detection_failed", outcomeFor(usecase.ErrorDetectionFailed))
	require.Equal(t, "rate_limited", outcomeFor(usecase.ErrorRateLimited))
	require.Equal(t, "upstream_error", outcomeFor(usecase.ErrorUpstream))
	require.Equal(t, "internal_error", outcomeFor(usecase.ErrorInternal))
	require.Equal(t, "internal_error", outcomeFor(usecase.ErrorCode("SOMETHING_NEW")))
}

func TestProcess_InvalidInputSkipsReplier(t *testing.T) {
	r := &stubReplier{}
	p := newTestProcessor(t, r)
	_ = p.Process(context.Background(), []byte(`{"conversation_history":[]}`))
	require.Zero(t, r.calls)
}

// ---------------------------------------------------------------------------
// End to end through the real ReplyService
// ---------------------------------------------------------------------------

func newE2EProcessor(t *testing.T, d usecase.Detector, llm *capturingLLM) *Processor {
	t.Helper()
	svc, err := usecase.NewReplyService(d, llm, usecase.DefaultModel, usecase.DefaultMaxTokens, usecase.WithLogger(logging.NewNop()))
	require.NoError(t, err)
	return newTestProcessor(t, svc)
}

func TestProcess_EndToEnd_English(t *testing.T) {
	llm := &capturingLLM{answer: "Hi! This is Priya from Sunshine Realty."}
	p := newE2EProcessor(t, fixedDetector{code: "en"}, llm)

	resp := p.Process(context.Background(), []byte(`{"transcript": "Hi, I'm interested in the downtown condo", "conversation_history": []}`))
	require.False(t, resp.EndCall)
	require.Equal(t, "Hi! This is Priya from Sunshine Realty.", resp.Response)

	require.Len(t, llm.requests, 1)
	msgs := llm.requests[0].Messages
	require.Len(t, msgs, 2)
	require.Equal(t, "system", msgs[0].Role)
	require.Contains(t, msgs[0].Content, "English")
	require.Equal(t, domain.ChatMessage{Role: "user", Content: "Hi, I'm interested in the downtown condo"}, msgs[1])
}

func TestProcess_EndToEnd_HindiWithAgentTurn(t *testing.T) {
	llm := &capturingLLM{answer: "जी, आपका बजट क्या है?"}
	p := newE2EProcessor(t, fixedDetector{code: "hi"}, llm)

	resp := p.Process(context.Background(), []byte(`{
		"transcript": "हाँ, मैं अभी भी घर ढूंढ रहा हूँ",
		"conversation_history": [{"role": "agent", "content": "नमस्ते, मैं प्रिया बोल रही हूँ"}]
	}`))
	require.False(t, resp.EndCall)

	msgs := llm.requests[0].Messages
	require.Len(t, msgs, 3)
	require.Contains(t, msgs[0].Content, "Hindi")
	require.NotContains(t, msgs[0].Content, "English")
	require.Equal(t, []string{"system", "assistant", "user"}, []string{msgs[0].Role, msgs[1].Role, msgs[2].Role})
	require.Equal(t, "हाँ, मैं अभी भी घर ढूंढ रहा हूँ", msgs[2].Content)
}

func TestProcess_EndToEnd_DetectorFailureStillAnswers(t *testing.T) {
	llm := &capturingLLM{answer: "Could you say that again?"}
	p := newE2EProcessor(t, fixedDetector{err: errors.New("no features in text")}, llm)

	resp := p.Process(context.Background(), []byte(`{"transcript":"","conversation_history":[]}`))
	require.Equal(t, Response{Response: "Could you say that again?", EndCall: false}, resp)
	require.Contains(t, llm.requests[0].Messages[0].Content, "English")
}

func TestProcess_EndToEnd_UpstreamFailure(t *testing.T) {
	llm := &capturingLLM{err: errors.New("insufficient_quota")}
	p := newE2EProcessor(t, fixedDetector{code: "en"}, llm)

	resp := p.Process(context.Background(), []byte(`{"transcript":"hello","conversation_history":[]}`))
	require.Equal(t, Apology(), resp)
}

func TestProcess_EndToEnd_IdenticalRequests(t *testing.T) {
	body := []byte(`{"transcript":"What is the price?","conversation_history":[{"role":"agent","content":"Hi"},{"role":"user","content":"Hello"}]}`)
	llm := &capturingLLM{answer: "ok"}
	p := newE2EProcessor(t, fixedDetector{code: "gu"}, llm)

	_ = p.Process(context.Background(), body)
	_ = p.Process(context.Background(), body)
	require.Len(t, llm.requests, 2)
	require.Equal(t, llm.requests[0].Messages, llm.requests[1].Messages)
}
