package metaprompt

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

// scriptStep is one scripted provider reply: either candidates or an error.
type scriptStep struct {
	candidates []string
	err        error
}

func textStep(s string) scriptStep {
	return scriptStep{candidates: []string{s}}
}

func errStep(err error) scriptStep {
	return scriptStep{err: err}
}

// scriptedProvider replays a fixed sequence of replies and records every
// request it receives. When the script runs out the last step repeats, which
// keeps round-budget tests short to write.
type scriptedProvider struct {
	mu       sync.Mutex
	steps    []scriptStep
	requests []*GenerateRequest
}

func (p *scriptedProvider) GenerateResponse(_ context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)
	if len(p.steps) == 0 {
		return nil, &ProviderError{Provider: "scripted", Message: "script is empty"}
	}
	i := len(p.requests) - 1
	if i >= len(p.steps) {
		i = len(p.steps) - 1
	}
	step := p.steps[i]
	if step.err != nil {
		return nil, step.err
	}
	return &GenerateResponse{Candidates: step.candidates, Model: req.Model}, nil
}

func (p *scriptedProvider) Name() ProviderID { return ProviderLorem }

func (p *scriptedProvider) SupportsModel(string) bool { return true }

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *scriptedProvider) request(i int) *GenerateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[i]
}

// recordingSandbox returns a fixed output and records every source it ran.
type recordingSandbox struct {
	output string
	runs   []string
}

func (s *recordingSandbox) Run(_ context.Context, source string) string {
	s.runs = append(s.runs, source)
	return s.output
}

func testRunConfig() *RunConfig {
	return &RunConfig{
		Version: "test",
		Orchestrator: RoleConfig{
			MessageList: []Message{{Role: RoleSystem, Content: "You are Meta-Expert, a conductor of experts."}},
			Params:      &RequestParams{Temperature: float64Ptr(0.0), MaxTokens: intPtr(1024)},
		},
		Generator: RoleConfig{
			MessageList: []Message{{Role: RoleSystem, Content: "You are a knowledgeable expert."}},
			Params:      &RequestParams{Temperature: float64Ptr(0.0), MaxTokens: intPtr(1024)},
		},
		Summarizer: RoleConfig{
			MessageList: []Message{{Role: RoleSystem, Content: "You condense expert outputs into one summary."}},
			Params:      &RequestParams{Temperature: float64Ptr(0.0)},
		},
		ErrorMessage:         "Please double-check your instructions and follow the specified format.",
		FinalAnswerIndicator: ">> FINAL ANSWER:",
		IntermediateFeedback: "Based on the information given, what are the most logical next steps or conclusions?",
		ExpertPythonMessage:  "You are an expert in Python and can generate Python code",
	}
}

func newTestEngine(provider Provider, opts EngineOptions) *Engine {
	cfg := testRunConfig()
	if opts.BackoffUnit == 0 {
		opts.BackoffUnit = time.Millisecond
	}
	dispatcher := NewDispatcher(provider, nil, cfg, "lorem-fast", DispatcherOptions{}, nil)
	return NewEngine(provider, dispatcher, cfg, "lorem-fast", opts)
}

func seedConversation() Conversation {
	return Conversation{
		{Role: RoleSystem, Content: "You are Meta-Expert, a conductor of experts."},
		{Role: RoleUser, Content: "Question: What is 2+2?"},
	}
}

func TestEngine_DirectFinalAnswer(t *testing.T) {
	provider := &scriptedProvider{steps: []scriptStep{
		textStep(">> FINAL ANSWER:\n\"\"\"\n4\n\"\"\""),
	}}
	engine := newTestEngine(provider, EngineOptions{})

	conv, err := engine.Run(context.Background(), seedConversation())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(conv) != 3 {
		t.Fatalf("conversation length = %d, want 3", len(conv))
	}
	if conv.Last().Role != RoleAssistant {
		t.Errorf("last role = %q, want assistant", conv.Last().Role)
	}
	if !strings.Contains(conv.LastContent(), ">> FINAL ANSWER:") {
		t.Errorf("last content missing final answer indicator: %q", conv.LastContent())
	}
	if !strings.HasPrefix(conv[1].Content, "ROUND 1:\n\n") {
		t.Errorf("round prefix not committed to history: %q", conv[1].Content)
	}
	if got := provider.request(0).Messages[1].Content; !strings.HasPrefix(got, "ROUND 1:\n\nQuestion:") {
		t.Errorf("prompt sent to provider = %q, want ROUND 1 prefix", got)
	}
}

func TestEngine_NudgeThenFinalAnswer(t *testing.T) {
	provider := &scriptedProvider{steps: []scriptStep{
		textStep("Hmm, let me think about this some more."),
		textStep(">> FINAL ANSWER:\n\"\"\"\n4\n\"\"\""),
	}}
	engine := newTestEngine(provider, EngineOptions{})
	cfg := testRunConfig()

	conv, err := engine.Run(context.Background(), seedConversation())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// seed(2) + assistant + nudge + assistant
	if len(conv) != 5 {
		t.Fatalf("conversation length = %d, want 5", len(conv))
	}
	if conv[3].Role != RoleUser || !strings.Contains(conv[3].Content, cfg.ErrorMessage) {
		t.Errorf("message 3 should carry the corrective nudge, got %+v", conv[3])
	}
	second := provider.request(1)
	if got := second.Messages[len(second.Messages)-1].Content; !strings.HasPrefix(got, "ROUND 2:\n\n") {
		t.Errorf("second round prompt = %q, want ROUND 2 prefix", got)
	}
}

func TestEngine_DelegationRound(t *testing.T) {
	provider := &scriptedProvider{steps: []scriptStep{
		textStep("Expert Mathematician:\n\"\"\"\nCompute 2+2 and state the result.\n\"\"\""),
		textStep("The result of 2+2 is 4."),
		textStep(">> FINAL ANSWER:\n\"\"\"\n4\n\"\"\""),
	}}
	engine := newTestEngine(provider, EngineOptions{FreshEyes: true})
	cfg := testRunConfig()

	conv, err := engine.Run(context.Background(), seedConversation())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// seed(2) + assistant delegation + user feedback + assistant final
	if len(conv) != 5 {
		t.Fatalf("conversation length = %d, want 5", len(conv))
	}
	feedback := conv[3]
	if feedback.Role != RoleUser {
		t.Fatalf("feedback role = %q, want user", feedback.Role)
	}
	if !strings.Contains(feedback.Content, "Expert Mathematician's output:") {
		t.Errorf("feedback missing expert output block: %q", feedback.Content)
	}
	if !strings.Contains(feedback.Content, "The result of 2+2 is 4.") {
		t.Errorf("feedback missing expert text: %q", feedback.Content)
	}
	if !strings.Contains(feedback.Content, cfg.IntermediateFeedback) {
		t.Errorf("feedback missing intermediate prompt: %q", feedback.Content)
	}

	// The expert call carries the generator seed messages, not the
	// orchestrator transcript.
	expertReq := provider.request(1)
	if expertReq.Messages[0].Content != cfg.Generator.MessageList[0].Content {
		t.Errorf("expert request seed = %q, want generator seed", expertReq.Messages[0].Content)
	}
}

func TestEngine_FreshEyesDisabledIgnoresDelegations(t *testing.T) {
	provider := &scriptedProvider{steps: []scriptStep{
		textStep("Expert Mathematician:\n\"\"\"\nCompute 2+2.\n\"\"\""),
		textStep(">> FINAL ANSWER:\n\"\"\"\n4\n\"\"\""),
	}}
	engine := newTestEngine(provider, EngineOptions{FreshEyes: false})
	cfg := testRunConfig()

	conv, err := engine.Run(context.Background(), seedConversation())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(conv) != 5 {
		t.Fatalf("conversation length = %d, want 5", len(conv))
	}
	if !strings.Contains(conv[3].Content, cfg.ErrorMessage) {
		t.Errorf("delegation should fall through to the nudge path, got %q", conv[3].Content)
	}
	// Only the two orchestrator calls; no expert dispatch happened.
	if provider.callCount() != 2 {
		t.Errorf("provider calls = %d, want 2", provider.callCount())
	}
}

func TestEngine_RoundBudget(t *testing.T) {
	provider := &scriptedProvider{steps: []scriptStep{
		textStep("I am still pondering."),
	}}
	engine := newTestEngine(provider, EngineOptions{})

	conv, err := engine.Run(context.Background(), seedConversation())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if provider.callCount() != MaxRounds {
		t.Errorf("provider calls = %d, want %d", provider.callCount(), MaxRounds)
	}
	// Every round appends one assistant message and one nudge.
	if want := 2 + 2*MaxRounds; len(conv) != want {
		t.Errorf("conversation length = %d, want %d", len(conv), want)
	}

	lastReq := provider.request(MaxRounds - 1)
	if got := lastReq.Messages[len(lastReq.Messages)-1].Content; !strings.HasPrefix(got, "ROUND 16:\n\n") {
		t.Errorf("final round prompt = %q, want ROUND 16 prefix", got)
	}

	warnReq := provider.request(finalWarningRound)
	if got := warnReq.Messages[len(warnReq.Messages)-1].Content; !strings.Contains(got, finalRoundWarning) {
		t.Errorf("round %d prompt should carry the last-round warning: %q", finalWarningRound+1, got)
	}
}

func TestEngine_RetryRecovers(t *testing.T) {
	provider := &scriptedProvider{steps: []scriptStep{
		errStep(&ProviderError{Provider: "scripted", StatusCode: 429, Message: "slow down", Retryable: true}),
		errStep(ErrProviderUnavailable),
		textStep(">> FINAL ANSWER:\n\"\"\"\n4\n\"\"\""),
	}}
	engine := newTestEngine(provider, EngineOptions{BackoffUnit: time.Microsecond})

	conv, err := engine.Run(context.Background(), seedConversation())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if provider.callCount() != 3 {
		t.Errorf("provider calls = %d, want 3", provider.callCount())
	}
	if len(conv) != 3 {
		t.Errorf("conversation length = %d, want 3", len(conv))
	}
}

func TestEngine_RetryExhaustedReturnsCommittedState(t *testing.T) {
	provider := &scriptedProvider{steps: []scriptStep{
		errStep(&ProviderError{Provider: "scripted", StatusCode: 500, Message: "boom", Retryable: true}),
	}}
	engine := newTestEngine(provider, EngineOptions{BackoffUnit: time.Microsecond})
	initial := seedConversation()

	conv, err := engine.Run(context.Background(), initial)
	if err == nil {
		t.Fatal("expected an error after retry exhaustion")
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("error should wrap ErrRetryExhausted, got %v", err)
	}
	if provider.callCount() != roundRetryAttempts {
		t.Errorf("provider calls = %d, want %d", provider.callCount(), roundRetryAttempts)
	}
	// Nothing was committed: the caller gets the conversation it passed in.
	if !reflect.DeepEqual(conv, initial) {
		t.Errorf("degraded conversation = %+v, want initial state", conv)
	}
}

func TestEngine_AuthErrorAbortsImmediately(t *testing.T) {
	provider := &scriptedProvider{steps: []scriptStep{
		errStep(&ProviderError{Provider: "scripted", StatusCode: 401, Message: "bad key"}),
	}}
	engine := newTestEngine(provider, EngineOptions{BackoffUnit: time.Microsecond})

	_, err := engine.Run(context.Background(), seedConversation())
	if err == nil {
		t.Fatal("expected an auth error")
	}
	if !IsAuthError(err) {
		t.Errorf("error should classify as auth error, got %v", err)
	}
	if provider.callCount() != 1 {
		t.Errorf("provider calls = %d, want 1 (no retry on auth errors)", provider.callCount())
	}
}

func TestEngine_EmptyConversationRejected(t *testing.T) {
	provider := &scriptedProvider{}
	engine := newTestEngine(provider, EngineOptions{})

	_, err := engine.Run(context.Background(), nil)
	if err == nil {
		t.Fatal("expected a validation error for an empty conversation")
	}
	if !IsInvalidRequest(err) {
		t.Errorf("error should classify as invalid request, got %v", err)
	}
	if provider.callCount() != 0 {
		t.Errorf("provider calls = %d, want 0", provider.callCount())
	}
}

func TestEngine_ContextCancellation(t *testing.T) {
	provider := &scriptedProvider{steps: []scriptStep{
		errStep(&ProviderError{Provider: "scripted", StatusCode: 500, Message: "boom", Retryable: true}),
	}}
	engine := newTestEngine(provider, EngineOptions{BackoffUnit: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, seedConversation())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
