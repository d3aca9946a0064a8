package metaprompt

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// MaxRounds is the hard cap on orchestrator rounds per conversation.
	MaxRounds = 16

	// finalWarningRound is the 0-indexed round whose prompt carries the
	// last-round warning, giving the model one generation to comply before
	// the budget runs out.
	finalWarningRound = 14

	// roundRetryAttempts bounds how often a failed round step is retried
	// before the engine gives up and returns the conversation in its last
	// committed state.
	roundRetryAttempts = 7

	// Randomized backoff between round retries, in backoff units.
	backoffMinUnits = 1
	backoffMaxUnits = 10
)

// finalRoundWarning is appended to the prompt of the final warning round.
const finalRoundWarning = "This is the last round; so, please present your final answer."

// EngineOptions configure a ConversationEngine beyond its collaborators.
type EngineOptions struct {
	// FreshEyes enables delegation: when false, delegation markers in
	// orchestrator output are ignored and only the final-answer indicator
	// terminates a run early.
	FreshEyes bool

	// BackoffUnit scales the randomized retry backoff (1-10 units).
	// Defaults to one second; tests shrink it.
	BackoffUnit time.Duration

	// Logger receives round-level progress and retry events. Defaults to a
	// nop logger: the library is quiet unless asked.
	Logger *zap.Logger
}

// Engine drives the round-based exchange between the orchestrating model and
// zero-or-more delegated experts until a final answer is produced or the
// round budget is exhausted.
//
// An Engine is safe for concurrent use: each Run owns its conversation
// exclusively and the engine's own fields are read-only after construction
// (provided the underlying Provider is itself safe for concurrent use).
type Engine struct {
	provider    Provider
	dispatcher  *Dispatcher
	config      *RunConfig
	model       string
	freshEyes   bool
	backoffUnit time.Duration
	logger      *zap.Logger
}

// NewEngine constructs an engine from explicitly injected collaborators. The
// caller owns the lifecycle of the provider and dispatcher.
func NewEngine(provider Provider, dispatcher *Dispatcher, cfg *RunConfig, model string, opts EngineOptions) *Engine {
	if opts.BackoffUnit <= 0 {
		opts.BackoffUnit = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		provider:    provider,
		dispatcher:  dispatcher,
		config:      cfg,
		model:       model,
		freshEyes:   opts.FreshEyes,
		backoffUnit: opts.BackoffUnit,
		logger:      opts.Logger,
	}
}

// Run executes the round loop starting from the initial conversation
// (typically the orchestrator seed messages plus one user question) and
// returns the full transcript.
//
// Callers always receive a conversation. A nil error means the run ended on
// a terminal condition (final answer or round budget). A non-nil error means
// the run degraded: the returned conversation is the last committed state,
// and the error explains why no further rounds were possible. Authentication
// errors and context cancellation abort immediately; any other failure is
// retried up to roundRetryAttempts times with randomized backoff before the
// engine gives up.
func (e *Engine) Run(ctx context.Context, initial Conversation) (Conversation, error) {
	if len(initial) == 0 {
		return nil, &ValidationError{
			Field:  "conversation",
			Reason: "initial conversation must not be empty",
			Err:    ErrInvalidRequest,
		}
	}

	conv := initial.Clone()
	round := 0
	attempts := 0

	for {
		// Budget exhausted: terminal, non-error, partial transcript.
		if round == MaxRounds {
			e.logger.Debug("round budget exhausted", zap.Int("rounds", round))
			return conv, nil
		}

		next, terminal, err := e.step(ctx, conv, round)
		if err != nil {
			if IsAuthError(err) {
				return conv, err
			}
			if ctx.Err() != nil {
				return conv, ctx.Err()
			}
			attempts++
			if attempts >= roundRetryAttempts {
				return conv, fmt.Errorf("round %d: %w: %w", round, ErrRetryExhausted, err)
			}
			wait := e.backoff()
			e.logger.Warn("round failed, backing off",
				zap.Int("round", round),
				zap.Int("attempt", attempts),
				zap.Duration("backoff", wait),
				zap.Error(err))
			if err := sleep(ctx, wait); err != nil {
				return conv, err
			}
			continue
		}

		attempts = 0
		conv = next
		if terminal {
			return conv, nil
		}
		round++
	}
}

// step runs one round: prompt the orchestrator, commit its output, and decide
// the transition. It works on a clone so a mid-step failure leaves the
// committed conversation untouched; the returned conversation replaces it
// only on success.
func (e *Engine) step(ctx context.Context, conv Conversation, round int) (Conversation, bool, error) {
	working := conv.Clone()
	last := len(working) - 1
	working[last].Content = fmt.Sprintf("ROUND %d:\n\n%s", round+1, working[last].Content)
	if round == finalWarningRound {
		working[last].Content += finalRoundWarning
	}

	req := &GenerateRequest{
		Messages: working,
		Model:    e.model,
		Params:   e.config.Orchestrator.Params,
	}
	if err := ValidateRequest(req); err != nil {
		return nil, false, err
	}

	resp, err := e.provider.GenerateResponse(ctx, req)
	if err != nil {
		return nil, false, err
	}

	output := resp.Text()
	working = working.Append(Message{Role: RoleAssistant, Content: output})

	switch {
	case e.freshEyes && ContainsDelegation(output):
		feedback, err := e.dispatcher.Dispatch(ctx, output)
		if err != nil {
			return nil, false, err
		}
		e.logger.Debug("round delegated", zap.Int("round", round))
		return working.Append(Message{Role: RoleUser, Content: feedback}), false, nil

	case strings.Contains(output, e.config.FinalAnswerIndicator):
		e.logger.Debug("final answer indicated", zap.Int("round", round))
		return working, true, nil

	default:
		// Protocol violation: not an error, nudge the model back on track.
		e.logger.Debug("round matched no pattern, nudging", zap.Int("round", round))
		return working.Append(Message{Role: RoleUser, Content: e.config.ErrorMessage}), false, nil
	}
}

// backoff picks a randomized wait of 1-10 backoff units.
func (e *Engine) backoff() time.Duration {
	units := backoffMinUnits + rand.Intn(backoffMaxUnits-backoffMinUnits+1)
	return time.Duration(units) * e.backoffUnit
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
