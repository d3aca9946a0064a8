// Package runner drives batch experiments: it reads benchmark items from a
// JSONL file, runs one orchestrated conversation per item with bounded
// parallelism, and appends one JSONL record per item to the output after
// every batch so partial results survive interruption.
package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	metaprompt "github.com/haowjy/metaprompt-go"
)

const (
	// DefaultBatchSize matches the original driver's parallelism.
	DefaultBatchSize = 6

	// DefaultStartInterval staggers conversation starts within a batch so
	// a burst of items does not hit the provider at the same instant.
	DefaultStartInterval = 100 * time.Millisecond
)

// Item is one benchmark input read from the JSONL dataset. Target is kept as
// raw JSON so non-string targets round-trip unchanged into the record.
type Item struct {
	Input  string          `json:"input"`
	Target json.RawMessage `json:"target"`
}

// Record is the per-item result written to the output JSONL file. The
// message log is the full conversation transcript; Output is the content of
// its final assistant message.
type Record struct {
	Input      string                  `json:"input"`
	Target     json.RawMessage         `json:"target"`
	MessageLog metaprompt.Conversation `json:"message_log"`
	Output     string                  `json:"output"`

	// Error is set when the conversation degraded (retry budget exhausted)
	// and the record carries the last committed state instead of a final
	// answer.
	Error string `json:"error,omitempty"`
}

// Options configure a batch run. The struct is serialized into the run
// snapshot, so the question plumbing carries JSON tags.
type Options struct {
	// TaskDescription is prepended to every input as the question header.
	TaskDescription string `json:"task_description"`

	// QuestionPrefix and QuestionSuffix wrap the composed question.
	QuestionPrefix string `json:"question_prefix"`
	QuestionSuffix string `json:"question_suffix"`

	// ExpertPrompting generates a per-item expert persona first and seeds
	// the question with it instead of the plain question header.
	ExpertPrompting bool `json:"expert_prompting"`

	// BatchSize bounds how many conversations run concurrently. Defaults
	// to DefaultBatchSize.
	BatchSize int `json:"batch_size"`

	// MaxItems caps how many items are processed. Zero means all.
	MaxItems int `json:"max_items"`

	// StartInterval is the minimum spacing between conversation starts.
	// Defaults to DefaultStartInterval.
	StartInterval time.Duration `json:"start_interval"`

	// Logger receives per-item progress. Defaults to a nop logger.
	Logger *zap.Logger `json:"-"`
}

// Runner executes a batch of independent conversations through a shared
// engine. The engine, provider, and config are read-only for the duration of
// a run, so a single Runner is safe for concurrent batches.
type Runner struct {
	engine   *metaprompt.Engine
	provider metaprompt.Provider
	config   *metaprompt.RunConfig
	model    string
	opts     Options
	logger   *zap.Logger
}

// New constructs a runner. The provider is the same one backing the engine;
// the runner calls it directly only for expert-identity generation.
func New(engine *metaprompt.Engine, provider metaprompt.Provider, cfg *metaprompt.RunConfig, model string, opts Options) *Runner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.StartInterval <= 0 {
		opts.StartInterval = DefaultStartInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{
		engine:   engine,
		provider: provider,
		config:   cfg,
		model:    model,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// ReadItems parses a JSONL dataset: one item per line, blank lines skipped.
func ReadItems(r io.Reader) ([]Item, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var items []Item
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var item Item
		if err := json.Unmarshal([]byte(text), &item); err != nil {
			return nil, fmt.Errorf("runner: parse line %d: %w", line, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("runner: read dataset: %w", err)
	}
	return items, nil
}

// Run processes items in batches of BatchSize, appending one JSON line per
// record to w after each batch completes. Conversations within a batch run
// concurrently; records are written in input order.
//
// A degraded conversation (retry budget exhausted) is recorded with its last
// committed transcript and does not stop the run. Authentication failures
// and context cancellation abort the whole run; records written so far stay
// on disk.
func (r *Runner) Run(ctx context.Context, items []Item, w io.Writer) ([]Record, error) {
	if r.opts.MaxItems > 0 && len(items) > r.opts.MaxItems {
		items = items[:r.opts.MaxItems]
	}

	limiter := rate.NewLimiter(rate.Every(r.opts.StartInterval), 1)

	var all []Record
	for start := 0; start < len(items); start += r.opts.BatchSize {
		end := start + r.opts.BatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]
		records := make([]Record, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, item := range batch {
			i, item := i, item
			g.Go(func() error {
				// Stagger starts so a batch does not burst the provider.
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
				rec, err := r.runItem(gctx, item)
				if err != nil {
					return err
				}
				records[i] = rec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return all, fmt.Errorf("runner: batch starting at item %d: %w", start, err)
		}

		if err := writeRecords(w, records); err != nil {
			return all, err
		}
		all = append(all, records...)

		r.logger.Info("batch complete",
			zap.Int("done", len(all)),
			zap.Int("total", len(items)))
	}
	return all, nil
}

// runItem executes one conversation. Retry exhaustion degrades to a record
// carrying the committed transcript; any other engine error aborts.
func (r *Runner) runItem(ctx context.Context, item Item) (Record, error) {
	seed, err := r.seedConversation(ctx, item)
	if err != nil {
		return Record{}, err
	}

	conv, err := r.engine.Run(ctx, seed)
	rec := Record{
		Input:      item.Input,
		Target:     item.Target,
		MessageLog: conv,
		Output:     conv.LastContent(),
	}
	if err != nil {
		if !errors.Is(err, metaprompt.ErrRetryExhausted) {
			return Record{}, err
		}
		rec.Error = err.Error()
		r.logger.Warn("conversation degraded",
			zap.String("input", item.Input),
			zap.Error(err))
	}
	return rec, nil
}

// seedConversation builds the initial conversation for an item: orchestrator
// seed messages plus one user question.
func (r *Runner) seedConversation(ctx context.Context, item Item) (metaprompt.Conversation, error) {
	seed := metaprompt.Conversation(r.config.Orchestrator.MessageList).Clone()

	question := fmt.Sprintf("%sQuestion: %s\n\n%s%s",
		r.opts.QuestionPrefix, r.opts.TaskDescription, item.Input, r.opts.QuestionSuffix)

	if r.opts.ExpertPrompting {
		identity, err := r.generateExpertIdentity(ctx, item.Input)
		if err != nil {
			return nil, err
		}
		question = fmt.Sprintf("%s\n\nNow given the above identity background, please answer the following question:\n\nQuestion: %s\n\n%s",
			identity, r.opts.TaskDescription, item.Input)
	}

	return seed.Append(metaprompt.Message{Role: metaprompt.RoleUser, Content: question}), nil
}

// generateExpertIdentity asks the model to describe the agent best suited to
// the given input, using the orchestrator's generation settings.
func (r *Runner) generateExpertIdentity(ctx context.Context, input string) (string, error) {
	prompt := fmt.Sprintf("%s\n\n[Instruction]:%s\n[Agent Description]:", expertIdentityTemplate, input)
	resp, err := r.provider.GenerateResponse(ctx, &metaprompt.GenerateRequest{
		Messages: []metaprompt.Message{{Role: metaprompt.RoleUser, Content: prompt}},
		Model:    r.model,
		Params:   r.config.Orchestrator.Params,
	})
	if err != nil {
		return "", fmt.Errorf("runner: generate expert identity: %w", err)
	}
	return resp.Text(), nil
}

// writeRecords appends one JSON line per record and flushes buffered writers
// so partial results reach disk between batches.
func writeRecords(w io.Writer, records []Record) error {
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("runner: marshal record: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("runner: write record: %w", err)
		}
	}
	if bw, ok := w.(*bufio.Writer); ok {
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("runner: flush output: %w", err)
		}
	}
	return nil
}
