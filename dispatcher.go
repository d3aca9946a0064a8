package metaprompt

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// SpecialBehavior tags an expert profile with dispatch-time behavior beyond a
// plain provider call. New expert kinds add a variant here instead of
// string-matching on names inside the dispatch loop.
type SpecialBehavior int

const (
	// BehaviorNone is a plain text expert: invoke the provider, post-process,
	// aggregate.
	BehaviorNone SpecialBehavior = iota

	// BehaviorExecutesCode marks a code expert: if its output confirms
	// execution, the fenced code block is run in the sandbox and the captured
	// output is appended before aggregation.
	BehaviorExecutesCode
)

func (b SpecialBehavior) String() string {
	switch b {
	case BehaviorExecutesCode:
		return "executes-code"
	default:
		return "none"
	}
}

// ExpertPythonName is the expert name that resolves to the built-in
// code-executing profile.
const ExpertPythonName = "Expert Python"

// ExpertProfile describes a named expert persona: its seed messages, its
// generation settings, and any special dispatch behavior.
type ExpertProfile struct {
	// Name is the identifying string as it appears in delegation markers
	// (e.g., "Expert Python").
	Name string

	// MessageList is prepended before the delegated instruction.
	MessageList []Message

	// Params are the expert's generation settings. Immutable per
	// invocation.
	Params *RequestParams

	// Behavior selects special dispatch handling.
	Behavior SpecialBehavior
}

// DispatcherOptions tune how delegated instructions are rewritten and how
// expert outputs are post-processed.
type DispatcherOptions struct {
	// IncludeExpertName prepends "You are {name}." to each delegated
	// instruction.
	IncludeExpertName bool

	// UseZeroShotCoT appends a step-by-step reasoning nudge to each
	// delegated instruction.
	UseZeroShotCoT bool

	// ExtractOutput enables extract-output mode for generic experts: only
	// the text after the output separator is forwarded, capped at the
	// protocol word limit.
	ExtractOutput bool
}

// Dispatcher parses delegated instructions out of an assistant output,
// resolves each to an expert profile, invokes the provider (and sandbox, for
// code experts), and formats the aggregated result into the feedback message
// the engine appends next.
type Dispatcher struct {
	provider Provider
	sandbox  Sandbox
	config   *RunConfig
	model    string
	opts     DispatcherOptions
	profiles map[string]*ExpertProfile
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher. sandbox may be nil if no code expert
// will ever be dispatched; dispatching a code expert without a sandbox is a
// parse-level error surfaced to the engine's retry envelope.
func NewDispatcher(provider Provider, sandbox Sandbox, cfg *RunConfig, model string, opts DispatcherOptions, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		provider: provider,
		sandbox:  sandbox,
		config:   cfg,
		model:    model,
		opts:     opts,
		profiles: make(map[string]*ExpertProfile),
		logger:   logger,
	}
}

// RegisterProfile installs a custom expert profile. Unregistered names
// resolve to the generator defaults, with the built-in code behavior for
// ExpertPythonName.
func (d *Dispatcher) RegisterProfile(p *ExpertProfile) {
	d.profiles[p.Name] = p
}

// resolveProfile maps an expert name to its profile. Every name is
// resolvable: unknown experts get the generator defaults.
func (d *Dispatcher) resolveProfile(name string) *ExpertProfile {
	if p, ok := d.profiles[name]; ok {
		return p
	}
	p := &ExpertProfile{
		Name:        name,
		MessageList: d.config.Generator.MessageList,
		Params:      d.config.Generator.Params,
	}
	if name == ExpertPythonName {
		p.Behavior = BehaviorExecutesCode
	}
	return p
}

// Dispatch extracts every well-formed delegation from the assistant output,
// consults each expert in order, and returns the aggregated feedback block to
// append as the next user message. A provider failure or a protocol parse
// failure aborts the whole dispatch; the engine's round retry envelope
// handles it without touching committed history.
func (d *Dispatcher) Dispatch(ctx context.Context, assistantOutput string) (string, error) {
	delegations := ParseDelegations(assistantOutput)
	d.logger.Debug("dispatching delegations", zap.Int("count", len(delegations)))

	var blocks []string
	for _, del := range delegations {
		block, err := d.dispatchOne(ctx, del)
		if err != nil {
			return "", fmt.Errorf("dispatch to %s: %w", del.Expert, err)
		}
		blocks = append(blocks, block)
	}

	aggregate := strings.Join(blocks, "\n\n")
	return aggregate + "\n\n" + d.config.IntermediateFeedback, nil
}

// dispatchOne consults a single expert and returns its formatted output
// block.
func (d *Dispatcher) dispatchOne(ctx context.Context, del Delegation) (string, error) {
	profile := d.resolveProfile(del.Expert)

	instruction := del.Instruction
	if d.opts.IncludeExpertName {
		instruction = fmt.Sprintf("You are %s.\n\n%s", del.Expert, instruction)
	}
	if d.opts.UseZeroShotCoT {
		instruction += "\n\nLet's think step by step."
	}
	if profile.Behavior == BehaviorExecutesCode && d.config.ExpertPythonMessage != "" {
		instruction = fmt.Sprintf("%s.\n\n%s", d.config.ExpertPythonMessage, instruction)
	}

	messages := make([]Message, 0, len(profile.MessageList)+1)
	messages = append(messages, profile.MessageList...)
	messages = append(messages, Message{Role: RoleUser, Content: instruction})

	resp, err := d.provider.GenerateResponse(ctx, &GenerateRequest{
		Messages: messages,
		Model:    d.model,
		Params:   profile.Params,
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		processed, err := d.postProcess(ctx, profile, candidate)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "%s's output:\n%s\n%s\n%s", del.Expert, TripleQuote, processed, TripleQuote)
	}
	block := strings.TrimSpace(sb.String())

	// Multiple candidates get condensed into one consensus text so the
	// orchestrator sees a single coherent expert voice.
	if len(resp.Candidates) > 1 {
		summary, err := d.summarize(ctx, instruction, block)
		if err != nil {
			return "", err
		}
		block = fmt.Sprintf("Here is the summary of %s's outputs:\n\n%s", del.Expert, summary)
	}
	return block, nil
}

// postProcess applies the profile's behavior to one candidate output.
func (d *Dispatcher) postProcess(ctx context.Context, profile *ExpertProfile, output string) (string, error) {
	switch profile.Behavior {
	case BehaviorExecutesCode:
		if !strings.Contains(output, RunConfirmationPhrase) {
			return output, nil
		}
		code, err := ExtractFencedCode(output)
		if err != nil {
			return "", err
		}
		if d.sandbox == nil {
			return "", &ParseError{
				Stage:  "code-execution",
				Reason: "code expert requested execution but no sandbox is configured",
				Err:    ErrUnparsableOutput,
			}
		}
		d.logger.Debug("executing expert code", zap.String("expert", profile.Name), zap.Int("bytes", len(code)))
		result := d.sandbox.Run(ctx, code)
		return output + fmt.Sprintf("Here is the Python code used to solve the problem:\n\n%s\n\nHere is the output of the code when executed:\n\n%s", code, result), nil
	default:
		if d.opts.ExtractOutput {
			return ExtractFinalOutput(output), nil
		}
		return output, nil
	}
}

// summarize reduces a multi-candidate expert block into one consensus text
// via the summarizer role.
func (d *Dispatcher) summarize(ctx context.Context, instruction, block string) (string, error) {
	prompt := fmt.Sprintf("Please provide a clear and concise summary of the expert outputs, emphasizing the key similarities and differences between them.\n\nPrompt: %s\n\nOutput: %s", instruction, block)

	messages := make([]Message, 0, len(d.config.Summarizer.MessageList)+1)
	messages = append(messages, d.config.Summarizer.MessageList...)
	messages = append(messages, Message{Role: RoleUser, Content: prompt})

	resp, err := d.provider.GenerateResponse(ctx, &GenerateRequest{
		Messages: messages,
		Model:    d.model,
		Params:   d.config.Summarizer.Params,
	})
	if err != nil {
		return "", fmt.Errorf("summarizer: %w", err)
	}
	return resp.Text(), nil
}
