package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	metaprompt "github.com/haowjy/metaprompt-go"
	"github.com/haowjy/metaprompt-go/providers/anthropic"
	"github.com/haowjy/metaprompt-go/providers/lorem"
	"github.com/haowjy/metaprompt-go/providers/openai"
	"github.com/haowjy/metaprompt-go/runner"
	"github.com/haowjy/metaprompt-go/sandbox"
)

type runFlags struct {
	task       string
	inputPath  string
	outputPath string
	outputDir  string
	configPath string
	model      string

	temperature        float64
	topP               float64
	maxTokens          int
	numReturnSequences int

	freshEyes         bool
	expertPrompting   bool
	extractOutput     bool
	includeExpertName bool
	zeroShotCoT       bool

	questionPrefix string
	questionSuffix string

	maxItems  int
	batchSize int
	verbose   bool
}

func newRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark task through the orchestration engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.task, "task", "GameOf24", "Task name (keys of the task description table)")
	cmd.Flags().StringVar(&flags.inputPath, "input", "", "Input JSONL path (default data/<task>.jsonl)")
	cmd.Flags().StringVar(&flags.outputPath, "output", "", "Output JSONL path (default <output-dir>/<task>.jsonl)")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "results", "Output directory when --output is not set")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Run configuration YAML (default embedded config)")
	cmd.Flags().StringVar(&flags.model, "model", "gpt-4", "Model name; selects the provider by prefix")

	cmd.Flags().Float64Var(&flags.temperature, "temperature", 0, "Sampling temperature override for all roles")
	cmd.Flags().Float64Var(&flags.topP, "top-p", 0, "Nucleus sampling override for all roles")
	cmd.Flags().IntVar(&flags.maxTokens, "max-tokens", 0, "Max tokens override for all roles")
	cmd.Flags().IntVar(&flags.numReturnSequences, "num-return-sequences", 0, "Candidate count override for all roles")

	cmd.Flags().BoolVar(&flags.freshEyes, "fresh-eyes", false, "Enable expert delegation")
	cmd.Flags().BoolVar(&flags.expertPrompting, "expert-prompting", false, "Generate a per-item expert identity instead of the plain question")
	cmd.Flags().BoolVar(&flags.extractOutput, "extract-output", false, "Forward only the text after the expert output separator")
	cmd.Flags().BoolVar(&flags.includeExpertName, "include-expert-name", false, "Prepend the expert name to delegated instructions")
	cmd.Flags().BoolVar(&flags.zeroShotCoT, "zero-shot-cot", false, "Append a step-by-step nudge to delegated instructions")

	cmd.Flags().StringVar(&flags.questionPrefix, "question-prefix", "", "Question prefix text, or a .txt file to read it from")
	cmd.Flags().StringVar(&flags.questionSuffix, "question-suffix", runner.DefaultQuestionSuffix, "Question suffix text, or a .txt file to read it from")

	cmd.Flags().IntVar(&flags.maxItems, "max-items", 0, "Process at most this many items (0 = all)")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", runner.DefaultBatchSize, "Concurrent conversations per batch")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Development logging instead of production JSON")

	return cmd
}

func runExperiment(cmd *cobra.Command, flags *runFlags) error {
	logger, err := newLogger(flags.verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	taskDescription, err := runner.TaskDescription(flags.task)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	applyOverrides(cmd, flags, cfg)

	if flags.inputPath == "" {
		flags.inputPath = filepath.Join("data", flags.task+".jsonl")
	}
	if flags.outputPath == "" {
		flags.outputPath = filepath.Join(flags.outputDir, flags.task+".jsonl")
	}
	if !strings.HasSuffix(flags.outputPath, ".jsonl") {
		return fmt.Errorf("output path %q must end in .jsonl", flags.outputPath)
	}
	if flags.freshEyes {
		flags.outputPath = strings.TrimSuffix(flags.outputPath, ".jsonl") + "-fresh-eyes.jsonl"
	}

	prefix, err := resolveTextFlag(flags.questionPrefix)
	if err != nil {
		return err
	}
	suffix, err := resolveTextFlag(flags.questionSuffix)
	if err != nil {
		return err
	}

	provider, err := buildProvider(flags.model)
	if err != nil {
		return err
	}

	dispatcher := metaprompt.NewDispatcher(provider, sandbox.NewPythonRunner(logger), cfg, flags.model, metaprompt.DispatcherOptions{
		IncludeExpertName: flags.includeExpertName,
		UseZeroShotCoT:    flags.zeroShotCoT,
		ExtractOutput:     flags.extractOutput,
	}, logger)
	engine := metaprompt.NewEngine(provider, dispatcher, cfg, flags.model, metaprompt.EngineOptions{
		FreshEyes: flags.freshEyes,
		Logger:    logger,
	})

	opts := runner.Options{
		TaskDescription: taskDescription,
		QuestionPrefix:  prefix,
		QuestionSuffix:  suffix,
		ExpertPrompting: flags.expertPrompting,
		BatchSize:       flags.batchSize,
		MaxItems:        flags.maxItems,
		Logger:          logger,
	}
	r := runner.New(engine, provider, cfg, flags.model, opts)

	in, err := os.Open(flags.inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	items, err := runner.ReadItems(in)
	in.Close()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(flags.outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	out, err := os.Create(flags.outputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	snap := runner.NewSnapshot(flags.task, flags.model, opts, cfg)
	logger.Info("starting run",
		zap.String("run_id", snap.RunID),
		zap.String("task", flags.task),
		zap.String("model", flags.model),
		zap.Int("items", len(items)))

	records, runErr := r.Run(cmd.Context(), items, w)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("run aborted after %d records: %w", len(records), runErr)
	}

	if err := snap.Write(runner.SnapshotPath(flags.outputPath)); err != nil {
		return err
	}

	logger.Info("run complete",
		zap.String("run_id", snap.RunID),
		zap.Int("records", len(records)),
		zap.String("output", flags.outputPath))
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadConfig(path string) (*metaprompt.RunConfig, error) {
	if path == "" {
		return metaprompt.DefaultRunConfig()
	}
	return metaprompt.LoadRunConfig(path)
}

// applyOverrides pushes the sampling flags that were set on the command line
// into every role profile, mirroring how the config values are defaults.
func applyOverrides(cmd *cobra.Command, flags *runFlags, cfg *metaprompt.RunConfig) {
	roles := []*metaprompt.RoleConfig{&cfg.Orchestrator, &cfg.Generator, &cfg.Verifier, &cfg.Summarizer}
	for _, role := range roles {
		if role.Params == nil {
			role.Params = &metaprompt.RequestParams{}
		}
		if cmd.Flags().Changed("temperature") {
			t := flags.temperature
			role.Params.Temperature = &t
		}
		if cmd.Flags().Changed("top-p") {
			p := flags.topP
			role.Params.TopP = &p
		}
		if cmd.Flags().Changed("max-tokens") {
			m := flags.maxTokens
			role.Params.MaxTokens = &m
		}
		if cmd.Flags().Changed("num-return-sequences") {
			n := flags.numReturnSequences
			role.Params.NumReturnSequences = &n
		}
	}
}

// resolveTextFlag returns the flag value directly, or the contents of the
// file it names when the value ends in .txt.
func resolveTextFlag(value string) (string, error) {
	if !strings.HasSuffix(value, ".txt") {
		return value, nil
	}
	data, err := os.ReadFile(value)
	if err != nil {
		return "", fmt.Errorf("read text file %q: %w", value, err)
	}
	return string(data), nil
}

// buildProvider selects a provider by model name prefix and wraps it with
// transport-level retries.
func buildProvider(model string) (metaprompt.Provider, error) {
	var (
		inner metaprompt.Provider
		err   error
	)
	switch metaprompt.ProviderForModel(model) {
	case metaprompt.ProviderAnthropic:
		inner, err = anthropic.NewProvider(os.Getenv("ANTHROPIC_API_KEY"))
	case metaprompt.ProviderLorem:
		inner = lorem.NewProvider()
	default:
		inner, err = openai.NewProvider(os.Getenv("OPENAI_API_KEY"))
	}
	if err != nil {
		return nil, err
	}
	return metaprompt.NewRetryProvider(inner), nil
}
