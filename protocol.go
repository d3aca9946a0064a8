package metaprompt

import (
	"regexp"
	"strings"
)

// The delegation mini-protocol, version 1.
//
// The orchestrating model hands work to an expert by emitting a block of the
// form:
//
//	Expert <name>:
//	"""
//	<instruction text>
//	"""
//
// Splitting the assistant output by the triple-quote delimiter yields
// alternating preamble and instruction segments. An instruction segment is a
// delegation only if the last non-empty line of its preceding preamble starts
// with the literal token "Expert "; the trailing colon is stripped from the
// expert name. Quoted blocks without a matching preamble line are ignored:
// not every quoted block is a delegation.
const (
	// TripleQuote is the delimiter demarcating delegated instructions.
	TripleQuote = `"""`

	// RunConfirmationPhrase is the phrase a code expert must emit after its
	// fenced code block before the sandbox will execute it.
	RunConfirmationPhrase = "Please run this code!"

	// OutputSeparator is the token generic experts use to separate
	// reasoning from the final answer in extract-output mode.
	OutputSeparator = "* * *"

	// expertToken is the literal prefix an expert-name preamble line must
	// start with.
	expertToken = "Expert "

	// maxExtractedWords caps the length of an extracted expert answer;
	// longer answers are replaced wholesale by SolutionTooLongMessage.
	maxExtractedWords = 128
)

// SolutionTooLongMessage replaces extracted expert output that exceeds the
// word cap, preventing runaway verbose outputs from being forwarded.
const SolutionTooLongMessage = "Solution too long. Please try again."

// delegationMarker detects the "Expert <name>:" header line that signals at
// least one delegated instruction in an assistant output. Names are 1-5
// word characters groups, mirroring the documented grammar.
var delegationMarker = regexp.MustCompile(`Expert ((?:\w+ ?){1,5}):\n`)

// Delegation is one (expert name, instruction) pair parsed from an assistant
// message. It is transient: parsed, dispatched, and discarded within a round.
type Delegation struct {
	// Expert is the expert name with the "Expert " token retained and the
	// trailing colon stripped (e.g., "Expert Python").
	Expert string

	// Instruction is the trimmed instruction text between the delimiters.
	Instruction string
}

// ContainsDelegation reports whether the assistant output carries at least
// one recognizable delegation marker.
func ContainsDelegation(output string) bool {
	return delegationMarker.MatchString(output)
}

// ParseDelegations extracts all well-formed delegations from an assistant
// output. Malformed blocks (quoted text without a matching "Expert " preamble
// line) are silently skipped; they are not errors. Parsing is idempotent:
// re-parsing the same output yields the same pairs.
func ParseDelegations(output string) []Delegation {
	segments := strings.Split(output, TripleQuote)

	var delegations []Delegation
	// Odd indices are instruction bodies; even indices are the preambles
	// naming the expert to consult.
	for i := 1; i < len(segments); i += 2 {
		preamble := strings.TrimSpace(segments[i-1])
		lines := strings.Split(preamble, "\n")
		name := strings.TrimSpace(lines[len(lines)-1])
		if !strings.HasPrefix(name, expertToken) {
			continue
		}
		name = strings.TrimSuffix(name, ":")

		delegations = append(delegations, Delegation{
			Expert:      name,
			Instruction: strings.TrimSpace(segments[i]),
		})
	}
	return delegations
}

// ExtractFencedCode pulls the code block out of a code expert's output,
// considering only the text before the run-confirmation phrase. Blocks are
// delimited by triple backticks; a "```python" opener is treated the same as
// a bare fence. The block closed by the final fence wins; an unterminated
// trailing fence falls back to everything after the first opener. If no
// fence is present at all the failure is surfaced as an explicit ParseError
// rather than guessed around.
func ExtractFencedCode(output string) (string, error) {
	code := output
	if idx := strings.Index(code, RunConfirmationPhrase); idx >= 0 {
		code = code[:idx]
	}
	code = strings.ReplaceAll(strings.TrimSpace(code), "```python", "```")

	parts := strings.Split(code, "```")
	switch {
	case len(parts) >= 3:
		// Closed fence: the interior of the last complete block.
		return strings.TrimSpace(parts[len(parts)-2]), nil
	case len(parts) == 2:
		// Unterminated fence: take what follows the opener.
		return strings.TrimSpace(parts[1]), nil
	default:
		return "", &ParseError{
			Stage:  "code-fence",
			Reason: "expert confirmed execution but produced no fenced code block",
			Err:    ErrUnparsableOutput,
		}
	}
}

// ExtractFinalOutput implements extract-output mode for generic experts: if
// the output separator is present, only the text after its first occurrence
// is kept. Answers longer than the word cap are replaced entirely by
// SolutionTooLongMessage.
func ExtractFinalOutput(output string) string {
	if parts := strings.SplitN(output, OutputSeparator, 3); len(parts) > 1 {
		output = strings.TrimSpace(parts[1])
	}
	if len(strings.Fields(output)) > maxExtractedWords {
		return SolutionTooLongMessage
	}
	return output
}
