package runner

import "fmt"

// TaskDescriptions maps a benchmark task name to the one-line description
// prepended to every input item of that task.
var TaskDescriptions = map[string]string{
	"word_sorting":             "Sort a list of words alphabetically, placing them in a single line of text separated by spaces.",
	"multistep_arithmetic_two": "Solve multi-step arithmetic problems.",
	"geometric_shapes":         "Name geometric shapes from their SVG paths.",
	"test":                     "Please complete the task correctly.",
	"GameOf24":                 "Let's play a game called 24. You'll be given four integers, and your objective is to use each number only once, combined with any of the four arithmetic operations (addition, subtraction, multiplication, and division) and parentheses, to achieve a total of 24. For example, if the input is 4, 7, 8, and 8, the output could be (7 - (8 / 8)) * 4 = 24.",
	"CheckmateInOne":           "Given a series of chess moves written in Standard Algebraic Notation (SAN), determine the next move that will result in a checkmate.",
	"MGSM_SW":                  "Please answer the following question.",
	"MGSM_JA":                  "Please answer the following question.",
	"MGSM_BN":                  "Please answer the following question.",
	"MGSM_DE":                  "Please answer the following question.",
	"MGSM_ES":                  "Please answer the following question.",
	"MGSM_FR":                  "Please answer the following question.",
	"MGSM_RU":                  "Please answer the following question.",
	"MGSM_TE":                  "Please answer the following question.",
	"MGSM_TH":                  "Please answer the following question.",
	"MGSM_ZH":                  "Please answer the following question.",
	"P3_Test":                  "Given a Python function \"sat\", the goal is to find an input or a set of inputs that makes \"sat\" return \"True\" and then include your input inside a function called \"solution()\".\n\nFor example, if the function was defined like this:\n\n```python\ndef sat(s: str, t:int):\n    return s == \"0123456789\" and t==10\n```\n\nOne correct final answer is:\n\n```python\ndef solution():\n    return \"0123456789\", 10\n```\n\nNow, to find a suitable input for a given \"sat\" function, you need to analyze the function and determine the conditions that make it return \"True\". Then, put your answer inside the \"solution\" function with that input as the argument. The final answer should be a self-contained, executable Python code containing only the answer, similar to the example above.",
	"Sonnets-Standard":         "Write a sonnet that adheres strictly to the specified rhyme scheme and includes the given words.",
}

// TaskDescription resolves a task name to its description.
func TaskDescription(name string) (string, error) {
	desc, ok := TaskDescriptions[name]
	if !ok {
		return "", fmt.Errorf("runner: unknown task %q", name)
	}
	return desc, nil
}

// DefaultQuestionSuffix nudges the orchestrating model to enumerate useful
// experts before it starts solving.
const DefaultQuestionSuffix = "\n\nLet's first come up with a list of experts you may want to consult for this problem and then immediately start solving it."

// expertIdentityTemplate is the few-shot prompt used by expert prompting
// mode to generate a task-specific expert persona for an input.
const expertIdentityTemplate = `For each instruction, write a high-quality description about the most capable and suitable agent to answer the instruction. In second person perspective.

[Instruction]: Make a list of 5 possible effects of deforestation.
[Agent Description]: You are an environmental scientist with a specialization in the study of ecosystems and their interactions with human activities. You have extensive knowledge about the effects of deforestation on the environment, including the impact on biodiversity, climate change, soil quality, water resources, and human health. Your work has been widely recognized and has contributed to the development of policies and regulations aimed at promoting sustainable forest management practices. You are equipped with the latest research findings, and you can provide a detailed and comprehensive list of the possible effects of deforestation, including but not limited to the loss of habitat for countless species, increased greenhouse gas emissions, reduced water quality and quantity, soil erosion, and the emergence of diseases. Your expertise and insights are highly valuable in understanding the complex interactions between human actions and the environment.

[Instruction]: Identify a descriptive phrase for an eclipse.
[Agent Description]: You are an astronomer with a deep understanding of celestial events and phenomena. Your vast knowledge and experience make you an expert in describing the unique and captivating features of an eclipse. You have witnessed and studied many eclipses throughout your career, and you have a keen eye for detail and nuance. Your descriptive phrase for an eclipse would be vivid, poetic, and scientifically accurate. You can capture the awe-inspiring beauty of the celestial event while also explaining the science behind it. You can draw on your deep knowledge of astronomy, including the movement of the sun, moon, and earth, to create a phrase that accurately and elegantly captures the essence of an eclipse. Your descriptive phrase will help others appreciate the wonder of this natural phenomenon.

[Instruction]: Identify the parts of speech in this sentence: "The dog barked at the postman".
[Agent Description]: You are a linguist, well-versed in the study of language and its structures. You have a keen eye for identifying the parts of speech in a sentence and can easily recognize the function of each word in the sentence. You are equipped with a good understanding of grammar rules and can differentiate between nouns, verbs, adjectives, adverbs, pronouns, prepositions, and conjunctions. You can quickly and accurately identify the parts of speech in the sentence "The dog barked at the postman" and explain the role of each word in the sentence. Your expertise in language and grammar is highly valuable in analyzing and understanding the nuances of communication.`
