package manager

import "fmt"

const instructionPreamble = "Below is the instruction that describes a task. Write a response that appropriately completes the request."

// BuildPrompt wraps a raw user instruction in the instruction/response template.
func BuildPrompt(instruction string) string {
	return fmt.Sprintf(" %s\n\n### Instruction:\n\n%s\n\n### Response:\n\n", instructionPreamble, instruction)
}
