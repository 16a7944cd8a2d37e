package evaluation

import "fmt"

// generationPrompt builds the candidate prompt template of spec §4.E.
func generationPrompt(retrievedContext, question string) string {
	return fmt.Sprintf("Context: %s\n\nQuestion: %s\n\nAnswer:", retrievedContext, question)
}

const judgeInstructions = `Respond with a strict JSON object of exactly two fields: "score" (a number from 0 to 1) and "explanation" (a short string). Do not include any other text.`

func accuracyPrompt(question, expectedAnswer, generatedAnswer string) string {
	return fmt.Sprintf(`You are grading the semantic correctness of an answer against a reference answer.

Question: %s
Reference answer: %s
Submitted answer: %s

Score how semantically correct the submitted answer is compared to the reference answer, from 0 (completely wrong) to 1 (fully correct).

%s`, question, expectedAnswer, generatedAnswer, judgeInstructions)
}

func faithfulnessPrompt(retrievedContext, generatedAnswer string) string {
	return fmt.Sprintf(`You are checking whether every claim in an answer is supported by the given context, detecting hallucination.

Context: %s
Answer: %s

Score how fully the answer's claims are grounded in the context, from 0 (unsupported/hallucinated) to 1 (fully grounded).

%s`, retrievedContext, generatedAnswer, judgeInstructions)
}

func reasoningPrompt(question, generatedAnswer string) string {
	return fmt.Sprintf(`You are evaluating the quality of logical reasoning in an answer.

Question: %s
Answer: %s

Score the quality of the answer's logical flow and coherence, from 0 (incoherent) to 1 (rigorous and clear).

%s`, question, generatedAnswer, judgeInstructions)
}

func contextUtilizationPrompt(retrievedContext, generatedAnswer string) string {
	return fmt.Sprintf(`You are evaluating how effectively an answer makes use of the information available to it.

Context: %s
Answer: %s

Score how effectively the answer uses the relevant information present in the context, from 0 (ignores available context) to 1 (fully exploits it).

%s`, retrievedContext, generatedAnswer, judgeInstructions)
}
