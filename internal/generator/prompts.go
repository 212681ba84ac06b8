package generator

import (
	"fmt"
)

const vocabularyPromptTemplate = `# Role
You are a language coach who helps people understand the professional terms and phrases used every day in workplace conversations and meetings.

# Task
For the field "%[1]s" produce exactly %[2]d entries: %[3]d phrases that are realistic in discussions or meetings and %[4]d technical terms that are common and essential to the field.

# Entry format
Every entry is a JSON object with these keys:
- "Phrase": the phrase (phrases only)
- "Term": the term (terms only)
- "Simple Meaning": a plain-English explanation a beginner in %[1]s can follow
- "Example Usage 1": a short, realistic sentence from a professional conversation or meeting
- "Example Usage 2": another sentence showing typical professional usage
- "Example Usage 3": another example in a workplace tone

# Rules
- Answer with a JSON array of exactly %[2]d objects and nothing else.
- All entries must be unique.
- Keep the language simple and clear.
- Do not add greetings, headings, explanations or closing remarks.

Field: %[1]s
`

const quizPromptTemplate = `# Role
You are a quiz generator. Build questions ONLY from this data:
%[1]s

# Instructions
1. Use the terms, phrases, meanings and examples above to write slightly tricky questions.
2. Mix two question types:
   - "Blank": a sentence with the most important word or phrase replaced by ____.
   - "MCQ": one correct answer and three close but wrong distractors taken from the data.
3. Make questions tricky by rephrasing sentences and using believable distractors.
4. Output exactly %[2]d questions in total.
5. Answer with a JSON array of objects and nothing else.

# Object structure
{
  "Question": "<the quiz question text>",
  "Type": "Blank" | "MCQ",
  "Options": ["<option1>", "<option2>", "<option3>", "<option4>"],
  "Answer": "<correct answer>"
}
"Options" is present for MCQ questions only.

# Rules
- Do not invent anything outside the given data.
- Keep questions professional, clear and relevant to the workplace.
- The answer must appear verbatim in the given data.
`

const (
	phrasesPerSet = 3
	termsPerSet   = 2
)

func buildVocabularyPrompt(jobTitle string) string {
	return fmt.Sprintf(vocabularyPromptTemplate, jobTitle, phrasesPerSet+termsPerSet, phrasesPerSet, termsPerSet)
}

func buildQuizPrompt(quizData string) string {
	return fmt.Sprintf(quizPromptTemplate, quizData, quizItemsPerSet)
}
