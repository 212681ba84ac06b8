package generator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/jobvocab/internal/models"
)

type fakeAgent struct {
	prompts []string
	answer  string
	err     error
}

func (f *fakeAgent) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

const indexedWordObject = `{
	"1": {"example usage 1": "Can you debug this issue before lunch?", "example usage 2": "We debugged it together.", "example usage 3": "I'll debug this code.", "phrase": "Can you debug this issue?", "simple meaning": "Find and fix the problem."},
	"0": {"Example Usage 1": "Let's prototype this feature first.", "Example Usage 2": "We need to prototype the algorithm.", "Example Usage 3": "The developer will prototype the UI.", "Phrase": "Let's prototype this feature", "Simple Meaning": "Build a basic version to test."},
	"2": {"example_usage_1": "This algorithm is scalable.", "example_usage_2": "Use a scalable algorithm.", "example_usage_3": "We need a scalable solution.", "PHRASE": "This algorithm is scalable", "simple_meaning": "It handles growth."},
	"3": {"example usage 1": "The company provides an API.", "example usage 2": "We are building an API.", "example usage 3": "The API docs are long.", "term": "API", "simple meaning": "Rules that let programs talk."},
	"4": {"example usage 1": "We store orders in a database.", "example usage 2": "Design the database.", "example usage 3": "The database is secure.", "Term": "Database", "Simple Meaning": "Organized data storage."}
}`

func testWordObject() models.WordObject {
	return models.WordObject{
		{Phrase: "Let's prototype this feature", SimpleMeaning: "m0", ExampleUsage1: "a", ExampleUsage2: "b", ExampleUsage3: "c"},
		{Phrase: "Can you debug this issue?", SimpleMeaning: "m1", ExampleUsage1: "a", ExampleUsage2: "b", ExampleUsage3: "c"},
		{Phrase: "This algorithm is scalable", SimpleMeaning: "m2", ExampleUsage1: "a", ExampleUsage2: "b", ExampleUsage3: "c"},
		{Term: "API", SimpleMeaning: "m3", ExampleUsage1: "a", ExampleUsage2: "b", ExampleUsage3: "c"},
		{Term: "Database", SimpleMeaning: "m4", ExampleUsage1: "a", ExampleUsage2: "b", ExampleUsage3: "c"},
	}
}

func TestGenerateVocabulary(t *testing.T) {
	agent := &fakeAgent{answer: "[]"}
	gateway := New(agent)

	text, err := gateway.GenerateVocabulary(context.Background(), "chef")
	require.NoError(t, err)
	assert.Equal(t, "[]", text, "the literal agent text should be returned")

	require.Len(t, agent.prompts, 1)
	assert.Contains(t, agent.prompts[0], "Field: chef")
	assert.Contains(t, agent.prompts[0], "exactly 5 entries: 3 phrases")
	assert.Contains(t, agent.prompts[0], `"Example Usage 3"`)
}

func TestGenerateVocabularyRemoteFailure(t *testing.T) {
	remoteErr := errors.New("quota exceeded")
	gateway := New(&fakeAgent{err: remoteErr})

	_, err := gateway.GenerateVocabulary(context.Background(), "chef")

	var generationErr *GenerationError
	require.ErrorAs(t, err, &generationErr)
	assert.ErrorIs(t, err, remoteErr)
	assert.Equal(t, "generate vocabulary", generationErr.Op)
}

func TestGenerateQuizSendsCanonicalKeys(t *testing.T) {
	agent := &fakeAgent{answer: "[]"}
	gateway := New(agent)

	_, err := gateway.GenerateQuiz(context.Background(), testWordObject())
	require.NoError(t, err)

	require.Len(t, agent.prompts, 1)
	prompt := agent.prompts[0]
	assert.Contains(t, prompt, `"Phrase":"Let's prototype this feature"`)
	assert.Contains(t, prompt, `"Term":"API"`)
	assert.Contains(t, prompt, `"Simple Meaning":"m4"`)
	assert.NotContains(t, prompt, `"term"`)
	assert.Contains(t, prompt, "exactly 5 questions")
}

func TestParseWordObjectIndexedObject(t *testing.T) {
	words, err := ParseWordObject(indexedWordObject)
	require.NoError(t, err)
	require.Len(t, words, models.EntriesPerSet)

	assert.Equal(t, "Let's prototype this feature", words[0].Phrase)
	assert.Equal(t, "Build a basic version to test.", words[0].SimpleMeaning)
	assert.Equal(t, "Can you debug this issue?", words[1].Phrase)
	assert.Equal(t, "This algorithm is scalable", words[2].Phrase)
	assert.Equal(t, "It handles growth.", words[2].SimpleMeaning)
	assert.Equal(t, "API", words[3].Term)
	assert.Equal(t, "", words[3].Phrase)
	assert.Equal(t, "Database", words[4].Title())
}

func TestParseWordObjectArrayRoundTrip(t *testing.T) {
	data, err := json.Marshal(testWordObject())
	require.NoError(t, err)

	words, err := ParseWordObject("\n  " + string(data) + "\n")
	require.NoError(t, err)
	assert.Equal(t, testWordObject(), words)
}

func TestParseWordObjectRejectsMalformedOutput(t *testing.T) {
	fourEntries, err := json.Marshal(testWordObject()[:4])
	require.NoError(t, err)

	both := testWordObject()
	both[0].Term = "also a term"
	bothData, err := json.Marshal(both)
	require.NoError(t, err)

	noMeaning := testWordObject()
	noMeaning[2].SimpleMeaning = ""
	noMeaningData, err := json.Marshal(noMeaning)
	require.NoError(t, err)

	testCases := []struct {
		name string
		text string
	}{
		{name: "empty", text: "   "},
		{name: "prose", text: "Here are the 2 technical terms and 3 phrases:"},
		{name: "fenced", text: "```json\n[]\n```"},
		{name: "truncated", text: `[{"Term": "API"`},
		{name: "wrong_count", text: string(fourEntries)},
		{name: "term_and_phrase", text: string(bothData)},
		{name: "missing_meaning", text: string(noMeaningData)},
		{name: "non_string_value", text: strings.Replace(string(fourEntries), `"Term":"API"`, `"Term":42`, 1)},
		{name: "non_position_key", text: `{"first": {"Term": "API"}}`},
		{name: "repeated_position", text: strings.Replace(indexedWordObject, `"4":`, `"00":`, 1)},
		{name: "scalar", text: `"just a string"`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			words, err := ParseWordObject(testCase.text)
			assert.Nil(t, words)
			assert.ErrorIs(t, err, ErrMalformedOutput)

			var generationErr *GenerationError
			assert.ErrorAs(t, err, &generationErr)
		})
	}
}

const validQuiz = `[
	{"Question": "Let's ____ this feature.", "Type": "Blank", "Answer": "prototype"},
	{"question": "What does API stand for?", "type": "mcq", "options": ["Application Programming Interface", "Applied Program Index", "App Process Integration", "Automated Program Input"], "answer": "Application Programming Interface"},
	{"Question": "Can you ____ this issue?", "Type": "blank", "Options": ["ignored"], "Answer": "debug"},
	{"Question": "Which word means organized data storage?", "Type": "MCQ", "Options": ["Database", "Prototype", "API", "Algorithm"], "Answer": "database"},
	{"Question": "This algorithm is ____.", "Type": "Blank", "Answer": "scalable"}
]`

func TestParseQuiz(t *testing.T) {
	quiz, err := ParseQuiz(validQuiz)
	require.NoError(t, err)
	require.Len(t, quiz, 5)

	assert.Equal(t, models.QuizItem{Question: "Let's ____ this feature.", Type: models.QuizTypeBlank, Answer: "prototype"}, quiz[0])
	assert.Equal(t, models.QuizTypeMCQ, quiz[1].Type)
	assert.Len(t, quiz[1].Options, 4)
	assert.Equal(t, models.QuizTypeBlank, quiz[2].Type)
	assert.Nil(t, quiz[2].Options, "options are kept for MCQ questions only")
	assert.Equal(t, "database", quiz[3].Answer)
}

func TestParseQuizRejectsMalformedOutput(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{name: "not_json", text: "I hope these questions meet your requirements!"},
		{name: "too_few", text: `[{"Question": "q", "Type": "Blank", "Answer": "a"}]`},
		{name: "unknown_type", text: strings.Replace(validQuiz, `"Type": "Blank", "Answer": "prototype"`, `"Type": "Essay", "Answer": "prototype"`, 1)},
		{name: "answer_not_in_options", text: strings.Replace(validQuiz, `"Answer": "database"`, `"Answer": "spreadsheet"`, 1)},
		{name: "missing_answer", text: strings.Replace(validQuiz, `, "Answer": "scalable"`, ``, 1)},
		{name: "options_not_list", text: strings.Replace(validQuiz, `"Options": ["Database", "Prototype", "API", "Algorithm"]`, `"Options": "Database"`, 1)},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			quiz, err := ParseQuiz(testCase.text)
			assert.Nil(t, quiz)
			assert.ErrorIs(t, err, ErrMalformedOutput)
		})
	}
}

func TestNormalizeKeys(t *testing.T) {
	normalized := normalizeKeys(map[string]any{
		"TERM":             "API",
		" simple meaning ": "m",
		"Example_Usage_1":  "a",
		"extra":            "kept",
	}, entryKeys)

	assert.Equal(t, map[string]any{
		"Term":            "API",
		"Simple Meaning":  "m",
		"Example Usage 1": "a",
		"extra":           "kept",
	}, normalized)
}
