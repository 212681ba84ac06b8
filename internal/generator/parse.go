package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/patric-chuzhbe/jobvocab/internal/models"
)

const quizItemsPerSet = models.EntriesPerSet

// entryKeys maps lowercased agent keys to the canonical entry keys.
var entryKeys = map[string]string{
	"phrase":          "Phrase",
	"term":            "Term",
	"simple meaning":  "Simple Meaning",
	"example usage 1": "Example Usage 1",
	"example usage 2": "Example Usage 2",
	"example usage 3": "Example Usage 3",
}

var quizKeys = map[string]string{
	"question": "Question",
	"type":     "Type",
	"options":  "Options",
	"answer":   "Answer",
}

// normalizeKeys rewrites object keys through table, ignoring case and
// treating underscores as spaces. Unknown keys are kept as they are.
func normalizeKeys(object map[string]any, table map[string]string) map[string]any {
	result := make(map[string]any, len(object))
	for key, value := range object {
		lookup := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "_", " "))
		if canonical, ok := table[lookup]; ok {
			result[canonical] = value
			continue
		}
		result[key] = value
	}

	return result
}

// ParseWordObject strictly decodes the agent's vocabulary answer.
// Both a JSON array and an object keyed by position ("0", "1", ...) are accepted.
func ParseWordObject(text string) (models.WordObject, error) {
	objects, err := decodeObjects(text)
	if err != nil {
		return nil, parseError("parse word object", err)
	}
	if len(objects) != models.EntriesPerSet {
		return nil, parseError("parse word object", fmt.Errorf("got %d entries, want %d", len(objects), models.EntriesPerSet))
	}

	result := make(models.WordObject, 0, len(objects))
	for i, object := range objects {
		entry, err := toEntry(normalizeKeys(object, entryKeys))
		if err != nil {
			return nil, parseError("parse word object", fmt.Errorf("entry %d: %w", i, err))
		}
		result = append(result, entry)
	}

	return result, nil
}

// ParseQuiz strictly decodes the agent's quiz answer.
func ParseQuiz(text string) ([]models.QuizItem, error) {
	objects, err := decodeObjects(text)
	if err != nil {
		return nil, parseError("parse quiz", err)
	}
	if len(objects) != quizItemsPerSet {
		return nil, parseError("parse quiz", fmt.Errorf("got %d questions, want %d", len(objects), quizItemsPerSet))
	}

	result := make([]models.QuizItem, 0, len(objects))
	for i, object := range objects {
		item, err := toQuizItem(normalizeKeys(object, quizKeys))
		if err != nil {
			return nil, parseError("parse quiz", fmt.Errorf("question %d: %w", i, err))
		}
		result = append(result, item)
	}

	return result, nil
}

func parseError(op string, err error) error {
	return &GenerationError{Op: op, Err: fmt.Errorf("%w: %v", ErrMalformedOutput, err)}
}

func decodeObjects(text string) ([]map[string]any, error) {
	raw := bytes.TrimSpace([]byte(text))
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty output")
	}

	switch raw[0] {
	case '[':
		var objects []map[string]any
		if err := json.Unmarshal(raw, &objects); err != nil {
			return nil, err
		}
		return objects, nil

	case '{':
		var indexed map[string]map[string]any
		if err := json.Unmarshal(raw, &indexed); err != nil {
			return nil, err
		}
		return orderByIndex(indexed)
	}

	return nil, fmt.Errorf("output is not a JSON array or object")
}

func orderByIndex(indexed map[string]map[string]any) ([]map[string]any, error) {
	indexes := make([]int, 0, len(indexed))
	byIndex := make(map[int]map[string]any, len(indexed))
	for key, object := range indexed {
		index, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("object key %q is not a position", key)
		}
		if _, taken := byIndex[index]; taken {
			return nil, fmt.Errorf("object key %q repeats position %d", key, index)
		}
		indexes = append(indexes, index)
		byIndex[index] = object
	}
	sort.Ints(indexes)

	result := make([]map[string]any, 0, len(indexes))
	for _, index := range indexes {
		result = append(result, byIndex[index])
	}

	return result, nil
}

func stringField(object map[string]any, key string) (string, error) {
	value, ok := object[key]
	if !ok || value == nil {
		return "", nil
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%q is not a string", key)
	}

	return strings.TrimSpace(str), nil
}

func requiredStringField(object map[string]any, key string) (string, error) {
	str, err := stringField(object, key)
	if err != nil {
		return "", err
	}
	if str == "" {
		return "", fmt.Errorf("%q is missing", key)
	}

	return str, nil
}

func toEntry(object map[string]any) (models.Entry, error) {
	var (
		entry models.Entry
		err   error
	)

	if entry.Term, err = stringField(object, "Term"); err != nil {
		return models.Entry{}, err
	}
	if entry.Phrase, err = stringField(object, "Phrase"); err != nil {
		return models.Entry{}, err
	}
	if (entry.Term == "") == (entry.Phrase == "") {
		return models.Entry{}, fmt.Errorf("exactly one of \"Term\" and \"Phrase\" must be set")
	}

	if entry.SimpleMeaning, err = requiredStringField(object, "Simple Meaning"); err != nil {
		return models.Entry{}, err
	}
	if entry.ExampleUsage1, err = requiredStringField(object, "Example Usage 1"); err != nil {
		return models.Entry{}, err
	}
	if entry.ExampleUsage2, err = requiredStringField(object, "Example Usage 2"); err != nil {
		return models.Entry{}, err
	}
	if entry.ExampleUsage3, err = requiredStringField(object, "Example Usage 3"); err != nil {
		return models.Entry{}, err
	}

	return entry, nil
}

func toQuizItem(object map[string]any) (models.QuizItem, error) {
	var (
		item models.QuizItem
		err  error
	)

	if item.Question, err = requiredStringField(object, "Question"); err != nil {
		return models.QuizItem{}, err
	}
	if item.Answer, err = requiredStringField(object, "Answer"); err != nil {
		return models.QuizItem{}, err
	}

	questionType, err := requiredStringField(object, "Type")
	if err != nil {
		return models.QuizItem{}, err
	}
	switch {
	case strings.EqualFold(questionType, models.QuizTypeBlank):
		item.Type = models.QuizTypeBlank
		return item, nil
	case strings.EqualFold(questionType, models.QuizTypeMCQ):
		item.Type = models.QuizTypeMCQ
	default:
		return models.QuizItem{}, fmt.Errorf("unknown question type %q", questionType)
	}

	options, err := stringSlice(object["Options"])
	if err != nil {
		return models.QuizItem{}, err
	}
	if len(options) < 2 {
		return models.QuizItem{}, fmt.Errorf("MCQ needs at least 2 options, got %d", len(options))
	}
	if !containsFold(options, item.Answer) {
		return models.QuizItem{}, fmt.Errorf("answer %q is not among the options", item.Answer)
	}
	item.Options = options

	return item, nil
}

func stringSlice(value any) ([]string, error) {
	values, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("\"Options\" is not a list")
	}

	result := make([]string, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("\"Options\" holds a non-string value")
		}
		result = append(result, strings.TrimSpace(str))
	}

	return result, nil
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}

	return false
}
