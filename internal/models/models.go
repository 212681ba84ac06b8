package models

import "strings"

// DayLayout is the calendar day format stored in generation records (DD-MM-YYYY).
const DayLayout = "02-01-2006"

// EntriesPerSet is the number of entries in a word object and of items in a quiz.
const EntriesPerSet = 5

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
	JobTitle string `json:"job_title" validate:"required"`
}

// Normalize trims and lowercases the email so that validation and duplicate
// detection see the address the way it is stored.
func (r *SignUpRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

type LogInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LogInRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

type MessageResponse struct {
	Message string `json:"message"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Entry is a single generated vocabulary item. Exactly one of Term and Phrase is set.
type Entry struct {
	Term          string `json:"Term,omitempty" bson:"term,omitempty"`
	Phrase        string `json:"Phrase,omitempty" bson:"phrase,omitempty"`
	SimpleMeaning string `json:"Simple Meaning" bson:"simple_meaning"`
	ExampleUsage1 string `json:"Example Usage 1" bson:"example_usage_1"`
	ExampleUsage2 string `json:"Example Usage 2" bson:"example_usage_2"`
	ExampleUsage3 string `json:"Example Usage 3" bson:"example_usage_3"`
}

// Title returns the phrase or the term the entry is about.
func (e Entry) Title() string {
	if e.Phrase != "" {
		return e.Phrase
	}
	return e.Term
}

type WordObject []Entry

type GenerationRecord struct {
	UserID           string     `json:"user_id" bson:"user_id"`
	WordObject       WordObject `json:"word_object" bson:"word_object"`
	WordsGeneratedOn string     `json:"words_generated_on" bson:"words_generated_on"`
}

const (
	QuizTypeBlank = "Blank"
	QuizTypeMCQ   = "MCQ"
)

type QuizItem struct {
	Question string   `json:"Question"`
	Type     string   `json:"Type"`
	Options  []string `json:"Options,omitempty"`
	Answer   string   `json:"Answer"`
}

const (
	StorageTypeUnknown = iota
	StorageTypeMongo
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// NormalizeEmail trims and lowercases an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
