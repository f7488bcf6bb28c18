package domain

// Problem is the catalog view of a problem: its statement and hidden tests
type Problem struct {
	ID          string
	Title       string
	Description string
	HiddenTests []TestCase
}
