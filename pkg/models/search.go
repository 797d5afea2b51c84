package models

// SearchResults groups the records matching a global search query.
type SearchResults struct {
	Query    string          `json:"query"`
	Projects []Project       `json:"projects"`
	Tasks    []Task          `json:"tasks"`
	Notes    []Note          `json:"notes"`
	Articles []KnowledgeBase `json:"articles"`
}
