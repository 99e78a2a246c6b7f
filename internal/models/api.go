package models

// ChatQuery is the query string of GET /chat.
type ChatQuery struct {
	Question string `form:"question"`
}
