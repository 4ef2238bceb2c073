package model

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Movie is the minimal record returned by GET /api/movies.
type Movie struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Theaters []string `json:"theaters,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatData carries the structured part of an assistant reply.
type ChatData struct {
	Count       int          `json:"count"`
	Date        string       `json:"date"`
	DataUpdated string       `json:"data_updated"`
	Results     []ShowResult `json:"results"`
}

// ChatResponse is the body returned by POST /api/chat.  Data is nil when the
// assistant replied with free text only.
type ChatResponse struct {
	UserQuery string    `json:"user_query"`
	Response  string    `json:"response"`
	Data      *ChatData `json:"data,omitempty"`
}

// ShowResults returns the result list carried by the reply, or nil.
func (r ChatResponse) ShowResults() []ShowResult {
	if r.Data == nil {
		return nil
	}
	return r.Data.Results
}
