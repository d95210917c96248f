package models

type LoginResponse struct {
	Message   string `json:"message"`
	Username  string `json:"username"`
	SessionID string `json:"sessionID"`
}

type QueryResponse struct {
	Answer     string `json:"answer"`
	ExactMatch bool   `json:"exact_match"`
	SessionID  string `json:"sessionID"`
}

type MessagesResponse struct {
	Messages       History      `json:"messages"`
	QuestionsAsked int          `json:"questions_asked"`
	Document       DocumentInfo `json:"document"`
}

type DocumentResponse struct {
	Message  string       `json:"message"`
	Document DocumentInfo `json:"document"`
}
