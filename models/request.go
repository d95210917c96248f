package models

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type QueryTextRequest struct {
	Query string `json:"query" binding:"required"`
}
