// Package interview runs mock-interview sessions grounded in a stored resume.
package interview

import "time"

// Session ties a conversation to its owner and role context. The turns
// themselves live in conversation memory under the session id.
type Session struct {
	ID        string    `json:"sessionId"`
	UserID    int64     `json:"userId"`
	JobRole   string    `json:"jobRole"`
	Company   string    `json:"company"`
	CreatedAt time.Time `json:"createdAt"`
}

type Question struct {
	Question string `json:"question"`
}

// Started is the result of opening a session.
type Started struct {
	SessionID       string `json:"sessionId"`
	Question        string `json:"question"`
	Access          string `json:"access"`
	TrialsRemaining int    `json:"trialsRemaining"`
}
