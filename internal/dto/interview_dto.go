package dto

import (
	"github.com/prepwise/interview-coach/internal/model"
	"github.com/prepwise/interview-coach/internal/speech"
)

type CreateSessionRequest struct {
	Role               string `json:"role"`
	Level              string `json:"level"`
	ResumeText         string `json:"resume_text"`
	JobDescriptionText string `json:"job_description_text"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// FragmentRequest carries one finalized speech recognition fragment
// from the client.
type FragmentRequest struct {
	Text string `json:"text"`
}

// CaptureEndedRequest reports the client's recognition engine stopping,
// with the engine's reason string.
type CaptureEndedRequest struct {
	Reason string `json:"reason"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type FeedbackRequest struct {
	Messages []ChatMessage `json:"messages"`
}

type FeedbackResponse struct {
	Reply string `json:"reply"`
}

// SessionStateResponse is the full observable state of a session,
// polled by the client to drive its capture and playback engines.
type SessionStateResponse struct {
	SessionID      string                 `json:"session_id"`
	Phase          model.Phase            `json:"phase"`
	Role           string                 `json:"role"`
	Level          model.Level            `json:"level"`
	AIMessage      string                 `json:"ai_message,omitempty"`
	Transcript     []model.Turn           `json:"transcript"`
	Scores         []int                  `json:"scores"`
	QuestionsAsked int                    `json:"questions_asked"`
	Speech         speech.State           `json:"speech"`
	LastError      string                 `json:"last_error,omitempty"`
	Result         *model.InterviewResult `json:"result,omitempty"`
}

// StatsResponse summarizes the per-turn score series of one session.
type StatsResponse struct {
	QuestionsAnswered int     `json:"questions_answered"`
	AverageScore      float64 `json:"average_score"`
	BestScore         int     `json:"best_score"`
	LowestScore       int     `json:"lowest_score"`
	Consistency       int     `json:"consistency"`
}
