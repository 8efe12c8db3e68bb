package model

import "time"

type Speaker string

const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerCandidate   Speaker = "candidate"
)

type Level string

const (
	LevelEntry  Level = "Entry"
	LevelMid    Level = "Mid"
	LevelSenior Level = "Senior"
)

func ParseLevel(s string) (Level, bool) {
	switch Level(s) {
	case LevelEntry, LevelMid, LevelSenior:
		return Level(s), true
	}
	return "", false
}

// Phase is the lifecycle state of an interview session.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseOpening           Phase = "opening"
	PhaseAwaitingCandidate Phase = "awaiting_candidate"
	PhaseProcessing        Phase = "processing"
	PhaseSpeaking          Phase = "speaking"
	PhaseFinalizing        Phase = "finalizing"
	PhaseClosed            Phase = "closed"
	PhaseError             Phase = "error"
)

// SessionContext is the immutable setup of one interview session.
// Resume and job description text are optional and arrive already
// extracted; the service never parses uploaded documents.
type SessionContext struct {
	Role               string `json:"role"`
	Level              Level  `json:"level"`
	ResumeText         string `json:"resume_text,omitempty"`
	JobDescriptionText string `json:"job_description_text,omitempty"`
}

func (c SessionContext) HasResume() bool {
	return c.ResumeText != ""
}

func (c SessionContext) HasJobDescription() bool {
	return c.JobDescriptionText != ""
}

// Turn is one utterance in the conversation transcript. Turns strictly
// alternate and the interviewer always opens.
type Turn struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// TurnResult is the structured payload the oracle returns for one
// candidate answer.
type TurnResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
	Question string `json:"question"`
	Thinking string `json:"thinking"`
}

// Opening is the structured payload for the first interviewer question.
type Opening struct {
	Question string `json:"question"`
	Thinking string `json:"thinking"`
}

// QuestionMeta is the per-question metadata handed to the scoring
// aggregator at session end.
type QuestionMeta struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Score    int    `json:"score"`
}
