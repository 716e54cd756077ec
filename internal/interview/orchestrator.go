package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"interview-backend/internal/conversation"
	"interview-backend/internal/entitlement"
	"interview-backend/internal/llm"
	"interview-backend/internal/resumes"
	"interview-backend/internal/shared/keylock"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/users"
)

var (
	ErrResumeNotUploaded = errors.New("resume has not been uploaded yet")
	ErrInvalidInput      = errors.New("invalid input")
	ErrPersistenceFailed = errors.New("interview persistence failed")
)

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (users.User, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, user users.User) (entitlement.Decision, error)
	Refund(ctx context.Context, user users.User, d entitlement.Decision) error
}

type ResumeLookup interface {
	GetByUserID(ctx context.Context, userID int64) (resumes.Record, error)
}

type Transcripts interface {
	Transcript(ctx context.Context, sessionID string) ([]conversation.Message, error)
}

// Orchestrator opens sessions and routes answers through the completion
// service. It holds no conversation state of its own.
type Orchestrator struct {
	Users       UserLookup
	Gate        Authorizer
	Resumes     ResumeLookup
	Sessions    SessionRepo
	LLM         llm.Completer
	Transcripts Transcripts

	locks keylock.Map
	now   func() time.Time
	newID func() string
}

func NewOrchestrator(usersLookup UserLookup, gate Authorizer, resumeLookup ResumeLookup, sessions SessionRepo, completer llm.Completer, transcripts Transcripts) *Orchestrator {
	return &Orchestrator{
		Users:       usersLookup,
		Gate:        gate,
		Resumes:     resumeLookup,
		Sessions:    sessions,
		LLM:         completer,
		Transcripts: transcripts,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// Start authorizes the user, opens a session and returns the first question
// as free text. A trial spent on a session that never got its first question
// is given back.
func (o *Orchestrator) Start(ctx context.Context, userID int64, jobRole, company string) (Started, error) {
	jobRole = strings.TrimSpace(jobRole)
	company = strings.TrimSpace(company)
	if jobRole == "" || company == "" {
		return Started{}, fmt.Errorf("%w: jobRole and company are required", ErrInvalidInput)
	}

	user, err := o.Users.GetByID(ctx, userID)
	if err != nil {
		return Started{}, err
	}
	decision, err := o.Gate.Authorize(ctx, user)
	if err != nil {
		return Started{}, err
	}

	started, err := o.open(ctx, user, jobRole, company)
	if err != nil {
		if refundErr := o.Gate.Refund(context.WithoutCancel(ctx), user, decision); refundErr != nil {
			telemetry.Error("interview.refund_failed", map[string]any{"user_id": user.ID, "error": refundErr})
		}
		return Started{}, err
	}

	started.Access = string(decision.Reason)
	started.TrialsRemaining = decision.TrialsRemaining
	metrics.IncInterviewStarted()
	telemetry.Info("interview.started", map[string]any{
		"user_id":    user.ID,
		"session_id": started.SessionID,
		"access":     started.Access,
		"trials":     started.TrialsRemaining,
	})
	return started, nil
}

func (o *Orchestrator) open(ctx context.Context, user users.User, jobRole, company string) (Started, error) {
	rec, err := o.Resumes.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, resumes.ErrNotFound) {
			return Started{}, ErrResumeNotUploaded
		}
		return Started{}, fmt.Errorf("load resume: %w", err)
	}
	resumeJSON, err := json.MarshalIndent(rec.Resume, "", "  ")
	if err != nil {
		return Started{}, fmt.Errorf("encode resume: %w", err)
	}
	roleParams := map[string]any{"jobRole": jobRole, "company": company}
	system, err := llm.Prompt{Template: systemTemplate, Params: roleParams}.Render()
	if err != nil {
		return Started{}, err
	}

	session := Session{ID: o.newID(), UserID: user.ID, JobRole: jobRole, Company: company, CreatedAt: o.now()}
	if err := o.Sessions.Create(ctx, session); err != nil {
		return Started{}, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	resp, err := o.LLM.Complete(ctx, llm.Request{
		System: system,
		Prompt: llm.Prompt{
			Template: seedTemplate,
			Params:   map[string]any{"resume": string(resumeJSON), "jobRole": jobRole, "company": company},
		},
		MemoryKey: session.ID,
	})
	if err != nil {
		if delErr := o.Sessions.Delete(context.WithoutCancel(ctx), session.ID); delErr != nil {
			telemetry.Warn("interview.cleanup_failed", map[string]any{"session_id": session.ID, "error": delErr})
		}
		return Started{}, err
	}
	return Started{SessionID: session.ID, Question: strings.TrimSpace(resp.Text)}, nil
}

// Continue sends the candidate's answer as the next turn and returns the
// decoded next question. Calls for one session run one at a time.
func (o *Orchestrator) Continue(ctx context.Context, userID int64, sessionID, answer string) (Question, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Question{}, fmt.Errorf("%w: answer is required", ErrInvalidInput)
	}

	unlock, err := o.locks.Lock(ctx, "session:"+sessionID)
	if err != nil {
		return Question{}, err
	}
	defer unlock()

	session, err := o.session(ctx, userID, sessionID)
	if err != nil {
		return Question{}, err
	}

	var q Question
	_, err = o.LLM.Complete(ctx, llm.Request{
		Prompt:    llm.Prompt{Template: answerTemplate, Params: map[string]any{"answer": answer}},
		MemoryKey: session.ID,
		Schema:    QuestionSchema,
		Target:    &q,
	})
	if err != nil {
		return Question{}, err
	}
	q.Question = strings.TrimSpace(q.Question)
	metrics.IncInterviewTurn()
	return q, nil
}

// History returns the session's turns in order.
func (o *Orchestrator) History(ctx context.Context, userID int64, sessionID string) (Session, []conversation.Message, error) {
	session, err := o.session(ctx, userID, sessionID)
	if err != nil {
		return Session{}, nil, err
	}
	msgs, err := o.Transcripts.Transcript(ctx, session.ID)
	if err != nil {
		return Session{}, nil, err
	}
	for i := range msgs {
		msgs[i].Content = displayContent(msgs[i])
	}
	return session, msgs, nil
}

// displayContent unwraps follow-up questions, which are stored as the model's
// {"question": ...} reply, so every assistant turn reads as plain text.
func displayContent(m conversation.Message) string {
	if m.Role != string(llm.RoleAssistant) {
		return m.Content
	}
	var q Question
	if err := QuestionSchema.Decode([]byte(m.Content), &q); err != nil {
		return m.Content
	}
	return q.Question
}

// ListSessions returns the user's sessions, newest first.
func (o *Orchestrator) ListSessions(ctx context.Context, userID int64, limit int) ([]Session, error) {
	return o.Sessions.ListByUser(ctx, userID, limit)
}

// Sessions belonging to someone else read as missing.
func (o *Orchestrator) session(ctx context.Context, userID int64, sessionID string) (Session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return Session{}, ErrSessionNotFound
	}
	session, err := o.Sessions.Get(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if session.UserID != userID {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}
