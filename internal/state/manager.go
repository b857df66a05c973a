package state

import (
	"sync"

	"github.com/Lina3386/monk-finance/internal/models"
)

type DialogState string

const (
	StateIdle                   DialogState = "idle"
	StateConfirmingDraft        DialogState = "confirming_draft"
	StateCreatingRecurrence     DialogState = "creating_recurrence"
	StateCreatingRecurrenceAmt  DialogState = "creating_recurrence_amount"
	StateCreatingRecurrenceType DialogState = "creating_recurrence_type"
	StateCreatingRecurrenceFreq DialogState = "creating_recurrence_frequency"
	StateCreatingRecurrenceDay  DialogState = "creating_recurrence_day"
)

type UserSession struct {
	UserID   int64
	State    DialogState
	TempData map[string]string
	Draft    *models.Draft
	mu       sync.RWMutex
}

type StateManager struct {
	sessions map[int64]*UserSession
	mu       sync.RWMutex
}

func NewStateManager() *StateManager {
	return &StateManager{
		sessions: make(map[int64]*UserSession),
	}
}

// session returns the user's session, creating it. Caller must hold sm.mu.
func (sm *StateManager) session(userID int64) *UserSession {
	if session, exists := sm.sessions[userID]; exists {
		return session
	}
	session := &UserSession{
		UserID:   userID,
		State:    StateIdle,
		TempData: make(map[string]string),
	}
	sm.sessions[userID] = session
	return session
}

func (sm *StateManager) SetState(userID int64, state DialogState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.session(userID).State = state
}

func (sm *StateManager) GetState(userID int64) DialogState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if session, exists := sm.sessions[userID]; exists {
		return session.State
	}
	return StateIdle
}

func (sm *StateManager) SetTempData(userID int64, key, value string) {
	sm.mu.Lock()
	session := sm.session(userID)
	sm.mu.Unlock()

	session.mu.Lock()
	defer session.mu.Unlock()
	session.TempData[key] = value
}

func (sm *StateManager) GetTempData(userID int64, key string) string {
	sm.mu.RLock()
	session, exists := sm.sessions[userID]
	sm.mu.RUnlock()

	if !exists {
		return ""
	}

	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.TempData[key]
}

// SetDraft keeps a parsed draft until the user confirms or cancels it.
func (sm *StateManager) SetDraft(userID int64, draft models.Draft) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session := sm.session(userID)
	session.Draft = &draft
	session.State = StateConfirmingDraft
}

// TakeDraft returns the pending draft and removes it, so a draft is saved at most once.
func (sm *StateManager) TakeDraft(userID int64) (models.Draft, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, exists := sm.sessions[userID]
	if !exists || session.Draft == nil {
		return models.Draft{}, false
	}

	draft := *session.Draft
	session.Draft = nil
	if session.State == StateConfirmingDraft {
		session.State = StateIdle
	}
	return draft, true
}

// UpdateDraft applies fn to the pending draft and returns the updated copy.
// It reports false when no draft is pending.
func (sm *StateManager) UpdateDraft(userID int64, fn func(*models.Draft)) (models.Draft, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, exists := sm.sessions[userID]
	if !exists || session.Draft == nil {
		return models.Draft{}, false
	}

	fn(session.Draft)
	return *session.Draft, true
}

// ClearSession forgets everything about the user, including a pending draft.
func (sm *StateManager) ClearSession(userID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.sessions, userID)
}

func (sm *StateManager) ClearState(userID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, exists := sm.sessions[userID]; exists {
		session.State = StateIdle
		session.Draft = nil

		session.mu.Lock()
		session.TempData = make(map[string]string)
		session.mu.Unlock()
	}
}
