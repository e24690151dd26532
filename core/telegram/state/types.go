package state

// State identifies the screen a conversation is currently on.
type State string

const (
	// StateIdle indicates there is no recorded interaction with the user yet.
	StateIdle State = "idle"
)

// Session stores conversation state for a user. Values returned by Manager are copies.
type Session struct {
	State State
	// SelectedYear is the catalog year chosen last; empty when none was chosen.
	SelectedYear string
}

// Manager owns sessions keyed by conversation (Telegram user) id.
type Manager interface {
	Get(userID int64) Session
	SetState(userID int64, st State)
	GetState(userID int64) State
	SetSelectedYear(userID int64, year string)
	SelectedYear(userID int64) (string, bool)
	Clear(userID int64)

	// Lock serializes work for one conversation. The returned func releases the lock.
	Lock(userID int64) (unlock func())
}
