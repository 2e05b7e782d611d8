package application

import "github.com/JonMunkholm/csvmaster/internal/core"

// ResultMsg carries a finished action back to the model. Session is the
// copy the action ran on; the model adopts it.
type ResultMsg struct {
	Result  core.Result
	Session *core.Session
}

// ErrMsg carries a failed action back to the model.
type ErrMsg struct{ Err error }
