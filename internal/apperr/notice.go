package apperr

import "errors"

// Action identifies the user action a notice refers to.
type Action string

const (
	ActionLoad   Action = "load"
	ActionSave   Action = "save"
	ActionDelete Action = "delete"
)

// Notice is the dismissible, user-facing form of a failure. It never carries technical detail.
type Notice struct {
	Action  Action `json:"action"`
	Message string `json:"message"`
}

var noticeMessages = map[Action]string{
	ActionLoad:   "cannot load notes",
	ActionSave:   "cannot save note",
	ActionDelete: "cannot delete note",
}

// NoticeFor returns the notice shown when action fails. Validation failures keep
// their field message so the UI can render it inline next to the input.
func NoticeFor(action Action, err error) Notice {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindValidation && e.Msg != "" {
		return Notice{Action: action, Message: e.Msg}
	}
	msg, ok := noticeMessages[action]
	if !ok {
		msg = "something went wrong"
	}
	return Notice{Action: action, Message: msg}
}
