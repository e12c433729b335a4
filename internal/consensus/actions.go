package consensus

// ActionKind tags the three things a transition can ask the runner to do
// (§4.7 "Update | SendMessage | Notify").
type ActionKind int

const (
	ActionUpdate      ActionKind = iota
	ActionSendMessage
	ActionNotify
)

// Action is one unit the ActionRunner must persist, in order, before
// executing any of them (§4.7 "persisted before executed"; §8 "action
// runner applies them in id order and each one is idempotent on replay").
type Action struct {
	Kind ActionKind

	// ActionUpdate.
	NewContext *Context

	// ActionSendMessage.
	To      Process
	Message Message

	// ActionNotify.
	Notification Notification
}

func updateAction(ctx *Context) Action {
	return Action{Kind: ActionUpdate, NewContext: ctx}
}

func sendAction(to Process, msg Message) Action {
	return Action{Kind: ActionSendMessage, To: to, Message: msg}
}

func notifyAction(n Notification) Action {
	return Action{Kind: ActionNotify, Notification: n}
}
