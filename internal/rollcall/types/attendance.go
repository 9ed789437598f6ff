package types

import (
	"fmt"
	"time"
)

type Action string

const (
	ActionEnter Action = "enter"
	ActionLeave Action = "leave"
)

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionEnter, ActionLeave:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown attendance action %q", s)
}

// AttendanceEvent is one row of the attendance log. ID and Timestamp are
// assigned by the store at append time.
type AttendanceEvent struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// UserState is the winning (max id) event for one user.
type UserState struct {
	ID        int64
	UserName  string
	Action    Action
	Timestamp time.Time
}

// Click is a decoded button interaction.
type Click struct {
	Action    Action
	UserID    string
	UserName  string
	ChannelID string
	MessageID string
}
