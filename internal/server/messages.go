package server

import (
	"time"

	"github.com/typerush/go-typerush/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the inbound envelope. Exactly one payload field is set.
type ClientMessage struct {
	BaseMessage
	CreateUser *CreateUserRequest `json:"create_user,omitempty"`
	HostRoom   *HostRoomRequest   `json:"host_room,omitempty"`
	Join       *JoinRequest       `json:"join,omitempty"`
	StartGame  *StartGameRequest  `json:"start_game,omitempty"`
	Input      *InputRequest      `json:"input,omitempty"`
	Rejoin     *RejoinRequest     `json:"rejoin_room,omitempty"`

	client *Client
}

type CreateUserRequest struct {
	Username  string `json:"username"`
	Avatar    string `json:"avatar,omitempty"`
	Color     string `json:"color,omitempty"`
	SessionId string `json:"sessionId,omitempty"`
}

type HostRoomRequest struct {
	Username string             `json:"username"`
	Settings types.RoomSettings `json:"settings"`
}

type JoinRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

type StartGameRequest struct {
	Settings *types.SettingsOverride `json:"settings,omitempty"`
}

type InputRequest struct {
	Input string `json:"input"`
}

type RejoinRequest struct {
	SessionId string `json:"sessionId"`
	RoomCode  string `json:"roomCode"`
}

// ServerMessage is the outbound envelope. Exactly one payload field is set;
// the field name is the event name the client switches on.
type ServerMessage struct {
	BaseMessage
	SuccessCreateUser *UserPayload  `json:"success_create_user,omitempty"`
	SuccessHostRoom   *HostedRoom   `json:"success_host_room,omitempty"`
	SuccessJoin       *RoomPayload  `json:"success_join,omitempty"`
	SuccessRejoin     *RejoinedRoom `json:"success_rejoin,omitempty"`
	RefreshRoom       *types.Room   `json:"refresh_room,omitempty"`
	GameStarted       *RoomPayload  `json:"game_started,omitempty"`
	UpdateTime        *UpdateTime   `json:"update_time,omitempty"`
	UpdateLetter      *UpdateLetter `json:"update_letter,omitempty"`
	WordFinish        *WordFinish   `json:"word_finish,omitempty"`
	GameFinish        *RoomPayload  `json:"game_finish,omitempty"`
	Error             *ErrorPayload `json:"error,omitempty"`

	SkipClient *Client `json:"-"`
}

type UserPayload struct {
	User *types.User `json:"user"`
}

type HostedRoom struct {
	RoomId string `json:"room_id"`
}

type RoomPayload struct {
	Room *types.Room `json:"room"`
}

type RejoinedRoom struct {
	Room *types.Room `json:"room"`
	User *types.User `json:"user"`
}

type UpdateTime struct {
	Timer int `json:"timer"`
}

type UpdateLetter struct {
	WordId string `json:"word_id"`
	UserId string `json:"user_id"`
	Typed  string `json:"typed"`
}

type WordFinish struct {
	Word   *types.Word `json:"word"`
	UserId string      `json:"user_id"`
	Score  int         `json:"score"`
	Combo  int         `json:"combo"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newSuccessCreateUser(id int, user *types.User) *ServerMessage {
	return &ServerMessage{
		BaseMessage:       BaseMessage{Id: id, Timestamp: Now()},
		SuccessCreateUser: &UserPayload{User: user},
	}
}

func newSuccessHostRoom(id int, roomId string) *ServerMessage {
	return &ServerMessage{
		BaseMessage:     BaseMessage{Id: id, Timestamp: Now()},
		SuccessHostRoom: &HostedRoom{RoomId: roomId},
	}
}

func newSuccessJoin(id int, room *types.Room) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{Id: id, Timestamp: Now()},
		SuccessJoin: &RoomPayload{Room: room},
	}
}

func newSuccessRejoin(id int, room *types.Room, user *types.User) *ServerMessage {
	return &ServerMessage{
		BaseMessage:   BaseMessage{Id: id, Timestamp: Now()},
		SuccessRejoin: &RejoinedRoom{Room: room, User: user},
	}
}

func newRefreshRoom(room *types.Room) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		RefreshRoom: room,
	}
}

func newGameStarted(room *types.Room) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		GameStarted: &RoomPayload{Room: room},
	}
}

func newUpdateTime(timer int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		UpdateTime:  &UpdateTime{Timer: timer},
	}
}

func newUpdateLetter(wordId, userId, typed string) *ServerMessage {
	return &ServerMessage{
		BaseMessage:  BaseMessage{Timestamp: Now()},
		UpdateLetter: &UpdateLetter{WordId: wordId, UserId: userId, Typed: typed},
	}
}

func newWordFinish(word *types.Word, userId string, score, combo int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		WordFinish:  &WordFinish{Word: word, UserId: userId, Score: score, Combo: combo},
	}
}

func newGameFinish(room *types.Room) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		GameFinish:  &RoomPayload{Room: room},
	}
}

func newError(id int, err error) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{Id: id, Timestamp: Now()},
		Error:       &ErrorPayload{Message: err.Error()},
	}
}

func errInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Error:       &ErrorPayload{Message: "invalid message format"},
	}
	if id > 0 {
		msg.Id = id
	}

	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
