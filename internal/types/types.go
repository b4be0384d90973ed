package types

// RoomState is the lifecycle phase of a room.
type RoomState string

const (
	RoomStateWaiting RoomState = "WAITING"
	RoomStatePlaying RoomState = "PLAYING"
	RoomStateEnded   RoomState = "ENDED"
)

// User is one player. Id is the current connection identifier and changes
// across reconnects; SessionId is the stable identifier the client persists
// and presents when rejoining.
type User struct {
	Id        string `json:"id"`
	SessionId string `json:"sessionId"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
	Color     string `json:"color"`
	Score     int    `json:"score"`
	Combo     int    `json:"combo"`
	Room      string `json:"room"`
	IsOwner   bool   `json:"isOwner"`
}

// RoomSettings are the client-supplied round parameters. MaxPlayers is
// overwritten with the server-side ceiling on room creation.
type RoomSettings struct {
	MaxPlayers int    `json:"maxPlayers"`
	Language   string `json:"language"`
	Duration   int    `json:"duration"`
	WordCount  int    `json:"wordCount"`
}

// SettingsOverride carries optional setting changes applied when a round is
// (re)started. Zero values leave the current setting untouched.
type SettingsOverride struct {
	Duration  int    `json:"duration,omitempty"`
	WordCount int    `json:"wordCount,omitempty"`
	Language  string `json:"language,omitempty"`
}

type Room struct {
	Id       string       `json:"id"`
	Users    []*User      `json:"users"`
	State    RoomState    `json:"state"`
	Settings RoomSettings `json:"settings"`
	Words    []*Word      `json:"words"`
	Timer    int          `json:"timer"`
}

// TypingUser is one player's partial progress on a word. Entries are kept in
// the order players started typing the word, which makes equal-length ties
// deterministic.
type TypingUser struct {
	UserId string `json:"userId"`
	Typed  string `json:"typed"`
}

// Word is one active target on the grid. Typed and Owner are a display cache
// derived from the typer holding the longest prefix.
type Word struct {
	Id          string       `json:"id"`
	Text        string       `json:"text"`
	X           int          `json:"x"`
	Y           int          `json:"y"`
	Typed       string       `json:"typed"`
	Owner       string       `json:"owner,omitempty"`
	TypingUsers []TypingUser `json:"typingUsers,omitempty"`
}
