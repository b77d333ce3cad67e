package web

import (
	"encoding/json"
	"strconv"

	"github.com/bcspragu/Set/set"
)

// GameUpdate is sent to a game's watchers after every move.
type GameUpdate struct {
	GameID set.GameID `json:"game_id"`
	View   *set.View  `json:"view"`
}

func (gu *GameUpdate) MarshalJSON() ([]byte, error) {
	type noMethods GameUpdate
	return withAction("GAME_UPDATE", (*noMethods)(gu))
}

// withAction marshals msg, which must encode to a JSON object, with an extra
// "action" field that clients use to tell messages apart.
func withAction(action string, msg interface{}) ([]byte, error) {
	dat, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(dat, &fields); err != nil {
		return nil, err
	}
	fields["action"] = json.RawMessage(strconv.Quote(action))

	return json.Marshal(fields)
}
