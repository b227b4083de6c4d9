// protoschema dumps JSON Schemas for the wire protocol payloads, keeping
// protocol documentation in sync with the structs that define it.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/MS-707/3DGame/internal/proto"
)

func main() {
	payloads := map[string]any{
		proto.KindPlayerJoined:  proto.PlayerSnapshot{},
		proto.KindPlayerLeft:    proto.PlayerLeft{},
		proto.KindPlayerMoved:   proto.PlayerMoved{},
		proto.KindPlayerShot:    proto.PlayerShot{},
		proto.KindPlayerHit:     proto.PlayerHit{},
		proto.KindPlayerRespawn: proto.PlayerRespawn{},
		proto.KindGameState:     proto.GameState{},
		proto.KindChatMessage:   proto.ChatMessage{},
		proto.KindPing:          proto.Ping{},
		proto.KindPong:          proto.Pong{},
	}

	schemas := make(map[string]*jsonschema.Schema, len(payloads))
	for kind, payload := range payloads {
		schemas[kind] = jsonschema.Reflect(payload)
	}

	out, err := json.MarshalIndent(schemas, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "protoschema: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
