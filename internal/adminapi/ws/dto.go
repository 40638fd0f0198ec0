package ws

import "github.com/radieske/betbot/pkg/contracts/events"

// AllMatches assina todas as partidas
const AllMatches = "*"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// MatchID: obrigatório para subscribe/unsubscribe ("*" = todas)
type ClientMsg struct {
	Type    string `json:"type"`
	MatchID string `json:"matchId"`
}

// ServerMsg é o envelope enviado aos clientes
type ServerMsg struct {
	Type    string             `json:"type"` // odds | pong | error
	MatchID string             `json:"matchId,omitempty"`
	Payload *events.OddsUpdate `json:"payload,omitempty"`
	Error   string             `json:"error,omitempty"`
}
