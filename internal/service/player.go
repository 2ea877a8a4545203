package service

import (
	"github.com/benbeisheim/chesscore-backend/internal/model"
)

type Player struct {
	ID    string
	Color model.Color
}

// Players is the client view of who holds each colour. An empty id means
// the seat is open.
type Players struct {
	White string `json:"white"`
	Black string `json:"black"`
}

type MatchFoundEvent struct {
	GameID string      `json:"gameId"`
	Color  model.Color `json:"color"`
}
