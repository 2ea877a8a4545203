package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/benbeisheim/chesscore-backend/internal/model"
	"github.com/benbeisheim/chesscore-backend/internal/notation"
	"github.com/benbeisheim/chesscore-backend/internal/service"
	"github.com/benbeisheim/chesscore-backend/internal/storage"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound),
		errors.Is(err, service.ErrNoPieceOnSquare),
		errors.Is(err, storage.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, notation.ErrInvalidFEN),
		errors.Is(err, notation.ErrInvalidSquare),
		errors.Is(err, notation.ErrInvalidMoveToken):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotInGame),
		errors.Is(err, service.ErrNotAuthorized):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrGameEnded),
		errors.Is(err, model.ErrNoPiece),
		errors.Is(err, model.ErrWrongTurn),
		errors.Is(err, model.ErrIllegalMove),
		errors.Is(err, service.ErrGameFull),
		errors.Is(err, service.ErrGameExists),
		errors.Is(err, service.ErrAlreadyQueued):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrArchiveDisabled):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as {"error": ...}. Internal errors are logged and
// not echoed to the client.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
		msg = "internal error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

func destinationList(set model.PositionSet) []string {
	out := make([]string, 0, len(set))
	for _, p := range set.Sorted() {
		out = append(out, p.String())
	}
	return out
}
