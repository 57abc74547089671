package controller

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/benbeisheim/chessmate-backend/internal/model"
	"github.com/benbeisheim/chessmate-backend/internal/render"
	"github.com/benbeisheim/chessmate-backend/internal/service"
)

type GameController struct {
	gameService *service.GameService
	log         *zap.Logger
}

func NewGameController(gameService *service.GameService, log *zap.Logger) *GameController {
	return &GameController{gameService: gameService, log: log.Named("rest")}
}

// Register mounts the game routes on router.
func (gc *GameController) Register(router fiber.Router) {
	router.Post("/matchmaking/join", gc.JoinMatchmaking)
	router.Post("/matchmaking/leave", gc.LeaveMatchmaking)
	router.Post("/create", gc.CreateGame)
	router.Post("/ai", gc.CreateAIGame)
	router.Post("/join/:gameId", gc.JoinGame)
	router.Get("/:gameId", gc.GetGameState)
	router.Delete("/:gameId", gc.DeleteGame)
	router.Get("/:gameId/moves", gc.LegalMoves)
	router.Get("/:gameId/board.svg", gc.BoardImage)
	router.Post("/:gameId/move", gc.MakeMove)
	router.Post("/:gameId/promote", gc.Promote)
	router.Post("/:gameId/resign", gc.Resign)
	router.Post("/:gameId/draw/offer", gc.OfferDraw)
	router.Post("/:gameId/draw/decline", gc.DeclineDraw)
	router.Get("/:gameId/snapshot", gc.GetSnapshot)
	router.Put("/:gameId/snapshot", gc.PutSnapshot)
	router.Post("/:gameId/sync", gc.Sync)
}

func playerID(c *fiber.Ctx) string {
	id, _ := c.Locals("playerID").(string)
	return id
}

type createGameRequest struct {
	FEN string `json:"fen"`
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	gameID, err := gc.gameService.CreateGame(c.UserContext(), req.FEN)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

type aiGameRequest struct {
	Color model.PieceColor `json:"color"`
}

func (gc *GameController) CreateAIGame(c *fiber.Ctx) error {
	var req aiGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	if req.Color == "" {
		req.Color = model.White
	}
	if req.Color != model.White && req.Color != model.Black {
		return badRequest(c, "color must be white or black")
	}

	gameID, err := gc.gameService.CreateAIGame(c.UserContext(), playerID(c), req.Color)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
		"color":   req.Color,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	color, err := gc.gameService.JoinGame(gameID, playerID(c))
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) DeleteGame(c *fiber.Ctx) error {
	if err := gc.gameService.DeleteGame(c.UserContext(), c.Params("gameId"), playerID(c)); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(gameState)
}

// LegalMoves answers GET /:gameId/moves?from=e2.
func (gc *GameController) LegalMoves(c *fiber.Ctx) error {
	from, err := model.ParseSquare(c.Query("from"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	moves, err := gc.gameService.LegalMoves(c.Params("gameId"), from)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"from":  from,
		"moves": moves,
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var move model.WSMove
	if err := c.BodyParser(&move); err != nil {
		return badRequest(c, "invalid move")
	}
	gameID := c.Params("gameId")
	if err := gc.gameService.HandleMove(c.UserContext(), gameID, playerID(c), move); err != nil {
		return sendError(c, err)
	}
	return gc.GetGameState(c)
}

type promoteRequest struct {
	Piece model.PieceType `json:"piece"`
}

func (gc *GameController) Promote(c *fiber.Ctx) error {
	var req promoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := gc.gameService.HandlePromotion(c.UserContext(), c.Params("gameId"), playerID(c), req.Piece); err != nil {
		return sendError(c, err)
	}
	return gc.GetGameState(c)
}

func (gc *GameController) Resign(c *fiber.Ctx) error {
	if err := gc.gameService.Resign(c.UserContext(), c.Params("gameId"), playerID(c)); err != nil {
		return sendError(c, err)
	}
	return gc.GetGameState(c)
}

func (gc *GameController) OfferDraw(c *fiber.Ctx) error {
	if err := gc.gameService.OfferDraw(c.UserContext(), c.Params("gameId"), playerID(c)); err != nil {
		return sendError(c, err)
	}
	return gc.GetGameState(c)
}

func (gc *GameController) DeclineDraw(c *fiber.Ctx) error {
	if err := gc.gameService.DeclineDraw(c.UserContext(), c.Params("gameId"), playerID(c)); err != nil {
		return sendError(c, err)
	}
	return gc.GetGameState(c)
}

type snapshotEnvelope struct {
	Version  int64          `json:"version"`
	Snapshot model.Snapshot `json:"snapshot"`
}

func (gc *GameController) GetSnapshot(c *fiber.Ctx) error {
	snap, version, err := gc.gameService.Snapshot(c.Params("gameId"))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(snapshotEnvelope{Version: version, Snapshot: snap})
}

// PutSnapshot publishes a canonical snapshot for the game.
func (gc *GameController) PutSnapshot(c *fiber.Ctx) error {
	var env snapshotEnvelope
	if err := c.BodyParser(&env); err != nil {
		return badRequest(c, "invalid snapshot")
	}
	gameID := c.Params("gameId")
	if err := gc.gameService.ApplySnapshot(c.UserContext(), gameID, env.Version, env.Snapshot); err != nil {
		return sendError(c, err)
	}
	gc.log.Info("snapshot applied", zap.String("gameId", gameID), zap.Int64("version", env.Version))
	return gc.GetGameState(c)
}

func (gc *GameController) Sync(c *fiber.Ctx) error {
	if err := gc.gameService.Sync(c.UserContext(), c.Params("gameId")); err != nil {
		return sendError(c, err)
	}
	return gc.GetGameState(c)
}

// BoardImage renders the current position as SVG. ?flip=true draws it from
// Black's side.
func (gc *GameController) BoardImage(c *fiber.Ctx) error {
	state, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return sendError(c, err)
	}

	opts := render.Options{
		Flipped:  c.QueryBool("flip", false),
		LastMove: state.LastMove,
	}
	if state.IsCheck {
		for _, p := range state.Board {
			if p.Type == model.King && p.Color == state.ToMove {
				opts.Check = &model.Position{Row: p.Row, Col: p.Col}
			}
		}
	}

	var buf bytes.Buffer
	render.Board(&buf, state.Board, opts)
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.Send(buf.Bytes())
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	if err := gc.gameService.JoinMatchmaking(playerID(c)); err != nil {
		return sendError(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "queued",
	})
}

func (gc *GameController) LeaveMatchmaking(c *fiber.Ctx) error {
	if !gc.gameService.LeaveMatchmaking(playerID(c)) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "player not in queue",
		})
	}
	return c.JSON(fiber.Map{
		"status": "left",
	})
}
