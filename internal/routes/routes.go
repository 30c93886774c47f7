package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mvachon/TeamRosterBack/internal/config"
	"github.com/mvachon/TeamRosterBack/internal/handlers"
	"github.com/mvachon/TeamRosterBack/internal/middleware"
	"github.com/mvachon/TeamRosterBack/internal/repository"
	"github.com/mvachon/TeamRosterBack/internal/services"
	ledgerws "github.com/mvachon/TeamRosterBack/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	playerRepo := repository.NewPlayerRepository(db)
	noteRepo := repository.NewPracticeNoteRepository(db)

	ledgerHub := ledgerws.NewHub()
	go ledgerHub.Run()

	attendanceService := services.NewAttendanceService(db, teamRepo, playerRepo, ledgerHub)
	paymentService := services.NewPaymentService(db, teamRepo, playerRepo, ledgerHub)
	ledgerService := services.NewLedgerService(db, teamRepo, playerRepo, ledgerHub)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	teamHandler := handlers.NewTeamHandler(teamRepo)
	playerHandler := handlers.NewPlayerHandler(teamRepo, playerRepo)
	noteHandler := handlers.NewNoteHandler(teamRepo, noteRepo)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	balanceHandler := handlers.NewBalanceHandler(ledgerService)
	ledgerFeedHandler := handlers.NewLedgerFeedHandler(teamRepo, ledgerHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	teams := authProtected.Group("/teams")
	teams.Post("", teamHandler.CreateTeam)
	teams.Get("", teamHandler.ListTeams)
	teams.Get("/:teamId", teamHandler.GetTeam)
	teams.Put("/:teamId", teamHandler.UpdateTeam)
	teams.Delete("/:teamId", teamHandler.DeleteTeam)

	players := teams.Group("/:teamId/players")
	players.Post("", playerHandler.CreatePlayer)
	players.Get("", playerHandler.ListPlayers)
	players.Put("/:playerId", playerHandler.UpdatePlayer)
	players.Delete("/:playerId", playerHandler.DeletePlayer)

	notes := teams.Group("/:teamId/notes")
	notes.Post("", noteHandler.CreateNote)
	notes.Get("", noteHandler.ListNotes)
	notes.Delete("/:noteId", noteHandler.DeleteNote)

	attendance := teams.Group("/:teamId/attendance")
	attendance.Put("/:date", attendanceHandler.SubmitAttendance)
	attendance.Get("/:date", attendanceHandler.GetAttendance)

	payments := teams.Group("/:teamId/payments")
	payments.Post("", paymentHandler.CreatePayment)
	payments.Get("", paymentHandler.ListPayments)

	teams.Get("/:teamId/balances", balanceHandler.ListBalances)
	teams.Get("/:teamId/transactions", balanceHandler.ListTeamTransactions)
	balances := teams.Group("/:teamId/players/:playerId")
	balances.Get("/balance", balanceHandler.GetBalance)
	balances.Put("/balance", balanceHandler.AdjustBalance)
	balances.Get("/transactions", balanceHandler.ListTransactions)
	balances.Get("/payments", paymentHandler.ListPlayerPayments)

	api.Use("/v1/ws", ledgerFeedHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(ledgerFeedHandler.HandleWebSocket))
}
