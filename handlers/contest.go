// handlers/contest.go
package handlers

import (
	"contest-platform/middleware"
	"contest-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupContestRoutes(
	app *fiber.App,
	auth *services.AuthService,
	contestService *services.ContestService,
	participationService *services.ParticipationService,
	entryService *services.EntryService,
	voteService *services.VoteService,
	winnerService *services.WinnerService,
	userService *services.UserService,
) {
	jwtAuth := middleware.JWTAuthMiddleware(auth)

	// Public routes
	app.Get("/contests", contestService.GetAllContests)
	app.Get("/contests/:id", contestService.GetContestByID)
	app.Get("/contests/:id/participants", participationService.GetParticipants)
	app.Get("/entries/:entry_id", middleware.OptionalJWTAuth(auth), entryService.GetEntryByID)
	app.Get("/users/:user_id/entries", entryService.GetUserEntries)

	// Authenticated routes
	app.Post("/contests/:id/register", jwtAuth, participationService.RegisterForContest)
	app.Get("/me/participations", jwtAuth, participationService.GetMyParticipations)
	app.Get("/contests/:id/referral/:participation_id", jwtAuth, participationService.GetReferralLink)

	app.Post("/contests/:id/entries", jwtAuth, entryService.UploadEntry)
	app.Get("/me/entries", jwtAuth, entryService.GetMyEntries)

	app.Post("/contests/:id/vote", jwtAuth, voteService.VoteForEntry)

	app.Get("/me", jwtAuth, userService.Me)
	app.Post("/me/bookmarks/:contest_id", jwtAuth, userService.ToggleBookmark)
	app.Get("/me/bookmarks", jwtAuth, userService.GetBookmarkedContests)
	app.Post("/me/deletion-request", jwtAuth, userService.RequestDeletion)

	// Operator routes
	admin := app.Group("/admin", middleware.AdminAuthMiddleware())

	admin.Post("/contests", contestService.CreateContest)
	admin.Get("/contests/:id/winners/preview", winnerService.GetPotentialWinners)
	admin.Post("/contests/:id/winners/publish", winnerService.PublishWinners)
}
