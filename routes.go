package main

import "github.com/gin-gonic/gin"

func SetupRoutes(r *gin.Engine, a *API) {

	// Public
	r.GET("/events", a.GetPublicEvents)
	r.GET("/events/:id", a.GetPublicEvent)
	r.GET("/events/:id/comments", a.GetEventComments)
	r.GET("/events/:id/comments/:commentId", a.GetEventComment)
	r.GET("/categories", a.GetCategories)
	r.GET("/categories/:catId", a.GetCategory)
	r.GET("/compilations", a.GetCompilations)
	r.GET("/compilations/:compId", a.GetCompilation)

	// Private
	users := r.Group("/users/:userId")
	{
		// EVENTS
		users.GET("/events", a.GetUserEvents)
		users.POST("/events", a.CreateEvent)
		users.GET("/events/:eventId", a.GetUserEvent)
		users.PATCH("/events/:eventId", a.UpdateUserEvent)
		users.GET("/events/:eventId/requests", a.GetEventRequests)
		users.PATCH("/events/:eventId/requests", a.UpdateRequestStatus)

		// REQUESTS
		users.GET("/requests", a.GetUserRequests)
		users.POST("/requests", a.CreateRequest)
		users.PATCH("/requests/:requestId/cancel", a.CancelRequest)

		// COMMENTS
		users.GET("/comments", a.GetUserComments)
		users.POST("/comments", a.CreateComment)
		users.PATCH("/comments/:commentId", a.UpdateComment)
		users.DELETE("/comments/:commentId", a.DeleteComment)
	}

	// Admin
	admin := r.Group("/admin")
	{
		admin.POST("/users", a.CreateUser)
		admin.GET("/users", a.GetUsers)
		admin.DELETE("/users/:userId", a.DeleteUser)

		admin.POST("/categories", a.CreateCategory)
		admin.PATCH("/categories/:catId", a.UpdateCategory)
		admin.DELETE("/categories/:catId", a.DeleteCategory)

		admin.GET("/events", a.GetAdminEvents)
		admin.PATCH("/events/:eventId", a.UpdateAdminEvent)

		admin.POST("/compilations", a.CreateCompilation)
		admin.PATCH("/compilations/:compId", a.UpdateCompilation)
		admin.DELETE("/compilations/:compId", a.DeleteCompilation)

		admin.GET("/comments", a.GetModerationQueue)
		admin.GET("/comments/pending", a.GetModerationQueue)
		admin.PATCH("/comments/:commentId", a.ModerateComment)
		admin.DELETE("/comments/:commentId", a.AdminDeleteComment)

		admin.GET("/stats", a.GetStats)
	}
}
