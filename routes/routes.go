package routes

import (
	"ramsy/admin"
	"ramsy/auth"
	"ramsy/db"
	"ramsy/middleware"
	"ramsy/profile"
	"ramsy/ratelim"
	"ramsy/recipes"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, h *auth.Handler, rl *ratelim.RateLimiter) {
	router.PUT("/signin", rl.Limit(h.Register))
	router.POST("/auth", rl.Limit(h.Login))
	router.POST("/logout", middleware.Authenticate(h.Logout))
}

func AddProfileRoutes(router *httprouter.Router, h *profile.Handler) {
	router.GET("/profile/:user_id", middleware.Authenticate(h.GetProfile))
	router.DELETE("/profile/:user_id/delete", middleware.Authenticate(h.DeleteUser))
	router.POST("/profile/:user_id/favorites/:recipe_id", middleware.Authenticate(h.AddFavorite))
	router.DELETE("/profile/:user_id/favorites/:recipe_id", middleware.Authenticate(h.RemoveFavorite))
	router.GET("/peoples", middleware.Authenticate(h.ExplorePeoples))
}

func AddRecipeRoutes(router *httprouter.Router, h *recipes.Handler) {
	router.GET("/recipes", middleware.Authenticate(h.GetRecipes))
	router.POST("/recipes", middleware.Authenticate(h.CreateRecipe))
	router.GET("/recipes/:recipe_id", middleware.Authenticate(h.GetRecipe))
	router.PUT("/recipes/:recipe_id", middleware.Authenticate(h.UpdateRecipe))
	router.DELETE("/recipes/:recipe_id", middleware.Authenticate(h.DeleteRecipe))
	router.POST("/recipes/:recipe_id/like", middleware.Authenticate(h.LikeRecipe))
	router.GET("/recipes/:recipe_id/image", middleware.Authenticate(h.GetRecipeImage))
	router.GET("/hashtags", middleware.Authenticate(h.GetHashtags))
}

func AddAdminRoutes(router *httprouter.Router, h *admin.Handler, users db.UserStore) {
	router.PUT("/admin/users/:user_id/status",
		middleware.Authenticate(middleware.AdminOnly(users, h.SetUserStatus)))
	router.PUT("/admin/recipes/:recipe_id/status",
		middleware.Authenticate(middleware.AdminOnly(users, h.SetRecipeStatus)))
}
