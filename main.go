package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"ramsy/admin"
	"ramsy/auth"
	"ramsy/db"
	"ramsy/globals"
	"ramsy/idgen"
	"ramsy/profile"
	"ramsy/ratelim"
	"ramsy/rdx"
	"ramsy/recipes"
	"ramsy/routes"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware tags each request with an id and logs method, path,
// remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		r = r.WithContext(context.WithValue(r.Context(), globals.RequestIDKey, requestID))
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s %s from %s – %v", requestID, r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8100"
	} else if port[0] != ':' {
		port = ":" + port
	}

	// storage: MongoDB when configured, in-memory otherwise. The stores are
	// built here and handed to every component; nothing holds them globally.
	var (
		users    db.UserStore
		recStore db.RecipeStore
		mongoDB  *db.Mongo
	)
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		m, err := db.Connect(ctx, uri)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		mongoDB = m
		users, recStore = m.Users, m.Recipes
	} else {
		log.Println("MONGODB_URI not set; using in-memory store")
		mem := db.NewMem()
		users, recStore = mem.Users, mem.Recipes
	}

	// optional redis token cache
	var tokens *rdx.Client
	if url := os.Getenv("REDIS_URL"); url != "" {
		c, err := rdx.New(url)
		if err != nil {
			log.Printf("Redis unavailable, continuing without token cache: %v", err)
		} else {
			tokens = c
		}
	}

	ids := idgen.New(users, recStore)
	svc := recipes.NewService(users, recStore, ids)
	rateLimiter := ratelim.NewRateLimiter()

	router := httprouter.New()
	router.GET("/health", Index)
	routes.AddAuthRoutes(router, auth.NewHandler(users, ids, tokens), rateLimiter)
	routes.AddProfileRoutes(router, profile.NewHandler(users, recStore))
	routes.AddRecipeRoutes(router, recipes.NewHandler(svc, users, recStore))
	routes.AddAdminRoutes(router, admin.NewHandler(users, recStore), users)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	if tokens != nil {
		if err := tokens.Close(); err != nil {
			log.Printf("Redis close failed: %v", err)
		}
	}
	if mongoDB != nil {
		if err := mongoDB.Close(context.Background()); err != nil {
			log.Printf("MongoDB disconnect failed: %v", err)
		}
	}

	log.Println("Server stopped cleanly")
}
