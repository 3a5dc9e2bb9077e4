package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"citypulse/db"
	"citypulse/handlers"
	"citypulse/hub"
	"citypulse/middleware"
	"citypulse/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGODB_DB")
	if dbName == "" {
		dbName = "citypulse"
	}

	database, err := db.Connect(mongoURI, dbName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := db.EnsureIndexes(context.Background(), database); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr, DB: redisDB})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Printf("Redis unavailable, caching disabled: %v", err)
		redisClient = nil
	}

	presenceHub := hub.NewHub()
	defer presenceHub.Stop()

	users := database.Collection("users")
	events := database.Collection("events")
	posts := database.Collection("posts")
	follows := database.Collection("follows")
	notifications := database.Collection("notifications")

	var images services.ImageStore
	if imageStoreURL := os.Getenv("IMAGE_STORE_URL"); imageStoreURL != "" {
		images = services.NewHTTPImageStore(imageStoreURL)
	}

	userService := services.NewUserService(users, redisClient, jwtSecret, images)
	notificationService := services.NewNotificationService(notifications, users, presenceHub)
	geoService := services.NewGeoService(users, userService, redisClient, os.Getenv("NOMINATIM_URL"))
	followService := services.NewFollowService(follows, users, userService, notificationService)
	eventService := services.NewEventService(events, userService, notificationService, images)
	postService := services.NewPostService(posts, events, userService, notificationService, images)

	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService, followService)
	eventHandler := handlers.NewEventHandler(eventService)
	postHandler := handlers.NewPostHandler(postService)
	followHandler := handlers.NewFollowHandler(followService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	geoHandler := handlers.NewGeoHandler(geoService)
	wsHandler := handlers.NewWSHandler(presenceHub, jwtSecret)

	r := mux.NewRouter()

	allowedOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		allowedOrigins = strings.Split(origins, ",")
	}
	r.Use(middleware.CORSMiddleware(allowedOrigins))
	r.Use(middleware.ErrorMiddleware())

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", authHandler.Signup).Methods("POST", "OPTIONS")
	auth.HandleFunc("/login", authHandler.Login).Methods("POST", "OPTIONS")
	auth.HandleFunc("/logout", authHandler.Logout).Methods("POST", "OPTIONS")

	authed := r.PathPrefix("/auth").Subrouter()
	authed.Use(middleware.JWTMiddleware(jwtSecret))
	authed.HandleFunc("/check", authHandler.CheckAuth).Methods("GET", "OPTIONS")

	userRouter := r.PathPrefix("/users").Subrouter()
	userRouter.Use(middleware.JWTMiddleware(jwtSecret))
	userRouter.HandleFunc("/profile", authHandler.UpdateProfile).Methods("PATCH", "OPTIONS")
	userRouter.HandleFunc("/search", userHandler.SearchUsers).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/{identifier}", userHandler.GetUser).Methods("GET", "OPTIONS")

	eventRouter := r.PathPrefix("/events").Subrouter()
	eventRouter.Use(middleware.JWTMiddleware(jwtSecret))
	eventRouter.HandleFunc("", eventHandler.Create).Methods("POST", "OPTIONS")
	eventRouter.HandleFunc("/nearby", eventHandler.Nearby).Methods("GET", "OPTIONS")
	eventRouter.HandleFunc("/my-events", eventHandler.MyEvents).Methods("GET", "OPTIONS")
	eventRouter.HandleFunc("/user/{userId}", eventHandler.UserEvents).Methods("GET", "OPTIONS")
	eventRouter.HandleFunc("/{id}", eventHandler.Get).Methods("GET", "OPTIONS")
	eventRouter.HandleFunc("/{id}", eventHandler.Update).Methods("PUT", "OPTIONS")
	eventRouter.HandleFunc("/{id}", eventHandler.Delete).Methods("DELETE", "OPTIONS")
	eventRouter.HandleFunc("/{id}/rsvp", eventHandler.RSVP).Methods("POST", "OPTIONS")
	eventRouter.HandleFunc("/{id}/invite", eventHandler.Invite).Methods("POST", "OPTIONS")

	postRouter := r.PathPrefix("/posts").Subrouter()
	postRouter.Use(middleware.JWTMiddleware(jwtSecret))
	postRouter.HandleFunc("", postHandler.Create).Methods("POST", "OPTIONS")
	postRouter.HandleFunc("/nearby", postHandler.Nearby).Methods("GET", "OPTIONS")
	postRouter.HandleFunc("/feed", postHandler.FollowingFeed).Methods("GET", "OPTIONS")
	postRouter.HandleFunc("/user/{userId}", postHandler.ByUser).Methods("GET", "OPTIONS")
	postRouter.HandleFunc("/{id}/like", postHandler.ToggleLike).Methods("POST", "OPTIONS")
	postRouter.HandleFunc("/{id}", postHandler.Delete).Methods("DELETE", "OPTIONS")

	followRouter := r.PathPrefix("/follow").Subrouter()
	followRouter.Use(middleware.JWTMiddleware(jwtSecret))
	followRouter.HandleFunc("/{userId}", followHandler.Follow).Methods("POST", "OPTIONS")
	followRouter.HandleFunc("/{userId}", followHandler.Unfollow).Methods("DELETE", "OPTIONS")
	followRouter.HandleFunc("/{userId}/status", followHandler.Status).Methods("GET", "OPTIONS")
	followRouter.HandleFunc("/{userId}/followers", followHandler.Followers).Methods("GET", "OPTIONS")
	followRouter.HandleFunc("/{userId}/following", followHandler.Following).Methods("GET", "OPTIONS")

	notificationRouter := r.PathPrefix("/notifications").Subrouter()
	notificationRouter.Use(middleware.JWTMiddleware(jwtSecret))
	notificationRouter.HandleFunc("", notificationHandler.List).Methods("GET", "OPTIONS")
	notificationRouter.HandleFunc("/read-all", notificationHandler.MarkAllRead).Methods("PATCH", "OPTIONS")
	notificationRouter.HandleFunc("/{id}/read", notificationHandler.MarkRead).Methods("PATCH", "OPTIONS")
	notificationRouter.HandleFunc("/{id}", notificationHandler.Delete).Methods("DELETE", "OPTIONS")

	geoRouter := r.PathPrefix("/geo").Subrouter()
	geoRouter.Use(middleware.JWTMiddleware(jwtSecret))
	geoRouter.HandleFunc("/settings", geoHandler.Settings).Methods("GET", "OPTIONS")
	geoRouter.HandleFunc("/settings", geoHandler.UpdateSettings).Methods("PATCH", "OPTIONS")
	geoRouter.HandleFunc("/current-city", geoHandler.SetCurrentCity).Methods("PUT", "OPTIONS")
	geoRouter.HandleFunc("/cities", geoHandler.SearchCities).Methods("GET", "OPTIONS")
	geoRouter.HandleFunc("/distance", geoHandler.Distance).Methods("POST", "OPTIONS")

	// Websocket auth happens inside the handler; the token rides a query
	// parameter because browsers cannot set headers on upgrade requests.
	r.HandleFunc("/ws", wsHandler.Connect).Methods("GET")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
