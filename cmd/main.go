package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"forum/pkg/config"
	"forum/pkg/events"
	"forum/pkg/feed"
	"forum/pkg/interaction"
	"forum/pkg/logger"
	"forum/pkg/middleware"
	"forum/pkg/notification"
	"forum/pkg/post"
	"forum/pkg/sessions"
	"forum/pkg/storage"
	"forum/pkg/user"
	"forum/pkg/user/api"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	runSeed := flag.Bool("seed", false, "seed demo content and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalln("main: can't load config:", err)
	}

	appLogger := logger.Run(cfg.LogLevel)
	defer appLogger.Sync()

	snaps, err := storage.Open(cfg.DataDir)
	if err != nil {
		log.Fatalln("main: can't open snapshot storage:", err)
	}
	defer snaps.Close()

	sessionManager := sessions.NewManager(cfg.SecretKey)

	userStore, err := user.NewStore(snaps)
	if err != nil {
		log.Fatalln("main: can't build user store:", err)
	}
	postStore, err := post.NewStore(snaps, sessionManager)
	if err != nil {
		log.Fatalln("main: can't build post store:", err)
	}
	notificationStore, err := notification.NewStore(snaps)
	if err != nil {
		log.Fatalln("main: can't build notification store:", err)
	}
	interactionStore, err := interaction.NewStore(snaps, sessionManager)
	if err != nil {
		log.Fatalln("main: can't build interaction store:", err)
	}

	if *runSeed || cfg.Seed {
		if err := seed(userStore, postStore, sessionManager); err != nil {
			log.Fatalln("main: seeding failed:", err)
		}
		appLogger.Info("demo content seeded")
		if *runSeed {
			return
		}
	}

	hub := events.NewHub()
	postStore.Subscribe(func([]post.Post) {
		hub.Broadcast(events.Event{Type: "posts/changed"})
	})
	userStore.Subscribe(func([]user.User) {
		hub.Broadcast(events.Event{Type: "users/changed"})
	})
	notificationStore.Subscribe(func([]notification.Notification) {
		hub.Broadcast(events.Event{Type: "notifications/changed"})
	})
	interactionStore.Subscribe(func(interaction.State) {
		hub.Broadcast(events.Event{Type: "interactions/changed"})
	})

	postHandler := post.NewPostHandler(postStore, userStore, notificationStore)
	userHandler := api.NewUserHandler(userStore, sessionManager, notificationStore)
	notificationHandler := notification.NewHandler(notificationStore)
	interactionHandler := interaction.NewHandler(interactionStore)
	feedHandler := feed.NewFeedHandler(postStore, userStore)

	r := mux.NewRouter()
	apiRouter := r.PathPrefix("/api").Subrouter()

	// Feed
	apiRouter.HandleFunc("/posts/", feedHandler.List).Methods("GET")
	apiRouter.HandleFunc("/posts/category/{category}", postHandler.GetCategory).Methods("GET")

	// Posts
	apiRouter.HandleFunc("/posts", postHandler.Add).Methods("POST")
	apiRouter.HandleFunc("/post/{post_id}", postHandler.Get).Methods("GET")
	apiRouter.HandleFunc("/post/{post_id}", postHandler.Update).Methods("PATCH")
	apiRouter.HandleFunc("/post/{post_id}", postHandler.Delete).Methods("DELETE")
	apiRouter.HandleFunc("/post/{post_id}/upvote", postHandler.Upvote).Methods("POST")
	apiRouter.HandleFunc("/post/{post_id}/downvote", postHandler.Downvote).Methods("POST")
	apiRouter.HandleFunc("/post/{post_id}/unvote", postHandler.Unvote).Methods("POST")
	apiRouter.HandleFunc("/post/{post_id}/like", postHandler.Like).Methods("POST")
	apiRouter.HandleFunc("/post/{post_id}/bookmark", postHandler.Bookmark).Methods("POST")

	// Comments
	apiRouter.HandleFunc("/post/{post_id}/comments", postHandler.AddComment).Methods("POST")
	apiRouter.HandleFunc("/post/{post_id}/comments/{comment_id}", postHandler.EditComment).Methods("PATCH")
	apiRouter.HandleFunc("/post/{post_id}/comments/{comment_id}", postHandler.DeleteComment).Methods("DELETE")
	apiRouter.HandleFunc("/post/{post_id}/comments/{comment_id}/vote", postHandler.VoteComment).Methods("POST")

	// Users
	apiRouter.HandleFunc("/register", userHandler.Register).Methods("POST")
	apiRouter.HandleFunc("/login", userHandler.LogIn).Methods("POST")
	apiRouter.HandleFunc("/logout", userHandler.LogOut).Methods("POST")
	apiRouter.HandleFunc("/user/{username}", userHandler.Profile).Methods("GET")
	apiRouter.HandleFunc("/user/{user_id}/posts", postHandler.GetByUser).Methods("GET")
	apiRouter.HandleFunc("/user/{user_id}/follow", userHandler.Follow).Methods("POST")
	apiRouter.HandleFunc("/user/{user_id}/follow", userHandler.Unfollow).Methods("DELETE")
	apiRouter.HandleFunc("/profile", userHandler.UpdateProfile).Methods("PATCH")
	apiRouter.HandleFunc("/preferences", userHandler.UpdatePreferences).Methods("PATCH")

	// Notifications
	apiRouter.HandleFunc("/notifications", notificationHandler.List).Methods("GET")
	apiRouter.HandleFunc("/notifications/read", notificationHandler.MarkAllRead).Methods("POST")
	apiRouter.HandleFunc("/notifications/{notification_id}/read", notificationHandler.MarkRead).Methods("POST")
	apiRouter.HandleFunc("/notifications/{notification_id}", notificationHandler.Clear).Methods("DELETE")

	// Interactions
	apiRouter.HandleFunc("/post/{post_id}/reactions", interactionHandler.React).Methods("POST")
	apiRouter.HandleFunc("/post/{post_id}/reactions", interactionHandler.Unreact).Methods("DELETE")
	apiRouter.HandleFunc("/post/{post_id}/report", interactionHandler.Report).Methods("POST")
	apiRouter.HandleFunc("/post/{post_id}/share", interactionHandler.Share).Methods("POST")
	apiRouter.HandleFunc("/post/{post_id}/analytics", interactionHandler.Analytics).Methods("GET")
	apiRouter.HandleFunc("/bookmarks", interactionHandler.Bookmarks).Methods("GET")
	apiRouter.HandleFunc("/bookmarks/{post_id}", interactionHandler.Bookmark).Methods("POST")
	apiRouter.HandleFunc("/reports/{report_id}", interactionHandler.ReportStatus).Methods("PATCH")

	// Store change feed
	apiRouter.HandleFunc("/events", hub.Serve).Methods("GET")

	auth := middleware.NewAuthMiddleware(sessionManager, userStore)
	r.Use(auth.Middleware)

	logMiddleware := middleware.NewLoggingMiddleware(appLogger)
	r.Use(logMiddleware.SetupTracing)
	r.Use(logMiddleware.SetupLogging)
	r.Use(logMiddleware.AccessLog)

	appLogger.Infow("serving", "addr", cfg.Addr)
	log.Fatalln(http.ListenAndServe(cfg.Addr, r))
}
