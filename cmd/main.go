package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/eventease/eventease-gobackend/internal/config"
	"github.com/eventease/eventease-gobackend/internal/db"
	"github.com/eventease/eventease-gobackend/internal/handlers"
	"github.com/eventease/eventease-gobackend/internal/services"
	"github.com/eventease/eventease-gobackend/internal/store/mongostore"
	"github.com/eventease/eventease-gobackend/internal/txref"
)

func main() {
	// Load .env
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Error loading .env: %s", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Connect to MongoDB
	ctx := context.Background()
	client, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()
	log.Println("Successfully connected to MongoDB")

	database := client.Database(cfg.DBName)
	if err := mongostore.EnsureIndexes(ctx, database); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// Stores
	eventStore := mongostore.NewEventStore(database)
	txStore := mongostore.NewTransactionStore(database)
	userStore := mongostore.NewUserStore(database)
	recStore := mongostore.NewReconciliationStore(database)

	// Services
	gateway := services.NewChapaClient(cfg.ChapaSecretKey, cfg.ChapaBaseURL)
	mailer := services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	refs := txref.New(txref.DefaultPrefix)

	userService := services.NewUserService(userStore)
	eventService := services.NewEventService(eventStore)
	registrationService := services.NewRegistrationService(
		eventStore, txStore, userStore, gateway, refs,
		cfg.BaseURL+"/api/payment/callback",
		cfg.BaseURL+"/payment/return",
	)
	callbackService := services.NewCallbackService(eventStore, txStore, userStore, recStore, gateway, mailer)

	// Handlers
	jwtSecret := []byte(cfg.JWTSecret)
	userHandler := handlers.NewUserHandler(userService, jwtSecret)
	eventHandler := handlers.NewEventHandler(eventService, jwtSecret)
	paymentHandler := handlers.NewPaymentHandler(registrationService, callbackService, userService, jwtSecret)

	// Set up router
	router := mux.NewRouter()
	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET", "HEAD")

	router.HandleFunc("/api/user", userHandler.CreateUser).Methods("POST")
	router.HandleFunc("/api/login", userHandler.LoginUserHandler).Methods("POST")

	router.HandleFunc("/api/event", eventHandler.CreateEvent).Methods("POST")
	router.HandleFunc("/api/events", eventHandler.ListEvents).Methods("GET")
	router.HandleFunc("/api/event/{eventID}", eventHandler.GetEvent).Methods("GET")

	router.HandleFunc("/api/event/{eventID}/register", paymentHandler.Register).Methods("POST")
	router.HandleFunc("/api/event/{eventID}/checkout", paymentHandler.Checkout).Methods("POST")
	router.HandleFunc("/api/payment/callback", paymentHandler.Callback).Methods("GET", "POST")
	router.HandleFunc("/api/payment/{txRef}", paymentHandler.PaymentStatus).Methods("GET")
	router.HandleFunc("/api/user/payments", paymentHandler.MyPayments).Methods("GET")

	// Start server
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Block until SIGINT or SIGTERM, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Println("server stopped")
}
