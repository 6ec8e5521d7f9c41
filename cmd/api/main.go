package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"veridax/internal/adapter/api"
	"veridax/internal/adapter/api/handler"
	apimiddleware "veridax/internal/adapter/api/middleware"
	"veridax/internal/adapter/api/router"
	"veridax/internal/adapter/repository"
	"veridax/internal/domain/service"
	"veridax/internal/infrastructure/storage"
	"veridax/internal/infrastructure/websocket"
	"veridax/internal/usecase"
	"veridax/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption
	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")

	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
		serviceAccountPath = ""
	} else {
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	// GCS when a bucket is configured, local disk otherwise.
	var storageClient service.FileStorageService
	if cfg.StorageBucket != "" {
		storageClient, err = storage.NewCloudStorageClient(ctx, cfg.StorageBucket, serviceAccountPath)
	} else {
		storageClient, err = storage.NewLocalStorageClient(cfg.UploadDir, cfg.UploadURLPrefix)
	}
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	chatUseCase := usecase.NewChatUseCase(conversationRepo, userRepo, wsManager)
	attachmentUseCase := usecase.NewAttachmentUseCase(storageClient, cfg.MaxUploadBytes)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	chatHandler := handler.NewChatHandler(chatUseCase, attachmentUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware)
	healthHandler := handler.NewHealthHandler()

	router.SetupHealthRouter(e, healthHandler)
	router.SetupChatRouter(e, chatHandler, authMiddleware)
	router.SetupWebSocketRouter(e, wsHandler)

	if cfg.StorageBucket == "" {
		e.Static(cfg.UploadURLPrefix, cfg.UploadDir)
	}

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
