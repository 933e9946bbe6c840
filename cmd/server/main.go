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

	"agrimarket/internal/api"
	"agrimarket/internal/app/service"
	"agrimarket/internal/app/worker"
	"agrimarket/internal/common/security"
	"agrimarket/internal/domain/repository"
	"agrimarket/internal/platform/config"
	"agrimarket/internal/platform/database"
	"agrimarket/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	cropRepo := repository.NewPgCropRepository(database.DB)
	orderRepo := repository.NewPgOrderRepository(database.DB)
	analysisJobRepo := repository.NewPgAnalysisJobRepository(database.DB)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	cropService := service.NewCropService(cropRepo, orderRepo, userRepo)
	orderService := service.NewOrderService(orderRepo, cropRepo, userRepo)
	analysisService := service.NewAnalysisService(analysisJobRepo, cropRepo, queue.RDB)

	// 7. Initialize Analysis Worker (as a goroutine)
	analysisWorker := worker.NewAnalysisWorker(queue.RDB, analysisJobRepo, cropRepo)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go analysisWorker.Start(workerCtx)
	fmt.Println("Analysis worker started.")

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(authService, userService, cropService, orderService, analysisService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and worker stopped gracefully.")
}
