package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"retroboard/internal/db"
	"retroboard/internal/handlers"
	"retroboard/internal/middleware"
	"retroboard/internal/observability"
	"retroboard/internal/repositories"
	"retroboard/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		exchange := getEnv("AMQP_EXCHANGE", "board_events")
		publisher, err := observability.NewAMQPPublisher(amqpURL, exchange)
		if err != nil {
			log.Fatalf("failed to connect to amqp: %v", err)
		}
		defer publisher.Close()
		observability.SetPublisher(publisher)
	}

	boardRepo := repositories.NewBoardRepo(database)
	cardRepo := repositories.NewCardRepo(database)
	groupRepo := repositories.NewGroupRepo(database)

	hub := ws.NewHub()

	boardHandler := handlers.NewBoardHandler(boardRepo, hub)
	cardHandler := handlers.NewCardHandler(cardRepo, boardRepo, hub)
	groupHandler := handlers.NewGroupHandler(groupRepo, cardRepo, hub)

	boardWS := ws.NewBoardWebSocketHandler(hub, boardRepo)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("retroboard"))
	router.Use(middleware.RequestID())
	router.Use(observability.HTTPMetricsMiddleware())

	router.POST("/boards", boardHandler.CreateBoard)
	router.GET("/boards/:board_id", boardHandler.GetBoard)
	router.PATCH("/boards/:board_id", boardHandler.UpdateBoard)

	router.POST("/cards", cardHandler.CreateCard)
	router.PATCH("/cards/:card_id", cardHandler.UpdateCard)
	router.DELETE("/cards/:card_id", cardHandler.DeleteCard)
	router.POST("/cards/:card_id/vote", cardHandler.Vote)

	router.POST("/groups", groupHandler.CreateGroup)
	router.PATCH("/groups/:group_id", groupHandler.UpdateGroup)
	router.DELETE("/groups/:group_id", groupHandler.DeleteGroup)
	router.POST("/groups/:group_id/cards", groupHandler.AssignCards)

	router.GET("/ws/boards/:board_id", boardWS.Handle)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
