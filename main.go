package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/bookstore/config"
	"github.com/kevinaaaquil/bookstore/handlers"
	"github.com/kevinaaaquil/bookstore/refsync"
	"github.com/kevinaaaquil/bookstore/service"
	"github.com/kevinaaaquil/bookstore/store"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}
	cfg.LogStatus()

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatal("mongodb:", err)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Println("mongodb disconnect:", err)
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatal("mongodb indexes:", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = service.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("redis:", err)
		}
		defer rdb.Close()
	} else {
		log.Println("warning: REDIS_URL not set; password reset links are not throttled")
	}

	srv := &handlers.Server{
		DB:        db,
		Mail:      service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.MailUser, cfg.MailPass),
		Throttle:  service.NewResetThrottle(rdb, cfg.ResetThrottle),
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		BaseURL:   cfg.BaseURL,
		MaxUpload: cfg.MaxUploadBytes(),
	}
	if cfg.S3Bucket != "" {
		s3Service, err := service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			log.Fatal("s3:", err)
		}
		srv.Images = s3Service
	} else {
		log.Println("warning: AWS_S3_BUCKET not set; uploads will fail")
	}

	engine := refsync.NewEngine(cfg.SyncTimeout)
	engine.Register(refsync.AuthorBooks, db.AuthorBooks())
	engine.Register(refsync.BookReviews, db.BookReviews())
	engine.Register(refsync.UserReviews, db.UserReviews())
	engine.Register(refsync.UserOrders, db.UserOrders())
	srv.Sync = engine

	scheduler := refsync.NewScheduler(engine, cfg.SyncSchedule, cfg.SyncTimeout)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatal("sync scheduler:", err)
	}
	scheduler.RunNow()

	server := &http.Server{Addr: ":" + cfg.Port, Handler: srv.Router()}
	go func() {
		log.Println("server listening on :" + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("shutdown:", err)
	}
	scheduler.Stop()
	engine.Wait()
}
