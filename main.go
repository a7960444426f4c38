package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidshare/auth"
	"vidshare/db"
	"vidshare/httputil"
	"vidshare/profile"
	"vidshare/provider"
	"vidshare/ratelimit"
	"vidshare/storage"
	"vidshare/videos"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	_ "modernc.org/sqlite"
)

// Config is the explicit process configuration, built once at startup.
type Config struct {
	DBDialect     string // "sqlite" or "postgres"
	DBPath        string // sqlite file path
	DBURL         string // postgres connection string
	MinioEndpoint string
	MinioAccess   string
	MinioSecret   string
	MinioBucket   string
	MinioSSL      bool
	StorageMarker string
	JWTSecret     string
	AllowedOrigin string
	Port          string
}

func loadConfig() Config {
	return Config{
		DBDialect:     getEnv("DB_DIALECT", "sqlite"),
		DBPath:        getEnv("DB_PATH", "/data/vidshare.db"),
		DBURL:         getEnv("DATABASE_URL", ""),
		MinioEndpoint: getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccess:   getEnv("MINIO_ACCESS_KEY", "vidshare"),
		MinioSecret:   getEnv("MINIO_SECRET_KEY", "changeme123"),
		MinioBucket:   getEnv("MINIO_BUCKET", "videos"),
		MinioSSL:      getEnv("MINIO_USE_SSL", "false") == "true",
		StorageMarker: getEnv("STORAGE_MARKER", provider.DefaultStorageMarker),
		JWTSecret:     getEnv("JWT_SECRET", "supersecretkey"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
		Port:          getEnv("PORT", "8080"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func openDatabase(cfg Config) (*sql.DB, db.Dialect, error) {
	if cfg.DBDialect == string(db.DialectPostgres) {
		pg, err := sql.Open("pgx", cfg.DBURL)
		if err != nil {
			return nil, db.DialectPostgres, err
		}
		return pg, db.DialectPostgres, nil
	}

	sq, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, db.DialectSQLite, err
	}

	// Single connection: prevents concurrent write conflicts
	sq.SetMaxOpenConns(1)
	sq.SetMaxIdleConns(1)
	sq.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sq.Exec(pragma); err != nil {
			return nil, db.DialectSQLite, err
		}
	}
	return sq, db.DialectSQLite, nil
}

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}
	cfg := loadConfig()

	rawDB, dialect, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	database := db.NewCompatDB(rawDB, dialect)
	defer database.Close()

	if err := db.RunMigrations(rawDB, dialect); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccess, cfg.MinioSecret, ""),
		Secure: cfg.MinioSSL,
	})
	if err != nil {
		log.Fatalf("failed to connect to minio: %v", err)
	}

	store := storage.New(minioClient, cfg.MinioBucket)
	if err := store.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed to ensure bucket: %v", err)
	}

	authHandler := &auth.Handler{DB: database, JWTSecret: cfg.JWTSecret}
	videoHandler := &videos.Handler{
		DB:         database,
		Store:      store,
		Classifier: provider.New(cfg.StorageMarker),
	}
	profileHandler := &profile.Handler{DB: database}

	authLimiter := ratelimit.New(10, time.Minute)
	uploadLimiter := ratelimit.New(30, time.Hour)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(authLimiter))
		r.Post("/api/auth/register", authHandler.HandleRegister)
		r.Post("/api/auth/login", authHandler.HandleLogin)
	})

	r.Get("/api/videos", authHandler.OptionalAuth(videoHandler.HandleList))
	r.Get("/api/videos/{id}", authHandler.OptionalAuth(videoHandler.HandleGet))
	r.Get("/api/videos/{id}/stream", videoHandler.HandleStream)

	r.Group(func(r chi.Router) {
		r.Use(authHandler.Middleware)
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(uploadLimiter))
			r.Post("/api/videos/upload", videoHandler.HandleUpload)
			r.Post("/api/videos/upload-link", videoHandler.HandleUploadLink)
		})
		r.Get("/api/videos/user/my-videos", videoHandler.HandleMyVideos)
		r.Delete("/api/videos/{id}", videoHandler.HandleDelete)
		r.Post("/api/videos/{id}/like", videoHandler.HandleLike)
		r.Get("/api/me", profileHandler.HandleGetProfile)
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		log.Printf("vidshare API listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	log.Println("server shut down")
}
