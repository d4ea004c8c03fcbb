package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/minio/minio-go/v7"

	"Bt1Clip/cache"
	"Bt1Clip/config"
	"Bt1Clip/core/media"
	"Bt1Clip/core/session"
	"Bt1Clip/db"
	"Bt1Clip/logger"
	"Bt1Clip/model"
	"Bt1Clip/repository"
	"Bt1Clip/storage"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 初始化 MinIO 客户端
	if err := storage.InitMinio(); err != nil {
		logger.Fatal("MinIO 初始化失败", logger.ErrorField(err))
	}

	// 连接数据库
	if err := db.Connect(cfg); err != nil {
		logger.Fatal("数据库连接失败", logger.ErrorField(err))
	}
	defer db.Close()

	if err := db.AutoMigrate(&model.User{}, &model.MediaItem{}, &model.Project{}); err != nil {
		logger.Fatal("数据库迁移失败", logger.ErrorField(err))
	}

	// 连接 Redis
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Fatal("Redis 连接失败", logger.ErrorField(err))
	}
	defer cache.CloseRedis()

	userRepo := repository.NewGormUserRepository(db.DB)
	mediaRepo := repository.NewGormMediaRepository(db.DB)
	projectRepo := repository.NewGormProjectRepository(db.DB)
	projects := cache.NewProjectCache()
	prober := media.NewProber(cfg.FFprobePath)
	resolver := storage.NewMediaSourceResolver(cfg.MinioBucket)

	// 会话 Hub
	hub := session.NewHub()
	go hub.Run()
	defer hub.Stop()

	// 样例素材目录监听
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	watcher := media.NewSampleWatcher(cfg.SampleDir, cfg.MinioBucket, prober, mediaRepo)
	go func() {
		if err := watcher.Start(watchCtx); err != nil && err != context.Canceled {
			logger.Warn("样例目录监听退出", logger.ErrorField(err))
		}
	}()

	// 初始化处理器
	apiHandler := NewAPIHandler(userRepo, mediaRepo, projectRepo, projects, prober, resolver, hub, cfg)
	editorHandler := NewEditorHandler(apiHandler)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 用户认证相关的API端点
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)

	// 素材库相关的API端点
	router.HandleFunc("/api/media", apiHandler.AuthMiddleware(apiHandler.ListMediaHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/media/upload", apiHandler.AuthMiddleware(apiHandler.UploadMediaHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/media/{id}/url", apiHandler.AuthMiddleware(apiHandler.MediaURLHandler)).Methods(http.MethodGet)

	// 工程相关的API端点
	router.HandleFunc("/api/projects", apiHandler.AuthMiddleware(apiHandler.CreateProjectHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/projects", apiHandler.AuthMiddleware(apiHandler.ListProjectsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/projects/{id}", apiHandler.AuthMiddleware(apiHandler.GetProjectHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/projects/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteProjectHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/projects/{id}/export", apiHandler.AuthMiddleware(apiHandler.ExportProjectHandler)).Methods(http.MethodPost)

	// 编辑会话 WebSocket
	RegisterEditorRoutes(router, editorHandler)

	// 添加MinIO文件服务路由（素材直读，主要给回退路径用）
	router.PathPrefix("/media/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objectPath := strings.TrimPrefix(r.URL.Path, "/")
		client := storage.GetMinioClient()
		if client == nil {
			http.Error(w, "MinIO client not available", http.StatusInternalServerError)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		object, err := client.GetObject(ctx, cfg.MinioBucket, objectPath, minio.GetObjectOptions{})
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer object.Close()

		if t, ok := media.TypeForFilename(objectPath); ok && t == model.TrackTypeAudio {
			w.Header().Set("Content-Type", "audio/mpeg")
		} else {
			w.Header().Set("Content-Type", "video/mp4")
		}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Cache-Control", "public, max-age=31536000") // 缓存一年

		if _, err := io.Copy(w, object); err != nil {
			logger.Warn("MinIO 对象读取中断", logger.ErrorField(err), logger.String("object", objectPath))
		}
	})

	server.Handler = router

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		logger.Info("服务器启动", logger.String("addr", cfg.ListenAddr))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("服务器启动失败", logger.ErrorField(err))
		}
	}()

	// 等待中断信号
	<-stop
	logger.Info("服务器关闭中")

	// 优雅关闭服务器
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("服务器强制关闭", logger.ErrorField(err))
	}

	logger.Info("服务器已停止")
	logger.Sync()
}
