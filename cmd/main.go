package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-insight-system/api"
	"github.com/fyerfyer/doc-insight-system/api/handler"
	appconfig "github.com/fyerfyer/doc-insight-system/config"
	"github.com/fyerfyer/doc-insight-system/internal/cache"
	"github.com/fyerfyer/doc-insight-system/internal/database"
	"github.com/fyerfyer/doc-insight-system/internal/embedding"
	"github.com/fyerfyer/doc-insight-system/internal/ranking"
	"github.com/fyerfyer/doc-insight-system/internal/repository"
	"github.com/fyerfyer/doc-insight-system/internal/segment"
	"github.com/fyerfyer/doc-insight-system/internal/services"
	"github.com/fyerfyer/doc-insight-system/pkg/storage"
	"github.com/fyerfyer/doc-insight-system/pkg/taskqueue"
)

// 命令行选项
type options struct {
	ConfigFile string // 配置文件路径
	Serve      bool   // 以HTTP服务模式运行
	Mode       string // Gin运行模式 (debug/release)
	InputFile  string // 批处理模式的输入JSON路径
	DocsDir    string // 批处理模式的文档目录
	OutputFile string // 批处理模式的输出JSON路径
}

func main() {
	opts := parseFlags()

	cfg, err := appconfig.Load(opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := appconfig.NewLogger(cfg.Logging)

	if opts.Serve {
		runServer(opts, cfg, logger)
		return
	}

	service := buildAnalysisService(cfg, logger)
	if err := runBatch(opts, service, logger); err != nil {
		logger.Fatalf("Pipeline failed: %v", err)
	}
}

// parseFlags 解析命令行参数
func parseFlags() options {
	opts := options{}

	flag.StringVar(&opts.ConfigFile, "config", "", "Path to config file")
	flag.BoolVar(&opts.Serve, "serve", false, "Run as HTTP server instead of batch pipeline")
	flag.StringVar(&opts.Mode, "mode", "release", "Run mode (debug/release)")
	flag.StringVar(&opts.InputFile, "input", "input.json", "Input JSON file for batch mode")
	flag.StringVar(&opts.DocsDir, "docs", "", "Document directory for batch mode (defaults to the input file's directory)")
	flag.StringVar(&opts.OutputFile, "output", "output.json", "Output JSON file for batch mode")

	flag.Parse()

	if opts.DocsDir == "" {
		opts.DocsDir = filepath.Dir(opts.InputFile)
	}

	return opts
}

// buildAnalysisService 根据配置装配分析服务
func buildAnalysisService(cfg *appconfig.Config, logger *logrus.Logger, extra ...services.AnalysisOption) *services.AnalysisService {
	embedder, err := setupEmbedding(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize embedding client: %v", err)
	}

	segmenter := segment.NewSegmenter(
		segment.WithMinConfidence(cfg.Segment.MinConfidence),
		segment.WithMinSectionLength(cfg.Segment.MinSectionLength),
		segment.WithLogger(logger),
	)

	ranker := ranking.NewEngine(
		ranking.WithTopK(cfg.Ranking.TopK),
		ranking.WithMinSimilarity(cfg.Ranking.MinSimilarity),
		ranking.WithMaxViewEntries(cfg.Ranking.MaxViewEntries),
		ranking.WithMaxRefinedLength(cfg.Ranking.MaxRefinedLength),
		ranking.WithLogger(logger),
	)

	opts := []services.AnalysisOption{
		services.WithSegmenter(segmenter),
		services.WithRanker(ranker),
		services.WithChunking(cfg.Chunk.Size, cfg.Chunk.Overlap),
		services.WithBatchSize(cfg.Embed.BatchSize),
		services.WithMaxWorkers(cfg.Embed.MaxWorkers),
		services.WithLogger(logger),
	}
	opts = append(opts, extra...)

	return services.NewAnalysisService(embedder, opts...)
}

// setupEmbedding 创建嵌入模型客户端
// 启用了缓存时包装为带缓存的客户端
func setupEmbedding(cfg *appconfig.Config, logger *logrus.Logger) (embedding.Client, error) {
	client, err := embedding.NewClient(cfg.Embed.Provider,
		embedding.WithAPIKey(cfg.Embed.APIKey),
		embedding.WithModel(cfg.Embed.Model),
		embedding.WithDimensions(cfg.Embed.Dimensions),
		embedding.WithBatchSize(cfg.Embed.BatchSize),
	)
	if err != nil {
		return nil, err
	}

	if !cfg.Cache.Enable {
		return client, nil
	}

	store, err := cache.NewCache(cache.Config{
		Type:            cfg.Cache.Type,
		RedisAddr:       cfg.Cache.Address,
		RedisPassword:   cfg.Cache.Password,
		RedisDB:         cfg.Cache.DB,
		DefaultTTL:      time.Duration(cfg.Cache.TTL) * time.Second,
		CleanupInterval: 10 * time.Minute,
	})
	if err != nil {
		logger.Warnf("Failed to initialize embedding cache, continuing without cache: %v", err)
		return client, nil
	}

	ttl := time.Duration(cfg.Cache.TTL) * time.Second
	return embedding.NewCachedClient(client, store, ttl, logger), nil
}

// pipelineInput 批处理模式的输入文件结构
// persona和job_to_be_done兼容两种格式：纯字符串或嵌套对象
type pipelineInput struct {
	Persona     json.RawMessage `json:"persona"`
	JobToBeDone json.RawMessage `json:"job_to_be_done"`
	Documents   []struct {
		Filename string `json:"filename"`
	} `json:"documents"`
}

// runBatch 执行一次批处理分析
// 读取输入JSON，解析文档目录下的文档，将结果写入输出文件
func runBatch(opts options, service *services.AnalysisService, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"input":  opts.InputFile,
		"docs":   opts.DocsDir,
		"output": opts.OutputFile,
	}).Info("Starting document analysis pipeline")

	data, err := os.ReadFile(opts.InputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %v", err)
	}

	var input pipelineInput
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to parse input file: %v", err)
	}

	persona, err := decodeTextField(input.Persona, "role")
	if err != nil {
		return fmt.Errorf("invalid persona field: %v", err)
	}
	job, err := decodeTextField(input.JobToBeDone, "task")
	if err != nil {
		return fmt.Errorf("invalid job_to_be_done field: %v", err)
	}

	documents, err := resolveDocuments(input, opts.DocsDir)
	if err != nil {
		return err
	}
	logger.Infof("Found %d documents to process", len(documents))

	output, stats, err := service.Analyze(context.Background(), services.AnalysisRequest{
		Persona:     persona,
		JobToBeDone: job,
		Documents:   documents,
	})
	if err != nil {
		return err
	}

	result, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %v", err)
	}

	if dir := filepath.Dir(opts.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %v", err)
		}
	}
	if err := os.WriteFile(opts.OutputFile, result, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"documents":  stats.DocumentCount,
		"sections":   stats.SectionCount,
		"candidates": stats.CandidateCount,
	}).Info("Pipeline completed successfully")

	return nil
}

// decodeTextField 解码可能是字符串或对象的输入字段
func decodeTextField(raw json.RawMessage, key string) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("missing required field")
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var obj map[string]string
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("expected string or object")
	}
	if obj[key] == "" {
		return "", fmt.Errorf("missing %q field in object", key)
	}
	return obj[key], nil
}

// resolveDocuments 解析待处理的文档路径列表
// 输入文件列出文档时使用清单，否则扫描文档目录下所有支持的文件
func resolveDocuments(input pipelineInput, docsDir string) ([]string, error) {
	if len(input.Documents) > 0 {
		documents := make([]string, 0, len(input.Documents))
		for _, doc := range input.Documents {
			documents = append(documents, filepath.Join(docsDir, doc.Filename))
		}
		return documents, nil
	}

	var documents []string
	for _, pattern := range []string{"*.pdf", "*.PDF", "*.md", "*.markdown", "*.txt"} {
		matches, err := filepath.Glob(filepath.Join(docsDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan document directory: %v", err)
		}
		documents = append(documents, matches...)
	}

	if len(documents) == 0 {
		return nil, fmt.Errorf("no documents found in %s", docsDir)
	}

	sort.Strings(documents)
	return documents, nil
}

// runServer 以HTTP服务模式运行
func runServer(opts options, cfg *appconfig.Config, logger *logrus.Logger) {
	gin.SetMode(opts.Mode)

	// 初始化数据库和运行记录存储
	if err := setupDatabase(cfg, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	service := buildAnalysisService(cfg, logger,
		services.WithRunRepository(repository.NewRunRepository()))

	// 创建文件存储
	fileStorage, err := setupStorage(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// 初始化任务队列和工作者（如果启用）
	var queue taskqueue.Queue
	var worker taskqueue.Worker
	if cfg.Queue.Enable {
		queue, worker, err = setupTaskQueue(cfg, fileStorage, service, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()

		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		defer worker.Stop()
		logger.Info("Task queue worker started")
	}

	// 初始化API处理器和路由
	docHandler := handler.NewDocumentHandler(fileStorage)
	analysisHandler := handler.NewAnalysisHandler(service, fileStorage, queue)
	var taskHandler *handler.TaskHandler
	if queue != nil {
		taskHandler = handler.NewTaskHandler(queue)
	}

	r := api.SetupRouter(docHandler, analysisHandler, taskHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// 优雅关闭
	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupDatabase 初始化数据库连接
func setupDatabase(cfg *appconfig.Config, logger *logrus.Logger) error {
	dbConfig := database.DefaultConfig()
	dbConfig.Type = cfg.Database.Type
	dbConfig.DSN = cfg.Database.DSN

	return database.Setup(dbConfig, logger)
}

// setupStorage 创建文件存储服务
func setupStorage(cfg *appconfig.Config) (storage.Storage, error) {
	if cfg.Storage.Type == "minio" {
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
		})
	}

	return storage.NewLocalStorage(storage.LocalConfig{
		Path: cfg.Storage.Path,
	})
}

// setupTaskQueue 创建任务队列和处理分析任务的工作者
func setupTaskQueue(cfg *appconfig.Config, fileStorage storage.Storage,
	service *services.AnalysisService, logger *logrus.Logger) (taskqueue.Queue, taskqueue.Worker, error) {
	queueConfig := &taskqueue.Config{
		RedisAddr:     cfg.Queue.RedisAddr,
		RedisPassword: cfg.Queue.RedisPassword,
		RedisDB:       cfg.Queue.RedisDB,
		Concurrency:   cfg.Queue.Concurrency,
		RetryLimit:    cfg.Queue.RetryLimit,
		RetryDelay:    time.Duration(cfg.Queue.RetryDelay) * time.Second,
		Queues:        taskqueue.DefaultConfig().Queues,
	}

	queue, err := taskqueue.NewQueue("redis", queueConfig)
	if err != nil {
		return nil, nil, err
	}

	redisQueue, ok := queue.(*taskqueue.RedisQueue)
	if !ok {
		queue.Close()
		return nil, nil, fmt.Errorf("unexpected queue implementation %T", queue)
	}

	// 任务处理器将存储中的文档落盘后交给分析服务执行
	execute := func(ctx context.Context, payload *taskqueue.AnalysisRunPayload, documents []string) error {
		_, err := service.ExecuteRun(ctx, payload.RunID, services.AnalysisRequest{
			Persona:     payload.Persona,
			JobToBeDone: payload.JobToBeDone,
			Documents:   documents,
		})
		return err
	}

	worker := taskqueue.NewRedisWorker(redisQueue, queueConfig)
	worker.RegisterHandler(taskqueue.TaskAnalysisRun,
		taskqueue.NewAnalysisHandler(fileStorage, execute, logger))

	return queue, worker, nil
}
