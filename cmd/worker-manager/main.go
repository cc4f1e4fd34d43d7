// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"agrimandi-workers/internal/advisor"
	"agrimandi-workers/internal/common/aws"
	"agrimandi-workers/internal/common/camunda"
	"agrimandi-workers/internal/common/config"
	"agrimandi-workers/internal/common/database"
	"agrimandi-workers/internal/common/logger"
	"agrimandi-workers/internal/common/observability"

	// Advisor Workers (2)
	ci "agrimandi-workers/internal/workers/advisor/classify-intent"
	gca "agrimandi-workers/internal/workers/advisor/get-crop-advice"

	// Market Workers (3)
	fp "agrimandi-workers/internal/workers/market/forecast-prices"
	gph "agrimandi-workers/internal/workers/market/generate-price-history"
	qph "agrimandi-workers/internal/workers/market/query-price-history"

	// Alert Workers (2)
	cpa "agrimandi-workers/internal/workers/alerts/check-price-alerts"
	san "agrimandi-workers/internal/workers/alerts/send-alert-notification"

	// Profile Workers (2)
	gp "agrimandi-workers/internal/workers/profile/get-profile"
	up "agrimandi-workers/internal/workers/profile/upsert-profile"

	// Chat Workers (2)
	acm "agrimandi-workers/internal/workers/chat/append-chat-message"
	gch "agrimandi-workers/internal/workers/chat/get-chat-history"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         30 * time.Second,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Notification Clients ---
	// AWS clients are optional: a region-less environment disables the
	// corresponding alert channels instead of blocking startup.
	var sesClient *aws.SESClient
	var snsClient *aws.SNSClient
	if cfg.Alerts.AWSRegion != "" {
		if sesClient, err = aws.NewSESClient(ctx, cfg.Alerts.AWSRegion); err != nil {
			zapLog.Warn("SES client unavailable, email alerts disabled", zap.Error(err))
			sesClient = nil
		}
		if snsClient, err = aws.NewSNSClient(ctx, cfg.Alerts.AWSRegion); err != nil {
			zapLog.Warn("SNS client unavailable, sms alerts disabled", zap.Error(err))
			snsClient = nil
		}
	}

	// --- Build the Advisor Core ---
	catalog := advisor.DefaultCatalog()
	remote := advisor.NewRemoteClient(advisor.RemoteConfig{
		APIURL:     cfg.Advisor.APIURL,
		APIKey:     cfg.Advisor.APIKey,
		APIVersion: cfg.Advisor.APIVersion,
		Model:      cfg.Advisor.Model,
		MaxTokens:  cfg.Advisor.MaxTokens,
		Timeout:    time.Duration(cfg.Advisor.Timeout) * time.Millisecond,
		MaxRetries: cfg.Advisor.MaxRetries,
	})
	facade := advisor.NewFacade(catalog, remote, cfg.Advisor.HistoryMax, log)

	zapLog.Info("Advisor core initialized", zap.String("model", cfg.Advisor.Model))

	// --- START: Register ALL 11 Workers ---
	var workers []*camunda.Worker

	// --- 1. Advisor Workers (2) ---
	if cfg.Workers[gca.TaskType].Enabled {
		handler := gca.NewHandler(
			&gca.Config{
				Timeout:    time.Duration(cfg.Workers[gca.TaskType].Timeout) * time.Millisecond,
				HistoryMax: cfg.Advisor.HistoryMax,
				ChatTTL:    7 * 24 * time.Hour,
			},
			facade, redis, log,
		)
		workers = append(workers, startWorker(zeebeClient, gca.TaskType, cfg.Workers[gca.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[ci.TaskType].Enabled {
		handler := ci.NewHandler(
			&ci.Config{
				Timeout: time.Duration(cfg.Workers[ci.TaskType].Timeout) * time.Millisecond,
			},
			catalog, log,
		)
		workers = append(workers, startWorker(zeebeClient, ci.TaskType, cfg.Workers[ci.TaskType], handler.Handle, zapLog))
	}

	// --- 2. Market Workers (3) ---
	if cfg.Workers[gph.TaskType].Enabled {
		handler := gph.NewHandler(
			&gph.Config{
				Timeout:     time.Duration(cfg.Workers[gph.TaskType].Timeout) * time.Millisecond,
				PriceIndex:  cfg.Market.PriceIndex,
				HistoryDays: cfg.Market.HistoryDays,
				CacheTTL:    time.Duration(cfg.Market.CacheTTL) * time.Second,
			},
			catalog, esClient, redis, log,
		)
		workers = append(workers, startWorker(zeebeClient, gph.TaskType, cfg.Workers[gph.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[fp.TaskType].Enabled {
		handler := fp.NewHandler(
			&fp.Config{
				Timeout:      time.Duration(cfg.Workers[fp.TaskType].Timeout) * time.Millisecond,
				ForecastDays: cfg.Market.ForecastDays,
			},
			catalog, redis, log,
		)
		workers = append(workers, startWorker(zeebeClient, fp.TaskType, cfg.Workers[fp.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[qph.TaskType].Enabled {
		handler := qph.NewHandler(
			&qph.Config{
				Timeout:    time.Duration(cfg.Workers[qph.TaskType].Timeout) * time.Millisecond,
				PriceIndex: cfg.Market.PriceIndex,
				MaxPoints:  365,
			},
			esClient, log,
		)
		workers = append(workers, startWorker(zeebeClient, qph.TaskType, cfg.Workers[qph.TaskType], handler.Handle, zapLog))
	}

	// --- 3. Alert Workers (2) ---
	if cfg.Workers[cpa.TaskType].Enabled {
		handler := cpa.NewHandler(
			&cpa.Config{
				Timeout:  time.Duration(cfg.Workers[cpa.TaskType].Timeout) * time.Millisecond,
				CacheTTL: 5 * time.Minute,
			},
			pg.DB, redis, log,
		)
		workers = append(workers, startWorker(zeebeClient, cpa.TaskType, cfg.Workers[cpa.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[san.TaskType].Enabled {
		var email san.EmailSender
		var sms san.SMSSender
		if sesClient != nil {
			email = sesClient
		}
		if snsClient != nil {
			sms = snsClient
		}
		handler := san.NewHandler(
			&san.Config{
				Timeout:      time.Duration(cfg.Workers[san.TaskType].Timeout) * time.Millisecond,
				EmailEnabled: cfg.Alerts.Email.Enabled && sesClient != nil,
				SMSEnabled:   cfg.Alerts.SMS.Enabled && snsClient != nil,
				FromEmail:    cfg.Alerts.Email.FromEmail,
				SenderID:     cfg.Alerts.SMS.SenderID,
			},
			email, sms, log,
		)
		workers = append(workers, startWorker(zeebeClient, san.TaskType, cfg.Workers[san.TaskType], handler.Handle, zapLog))
	}

	// --- 4. Profile Workers (2) ---
	if cfg.Workers[up.TaskType].Enabled {
		handler := up.NewHandler(
			&up.Config{
				Timeout:  time.Duration(cfg.Workers[up.TaskType].Timeout) * time.Millisecond,
				CacheTTL: 30 * time.Minute,
			},
			pg.DB, redis, log,
		)
		workers = append(workers, startWorker(zeebeClient, up.TaskType, cfg.Workers[up.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[gp.TaskType].Enabled {
		handler := gp.NewHandler(
			&gp.Config{
				Timeout:  time.Duration(cfg.Workers[gp.TaskType].Timeout) * time.Millisecond,
				CacheTTL: 30 * time.Minute,
			},
			pg.DB, redis, log,
		)
		workers = append(workers, startWorker(zeebeClient, gp.TaskType, cfg.Workers[gp.TaskType], handler.Handle, zapLog))
	}

	// --- 5. Chat Workers (2) ---
	if cfg.Workers[acm.TaskType].Enabled {
		handler := acm.NewHandler(
			&acm.Config{
				Timeout: time.Duration(cfg.Workers[acm.TaskType].Timeout) * time.Millisecond,
				ChatTTL: 7 * 24 * time.Hour,
				MaxLen:  200,
			},
			redis, log,
		)
		workers = append(workers, startWorker(zeebeClient, acm.TaskType, cfg.Workers[acm.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[gch.TaskType].Enabled {
		handler := gch.NewHandler(
			&gch.Config{
				Timeout: time.Duration(cfg.Workers[gch.TaskType].Timeout) * time.Millisecond,
				Limit:   50,
			},
			redis, log,
		)
		workers = append(workers, startWorker(zeebeClient, gch.TaskType, cfg.Workers[gch.TaskType], handler.Handle, zapLog))
	}

	zapLog.Info("All 11 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		if w != nil {
			w.Stop(shutdownCtx)
		}
	}

	if err := camClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc camunda.HandlerFunc, log *zap.Logger) *camunda.Worker {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	return camunda.NewWorker(client, taskType, wcfg.MaxJobsActive,
		time.Duration(wcfg.Timeout)*time.Millisecond, handlerFunc, log)
}
