package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"glowbook/config"
	schedulingRepo "glowbook/database/repository/scheduling"
	"glowbook/models"
	"glowbook/services/notification"
	"glowbook/utils"
)

// InitNotifyWorker runs the async notification worker in background.
func InitNotifyWorker() {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeNotifySend, handleNotifyTask)

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[NotifyWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[NotifyWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[NotifyWorker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleNotifyTask(ctx context.Context, task *asynq.Task) error {
	var p models.NotifyPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		log.Printf("[NotifyHandler] invalid payload: %v", err)
		return err
	}
	if utils.FCMClient == nil {
		// Push delivery not configured; drop rather than retry forever.
		log.Printf("[NotifyHandler] FCM client not initialized, dropping %s for %s", p.Kind, p.UserID)
		return nil
	}

	msg := &messaging.Message{
		// Customers subscribe to their own topic on sign-in.
		Topic: "customer_" + p.UserID,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: p.Data,
	}
	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		log.Printf("[NotifyHandler] failed to send push for %s: %v", p.UserID, err)
		return err
	}
	return nil
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[NotifyWorker] redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}

// InitReconciliationJobs schedules the nightly counter reconciliation. The
// booking counters on specialist links and the package purchase counters are
// derived data; this recomputes them from appointment rows and repairs
// drift left behind by failed compensations or manual edits.
func InitReconciliationJobs(repo schedulingRepo.SchedulingRepository) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("15 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		shops, err := repo.ListShops(ctx)
		if err != nil {
			utils.GetLogger().Error("reconciliation: shop listing failed", zap.Error(err))
			return
		}
		for _, shop := range shops {
			ReconcileShopCounters(ctx, repo, shop.ID)
		}
	})
	if err != nil {
		utils.GetLogger().Fatal("failed to register reconciliation job", zap.Error(err))
	}
	c.Start()
	return c
}

// ReconcileShopCounters recomputes every derived counter in one shop.
func ReconcileShopCounters(ctx context.Context, repo schedulingRepo.SchedulingRepository, shopID string) {
	logger := utils.GetLogger()

	links, err := repo.ListSpecialistLinks(ctx, shopID)
	if err != nil {
		logger.Error("reconciliation: link listing failed",
			zap.String("shopID", shopID), zap.Error(err))
		return
	}
	for _, link := range links {
		actual, err := repo.CountAppointmentsForLink(ctx, link.SpecialistID, link.ServiceID, models.LiveStatuses)
		if err != nil {
			logger.Error("reconciliation: link count failed",
				zap.String("specialistID", link.SpecialistID),
				zap.String("serviceID", link.ServiceID), zap.Error(err))
			continue
		}
		if actual == link.BookingCount {
			continue
		}
		logger.Warn("reconciliation: booking count drift",
			zap.String("specialistID", link.SpecialistID),
			zap.String("serviceID", link.ServiceID),
			zap.Int("stored", link.BookingCount), zap.Int("actual", actual))
		if err := repo.SetSpecialistBookingCount(ctx, link.SpecialistID, link.ServiceID, actual); err != nil {
			logger.Error("reconciliation: booking count repair failed",
				zap.String("specialistID", link.SpecialistID), zap.Error(err))
		}
	}

	packages, err := repo.ListPackages(ctx, shopID)
	if err != nil {
		logger.Error("reconciliation: package listing failed",
			zap.String("shopID", shopID), zap.Error(err))
		return
	}
	for _, pkg := range packages {
		members, err := repo.GetPackageServices(ctx, pkg.ID)
		if err != nil || len(members) == 0 {
			if err != nil {
				logger.Error("reconciliation: package members lookup failed",
					zap.String("packageID", pkg.ID), zap.Error(err))
			}
			continue
		}
		legs, err := repo.CountAppointmentsForPackage(ctx, pkg.ID, models.LiveStatuses)
		if err != nil {
			logger.Error("reconciliation: package count failed",
				zap.String("packageID", pkg.ID), zap.Error(err))
			continue
		}
		actual := legs / len(members)
		if actual == pkg.CurrentPurchases {
			continue
		}
		logger.Warn("reconciliation: package counter drift",
			zap.String("packageID", pkg.ID),
			zap.Int("stored", pkg.CurrentPurchases), zap.Int("actual", actual))
		if err := repo.SetPackageCounter(ctx, pkg.ID, actual); err != nil {
			logger.Error("reconciliation: package counter repair failed",
				zap.String("packageID", pkg.ID), zap.Error(err))
		}
	}
}
