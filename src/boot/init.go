package boot

import (
	"context"
	"log"
	"loketkita/src/common"
	"loketkita/src/config"
	"loketkita/src/db"
	"loketkita/src/lib"
	awslib "loketkita/src/lib/aws"
	"loketkita/src/lib/mailer"
	"loketkita/src/models"
	"loketkita/src/services"
	"time"

	"gorm.io/gorm"
)

func InitDb(conf *config.Config) *gorm.DB {
	gdb, err := db.Connect(conf.Database)
	if err != nil {
		log.Fatalf("Error connecting to database: %s\n", err.Error())
	}
	db.NewDB(gdb)

	err = gdb.AutoMigrate(models.All()...)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return gdb
}

// InitSecrets overlays the Secrets Manager document named by aws.secrets_id
// on the config. Nothing happens when no secret is configured.
func InitSecrets(ctx context.Context) *config.Config {
	conf := config.Load()
	if conf.SecretsID == "" {
		return conf
	}
	client := lib.AWSGetSecretsManagerClient()
	if client == nil {
		return conf
	}
	if err := awslib.LoadSecrets(ctx, client, conf.SecretsID); err != nil {
		log.Printf("[secrets] %s\n", err.Error())
	}
	return config.Load()
}

type App struct {
	Transactions *services.TransactionService
	Accounts     *services.AccountService
	Events       *services.EventService
	Promotions   *services.PromotionService
	Sweeper      *services.Sweeper
	Files        lib.FileStore
	Notifier     services.Notifier
}

// NewApp builds the services over gdb with the transports selected by conf.
func NewApp(gdb *gorm.DB, conf *config.Config) *App {
	notifier := mailer.New(conf)
	opts := []services.Option{
		services.WithSettings(services.SettingsFrom(conf)),
		services.WithNotifier(notifier),
	}
	if publisher := statusPublisher(conf); publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}
	txs := services.NewTransactionService(gdb, opts...)
	return &App{
		Transactions: txs,
		Accounts:     services.NewAccountService(txs),
		Events:       services.NewEventService(gdb),
		Promotions:   services.NewPromotionService(gdb),
		Sweeper:      services.NewSweeper(txs),
		Files:        fileStore(conf),
		Notifier:     txs.Notifier(),
	}
}

func statusPublisher(conf *config.Config) services.StatusPublisher {
	if conf.StatusTopicArn == "" {
		return nil
	}
	client := lib.AWSGetSNSClient()
	if client == nil {
		return nil
	}
	return awslib.NewSNSPublisher(client, conf.StatusTopicArn)
}

func fileStore(conf *config.Config) lib.FileStore {
	if conf.ProofsBucket != "" {
		if client := lib.AWSGetS3Client(); client != nil {
			return awslib.NewS3Store(client, conf.ProofsBucket)
		}
	}
	return lib.LocalFileStore{Dir: conf.UploadsDir}
}

type sweep struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) (services.SweepResult, error)
}

// InitScheduler registers the sweeps. Each run holds a redis lease so only
// one instance sweeps at a time.
func InitScheduler(sweeper *services.Sweeper, conf *config.Config) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if _, err := sweeper.FailStaleRuns(context.Background(), conf.SweepLeaseTTL); err != nil {
		log.Printf("Error while processing interrupted jobs: %s\n", err.Error())
	}
	for _, s := range []sweep{
		{services.SweepAutoExpire, conf.ExpireInterval, sweeper.AutoExpireTransactions},
		{services.SweepAutoCancel, conf.CancelInterval, sweeper.AutoCancelTransactions},
		{services.SweepPointExpiry, conf.PointExpiryInterval, sweeper.ExpirePoints},
	} {
		if _, err := lib.CreateCronJob(s.name, s.interval, runSweep(s, conf.SweepLeaseTTL)); err != nil {
			log.Printf("Error scheduling %s: %s\n", s.name, err.Error())
		}
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
}

func runSweep(s sweep, leaseTTL time.Duration) func(ctx context.Context) {
	return func(ctx context.Context) {
		err := lib.WithLease(ctx, lib.GetRedisClient(), s.name, leaseTTL, func(ctx context.Context) error {
			result, err := s.run(ctx)
			if err != nil {
				return err
			}
			log.Printf("[%s] processed=%d skipped=%d failed=%d\n", s.name, result.Processed, result.Skipped, result.Failed)
			return nil
		})
		if err != nil {
			log.Printf("[%s] Run failed: %s\n", s.name, err.Error())
		}
	}
}

func StopScheduler() {
	lib.StopScheduler()
}

// InitConsumers starts the queue consumers. Local runs deliver mail directly.
func InitConsumers(ctx context.Context, conf *config.Config) {
	if config.IsLocal() || conf.MailTransport != "sqs" {
		return
	}
	common.SQSConsumers(ctx, conf)
}
