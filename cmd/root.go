package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SimonVuong/saute/internal/archive"
	"github.com/SimonVuong/saute/internal/billing"
	"github.com/SimonVuong/saute/internal/cloudwriter"
	"github.com/SimonVuong/saute/internal/events"
	"github.com/SimonVuong/saute/internal/factories"
	"github.com/SimonVuong/saute/internal/models"
	"github.com/SimonVuong/saute/internal/repositories/postgres"
	"github.com/SimonVuong/saute/internal/server"
	"github.com/SimonVuong/saute/internal/services"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "saute",
	Short: "Meal subscription order lifecycle engine",
	Long:  `saute runs the order/cart/subscription lifecycle for a meal subscription service: it places orders, keeps upcoming deliveries synchronized with recurring billing, and reconciles usage at invoice time.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the billing webhook and health endpoints",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		runServe(cfg)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a demo restaurant catalog and consumers into postgres",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		runSeed(cfg)
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Export confirmed deliveries in a date range as parquet",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		runArchive(cfg)
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is examples/config.json)")

	serveCmd.Flags().String("listen-addr", ":8080", "HTTP listen address")
	serveCmd.Flags().String("postgres-dsn", "", "Postgres connection string")
	serveCmd.Flags().String("billing-api-key", "", "Billing API key")
	serveCmd.Flags().String("billing-webhook-secret", "", "Billing webhook signing secret")
	serveCmd.Flags().Bool("kafka-enabled", false, "Enable Kafka event output")
	serveCmd.Flags().String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	serveCmd.Flags().Int64("delivery-fee", 350, "Flat cents fee per delivery after the first")

	seedCmd.Flags().Int("seed-restaurants", 25, "Number of demo restaurants")
	seedCmd.Flags().Int("seed-consumers", 100, "Number of demo consumers")

	archiveCmd.Flags().String("archive-folder", "archive", "Output folder or object prefix")
	archiveCmd.Flags().String("archive-start", time.Now().AddDate(0, -1, 0).Format(time.RFC3339), "Range start")
	archiveCmd.Flags().String("archive-end", time.Now().Format(time.RFC3339), "Range end")
	archiveCmd.Flags().String("output-destination", "local", "Archive destination (local or s3)")

	viper.BindPFlags(serveCmd.Flags())
	viper.BindPFlags(seedCmd.Flags())
	viper.BindPFlags(archiveCmd.Flags())

	rootCmd.AddCommand(serveCmd, seedCmd, archiveCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	viper.AutomaticEnv()
}

func mustLoadConfig() *models.Config {
	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func mustConnect(ctx context.Context, cfg *models.Config) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	return pool
}

func runServe(cfg *models.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := mustConnect(ctx, cfg)
	defer pool.Close()

	var producer events.Producer
	if cfg.KafkaEnabled {
		kafka, err := events.NewKafkaProducer(cfg.KafkaBrokerList)
		if err != nil {
			log.Fatalf("Failed to create Kafka producer: %v", err)
		}
		producer = kafka
	} else {
		producer = &events.ConsoleProducer{}
	}
	emitter := events.NewEmitter(producer, cfg.KafkaTopic)
	defer emitter.Close()

	billingClient := billing.NewClient(cfg.BillingBaseURL, cfg.BillingAPIKey)

	orderRepo := postgres.NewOrderRepository(pool)
	consumerRepo := postgres.NewConsumerRepository(pool)
	restRepo := postgres.NewRestaurantRepository(pool)

	planService := services.NewPlanService(billingClient, cfg.DefaultPlan, time.Duration(cfg.PlanCacheTTL)*time.Second)
	restService := services.NewRestService(restRepo)
	orderService := services.NewOrderService(services.OrderServiceParams{
		Orders:      orderRepo,
		Consumers:   consumerRepo,
		Billing:     billingClient,
		Plans:       planService,
		Rests:       restService,
		Geo:         services.NopGeocoder{},
		Events:      emitter,
		DeliveryFee: cfg.DeliveryFee,
	})
	consumerService := services.NewConsumerService(services.ConsumerServiceParams{
		Consumers: consumerRepo,
		Orders:    orderService,
		Plans:     planService,
		Billing:   billingClient,
		Geo:       services.NopGeocoder{},
		Events:    emitter,
	})

	srv := server.New(server.ServerParams{
		ListenAddr:    cfg.ListenAddr,
		WebhookSecret: cfg.BillingWebhookSecret,
		Orders:        orderService,
		Consumers:     consumerService,
		Plans:         planService,
	})
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func runSeed(cfg *models.Config) {
	ctx := context.Background()
	pool := mustConnect(ctx, cfg)
	defer pool.Close()

	restRepo := postgres.NewRestaurantRepository(pool)
	consumerRepo := postgres.NewConsumerRepository(pool)

	plans := factories.DemoPlans()
	restFactory := &factories.RestaurantFactory{}
	consumerFactory := &factories.ConsumerFactory{}

	rests := make([]*models.Restaurant, 0, cfg.SeedRestaurants)
	bar := progressbar.Default(int64(cfg.SeedRestaurants+cfg.SeedConsumers), "seeding")
	for i := 0; i < cfg.SeedRestaurants; i++ {
		rests = append(rests, restFactory.CreateRestaurant(12, plans))
		bar.Add(1)
	}
	if err := restRepo.BulkCreate(ctx, rests); err != nil {
		log.Fatalf("Failed to seed restaurants: %v", err)
	}
	for i := 0; i < cfg.SeedConsumers; i++ {
		if err := consumerRepo.Upsert(ctx, consumerFactory.CreateConsumer(plans)); err != nil {
			log.Fatalf("Failed to seed consumer: %v", err)
		}
		bar.Add(1)
	}
	log.Printf("Seeded %d restaurants and %d consumers", cfg.SeedRestaurants, cfg.SeedConsumers)
}

func runArchive(cfg *models.Config) {
	ctx := context.Background()
	pool := mustConnect(ctx, cfg)
	defer pool.Close()

	var factory cloudwriter.CloudWriterFactory
	if cfg.OutputDestination == "s3" {
		f, err := cloudwriter.NewS3WriterFactory(cfg.CloudStorage.Region)
		if err != nil {
			log.Fatalf("Failed to create cloud writer factory: %v", err)
		}
		factory = f
	}

	archiver := archive.New(archive.ArchiverParams{
		Orders:  postgres.NewOrderRepository(pool),
		Factory: factory,
		Folder:  cfg.ArchiveFolder,
		Bucket:  cfg.CloudStorage.Bucket,
	})
	rows, err := archiver.Export(ctx, cfg.ArchiveStart, cfg.ArchiveEnd)
	if err != nil {
		log.Fatalf("Failed to export archive: %v", err)
	}
	log.Printf("Archived %d confirmed meal rows", rows)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
