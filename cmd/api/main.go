package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Volunteer_Hub/internal/config"
	"Volunteer_Hub/internal/handler"
	"Volunteer_Hub/internal/logger"
	"Volunteer_Hub/internal/middleware"
	"Volunteer_Hub/internal/pkg"
	"Volunteer_Hub/internal/repository/mysql"
	"Volunteer_Hub/internal/repository/redis"
	"Volunteer_Hub/internal/router"
	"Volunteer_Hub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// 限流器里空闲访客的清理节奏
const (
	defaultCleanupInterval = time.Minute
	defaultVisitorIdle     = 10 * time.Minute
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "volunteer-hub",
		Short:         "Volunteer Hub API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/config.yaml", "path to config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileRatingsCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup 加载配置、日志和数据库，三个子命令共用
func setup() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.Env, cfg.Log.Level, cfg.Log.Dir)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := mysql.InitDB(cfg.MySQL)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			if err := mysql.AutoMigrate(db); err != nil {
				return err
			}
			log.Info("migration finished")
			return nil
		},
	}
}

func reconcileRatingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile-ratings",
		Short: "Recompute every user's rating from stored reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			rec := service.NewRatingReconciler(&mysql.UserRepository{DB: db}, &mysql.ReviewRepository{DB: db}, log)
			res, err := rec.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			log.Info("rating reconcile finished", zap.Int("scanned", res.Scanned), zap.Int("fixed", res.Fixed))
			return nil
		},
	}
}

// createAdminCmd 管理员不能通过注册接口创建，只能在服务器上初始化
func createAdminCmd() *cobra.Command {
	var in service.RegisterInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			u, err := service.NewAuthService(&mysql.UserRepository{DB: db}, nil, nil, log).CreateAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}
			log.Info("admin created", zap.Uint64("user_id", u.ID), zap.String("email", u.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "admin display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "admin login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			return serve(cmd.Context(), cfg, log, db)
		},
	}
}

func serve(parent context.Context, cfg *config.Config, log *zap.Logger, db *gorm.DB) error {
	gin.SetMode(cfg.Server.Mode)

	rdb, err := redis.Init(cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := &mysql.UserRepository{DB: db}
	orgs := &mysql.OrganizationRepository{DB: db}
	opps := &mysql.OpportunityRepository{DB: db}
	apps := &mysql.ApplicationRepository{DB: db}
	reviews := &mysql.ReviewRepository{DB: db}
	notes := &mysql.NotificationRepository{DB: db}
	unread := redis.NewUnreadCache(rdb, cfg.Notify.UnreadTTL)

	// 通知分发：先落库，SMTP 配置齐全时顺带发邮件
	var opts []service.DispatcherOption
	smtp := pkg.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}
	if smtp.Enabled() {
		opts = append(opts, service.WithMailer(pkg.NewSMTPMailer(smtp), func(ctx context.Context, id uint64) (string, error) {
			u, err := users.FindByID(ctx, id)
			if err != nil {
				return "", err
			}
			return u.Email, nil
		}))
	}
	dispatcher := service.NewDispatcher(service.NewSink(notes, unread, log), cfg.Notify.QueueSize, cfg.Notify.Workers, log, opts...)
	defer dispatcher.Close()

	jwt := pkg.NewJWTManager(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	tokens := redis.NewTokenRepository(rdb, cfg.JWT.AccessTTL)
	authSvc := service.NewAuthService(users, tokens, jwt, log)

	userSvc := service.NewUserService(users, orgs, apps)

	h := router.Handlers{
		Auth:         handler.NewAuthHandler(authSvc, userSvc),
		Opportunity:  handler.NewOpportunityHandler(service.NewOpportunityService(opps, orgs, apps, log)),
		Application:  handler.NewApplicationHandler(service.NewApplicationService(apps, opps, orgs, dispatcher, log)),
		Review:       handler.NewReviewHandler(service.NewReviewService(reviews, users, apps, service.NewRatingAggregator(users), dispatcher, log)),
		Notification: handler.NewNotificationHandler(service.NewNotificationService(notes, unread, log)),
		User:         handler.NewUserHandler(userSvc),
		Admin:        handler.NewAdminHandler(service.NewAdminService(users, orgs, opps, &mysql.StatsRepository{DB: db}, tokens, log)),
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	routerOpts := router.Options{Log: log, Auth: authSvc}
	if cfg.RateLimit.RPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)
		limiter.StartCleanup(gctx, defaultCleanupInterval, defaultVisitorIdle)
		routerOpts.Limiter = limiter
	}

	if cfg.Kafka.Enabled() {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		if err != nil {
			return err
		}
		defer producer.Close()
		relayer := service.NewNotificationRelayer(notes, producer, &redis.DistLock{RDB: rdb}, log, service.RelayConfig{
			BatchSize: cfg.Kafka.RelayBatch,
			MaxRetry:  cfg.Kafka.MaxRetry,
			Interval:  cfg.Kafka.RelayInterval,
		})
		g.Go(func() error {
			relayer.Run(gctx)
			return nil
		})
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router.InitRouter(h, routerOpts),
	}
	g.Go(func() error {
		log.Info("server started", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
