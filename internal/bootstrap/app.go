package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/locvowork/dayplanner/internal/config"
	"github.com/locvowork/dayplanner/internal/database"
	"github.com/locvowork/dayplanner/internal/domain"
	"github.com/locvowork/dayplanner/internal/handler"
	"github.com/locvowork/dayplanner/internal/logger"
	"github.com/locvowork/dayplanner/internal/repository"
	"github.com/locvowork/dayplanner/internal/service"
	"github.com/locvowork/dayplanner/pkg/googlecloud"
	"github.com/locvowork/dayplanner/pkg/simpleexcel"
)

type App struct {
	Echo    *echo.Echo
	DB      *sql.DB
	GCP     *googlecloud.Client
	Repo    domain.TaskRepository
	Service service.TaskService
}

func NewApp() *App {
	return &App{
		Echo: echo.New(),
	}
}

// LoadConfig reads the environment and sets up logging.
func (a *App) LoadConfig(ctx context.Context) error {
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH, config.DefaultEnvConfig.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")
	return nil
}

// OpenStore connects the task store chosen by STORE_DRIVER. SQL stores are
// migrated when migrate is set.
func (a *App) OpenStore(ctx context.Context, migrate bool) error {
	cfg := config.DefaultEnvConfig

	switch cfg.STORE_DRIVER {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgresDB(ctx, database.Config{
			Host:            cfg.DB_HOST,
			Port:            cfg.DB_PORT,
			User:            cfg.DB_USER,
			Password:        cfg.DB_PASSWORD,
			DBName:          cfg.DB_NAME,
			SSLMode:         cfg.DB_SSL_MODE,
			MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
			MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
			ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		return a.useSQL(ctx, db, database.Postgres, migrate)

	case config.StoreDriverSQLite:
		db, err := database.NewSQLiteDB(ctx, cfg.SQLITE_PATH)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		return a.useSQL(ctx, db, database.SQLite, migrate)

	case config.StoreDriverDatastore:
		gcpClient, err := googlecloud.NewClient(ctx, cfg.GCP_PROJECT_ID)
		if err != nil {
			return fmt.Errorf("failed to initialize GCP client: %w", err)
		}
		a.GCP = gcpClient
		a.Repo = repository.NewDatastoreTaskRepository(gcpClient)

	case config.StoreDriverMemory:
		logger.WarnLog(ctx, "using in-memory task store; tasks are lost on exit")
		a.Repo = repository.NewMemoryTaskRepository()

	default:
		return fmt.Errorf("unknown store driver %q", cfg.STORE_DRIVER)
	}

	a.Service = service.NewTaskService(a.Repo)
	return nil
}

func (a *App) useSQL(ctx context.Context, db *sql.DB, dialect database.Dialect, migrate bool) error {
	a.DB = db
	if migrate {
		if err := database.Migrate(ctx, db, dialect); err != nil {
			return err
		}
		logger.InfoLog(ctx, "%s schema is up to date", dialect)
	}
	a.Repo = repository.NewSQLTaskRepository(db, dialect)
	a.Service = service.NewTaskService(a.Repo)
	return nil
}

// Initialize prepares everything Run needs.
func (a *App) Initialize(ctx context.Context) error {
	if err := a.LoadConfig(ctx); err != nil {
		return err
	}
	if err := a.OpenStore(ctx, true); err != nil {
		return err
	}

	var layout *simpleexcel.Layout
	if path := config.DefaultEnvConfig.EXPORT_LAYOUT_PATH; path != "" {
		l, err := simpleexcel.LoadLayout(path)
		if err != nil {
			return err
		}
		layout = l
	}
	taskHandler := handler.NewTaskHandler(a.Service, layout)

	a.RegisterMiddlewares()
	a.RegisterRoutes(taskHandler)
	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(handler.RequestID())
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func (a *App) RegisterRoutes(taskHandler *handler.TaskHandler) {
	a.Echo.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	taskHandler.RegisterRoutes(a.Echo)
}

// NewDuePoller builds the due-task poller from config.
func (a *App) NewDuePoller() *service.DuePoller {
	cfg := config.DefaultEnvConfig
	return service.NewDuePoller(a.Repo, service.LogNotifier{}, service.DuePollerConfig{
		Interval:    cfg.POLL_INTERVAL,
		Window:      time.Duration(cfg.POLL_WINDOW_MINUTES) * time.Minute,
		Concurrency: cfg.POLL_CONCURRENCY,
	})
}

// Run serves HTTP, and polls for due tasks when enabled, until ctx is
// cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pollDone := make(chan struct{})
	if config.DefaultEnvConfig.POLL_ENABLED {
		poller := a.NewDuePoller()
		go func() {
			defer close(pollDone)
			_ = poller.Run(ctx)
		}()
	} else {
		close(pollDone)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
	}()

	var err error
	select {
	case err = <-serveErr:
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		err = a.Echo.Shutdown(shutdownCtx)
	}
	cancel()
	<-pollDone

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close releases the store connections and the log file.
func (a *App) Close() {
	defer logger.Close()
	if a.DB != nil {
		a.DB.Close()
	}
	if a.GCP != nil {
		a.GCP.Close()
	}
}
