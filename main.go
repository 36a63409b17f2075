package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/middleware"
	"github.com/DroppedLink/feedback/internal/pkg/banner"
	"github.com/DroppedLink/feedback/internal/pkg/database"
	"github.com/DroppedLink/feedback/internal/pkg/logger"
	"github.com/DroppedLink/feedback/internal/pkg/notify"
	"github.com/DroppedLink/feedback/internal/pkg/storage"
	"github.com/DroppedLink/feedback/internal/router"
	"github.com/DroppedLink/feedback/internal/service"
)

// 版本信息，编译时通过 ldflags 设置
var (
	Version    = "v0.1.0"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	cmd := &cli.Command{
		Name:    "feedback",
		Usage:   "用户反馈收集与处理服务",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "启动 HTTP 服务（默认命令）",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "只执行数据库迁移",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := bootstrap(cmd); err != nil {
						return err
					}
					logger.Info("数据库迁移完成")
					return nil
				},
			},
			{
				Name:  "create-admin",
				Usage: "创建管理员账号",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true, Usage: "用户名"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, Usage: "密码"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := bootstrap(cmd); err != nil {
						return err
					}
					admin, err := service.Auth.CreateAdmin(cmd.String("username"), cmd.String("password"))
					if err != nil {
						return err
					}
					logger.Infof("管理员账号已创建，ID: %d", admin.ID)
					return nil
				},
			},
			{
				Name:  "reset-password",
				Usage: "重置用户密码",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true, Usage: "用户名"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, Usage: "新密码"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := bootstrap(cmd); err != nil {
						return err
					}
					return service.Auth.ResetPassword(cmd.String("username"), cmd.String("password"))
				},
			},
		},
		Action: serve,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("应用程序启动失败: %v", err)
	}
}

// resolveConfigPath 未指定配置文件时尝试默认位置
func resolveConfigPath(configPath string) (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env, nil
	}
	for _, path := range []string{"config.yaml", filepath.Join("config", "config.yaml")} {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("未指定配置文件且未找到默认配置文件(config.yaml或config/config.yaml)")
}

// bootstrap 加载配置、初始化日志和数据库
func bootstrap(cmd *cli.Command) error {
	configPath, err := resolveConfigPath(cmd.String("config"))
	if err != nil {
		return err
	}
	// 将配置文件路径设置到环境变量中，供config包读取
	os.Setenv("CONFIG_PATH", configPath)

	if _, err := config.Load(); err != nil {
		return fmt.Errorf("加载配置失败: %v", err)
	}
	if err := logger.Setup(); err != nil {
		return fmt.Errorf("初始化日志系统失败: %v", err)
	}
	logger.Info("配置加载完成")

	if err := database.Setup(); err != nil {
		return fmt.Errorf("数据库初始化失败: %v", err)
	}
	logger.Info("数据库初始化完成")
	return nil
}

// serve 启动应用程序的主要逻辑
func serve(ctx context.Context, cmd *cli.Command) error {
	banner.Print(Version, CommitHash, BuildTime)

	if err := bootstrap(cmd); err != nil {
		return err
	}
	defer logger.Sync()

	cfg := config.GlobalConfig
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("未配置 jwt.secret")
	}
	service.Init(storage.NewLocal(database.DB, cfg.Upload), notify.New(cfg))

	if err := service.Auth.EnsureDefaultAdmin(); err != nil {
		return fmt.Errorf("初始化管理员账号失败: %v", err)
	}

	// 启动定时任务
	service.Cron.Start()
	defer service.Cron.Stop()

	// 设置gin模式
	gin.SetMode(cfg.Server.Mode)
	if cfg.Server.Mode == "release" {
		logger.Info("Gin设置为生产模式")
	} else {
		logger.Info("Gin运行在调试模式")
	}

	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.MaxMultipartMemory = storage.MaxFileSizeBytes(cfg.Upload)

	router.SetupRoutes(r, cfg.Upload)
	logger.Info("路由设置完成")

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("服务器启动中，端口: %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("服务器启动失败: %v", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("正在关闭服务器")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
