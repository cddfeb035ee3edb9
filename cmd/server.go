package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/semonara/semonara/cmd/flags"
	"github.com/semonara/semonara/internal/bootstrap"
	"github.com/semonara/semonara/internal/conf"
	"github.com/semonara/semonara/internal/db"
	"github.com/semonara/semonara/internal/mailer"
	"github.com/semonara/semonara/internal/presence"
	"github.com/semonara/semonara/internal/session"
	"github.com/semonara/semonara/server"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the semonara server",
	Run: func(cmd *cobra.Command, args []string) {
		bootstrap.InitConfig()
		bootstrap.Log()
		bootstrap.InitDB()

		sc := conf.Conf.Session
		mgr := session.New(session.Config{
			Secret:            []byte(sc.JwtSecret),
			TokenTTL:          time.Duration(sc.TokenTTL) * time.Minute,
			GracePeriod:       time.Duration(sc.GracePeriod) * time.Second,
			ActivityThreshold: time.Duration(sc.ActivityThreshold) * time.Second,
			SweepInterval:     time.Duration(sc.SweepInterval) * time.Minute,
			MaxDevices:        sc.MaxDevices,
		})
		tracker := presence.NewTracker(30 * time.Second)
		sender := mailer.New(conf.Conf.Mail)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go mgr.Run(ctx)
		go tracker.Run(ctx)

		if !flags.Debug {
			gin.SetMode(gin.ReleaseMode)
		}
		e := gin.New()
		e.Use(gin.LoggerWithWriter(log.StandardLogger().Out), gin.Recovery())
		server.Init(e, mgr, tracker, sender)

		addr := fmt.Sprintf("%s:%d", conf.Conf.Scheme.Address, conf.Conf.Scheme.Port)
		srv := &http.Server{Addr: addr, Handler: e}
		go func() {
			log.Infof("start HTTP server @ %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start http server: %s", err.Error())
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutdown server...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("server forced to shutdown: %s", err.Error())
		}
		db.Close()
		log.Info("server exit")
	},
}

func init() {
	RootCmd.AddCommand(ServerCmd)
}
