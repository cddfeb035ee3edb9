package bootstrap

import (
	stdlog "log"
	"time"

	"github.com/semonara/semonara/internal/conf"
	"github.com/semonara/semonara/internal/db"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB() {
	gormLogger := logger.New(
		stdlog.New(log.StandardLogger().Out, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
		},
	)
	gdb, err := gorm.Open(sqlite.Open(conf.Conf.Database.File), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %+v", err)
	}
	db.Init(gdb)
}
