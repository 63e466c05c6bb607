package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"eth-wallet-core/internal/model"
	"eth-wallet-core/pkg/config"
	"eth-wallet-core/pkg/database"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var (
		command string
		source  string
		auto    bool
	)
	flag.StringVar(&command, "cmd", "up", "Command to run: up, down, version")
	flag.StringVar(&source, "source", "file://migrations", "Migration source URL")
	flag.BoolVar(&auto, "auto", false, "Use GORM AutoMigrate instead of SQL migrations (development only)")
	flag.Parse()

	// 加载配置
	config.Init()
	db := config.Global.DB

	if auto {
		gdb, err := database.ConnectPostgres(db.DSN(), true)
		if err != nil {
			log.Fatalf("Database connect failed: %v", err)
		}
		if err := gdb.AutoMigrate(model.AllModels()...); err != nil {
			log.Fatalf("AutoMigrate failed: %v", err)
		}
		log.Println("AutoMigrate done")
		return
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		db.User, db.Password, db.Host, db.Port, db.Name)

	m, err := migrate.New(source, dsn)
	if err != nil {
		log.Fatalf("Migration init failed: %v", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("Migration up failed: %v", err)
		}
		log.Println("Migration up done")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("Migration down failed: %v", err)
		}
		log.Println("Migration down done")
	case "version":
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.Fatalf("Read version failed: %v", err)
		}
		log.Printf("Version %d (dirty=%v)", v, dirty)
	default:
		log.Fatalf("Unknown command: %s", command)
	}
}
