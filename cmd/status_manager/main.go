package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"cabalhelper/internal/config"
	"cabalhelper/internal/database"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Использование: status_manager <команда> [аргументы]")
		fmt.Println("Команды:")
		fmt.Println("  init - создать таблицы")
		fmt.Println("  show - показать последние сессии")
		fmt.Println("  stop [id_сессии] - остановить сессию (без id - любую текущую)")
		return
	}

	configPath := os.Getenv("CABAL_CONFIG")
	if configPath == "" {
		configPath = "."
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	if cfg.Database.DSN == "" {
		log.Fatalf("database.dsn не задан (config.yaml или CABAL_DATABASE_DSN)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	dm := database.NewDatabaseManager(db, nil)

	switch command := os.Args[1]; command {
	case "init":
		if err := dm.EnsureSchema(ctx); err != nil {
			log.Fatalf("Ошибка создания таблиц: %v", err)
		}
		fmt.Println("Таблицы созданы")

	case "stop":
		sessionID := ""
		if len(os.Args) > 2 {
			sessionID = os.Args[2]
		}
		if err := dm.AddAction(ctx, sessionID, database.ActionStop); err != nil {
			log.Fatalf("Ошибка добавления действия: %v", err)
		}
		if sessionID == "" {
			sessionID = "любая"
		}
		fmt.Printf("Команда stop добавлена (сессия: %s)\n", sessionID)

	case "show":
		sessions, err := dm.ListSessions(ctx, 10)
		if err != nil {
			log.Fatalf("Ошибка получения данных: %v", err)
		}
		fmt.Println("Последние сессии:")
		for _, s := range sessions {
			fmt.Printf("  - %s %s %q: %s (обновлен: %s)\n",
				s.ID, s.Tool, s.WindowTitle, s.Status, s.UpdatedAt.Format("2006-01-02 15:04:05"))
		}

	default:
		fmt.Printf("Неизвестная команда: %s\n", command)
	}
}
