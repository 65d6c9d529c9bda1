// Langweave CLI — выполняет flows локально и управляет ими через HTTP API.
//
// Использование:
//
//	langweave [--api-url URL] [--user-id ID] [--json] <command> [flags]
//
// Команды:
//
//	run         Выполнить flow из файла локально
//	validate    Проверить flow из файла
//	components  Список компонентов
//	flow        Управление flows на сервере
//	execution   Просмотр executions
//	schedule    Управление расписаниями
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/Langweave/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRootCmd(version).ExecuteContext(ctx); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		cancel()
		os.Exit(1)
	}
}
