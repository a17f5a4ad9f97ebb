package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/MrPunder/qr-generator/internal/auth"
	"github.com/MrPunder/qr-generator/internal/config"
)

func main() {
	configPath := flag.String("c", "cmd/qrserver/config.yaml", "config path")
	password := flag.String("password", "", "Новый пароль администратора (минимум 8 символов)")
	flag.Parse()

	if *password == "" {
		fmt.Println("Ошибка: пароль не указан")
		fmt.Println("Использование: setadminpassword -password=НОВЫЙ_ПАРОЛЬ")
		os.Exit(1)
	}

	conf, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	passwordMgr := auth.NewPasswordManager(conf.Admin.DataPath)

	if err := passwordMgr.SetPassword(*password); err != nil {
		fmt.Printf("Ошибка установки пароля: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Пароль администратора успешно установлен")
}
