package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/config"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/session"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	mode := flag.String("mode", "show", "操作: show 或 clear")
	path := flag.String("db", cfg.Session.Path, "会话数据库路径")
	flag.Parse()

	if *mode != "show" && *mode != "clear" {
		flag.Usage()
		log.Fatal("请通过 -mode=show 或 -mode=clear 指定操作")
	}

	if _, err := os.Stat(*path); err != nil {
		log.Fatalf("会话数据库不可用 %s: %v", *path, err)
	}

	store, err := session.OpenSQLiteStore(*path)
	if err != nil {
		log.Fatalf("打开会话数据库失败: %v", err)
	}
	defer store.Close()

	switch *mode {
	case "show":
		show(store)
	case "clear":
		if err := store.Clear(); err != nil {
			log.Fatalf("清除会话失败: %v", err)
		}
		log.Println("会话已清除")
	}
}

func show(store *session.SQLiteStore) {
	current, ok := store.Current()
	if !ok {
		fmt.Println("no active session")
		return
	}

	fmt.Printf("username: %s\n", current.DisplayName)
	fmt.Printf("token:    %s\n", redact(current.Token))

	exp, ok := session.Expiry(current.Token)
	if !ok {
		fmt.Println("expires:  unknown")
		return
	}
	status := "valid"
	if time.Now().After(exp) {
		status = "expired"
	}
	fmt.Printf("expires:  %s (%s)\n", exp.Local().Format(time.RFC3339), status)
}

// redact 只保留首尾少量字符，避免终端输出完整凭证
func redact(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:6] + "..." + token[len(token)-4:]
}
