package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds the application's configuration values.
type Config struct {
	AppName   string `json:"appname"`
	AppEnv    string `json:"appenv"`
	AppPort   uint16 `json:"appport"`
	GinMode   string `json:"ginmode"`
	DBHost    string `json:"dbhost"`
	DBPort    uint16 `json:"dbport"`
	DBName    string `json:"dbname"`
	DBUSER    string `json:"dbuser"`
	DBPass    string `json:"dbpass"`
	RedisAddr string `json:"redisaddr"`
	RedisPass string `json:"redispass"`
	RedisDB   int    `json:"redisdb"`
}

var config *Config
var once sync.Once

// IsTestEnv reports whether the app runs under APPENV=test.
func (c *Config) IsTestEnv() bool {
	return c != nil && c.AppEnv == "test"
}

// LoadConfig reads environment variables (optionally seeded from a .env file)
// and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// A missing .env is fine in containers and tests where the
		// environment is set externally.
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file loaded: %v", err)
		}

		appPort, _ := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
		dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)
		redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		redisAddr := os.Getenv("REDIS_ADDR")
		if redisAddr == "" {
			redisAddr = "localhost:6379"
		}

		config = &Config{
			AppName:   os.Getenv("APPNAME"),
			AppEnv:    os.Getenv("APPENV"),
			AppPort:   uint16(appPort),
			GinMode:   os.Getenv("GINMODE"),
			DBHost:    os.Getenv("DBHOST"),
			DBPort:    uint16(dbPort),
			DBName:    os.Getenv("DBNAME"),
			DBUSER:    os.Getenv("DBUSER"),
			DBPass:    os.Getenv("DBPASS"),
			RedisAddr: redisAddr,
			RedisPass: os.Getenv("REDIS_PASS"),
			RedisDB:   redisDB,
		}
	})
	return config
}

// ConnectMySQL establishes the application's database connection. Under
// APPENV=test it opens an in-memory SQLite database instead so the suite
// never needs a running MySQL server.
func ConnectMySQL() (*gorm.DB, error) {
	cfg := LoadConfig()

	if cfg.IsTestEnv() {
		dsn := fmt.Sprintf("file:configdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}
