package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr string

	ServerPort      string
	JWTSecret       string
	NumberOfWorkers int

	// Verdict oracle settings. The status IDs are configurable so the
	// judging backend can be swapped without touching the pipeline; the
	// defaults match Judge0 (3 = Accepted, 5 = Time Limit Exceeded).
	OracleURL            string
	OracleToken          string
	OracleTimeout        time.Duration
	OracleAcceptedStatus int
	OracleTLEStatus      int
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	numWorkerInt, _ := strconv.Atoi(os.Getenv("NUM_OF_WORKERS"))
	if numWorkerInt <= 0 {
		numWorkerInt = 4
	}

	oracleTimeoutSec, _ := strconv.Atoi(os.Getenv("ORACLE_TIMEOUT_SECONDS"))
	if oracleTimeoutSec <= 0 {
		oracleTimeoutSec = 15
	}

	acceptedStatus, _ := strconv.Atoi(os.Getenv("ORACLE_ACCEPTED_STATUS"))
	if acceptedStatus == 0 {
		acceptedStatus = 3
	}

	tleStatus, _ := strconv.Atoi(os.Getenv("ORACLE_TLE_STATUS"))
	if tleStatus == 0 {
		tleStatus = 5
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		RedisAddr: redisAddr,

		ServerPort:      os.Getenv("SERVER_PORT"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		NumberOfWorkers: numWorkerInt,

		OracleURL:            os.Getenv("ORACLE_URL"),
		OracleToken:          os.Getenv("ORACLE_TOKEN"),
		OracleTimeout:        time.Duration(oracleTimeoutSec) * time.Second,
		OracleAcceptedStatus: acceptedStatus,
		OracleTLEStatus:      tleStatus,
	}
}
