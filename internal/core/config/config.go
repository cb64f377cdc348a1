package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type Log struct {
	Level string
	JSON  bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Economy 积分/信誉经济参数。任务的 rewardPoints 仅做展示，
// 完成任务真正到账的是固定的 CompletionAward。
type Economy struct {
	SignupPoints       int // 注册赠送积分
	PostingFee         int // 发布任务扣除
	CompletionAward    int // 完成任务固定到账
	CompletionRepBonus int // 完成任务信誉加成
	PositiveRatingRep  int // 评分 >=4 给对方的信誉
	NegativeRatingRep  int // 评分 <=2 扣对方的信誉（正数）
	RepBronze          int
	RepSilver          int
	RepGold            int
	RepElite           int
	TaskTTLHours       int // 任务默认有效期
	CooldownMinutes    int // 发布冷却，0 = 关闭
	FarmingMaxPerDay   int // 同一对用户窗口内最多完成次数
	FarmingWindowHours int
	ExpireSweepSec     int // 过期扫描间隔
}

type Relay struct {
	WriteWaitSec   int
	PongWaitSec    int
	MaxMessageSize int64
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	DB      DB
	Redis   Redis `mapstructure:"redis"`
	Economy Economy
	Relay   Relay
}

func Load(path string) *Config {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("read config: %v", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	return &c
}

// 经济数值与线上一致，改动需同步运营
func setDefaults(v *viper.Viper) {
	v.SetDefault("economy.signuppoints", 50)
	v.SetDefault("economy.postingfee", 10)
	v.SetDefault("economy.completionaward", 15)
	v.SetDefault("economy.completionrepbonus", 5)
	v.SetDefault("economy.positiveratingrep", 3)
	v.SetDefault("economy.negativeratingrep", 2)
	v.SetDefault("economy.repbronze", 50)
	v.SetDefault("economy.repsilver", 150)
	v.SetDefault("economy.repgold", 300)
	v.SetDefault("economy.repelite", 600)
	v.SetDefault("economy.taskttlhours", 24)
	v.SetDefault("economy.cooldownminutes", 0)
	v.SetDefault("economy.farmingmaxperday", 5)
	v.SetDefault("economy.farmingwindowhours", 24)
	v.SetDefault("economy.expiresweepsec", 300)

	v.SetDefault("relay.writewaitsec", 10)
	v.SetDefault("relay.pongwaitsec", 60)
	v.SetDefault("relay.maxmessagesize", 4096)
}
