package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap 启动配置（由 kratos config 扫描 configs/config.yaml 得到）
type Bootstrap struct {
	Server  *Server  `json:"server"`
	Data    *Data    `json:"data"`
	Billing *Billing `json:"billing"`
	Log     *Log     `json:"log"`
}

// Server 传输层配置
type Server struct {
	Http *Server_HTTP `json:"http"`
	Grpc *Server_GRPC `json:"grpc"`
}

// Server_HTTP HTTP 服务配置
type Server_HTTP struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

// Server_GRPC gRPC 服务配置
type Server_GRPC struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

// Data 数据层配置
type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
	Rocketmq *Data_RocketMQ `json:"rocketmq"`
}

// Data_Database 数据库配置，driver 支持 sqlite（默认，本地嵌入式）与 mysql
type Data_Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
	// AutoMigrate 启动时自动建表
	AutoMigrate bool `json:"auto_migrate"`
}

// Data_Redis Redis 配置（可选，未配置时关闭缓存与分布式锁）
type Data_Redis struct {
	Addr         string    `json:"addr"`
	Password     string    `json:"password"`
	Db           int32     `json:"db"`
	ReadTimeout  *Duration `json:"read_timeout"`
	WriteTimeout *Duration `json:"write_timeout"`
}

// Data_RocketMQ 抄表消息消费配置
type Data_RocketMQ struct {
	Enabled     bool     `json:"enabled"`
	NameServers []string `json:"name_servers"`
	GroupName   string   `json:"group_name"`
	Topic       string   `json:"topic"`
	RetryTimes  int32    `json:"retry_times"`
}

// Billing 计费业务配置
type Billing struct {
	DefaultOperator string        `json:"default_operator"`
	StatsCacheTTL   *Duration     `json:"stats_cache_ttl"`
	LockExpiry      *Duration     `json:"lock_expiry"`
	AutoGenerate    *AutoGenerate `json:"auto_generate"`
}

// AutoGenerate 定时批量生成账单配置
type AutoGenerate struct {
	Enabled       bool     `json:"enabled"`
	Cron          string   `json:"cron"`
	ChargeItemIDs []string `json:"charge_item_ids"`
}

// Log 日志配置（对应 go-pkg/logger.Config）
type Log struct {
	Level         string `json:"level"`
	Format        string `json:"format"`
	Output        string `json:"output"`
	FilePath      string `json:"file_path"`
	MaxSize       int    `json:"max_size"`
	MaxAge        int    `json:"max_age"`
	MaxBackups    int    `json:"max_backups"`
	Compress      bool   `json:"compress"`
	EnableConsole bool   `json:"enable_console"`
}

// Duration 支持 "1s"、"500ms" 形式的时长配置
type Duration struct {
	time.Duration
}

// NewDuration 构造 Duration
func NewDuration(d time.Duration) *Duration {
	return &Duration{Duration: d}
}

// AsDuration 返回 time.Duration，nil 时为 0
func (d *Duration) AsDuration() time.Duration {
	if d == nil {
		return 0
	}
	return d.Duration
}

// UnmarshalJSON 同时接受字符串时长与纳秒整数
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
	return nil
}

// MarshalJSON 输出字符串时长
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
