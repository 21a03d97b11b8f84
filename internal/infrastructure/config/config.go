package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Drive     DriveConfig     `mapstructure:"drive"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Roles     RolesConfig     `mapstructure:"roles"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DiscordConfig struct {
	Token         string `mapstructure:"token"`
	GuildID       string `mapstructure:"guild_id"`
	TaskChannelID string `mapstructure:"task_channel_id"`
	CommandPrefix string `mapstructure:"command_prefix"`
}

type DriveConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	RootFolderID    string `mapstructure:"root_folder_id"`
	AdminEmail      string `mapstructure:"admin_email"`
	QPS             int    `mapstructure:"qps"`
}

type UploadConfig struct {
	ScratchDir   string   `mapstructure:"scratch_dir"`
	MinPhotos    int      `mapstructure:"min_photos"`
	AllowedTypes []string `mapstructure:"allowed_types"`
	Timezone     string   `mapstructure:"timezone"`
}

type RolesConfig struct {
	TomorrowRole string `mapstructure:"tomorrow_role"`
	ActiveRole   string `mapstructure:"active_role"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type SchedulerConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	RosterSyncCron string `mapstructure:"roster_sync_cron"`
	RoleRotateCron string `mapstructure:"role_rotate_cron"`
}

type CacheConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"`
	Format    string `mapstructure:"format"`
	FilePath  string `mapstructure:"file_path"`
	AddSource bool   `mapstructure:"add_source"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("roadcrew")
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("discord.command_prefix", "!")

	viper.SetDefault("drive.qps", 10)

	viper.SetDefault("upload.scratch_dir", "temp")
	viper.SetDefault("upload.min_photos", 4)
	viper.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png"})
	viper.SetDefault("upload.timezone", "America/New_York")

	viper.SetDefault("roles.tomorrow_role", "Tomorrow")
	viper.SetDefault("roles.active_role", "RoadWarriors")

	viper.SetDefault("scheduler.enabled", true)
	// 7:00 PM and 7:00 AM organization time, expressed in server-local time.
	viper.SetDefault("scheduler.roster_sync_cron", "0 19 * * *")
	viper.SetDefault("scheduler.role_rotate_cron", "0 7 * * *")

	viper.SetDefault("cache.sweep_interval", "6h")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "console")
	viper.SetDefault("log.format", "text")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
