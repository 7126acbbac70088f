package config

import (
	"github.com/IBM/sarama"
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"platform"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string `envconfig:"PLATFORM_ADDRESS" default:":3443"`
	MetricsAddress  string `envconfig:"PLATFORM_METRICS_ADDRESS" default:":8080"`
	BaseUrl         string `envconfig:"PLATFORM_BASE_URL" default:"https://localhost:3443"`
	LogLevel        string `envconfig:"PLATFORM_LOG_LEVEL" default:"info"`
	AdminOrg        string `envconfig:"PLATFORM_ADMIN_ORG" default:"synthetica"`
	MigrationFolder string `envconfig:"PLATFORM_MIGRATIONS_FOLDER" default:""`
	Kafka           kafkaConfig
	Auth            Auth
	Storage         storageConfig
	GCP             gcpConfig
	Pipeline        pipelineConfig
	GenAI           genAIConfig
}

type kafkaConfig struct {
	Brokers  []string            `envconfig:"PLATFORM_KAFKA_BROKERS" default:""`
	Topic    string              `envconfig:"PLATFORM_KAFKA_TOPIC" default:""`
	Version  sarama.KafkaVersion `envconfig:"PLATFORM_KAFKA_VERSION" default:""`
	ClientID string              `envconfig:"PLATFORM_KAFKA_CLIENT_ID" default:""`

	SaramaConfig *sarama.Config
}

type Auth struct {
	AuthenticationType string `envconfig:"PLATFORM_AUTH" default:""`
	JwkCertURL         string `envconfig:"PLATFORM_JWK_URL" default:""`
}

type storageConfig struct {
	Endpoint        string `envconfig:"PLATFORM_STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKey       string `envconfig:"PLATFORM_STORAGE_ACCESS_KEY" default:""`
	SecretAccessKey string `envconfig:"PLATFORM_STORAGE_SECRET_ACCESS_KEY" default:""`
	Region          string `envconfig:"PLATFORM_STORAGE_REGION" default:"us-east-1"`
	UseSSL          bool   `envconfig:"PLATFORM_STORAGE_USE_SSL" default:"false"`
}

type gcpConfig struct {
	ProjectID       string `envconfig:"PLATFORM_GCP_PROJECT" default:""`
	CredentialsFile string `envconfig:"PLATFORM_GCP_CREDENTIALS_FILE" default:""`
}

type pipelineConfig struct {
	BaseUrl      string `envconfig:"PLATFORM_PIPELINE_URL" default:"http://localhost:9443"`
	Token        string `envconfig:"PLATFORM_PIPELINE_TOKEN" default:""`
	PollInterval string `envconfig:"PLATFORM_PIPELINE_POLL_INTERVAL" default:"10s"`
}

type genAIConfig struct {
	BaseUrl string `envconfig:"PLATFORM_GENAI_URL" default:""`
	ApiKey  string `envconfig:"PLATFORM_GENAI_API_KEY" default:""`
	Model   string `envconfig:"PLATFORM_GENAI_MODEL" default:"gemini-1.5-flash"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a config suitable for tests: sqlite in-memory store and
// no external integrations.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type: "sqlite",
			Name: ":memory:",
		},
		Service: &svcConfig{
			Address:        ":3443",
			MetricsAddress: ":8080",
			LogLevel:       "debug",
			AdminOrg:       "synthetica",
		},
	}
}
