package infrastructure_test

import (
	"testing"

	"github.com/opendocket/docket/internal/config"
	"github.com/opendocket/docket/internal/infrastructure"
	"github.com/opendocket/docket/pkg/database"
	"github.com/opendocket/docket/pkg/storage"
)

// Azurite's development credentials; construction parses them without
// connecting.
const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=docketstore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/docketstore;"

func validConfig() *config.Config {
	return &config.Config{
		Version: "0.1.0",
		Database: database.Config{
			Name:            "docket",
			User:            "docket",
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "docket",
			ConnectionString: azuriteConnString,
		},
	}
}

func build(t *testing.T) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return infra
}

func TestNew(t *testing.T) {
	infra := build(t)

	if infra.Lifecycle == nil || infra.Logger == nil {
		t.Error("infrastructure missing its lifecycle or logger")
	}
	if infra.Database == nil || infra.Storage == nil {
		t.Error("infrastructure missing its database or storage")
	}
	if infra.Metrics == nil {
		t.Error("infrastructure missing its metrics manager")
	}
}

func TestNewDatabaseConnection(t *testing.T) {
	infra := build(t)

	conn := infra.Database.Connection()
	if conn == nil {
		t.Fatal("Connection() = nil")
	}
	conn.Close()
}

func TestNewInvalidStorageConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.ConnectionString = "not-a-connection-string"

	if _, err := infrastructure.New(cfg); err == nil {
		t.Fatal("New() accepted a malformed storage connection string")
	}
}

func TestScoped(t *testing.T) {
	infra := build(t)
	scoped := infra.Scoped("api")

	if scoped == infra {
		t.Fatal("Scoped() returned the shared instance, want a copy")
	}
	if scoped.Logger == infra.Logger {
		t.Error("Scoped() logger is not module tagged")
	}
	if scoped.Database != infra.Database || scoped.Storage != infra.Storage {
		t.Error("Scoped() must share the underlying subsystems")
	}
}
