package domain

// DatabaseDriver represents the storage engine holding snapshots.
type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverMongoDB  DatabaseDriver = "mongodb"
)

// DatabaseConnection holds the metadata for opening the snapshot store.
// The password is resolved separately through the secret store.
type DatabaseConnection struct {
	Driver   DatabaseDriver `yaml:"driver" json:"driver"`
	URL      string         `yaml:"url" json:"url"`   // full DSN/URI; overrides the fields below
	Host     string         `yaml:"host" json:"host"` // hostname, or file path for sqlite
	Port     int            `yaml:"port" json:"port"`
	Database string         `yaml:"database" json:"database"`
	Username string         `yaml:"username" json:"username"`
	SSLMode  string         `yaml:"ssl_mode" json:"sslMode"`
}
